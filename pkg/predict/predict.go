// Package predict estimates half-marathon finish times from a runner
// profile.
//
// The regression model itself runs elsewhere. A Predictor turns a profile
// into the model's feature row and returns the predicted time in seconds.
package predict

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/AlanSteinbarth/Kalkulator-dla-biegaczy/pkg/pace"
	"github.com/AlanSteinbarth/Kalkulator-dla-biegaczy/pkg/profile"
)

// DefaultModelName identifies the trained half-marathon model.
const DefaultModelName = "huber_model_halfmarathon_time"

// Feature column names, as the model was trained on them.
const (
	FeatureTime5K = "5 km Czas"
	LabelColumn   = "prediction_label"
)

var (
	// ErrUnavailable means no prediction service is configured or it could
	// not be reached.
	ErrUnavailable = errors.New("prediction service unavailable")

	// ErrBadPrediction means the service answered with a value that is not
	// a usable finish time.
	ErrBadPrediction = errors.New("invalid prediction")
)

// Features is the model's input row.
type Features struct {
	Age    int     `json:"Wiek"`
	Gender string  `json:"Płeć"`
	Pace   float64 `json:"5 km Tempo"`
	Time5K float64 `json:"5 km Czas"`
}

// FeaturesFor builds the feature row for p. The 5 km time is derived from
// the pace, so p must already be valid.
func FeaturesFor(p profile.Profile) (Features, error) {
	secs, err := pace.TotalSeconds(p.Pace)
	if err != nil {
		return Features{}, err
	}
	return Features{
		Age:    p.Age,
		Gender: string(p.Gender),
		Pace:   p.Pace,
		Time5K: secs,
	}, nil
}

// Prediction is a predicted half-marathon finish time.
type Prediction struct {
	// Seconds is the predicted time, rounded to two decimals.
	Seconds float64 `json:"seconds" yaml:"seconds"`

	// Formatted is Seconds as H:MM:SS.
	Formatted string `json:"formatted" yaml:"formatted"`

	// Model names the model that produced the value.
	Model string `json:"model" yaml:"model"`
}

// Minutes returns the prediction in minutes.
func (p Prediction) Minutes() float64 {
	return p.Seconds / 60
}

// NewPrediction rounds seconds and fills in the display form. It rejects
// values that cannot be a finish time.
func NewPrediction(seconds float64, model string) (*Prediction, error) {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds <= 0 {
		return nil, fmt.Errorf("%w: %v seconds", ErrBadPrediction, seconds)
	}
	rounded := math.Round(seconds*100) / 100
	return &Prediction{
		Seconds:   rounded,
		Formatted: pace.FormatDuration(rounded),
		Model:     model,
	}, nil
}

// Predictor predicts finish times.
type Predictor interface {
	Predict(ctx context.Context, p profile.Profile) (*Prediction, error)

	// Name identifies the predictor in logs.
	Name() string
}

// ModelInfo describes the trained model for display.
type ModelInfo struct {
	Name      string  `json:"name" yaml:"name"`
	Algorithm string  `json:"algorithm" yaml:"algorithm"`
	R2        float64 `json:"r2" yaml:"r2"`
	MAE       float64 `json:"mae_minutes" yaml:"mae_minutes"`
	Samples   int     `json:"samples" yaml:"samples"`
}

// DefaultModelInfo returns the evaluation figures of the bundled model.
func DefaultModelInfo() ModelInfo {
	return ModelInfo{
		Name:      DefaultModelName,
		Algorithm: "Huber Regression",
		R2:        0.85,
		MAE:       12.3,
		Samples:   1247,
	}
}
