package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/AlanSteinbarth/Kalkulator-dla-biegaczy/internal/logger"
	"github.com/AlanSteinbarth/Kalkulator-dla-biegaczy/internal/version"
	"github.com/AlanSteinbarth/Kalkulator-dla-biegaczy/pkg/profile"
)

// HTTPError is a non-2xx answer from the prediction service.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("prediction service returned HTTP %d: %s", e.StatusCode, e.Body)
}

// HTTPPredictor calls a model-serving endpoint over JSON.
//
// The request body is {"model": name, "data": [features]} and the answer
// must carry the predicted seconds in "prediction_label", either at the top
// level or in the first element of "predictions".
type HTTPPredictor struct {
	endpoint string
	model    string
	client   *http.Client
}

// HTTPOption configures an HTTPPredictor.
type HTTPOption func(*HTTPPredictor)

// WithModelName sets the model identifier sent to the service.
func WithModelName(name string) HTTPOption {
	return func(p *HTTPPredictor) {
		if name != "" {
			p.model = name
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(p *HTTPPredictor) { p.client = c }
}

// WithTimeout sets the client timeout.
func WithTimeout(d time.Duration) HTTPOption {
	return func(p *HTTPPredictor) { p.client = &http.Client{Timeout: d} }
}

// NewHTTP creates a predictor for endpoint. An empty endpoint is allowed;
// every Predict then fails with ErrUnavailable.
func NewHTTP(endpoint string, opts ...HTTPOption) *HTTPPredictor {
	p := &HTTPPredictor{
		endpoint: strings.TrimSpace(endpoint),
		model:    DefaultModelName,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type predictRequest struct {
	Model string     `json:"model"`
	Data  []Features `json:"data"`
}

type predictRow struct {
	Label *float64 `json:"prediction_label"`
}

type predictResponse struct {
	Label       *float64     `json:"prediction_label"`
	Predictions []predictRow `json:"predictions"`
	Model       string       `json:"model"`
}

// Name returns "http".
func (p *HTTPPredictor) Name() string {
	return "http"
}

// Available reports whether an endpoint is configured.
func (p *HTTPPredictor) Available() bool {
	return p.endpoint != ""
}

// Predict sends the feature row for prof and returns the predicted time.
func (p *HTTPPredictor) Predict(ctx context.Context, prof profile.Profile) (*Prediction, error) {
	if !p.Available() {
		return nil, fmt.Errorf("%w: no endpoint configured", ErrUnavailable)
	}

	features, err := FeaturesFor(prof)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(predictRequest{Model: p.model, Data: []Features{features}})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	requestID := uuid.NewString()
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", version.UserAgent())
	httpReq.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := p.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	var pr predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", ErrBadPrediction, err)
	}

	label := pr.Label
	if label == nil && len(pr.Predictions) > 0 {
		label = pr.Predictions[0].Label
	}
	if label == nil {
		return nil, fmt.Errorf("%w: response has no %s", ErrBadPrediction, LabelColumn)
	}

	model := pr.Model
	if model == "" {
		model = p.model
	}

	logger.Debug("prediction received",
		"request_id", requestID,
		"model", model,
		"seconds", *label,
		"duration", time.Since(start))

	return NewPrediction(*label, model)
}
