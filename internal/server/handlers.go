package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AlanSteinbarth/Kalkulator-dla-biegaczy/internal/logger"
	"github.com/AlanSteinbarth/Kalkulator-dla-biegaczy/internal/version"
	"github.com/AlanSteinbarth/Kalkulator-dla-biegaczy/pkg/extractor"
	"github.com/AlanSteinbarth/Kalkulator-dla-biegaczy/pkg/kalkulator"
	"github.com/AlanSteinbarth/Kalkulator-dla-biegaczy/pkg/predict"
	"github.com/AlanSteinbarth/Kalkulator-dla-biegaczy/pkg/profile"
	"github.com/AlanSteinbarth/Kalkulator-dla-biegaczy/pkg/reference"
)

// Error codes returned in ErrorResponse.Code.
const (
	CodeBadRequest       = "bad_request"
	CodeEmptyInput       = "empty_input"
	CodeInputTooLarge    = "input_too_large"
	CodeNotExtracted     = "not_extracted"
	CodeInvalidProfile   = "invalid_profile"
	CodeUnavailable      = "unavailable"
	CodeExtractionFailed = "extraction_failed"
	CodePredictionFailed = "prediction_failed"
)

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Error  string   `json:"error"`
	Code   string   `json:"code"`
	Errors []string `json:"errors,omitempty"`
}

// TextRequest carries free text.
type TextRequest struct {
	Text string `json:"text"`
}

// ExtractResponse is the body of a successful extraction.
type ExtractResponse struct {
	Source     string          `json:"source"`
	Profile    profile.Profile `json:"profile"`
	Model      string          `json:"model,omitempty"`
	DurationMS int64           `json:"duration_ms"`
}

// PredictRequest carries either free text or a profile record.
type PredictRequest struct {
	Text    string         `json:"text,omitempty"`
	Profile profile.Record `json:"profile,omitempty"`
}

// PredictResponse is the body of a successful prediction.
type PredictResponse struct {
	Source     string                `json:"source"`
	Profile    profile.Profile       `json:"profile"`
	Prediction *predict.Prediction   `json:"prediction"`
	Comparison *reference.Comparison `json:"comparison,omitempty"`
}

// CompareRequest carries a profile and a finish time in seconds.
type CompareRequest struct {
	Profile profile.Record `json:"profile"`
	Seconds float64        `json:"seconds"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"version":   version.String(),
		"extractor": s.calc.Extractor(),
		"provider":  s.calc.Provider(),
		"predictor": s.calc.CanPredict(),
	})
}

func (s *Server) model(c *gin.Context) {
	c.JSON(http.StatusOK, s.calc.ModelInfo())
}

func (s *Server) extract(c *gin.Context) {
	var req TextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	res, err := s.calc.Extract(c.Request.Context(), req.Text)
	if err != nil {
		extractionError(c, err)
		return
	}

	c.JSON(http.StatusOK, ExtractResponse{
		Source:     res.Source,
		Profile:    res.Profile,
		Model:      res.Model,
		DurationMS: res.Duration.Milliseconds(),
	})
}

// validate always answers 200; the verdict is in the body.
func (s *Server) validate(c *gin.Context) {
	var rec profile.Record
	if err := c.ShouldBindJSON(&rec); err != nil {
		badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, s.calc.Validate(rec))
}

func (s *Server) predict(c *gin.Context) {
	var req PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	var (
		p      profile.Profile
		source string
	)
	switch {
	case req.Profile != nil:
		var res profile.Result
		p, res = s.calc.FromRecord(req.Profile)
		if !res.Valid {
			invalidProfile(c, res.Errors)
			return
		}
		source = "form"
	default:
		extracted, err := s.calc.Extract(c.Request.Context(), req.Text)
		if err != nil {
			extractionError(c, err)
			return
		}
		p, source = extracted.Profile, extracted.Source
	}

	est, err := s.calc.Estimate(c.Request.Context(), p)
	if err != nil {
		predictionError(c, err)
		return
	}

	c.JSON(http.StatusOK, PredictResponse{
		Source:     source,
		Profile:    est.Profile,
		Prediction: est.Prediction,
		Comparison: est.Comparison,
	})
}

func (s *Server) compare(c *gin.Context) {
	var req CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Seconds <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "seconds must be positive", Code: CodeBadRequest})
		return
	}

	p, res := s.calc.FromRecord(req.Profile)
	if !res.Valid {
		invalidProfile(c, res.Errors)
		return
	}

	cmp, err := s.calc.Compare(c.Request.Context(), p, req.Seconds)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, kalkulator.ErrNoReference) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, ErrorResponse{Error: err.Error(), Code: CodeUnavailable})
		return
	}
	c.JSON(http.StatusOK, cmp)
}

func badRequest(c *gin.Context, err error) {
	status := http.StatusBadRequest
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		status = http.StatusRequestEntityTooLarge
	}
	c.JSON(status, ErrorResponse{Error: err.Error(), Code: CodeBadRequest})
}

func invalidProfile(c *gin.Context, problems []string) {
	c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
		Error:  "invalid profile",
		Code:   CodeInvalidProfile,
		Errors: problems,
	})
}

func extractionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, extractor.ErrEmptyInput):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: CodeEmptyInput})
	case errors.Is(err, kalkulator.ErrInputTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: err.Error(), Code: CodeInputTooLarge})
	case extractor.Problems(err) != nil:
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:  err.Error(),
			Code:   CodeInvalidProfile,
			Errors: extractor.Problems(err),
		})
	case errors.Is(err, extractor.ErrNotExtracted):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Code: CodeNotExtracted})
	default:
		logger.ErrorContext(c.Request.Context(), "extraction failed", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error(), Code: CodeExtractionFailed})
	}
}

func predictionError(c *gin.Context, err error) {
	if errors.Is(err, predict.ErrUnavailable) {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: err.Error(), Code: CodeUnavailable})
		return
	}
	logger.ErrorContext(c.Request.Context(), "prediction failed", "error", err)
	c.JSON(http.StatusBadGateway, ErrorResponse{Error: err.Error(), Code: CodePredictionFailed})
}
