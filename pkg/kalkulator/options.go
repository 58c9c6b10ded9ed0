// Package kalkulator is the public API of the half-marathon calculator:
// it reads a runner profile from free text or a form, predicts the finish
// time and compares it with past finishers.
package kalkulator

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/AlanSteinbarth/Kalkulator-dla-biegaczy/pkg/extractor"
	"github.com/AlanSteinbarth/Kalkulator-dla-biegaczy/pkg/llm"
	"github.com/AlanSteinbarth/Kalkulator-dla-biegaczy/pkg/predict"
	"github.com/AlanSteinbarth/Kalkulator-dla-biegaczy/pkg/profile"
	"github.com/AlanSteinbarth/Kalkulator-dla-biegaczy/pkg/reference"
)

// Config holds all calculator configuration.
type Config struct {
	// LLM settings. An empty Provider runs on pattern matching alone.
	Provider         string
	Model            string
	APIKey           string
	BaseURL          string
	APIVersion       string
	Timeout          time.Duration
	MaxTokens        int
	RateLimit        float64
	StructuredOutput bool

	// Input and validation
	MaxInputSize int
	Bounds       profile.Bounds

	// Prediction
	ModelEndpoint string
	ModelName     string
	ModelTimeout  time.Duration

	// Reference data
	ReferencePath string
	CacheTTL      time.Duration

	// Injected collaborators override the settings above.
	Completer       llm.Completer
	Predictor       predict.Predictor
	Reference       reference.Loader
	LLMObserver     llm.LLMObserver
	AttemptObserver extractor.AttemptObserver
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:      15 * time.Second,
		MaxTokens:    200,
		MaxInputSize: 4096,
		Bounds:       profile.DefaultBounds(),
		ModelName:    predict.DefaultModelName,
		ModelTimeout: 10 * time.Second,
		CacheTTL:     time.Hour,
	}
}

// Option configures a Calculator.
type Option func(*Config)

// WithProvider sets the LLM provider.
func WithProvider(provider string) Option {
	return func(c *Config) {
		c.Provider = provider
	}
}

// WithModel sets the LLM model.
func WithModel(model string) Option {
	return func(c *Config) {
		c.Model = model
	}
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) Option {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithBaseURL sets a custom API base URL.
func WithBaseURL(url string) Option {
	return func(c *Config) {
		c.BaseURL = url
	}
}

// WithAPIVersion sets the API version (Azure only).
func WithAPIVersion(v string) Option {
	return func(c *Config) {
		c.APIVersion = v
	}
}

// WithTimeout sets the LLM call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.Timeout = d
	}
}

// WithMaxTokens bounds the LLM response.
func WithMaxTokens(n int) Option {
	return func(c *Config) {
		c.MaxTokens = n
	}
}

// WithRateLimit caps LLM calls per second. Zero means unlimited.
func WithRateLimit(perSecond float64) Option {
	return func(c *Config) {
		c.RateLimit = perSecond
	}
}

// WithStructuredOutput asks the provider for schema-constrained answers.
func WithStructuredOutput(enabled bool) Option {
	return func(c *Config) {
		c.StructuredOutput = enabled
	}
}

// WithMaxInputSize bounds free-text input in bytes. Zero means unlimited.
func WithMaxInputSize(n int) Option {
	return func(c *Config) {
		c.MaxInputSize = n
	}
}

// WithBounds sets the validation bounds.
func WithBounds(b profile.Bounds) Option {
	return func(c *Config) {
		c.Bounds = b
	}
}

// WithModelEndpoint sets the prediction service URL.
func WithModelEndpoint(url string) Option {
	return func(c *Config) {
		c.ModelEndpoint = url
	}
}

// WithModelName sets the model identifier sent to the prediction service.
func WithModelName(name string) Option {
	return func(c *Config) {
		c.ModelName = name
	}
}

// WithModelTimeout bounds each call to the prediction service.
func WithModelTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.ModelTimeout = d
	}
}

// WithReferencePath sets the reference CSV location.
func WithReferencePath(path string) Option {
	return func(c *Config) {
		c.ReferencePath = path
	}
}

// WithCacheTTL sets how long reference data and predictions are kept.
func WithCacheTTL(d time.Duration) Option {
	return func(c *Config) {
		c.CacheTTL = d
	}
}

// WithCompleter injects the LLM client.
func WithCompleter(cmp llm.Completer) Option {
	return func(c *Config) {
		c.Completer = cmp
	}
}

// WithPredictor injects the predictor.
func WithPredictor(p predict.Predictor) Option {
	return func(c *Config) {
		c.Predictor = p
	}
}

// WithReference injects the reference data loader.
func WithReference(l reference.Loader) Option {
	return func(c *Config) {
		c.Reference = l
	}
}

// WithLLMObserver receives every LLM call.
func WithLLMObserver(obs llm.LLMObserver) Option {
	return func(c *Config) {
		c.LLMObserver = obs
	}
}

// WithAttemptObserver receives every extraction attempt.
func WithAttemptObserver(obs extractor.AttemptObserver) Option {
	return func(c *Config) {
		c.AttemptObserver = obs
	}
}

func (c Config) llmOptions() []extractor.Option {
	opts := []extractor.Option{
		extractor.WithTimeout(c.Timeout),
		extractor.WithMaxTokens(c.MaxTokens),
		extractor.WithMaxInputSize(c.MaxInputSize),
		extractor.WithStructuredOutput(c.StructuredOutput),
	}
	if c.RateLimit > 0 {
		burst := int(c.RateLimit)
		if burst < 1 {
			burst = 1
		}
		opts = append(opts, extractor.WithRateLimit(rate.Limit(c.RateLimit), burst))
	}
	if c.LLMObserver != nil {
		opts = append(opts, extractor.WithObserver(c.LLMObserver))
	}
	return opts
}
