package kalkulator

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dustin/go-humanize"

	"github.com/AlanSteinbarth/Kalkulator-dla-biegaczy/internal/logger"
	"github.com/AlanSteinbarth/Kalkulator-dla-biegaczy/internal/version"
	"github.com/AlanSteinbarth/Kalkulator-dla-biegaczy/pkg/extractor"
	"github.com/AlanSteinbarth/Kalkulator-dla-biegaczy/pkg/llm"
	"github.com/AlanSteinbarth/Kalkulator-dla-biegaczy/pkg/predict"
	"github.com/AlanSteinbarth/Kalkulator-dla-biegaczy/pkg/profile"
	"github.com/AlanSteinbarth/Kalkulator-dla-biegaczy/pkg/reference"
)

var (
	// ErrInputTooLarge is returned for text above the configured size limit.
	ErrInputTooLarge = errors.New("input too large")

	// ErrNoReference means no reference dataset is configured.
	ErrNoReference = errors.New("no reference data configured")
)

// Estimate is a prediction for one profile, with the comparison against
// past finishers when reference data is available.
type Estimate struct {
	Profile    profile.Profile       `json:"profile" yaml:"profile"`
	Prediction *predict.Prediction   `json:"prediction" yaml:"prediction"`
	Comparison *reference.Comparison `json:"comparison,omitempty" yaml:"comparison,omitempty"`
}

// BatchResult is one item of ExtractMany.
type BatchResult struct {
	Index  int
	Input  string
	Result *extractor.Result
	Err    error
}

// Calculator is the main entry point: extraction, validation and
// prediction behind one configured value.
type Calculator struct {
	extractor *extractor.FallbackExtractor
	predictor predict.Predictor
	reference reference.Loader
	provider  string
	config    Config
}

// New creates a Calculator. Injected collaborators take precedence;
// otherwise they are built from the settings.
func New(opts ...Option) (*Calculator, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	completer := cfg.Completer
	if completer == nil && cfg.Provider != "" && cfg.Provider != "none" {
		pcfg := llm.DefaultProviderConfig()
		pcfg.APIKey = cfg.APIKey
		pcfg.BaseURL = cfg.BaseURL
		pcfg.Model = cfg.Model
		pcfg.APIVersion = cfg.APIVersion
		pcfg.HTTPReferer = version.Homepage
		pcfg.AppTitle = version.Name
		if cfg.Timeout > 0 {
			pcfg.Timeout = cfg.Timeout
		}
		p, err := llm.NewProvider(cfg.Provider, pcfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create provider: %w", err)
		}
		completer = p
	}

	provider := ""
	if p, ok := completer.(llm.Provider); ok {
		provider = p.Name()
	} else if completer != nil {
		provider = "custom"
	}

	ext, err := extractor.New(extractor.Config{
		Completer:  completer,
		Bounds:     cfg.Bounds,
		LLMOptions: cfg.llmOptions(),
		Observer:   cfg.AttemptObserver,
	})
	if err != nil {
		return nil, fmt.Errorf("invalid bounds: %w", err)
	}

	predictor := cfg.Predictor
	if predictor == nil && cfg.ModelEndpoint != "" {
		predictor = predict.NewCached(
			predict.NewHTTP(cfg.ModelEndpoint,
				predict.WithModelName(cfg.ModelName),
				predict.WithTimeout(cfg.ModelTimeout)),
			cfg.CacheTTL,
		)
	}

	ref := cfg.Reference
	if ref == nil && cfg.ReferencePath != "" {
		ref = reference.NewFileSource(cfg.ReferencePath, cfg.CacheTTL)
	}

	logger.Debug("calculator ready",
		"extractor", ext.Name(),
		"provider", provider,
		"predictor", predictor != nil,
		"reference", ref != nil)

	return &Calculator{
		extractor: ext,
		predictor: predictor,
		reference: ref,
		provider:  provider,
		config:    cfg,
	}, nil
}

// Extract reads a validated profile from free text.
func (c *Calculator) Extract(ctx context.Context, text string) (*extractor.Result, error) {
	if limit := c.config.MaxInputSize; limit > 0 && len(text) > limit {
		return nil, fmt.Errorf("%w: %s exceeds %s", ErrInputTooLarge,
			humanize.IBytes(uint64(len(text))), humanize.IBytes(uint64(limit)))
	}
	return c.extractor.Extract(ctx, text)
}

// ExtractMany extracts profiles from several texts concurrently. Results
// arrive in completion order; Index refers to the position in texts.
func (c *Calculator) ExtractMany(ctx context.Context, texts []string, concurrency int) <-chan *BatchResult {
	if concurrency < 1 {
		concurrency = 1
	}

	results := make(chan *BatchResult, len(texts))
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for i, text := range texts {
		wg.Add(1)
		go func(i int, t string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			res, err := c.Extract(ctx, t)
			results <- &BatchResult{Index: i, Input: t, Result: res, Err: err}
		}(i, text)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

// Validate checks a loosely typed record against the configured bounds.
func (c *Calculator) Validate(rec profile.Record) profile.Result {
	return profile.Validate(rec, c.config.Bounds)
}

// FromRecord validates rec and converts it when valid.
func (c *Calculator) FromRecord(rec profile.Record) (profile.Profile, profile.Result) {
	return profile.FromRecord(rec, c.config.Bounds)
}

// Predict returns the predicted finish time for p.
func (c *Calculator) Predict(ctx context.Context, p profile.Profile) (*predict.Prediction, error) {
	if c.predictor == nil {
		return nil, fmt.Errorf("%w: no model endpoint configured", predict.ErrUnavailable)
	}
	return c.predictor.Predict(ctx, p)
}

// Compare places a predicted time among past finishers of the same gender
// and similar age.
func (c *Calculator) Compare(ctx context.Context, p profile.Profile, predictedSeconds float64) (*reference.Comparison, error) {
	if c.reference == nil {
		return nil, ErrNoReference
	}
	ds, err := c.reference.Dataset(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load reference data: %w", err)
	}
	cmp := ds.Compare(p, predictedSeconds, reference.DefaultBins)
	return &cmp, nil
}

// Estimate predicts the finish time for p and, when reference data is
// configured, compares it. A comparison failure is logged and leaves
// Comparison empty; a prediction failure is returned.
func (c *Calculator) Estimate(ctx context.Context, p profile.Profile) (*Estimate, error) {
	pred, err := c.Predict(ctx, p)
	if err != nil {
		return nil, err
	}

	est := &Estimate{Profile: p, Prediction: pred}
	if c.reference == nil {
		return est, nil
	}
	cmp, err := c.Compare(ctx, p, pred.Seconds)
	if err != nil {
		logger.WarnContext(ctx, "comparison skipped", "error", err)
		return est, nil
	}
	est.Comparison = cmp
	return est, nil
}

// ModelInfo describes the prediction model.
func (c *Calculator) ModelInfo() predict.ModelInfo {
	info := predict.DefaultModelInfo()
	if c.config.ModelName != "" {
		info.Name = c.config.ModelName
	}
	return info
}

// Provider returns the LLM provider name, or "" when extraction runs on
// patterns alone.
func (c *Calculator) Provider() string {
	return c.provider
}

// Extractor returns the name of the extraction chain.
func (c *Calculator) Extractor() string {
	return c.extractor.Name()
}

// CanPredict reports whether a predictor is configured.
func (c *Calculator) CanPredict() bool {
	return c.predictor != nil
}

// Bounds returns the validation bounds in use.
func (c *Calculator) Bounds() profile.Bounds {
	return c.config.Bounds
}
