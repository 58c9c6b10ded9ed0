package extractor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/AlanSteinbarth/Kalkulator-dla-biegaczy/internal/logger"
)

// Outcome tags how one extractor in a chain ended. It is reported to
// observers and logs only.
type Outcome string

const (
	OutcomeSuccess       Outcome = "success"
	OutcomeInvalidOutput Outcome = "invalid_output"
	OutcomeNoMatch       Outcome = "no_match"
	OutcomeError         Outcome = "error"
	OutcomeEmptyInput    Outcome = "empty_input"
)

// Attempt describes one extractor's turn in a chain.
type Attempt struct {
	Extractor string
	Outcome   Outcome
	// Problems holds validation messages for OutcomeInvalidOutput.
	Problems []string
	Err      error
	Duration time.Duration
}

// AttemptObserver receives every attempt made by a FallbackExtractor.
type AttemptObserver interface {
	OnAttempt(ctx context.Context, a Attempt)
}

// AttemptObserverFunc adapts a function to AttemptObserver.
type AttemptObserverFunc func(ctx context.Context, a Attempt)

// OnAttempt implements AttemptObserver.
func (f AttemptObserverFunc) OnAttempt(ctx context.Context, a Attempt) {
	f(ctx, a)
}

// FallbackExtractor tries each extractor in order until one succeeds.
type FallbackExtractor struct {
	extractors []Extractor
	observer   AttemptObserver
}

// NewFallback creates a fallback chain from the given extractors.
// Extractors are tried in order. Only available extractors are used.
func NewFallback(extractors ...Extractor) *FallbackExtractor {
	return &FallbackExtractor{
		extractors: extractors,
	}
}

// WithAttemptObserver sets the observer and returns f.
func (f *FallbackExtractor) WithAttemptObserver(obs AttemptObserver) *FallbackExtractor {
	f.observer = obs
	return f
}

// Extract tries each extractor in order until one succeeds. Empty text
// fails before any extractor runs. When every extractor fails, the last
// error is wrapped, so errors.Is and errors.As see the final verdict.
func (f *FallbackExtractor) Extract(ctx context.Context, text string) (*Result, error) {
	if isBlank(text) {
		f.report(ctx, Attempt{Extractor: f.Name(), Outcome: OutcomeEmptyInput, Err: ErrEmptyInput})
		logger.Warn("extraction skipped", "reason", "empty input")
		return nil, ErrEmptyInput
	}

	var lastErr error
	var tried []string

	for _, ext := range f.extractors {
		if !ext.Available() {
			logger.Debug("extractor unavailable, skipping", "extractor", ext.Name())
			continue
		}

		tried = append(tried, ext.Name())
		start := time.Now()
		result, err := ext.Extract(ctx, text)
		attempt := Attempt{
			Extractor: ext.Name(),
			Outcome:   classify(err),
			Problems:  Problems(err),
			Err:       err,
			Duration:  time.Since(start),
		}
		f.report(ctx, attempt)
		logAttempt(attempt)

		if err == nil {
			return result, nil
		}
		lastErr = err
	}

	if len(tried) == 0 {
		return nil, ErrNoExtractorAvailable
	}

	logger.Error("extraction failed", "tried", strings.Join(tried, ","), "error", lastErr)
	return nil, fmt.Errorf("all extractors failed (tried: %s): %w", strings.Join(tried, ", "), lastErr)
}

func (f *FallbackExtractor) report(ctx context.Context, a Attempt) {
	if f.observer != nil {
		f.observer.OnAttempt(ctx, a)
	}
}

func classify(err error) Outcome {
	var invalid *InvalidProfileError
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, ErrEmptyInput):
		return OutcomeEmptyInput
	case errors.As(err, &invalid), errors.Is(err, ErrMalformedResponse):
		return OutcomeInvalidOutput
	case errors.Is(err, ErrNotExtracted):
		return OutcomeNoMatch
	default:
		return OutcomeError
	}
}

func logAttempt(a Attempt) {
	args := []any{
		"extractor", a.Extractor,
		"outcome", a.Outcome,
		"duration", a.Duration,
	}
	switch a.Outcome {
	case OutcomeSuccess:
		logger.Info("extraction attempt succeeded", args...)
	case OutcomeInvalidOutput:
		if len(a.Problems) > 0 {
			args = append(args, "problems", a.Problems)
		}
		logger.Warn("extraction attempt rejected", append(args, "error", a.Err)...)
	default:
		logger.Warn("extraction attempt failed", append(args, "error", a.Err)...)
	}
}

// Name returns the fallback chain name.
func (f *FallbackExtractor) Name() string {
	var names []string
	for _, ext := range f.extractors {
		names = append(names, ext.Name())
	}
	return "fallback(" + strings.Join(names, "->") + ")"
}

// Available returns true if at least one extractor is available.
func (f *FallbackExtractor) Available() bool {
	for _, ext := range f.extractors {
		if ext.Available() {
			return true
		}
	}
	return false
}

// First returns the first available extractor, or nil if none available.
func (f *FallbackExtractor) First() Extractor {
	for _, ext := range f.extractors {
		if ext.Available() {
			return ext
		}
	}
	return nil
}
