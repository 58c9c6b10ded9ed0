// Package extractor turns free-form runner descriptions into validated
// profiles.
//
// Extraction runs as an ordered chain: a text-understanding service is
// asked first and a deterministic pattern resolver is always available as
// the last link. Expected failures (empty input, a service outage, nothing
// recognisable in the text) are returned as typed errors, never panics.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/AlanSteinbarth/Kalkulator-dla-biegaczy/pkg/profile"
)

// Extractor extracts a runner profile from text.
type Extractor interface {
	// Extract reads a profile from text. The returned profile has already
	// passed validation.
	Extract(ctx context.Context, text string) (*Result, error)

	// Name returns the extractor identifier.
	Name() string

	// Available returns true if the extractor is properly configured
	// (e.g., has a service client).
	Available() bool
}

// Result holds the extraction output.
type Result struct {
	// Profile is the validated profile.
	Profile profile.Profile

	// Source names the extractor that produced the profile.
	Source string

	// Raw is the raw service response, empty for pattern extraction.
	Raw string

	// Model is the model that produced Raw.
	Model string

	// Usage tracks token consumption for service-backed extractors.
	Usage Usage

	// Duration is the time spent extracting.
	Duration time.Duration
}

// Usage tracks token consumption.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

var (
	// ErrEmptyInput is returned for empty or whitespace-only text. No
	// service is called.
	ErrEmptyInput = errors.New("empty input")

	// ErrNotExtracted means the text did not contain a recognisable profile.
	ErrNotExtracted = errors.New("could not extract runner data")

	// ErrMalformedResponse means the service answered with something that is
	// not a JSON object.
	ErrMalformedResponse = errors.New("malformed service response")

	// ErrRateLimited means the local call budget for the service is spent.
	ErrRateLimited = errors.New("service call budget exhausted")

	// ErrNoExtractorAvailable is returned when no extractor in a chain is available.
	ErrNoExtractorAvailable = errors.New("no extractor available")
)

// InvalidProfileError reports a record that was found but failed
// validation.
type InvalidProfileError struct {
	Source string
	Errors []string
}

func (e *InvalidProfileError) Error() string {
	return fmt.Sprintf("%s produced an invalid profile: %s", e.Source, strings.Join(e.Errors, "; "))
}

// Problems returns the validation messages carried by err, if any.
func Problems(err error) []string {
	var invalid *InvalidProfileError
	if errors.As(err, &invalid) {
		return invalid.Errors
	}
	return nil
}

// isBlank reports whether text has no visible content.
func isBlank(text string) bool {
	return strings.TrimSpace(text) == ""
}
