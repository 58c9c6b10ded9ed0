package extractor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/AlanSteinbarth/Kalkulator-dla-biegaczy/internal/logger"
	"github.com/AlanSteinbarth/Kalkulator-dla-biegaczy/pkg/profile"
)

// RegexExtractor resolves a profile with the ordered rule tables. It has
// no external dependencies and is always available.
type RegexExtractor struct {
	bounds profile.Bounds
}

// NewRegex creates a pattern extractor validating against b.
func NewRegex(b profile.Bounds) *RegexExtractor {
	return &RegexExtractor{bounds: b}
}

// Name returns the extractor name.
func (e *RegexExtractor) Name() string {
	return "regex"
}

// Available always returns true.
func (e *RegexExtractor) Available() bool {
	return true
}

// Resolve applies the rules and returns whatever fields were found, plus
// the names of those that were not.
func (e *RegexExtractor) Resolve(text string) (profile.Record, []string) {
	lower := strings.ToLower(text)
	rec := profile.Record{}
	var missing []string

	if age, ok := ResolveAge(lower); ok {
		rec[profile.KeyAge] = age
	} else {
		missing = append(missing, profile.KeyAge)
	}
	if g, ok := ResolveGender(lower); ok {
		rec[profile.KeyGender] = string(g)
	} else {
		missing = append(missing, profile.KeyGender)
	}
	if p, ok := ResolvePace(lower); ok {
		rec[profile.KeyPace] = p
	} else {
		missing = append(missing, profile.KeyPace)
	}
	return rec, missing
}

// Extract resolves all three fields and validates them. A partial match is
// a failure; so is a complete match that fails validation.
func (e *RegexExtractor) Extract(ctx context.Context, text string) (*Result, error) {
	if isBlank(text) {
		return nil, ErrEmptyInput
	}
	start := time.Now()

	rec, missing := e.Resolve(text)
	if len(missing) > 0 {
		logger.Debug("regex extractor incomplete match", "missing", missing)
		return nil, fmt.Errorf("%w: no match for %s", ErrNotExtracted, strings.Join(missing, ", "))
	}

	p, res := profile.FromRecord(rec, e.bounds)
	if !res.Valid {
		return nil, &InvalidProfileError{Source: e.Name(), Errors: res.Errors}
	}

	return &Result{Profile: p, Source: e.Name(), Duration: time.Since(start)}, nil
}
