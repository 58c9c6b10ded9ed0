package extractor

import (
	"github.com/AlanSteinbarth/Kalkulator-dla-biegaczy/pkg/llm"
	"github.com/AlanSteinbarth/Kalkulator-dla-biegaczy/pkg/profile"
)

// Config describes the standard service-then-patterns chain.
type Config struct {
	// Completer is the text-understanding service. Nil means every request
	// goes straight to the pattern resolver.
	Completer llm.Completer

	// Bounds are shared by both extractors.
	Bounds profile.Bounds

	// LLMOptions tune the service extractor.
	LLMOptions []Option

	// Observer receives every attempt.
	Observer AttemptObserver
}

// New builds the standard chain. It fails only on invalid bounds.
func New(cfg Config) (*FallbackExtractor, error) {
	if err := profile.ValidateBounds(cfg.Bounds); err != nil {
		return nil, err
	}

	opts := append([]Option{WithBounds(cfg.Bounds)}, cfg.LLMOptions...)
	chain := NewFallback(
		NewLLM(cfg.Completer, opts...),
		NewRegex(cfg.Bounds),
	)
	return chain.WithAttemptObserver(cfg.Observer), nil
}
