package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/AlanSteinbarth/Kalkulator-dla-biegaczy/internal/logger"
	"github.com/AlanSteinbarth/Kalkulator-dla-biegaczy/pkg/llm"
	"github.com/AlanSteinbarth/Kalkulator-dla-biegaczy/pkg/profile"
)

// LLMExtractor asks a text-understanding service for the profile.
// It makes exactly one call per Extract.
type LLMExtractor struct {
	completer llm.Completer
	name      string
	model     string
	config    LLMConfig
}

// NewLLM creates an extractor backed by c. A nil completer yields an
// extractor that reports itself unavailable, which is the normal state
// when no credential is configured.
func NewLLM(c llm.Completer, opts ...Option) *LLMExtractor {
	config := DefaultLLMConfig()
	for _, opt := range opts {
		opt(&config)
	}

	e := &LLMExtractor{
		completer: c,
		name:      "llm",
		config:    config,
	}
	if p, ok := c.(llm.Provider); ok {
		e.name = "llm:" + p.Name()
		e.model = p.Model()
	}
	return e
}

// Name returns the extractor name.
func (e *LLMExtractor) Name() string {
	return e.name
}

// Available returns true when a service client is configured.
func (e *LLMExtractor) Available() bool {
	return e.completer != nil
}

// Extract performs a single service call and validates the answer.
func (e *LLMExtractor) Extract(ctx context.Context, text string) (*Result, error) {
	if isBlank(text) {
		return nil, ErrEmptyInput
	}
	if e.completer == nil {
		return nil, ErrNoExtractorAvailable
	}
	if e.config.Limiter != nil && !e.config.Limiter.Allow() {
		logger.Debug("extractor call budget exhausted", "extractor", e.name)
		return nil, ErrRateLimited
	}

	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: SystemPrompt},
		{Role: llm.RoleUser, Content: BuildPrompt(text, e.config.MaxInputSize)},
	}
	req := llm.Request{
		Messages:    messages,
		MaxTokens:   e.config.MaxTokens,
		Temperature: e.config.Temperature,
	}
	if e.config.StructuredOutput {
		req.JSONSchema = ProfileSchema()
	}

	logger.Debug("extractor calling LLM",
		"extractor", e.name,
		"model", e.model,
		"max_tokens", e.config.MaxTokens,
		"timeout", e.config.Timeout,
		"input_size", len(text))

	callCtx := ctx
	if e.config.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, e.config.Timeout)
		defer cancel()
	}

	startedAt := time.Now()
	resp, err := e.completer.Complete(callCtx, req)
	duration := time.Since(startedAt)

	e.notify(ctx, req, resp, err, startedAt, duration, len(text))

	if err != nil {
		logger.Debug("extractor LLM completion failed", "extractor", e.name, "error", err, "duration", duration)
		return nil, fmt.Errorf("LLM completion failed: %w", err)
	}

	result := &Result{
		Source:   e.name,
		Raw:      resp.Content,
		Model:    resp.Model,
		Duration: duration,
		Usage: Usage{
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
		},
	}

	rec, err := parseRecord(resp.Content)
	if err != nil {
		logger.Debug("extractor failed to parse response", "extractor", e.name, "error", err)
		return nil, err
	}

	p, res := profile.FromRecord(rec, e.config.Bounds)
	if !res.Valid {
		return nil, &InvalidProfileError{Source: e.name, Errors: res.Errors}
	}

	result.Profile = p
	return result, nil
}

func (e *LLMExtractor) notify(ctx context.Context, req llm.Request, resp *llm.Response, err error, startedAt time.Time, d time.Duration, inputSize int) {
	if e.config.Observer == nil {
		return
	}

	event := llm.LLMCallEvent{
		Provider:  e.name,
		Model:     e.model,
		Duration:  d,
		StartedAt: startedAt,
		Error:     err,
		Request: llm.LLMCallRequest{
			Messages:    req.Messages,
			MaxTokens:   req.MaxTokens,
			Temperature: req.Temperature,
			InputSize:   inputSize,
		},
	}
	if resp != nil {
		if resp.Model != "" {
			event.Model = resp.Model
		}
		event.Response = &llm.LLMCallResponse{
			Content:      resp.Content,
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
			FinishReason: resp.FinishReason,
		}
	}
	e.config.Observer.OnLLMCall(ctx, event)
}

// parseRecord decodes a service answer into a record.
func parseRecord(content string) (profile.Record, error) {
	body := jsonObject(StripMarkdownCodeBlock(content))

	var rec profile.Record
	if err := json.Unmarshal([]byte(body), &rec); err != nil {
		return nil, fmt.Errorf("%w: %v (response: %s)", ErrMalformedResponse, err, truncateForError(content))
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: null object", ErrMalformedResponse)
	}
	return rec, nil
}

// truncateForError truncates content for error messages.
func truncateForError(s string) string {
	if len(s) <= 200 {
		return s
	}
	return s[:200] + "..."
}
