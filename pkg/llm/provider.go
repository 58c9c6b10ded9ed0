// Package llm provides a unified interface for the text-understanding
// services used to read runner profiles out of free text.
package llm

import (
	"context"
	"time"
)

// Role represents the role of a message sender.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a chat message.
type Message struct {
	Role    Role
	Content string
}

// Request represents a completion request.
type Request struct {
	Messages    []Message
	MaxTokens   int
	Temperature float64
	// JSONSchema asks the provider to constrain output to the schema, where
	// the provider supports it. Nil means free-form text.
	JSONSchema map[string]any
}

// Usage tracks token consumption.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Response represents the result of a completion.
type Response struct {
	Content      string
	FinishReason string
	Usage        Usage
	Model        string // Actual model used (may differ from requested)
	Duration     time.Duration
}

// Completer is the single capability the extractor needs from a service.
type Completer interface {
	// Complete sends one completion request. Implementations must not retry.
	Complete(ctx context.Context, req Request) (*Response, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, req Request) (*Response, error)

// Complete implements Completer.
func (f CompleterFunc) Complete(ctx context.Context, req Request) (*Response, error) {
	return f(ctx, req)
}

// Provider is a named, configured Completer backed by a concrete service.
type Provider interface {
	Completer

	// Name returns the provider identifier (e.g., "openai", "anthropic").
	Name() string

	// Model returns the configured model name.
	Model() string
}

// ProviderConfig holds common configuration for providers.
type ProviderConfig struct {
	APIKey  string
	BaseURL string // Custom endpoint; required for azure
	Model   string
	// MaxRetries is passed to SDK clients. Extraction makes a single
	// attempt, so the default is 0.
	MaxRetries int
	Timeout    time.Duration
	// APIVersion selects the Azure OpenAI API version.
	APIVersion string
	// HTTPReferer and AppTitle for OpenRouter attribution
	HTTPReferer string
	AppTitle    string
}

// DefaultProviderConfig returns the defaults used for extraction calls.
func DefaultProviderConfig() ProviderConfig {
	return ProviderConfig{
		MaxRetries: 0,
		Timeout:    15 * time.Second,
	}
}
