package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const openRouterBaseURL = "https://openrouter.ai/api/v1"

// OpenRouterProvider talks to OpenRouter through its OpenAI-compatible API.
type OpenRouterProvider struct {
	client openai.Client
	model  string
}

// NewOpenRouterProvider creates a new OpenRouter provider.
func NewOpenRouterProvider(cfg ProviderConfig) (*OpenRouterProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenRouter API key required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = openRouterBaseURL
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(baseURL),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.HTTPReferer != "" {
		opts = append(opts, option.WithHeader("HTTP-Referer", cfg.HTTPReferer))
	}
	if cfg.AppTitle != "" {
		opts = append(opts, option.WithHeader("X-Title", cfg.AppTitle))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModels["openrouter"]
	}

	return &OpenRouterProvider{
		client: openai.NewClient(opts...),
		model:  model,
	}, nil
}

// Complete sends a completion request to OpenRouter.
func (p *OpenRouterProvider) Complete(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	resp, err := p.client.Chat.Completions.New(ctx, chatCompletionParams(p.model, req))
	if err != nil {
		return nil, fmt.Errorf("OpenRouter API error: %w", err)
	}
	return chatCompletionResponse(resp, start)
}

// Name returns the provider identifier.
func (p *OpenRouterProvider) Name() string {
	return "openrouter"
}

// Model returns the configured model name.
func (p *OpenRouterProvider) Model() string {
	return p.model
}

var _ Provider = (*OpenRouterProvider)(nil)
