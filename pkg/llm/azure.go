package llm

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"time"

	goopenai "github.com/sashabaranov/go-openai"
)

const defaultAzureAPIVersion = "2024-06-01"

// AzureProvider calls a chat deployment on Azure OpenAI. The model name is
// the deployment name.
type AzureProvider struct {
	client *goopenai.Client
	model  string
}

// NewAzureProvider creates a provider for an Azure OpenAI resource.
// BaseURL is the resource endpoint (https://<name>.openai.azure.com).
func NewAzureProvider(cfg ProviderConfig) (*AzureProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("azure OpenAI API key required")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("azure OpenAI endpoint (base URL) required")
	}

	clientCfg := goopenai.DefaultAzureConfig(cfg.APIKey, cfg.BaseURL)
	clientCfg.APIVersion = defaultAzureAPIVersion
	if cfg.APIVersion != "" {
		clientCfg.APIVersion = cfg.APIVersion
	}
	if cfg.Timeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModels["azure"]
	}
	// Deployment names are used verbatim rather than derived from model names.
	clientCfg.AzureModelMapperFunc = func(m string) string { return m }

	return &AzureProvider{
		client: goopenai.NewClientWithConfig(clientCfg),
		model:  model,
	}, nil
}

// Complete sends a chat completion to the deployment.
func (p *AzureProvider) Complete(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	messages := make([]goopenai.ChatCompletionMessage, 0, len(req.Messages))
	for _, msg := range req.Messages {
		messages = append(messages, goopenai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}

	chatReq := goopenai.ChatCompletionRequest{
		Model:     p.model,
		Messages:  messages,
		MaxTokens: req.MaxTokens,
	}
	// A zero temperature is dropped by omitempty and the server default applies.
	chatReq.Temperature = float32(req.Temperature)
	if chatReq.Temperature == 0 {
		chatReq.Temperature = math.SmallestNonzeroFloat32
	}
	if req.JSONSchema != nil {
		chatReq.ResponseFormat = &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, fmt.Errorf("azure OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	return &Response{
		Content:      resp.Choices[0].Message.Content,
		FinishReason: string(resp.Choices[0].FinishReason),
		Usage: Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		},
		Model:    resp.Model,
		Duration: time.Since(start),
	}, nil
}

// Name returns the provider identifier.
func (p *AzureProvider) Name() string {
	return "azure"
}

// Model returns the deployment name.
func (p *AzureProvider) Model() string {
	return p.model
}

var _ Provider = (*AzureProvider)(nil)
