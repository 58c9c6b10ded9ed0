package llm

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

// ProviderFactory creates providers from config.
type ProviderFactory func(cfg ProviderConfig) (Provider, error)

// DefaultModels maps provider names to their default models.
var DefaultModels = map[string]string{
	"openai":     "gpt-4",
	"anthropic":  "claude-3-5-haiku-20241022",
	"openrouter": "openai/gpt-4o-mini",
	"ollama":     "llama3.2",
	"azure":      "gpt-4",
}

var registry = map[string]ProviderFactory{}

func init() {
	RegisterProvider("openai", func(cfg ProviderConfig) (Provider, error) {
		return NewOpenAIProvider(cfg)
	})
	RegisterProvider("openrouter", func(cfg ProviderConfig) (Provider, error) {
		return NewOpenRouterProvider(cfg)
	})
	RegisterProvider("anthropic", func(cfg ProviderConfig) (Provider, error) {
		return NewAnthropicProvider(cfg)
	})
	RegisterProvider("ollama", func(cfg ProviderConfig) (Provider, error) {
		return NewOllamaProvider(cfg)
	})
	RegisterProvider("azure", func(cfg ProviderConfig) (Provider, error) {
		return NewAzureProvider(cfg)
	})
}

// NewProvider creates a provider by name.
func NewProvider(name string, cfg ProviderConfig) (Provider, error) {
	factory, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s (available: %s)", name, strings.Join(AvailableProviders(), ", "))
	}
	if cfg.Model == "" {
		cfg.Model = GetDefaultModel(name)
	}
	return factory(cfg)
}

// RegisterProvider adds a custom provider factory.
func RegisterProvider(name string, factory ProviderFactory) {
	registry[name] = factory
}

// AvailableProviders returns the sorted list of registered providers.
func AvailableProviders() []string {
	providers := make([]string, 0, len(registry))
	for name := range registry {
		providers = append(providers, name)
	}
	sort.Strings(providers)
	return providers
}

// IsRegistered returns true if a provider is registered.
func IsRegistered(name string) bool {
	_, ok := registry[name]
	return ok
}

// GetDefaultModel returns the default model for a provider.
func GetDefaultModel(provider string) string {
	return DefaultModels[provider]
}

// providerEnvKeys maps provider names to their API key environment variables.
// Providers missing from the map need no key.
var providerEnvKeys = map[string]string{
	"openai":     "OPENAI_API_KEY",
	"openrouter": "OPENROUTER_API_KEY",
	"anthropic":  "ANTHROPIC_API_KEY",
	"azure":      "AZURE_OPENAI_API_KEY",
}

// EnvKey returns the environment variable holding the provider's API key,
// or "" when the provider needs none.
func EnvKey(provider string) string {
	return providerEnvKeys[provider]
}

// RequiresAPIKey reports whether the provider cannot run without a key.
func RequiresAPIKey(provider string) bool {
	_, ok := providerEnvKeys[provider]
	return ok
}

// HasAPIKey checks if an API key environment variable is set for the given provider.
func HasAPIKey(provider string) bool {
	if envKey, ok := providerEnvKeys[provider]; ok {
		return os.Getenv(envKey) != ""
	}
	return false
}

// DetectProvider picks a provider from the API keys present in the
// environment. Priority: OPENAI_API_KEY > ANTHROPIC_API_KEY >
// OPENROUTER_API_KEY. It returns "" when no key is set; the caller then
// runs without a service.
func DetectProvider() (provider string, apiKey string) {
	for _, name := range []string{"openai", "anthropic", "openrouter"} {
		if key := os.Getenv(providerEnvKeys[name]); key != "" {
			return name, key
		}
	}
	return "", ""
}
