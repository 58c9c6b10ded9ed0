package extractor

import (
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/AlanSteinbarth/Kalkulator-dla-biegaczy/pkg/llm"
	"github.com/AlanSteinbarth/Kalkulator-dla-biegaczy/pkg/profile"
)

// LLMConfig holds configuration for the service-backed extractor.
type LLMConfig struct {
	// Temperature for responses (default: 0).
	Temperature float64

	// MaxTokens bounds the response size (default: 200).
	MaxTokens int

	// Timeout bounds a single call (default: 15s). There are no retries.
	Timeout time.Duration

	// MaxInputSize limits the user text placed in the prompt, in bytes
	// (default: 4096, 0 = unlimited).
	MaxInputSize int

	// StructuredOutput asks the provider to constrain its answer to the
	// profile JSON schema. Not every model supports it.
	StructuredOutput bool

	// Bounds are applied to the service's answer.
	Bounds profile.Bounds

	// Limiter caps the rate of service calls. A denied call fails the
	// attempt immediately so the next extractor runs. Nil means unlimited.
	Limiter *rate.Limiter

	// Observer receives a notification after every service call.
	Observer llm.LLMObserver
}

// DefaultLLMConfig returns the settings used by the calculator.
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		Temperature:  0,
		MaxTokens:    200,
		Timeout:      15 * time.Second,
		MaxInputSize: 4096,
		Bounds:       profile.DefaultBounds(),
	}
}

// Option configures an LLMExtractor.
type Option func(*LLMConfig)

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(c *LLMConfig) { c.Temperature = t }
}

// WithMaxTokens sets the maximum output tokens.
func WithMaxTokens(n int) Option {
	return func(c *LLMConfig) { c.MaxTokens = n }
}

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *LLMConfig) { c.Timeout = d }
}

// WithMaxInputSize sets the prompt input limit in bytes.
func WithMaxInputSize(n int) Option {
	return func(c *LLMConfig) { c.MaxInputSize = n }
}

// WithStructuredOutput enables schema-constrained output.
func WithStructuredOutput(enabled bool) Option {
	return func(c *LLMConfig) { c.StructuredOutput = enabled }
}

// WithBounds sets the validation bounds.
func WithBounds(b profile.Bounds) Option {
	return func(c *LLMConfig) { c.Bounds = b }
}

// WithRateLimit allows r calls per second with the given burst.
func WithRateLimit(r rate.Limit, burst int) Option {
	return func(c *LLMConfig) { c.Limiter = rate.NewLimiter(r, burst) }
}

// WithObserver sets the LLM observer.
func WithObserver(obs llm.LLMObserver) Option {
	return func(c *LLMConfig) { c.Observer = obs }
}

// SystemPrompt frames the service as a running-data assistant.
const SystemPrompt = "Jesteś asystentem specjalizującym się w analizie danych biegowych. " +
	"Twoje zadanie to dokładne wyodrębnienie wieku, płci i tempa biegu z tekstu, " +
	"niezależnie od kolejności i formatu wprowadzania. Zawsze zwracaj poprawny JSON."

const promptHeader = `Przeanalizuj poniższy tekst i wyodrębnij następujące informacje niezależnie od ich kolejności:
1. Wiek osoby (liczba całkowita)
2. Płeć (zamień na 'M' dla mężczyzny lub 'K' dla kobiety)
3. Tempo biegu na 5km (liczba z przecinkiem lub kropką, w minutach na kilometr)

Zwróć dane w formacie JSON z kluczami: 'Wiek', 'Płeć', '5 km Tempo'
Ignoruj dodatkowe informacje w tekście.

Przykłady różnych formatów wejściowych:
"Kobieta lat 35, biegam 5.30 min/km" → {"Wiek": 35, "Płeć": "K", "5 km Tempo": 5.3}
"Tempo mam 6,20, jestem facetem i mam 42 lata" → {"Wiek": 42, "Płeć": "M", "5 km Tempo": 6.2}
"Mężczyzna, 28 lat, 4:45/km" → {"Wiek": 28, "Płeć": "M", "5 km Tempo": 4.75}

`

// BuildPrompt creates the extraction prompt for the user's text.
func BuildPrompt(text string, maxInputSize int) string {
	var prompt strings.Builder
	prompt.WriteString(promptHeader)
	prompt.WriteString("Tekst do przeanalizowania: ")
	prompt.WriteString(TruncateContent(strings.TrimSpace(text), maxInputSize))
	prompt.WriteString("\n")
	return prompt.String()
}

// ProfileSchema is the JSON schema of the expected answer.
func ProfileSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			profile.KeyAge: map[string]any{
				"type":        "integer",
				"description": "Wiek osoby w latach",
			},
			profile.KeyGender: map[string]any{
				"type":        "string",
				"enum":        []string{string(profile.Male), string(profile.Female)},
				"description": "M dla mężczyzny, K dla kobiety",
			},
			profile.KeyPace: map[string]any{
				"type":        "number",
				"description": "Tempo na 5 km w minutach na kilometr",
			},
		},
		"required":             profile.RequiredKeys,
		"additionalProperties": false,
	}
}

// TruncateContent limits content size to avoid token limits.
// maxLen of 0 means no limit.
func TruncateContent(content string, maxLen int) string {
	if maxLen <= 0 || len(content) <= maxLen {
		return content
	}
	// Back off to a rune boundary so Polish characters stay intact.
	cut := maxLen
	for cut > 0 && !isRuneStart(content[cut]) {
		cut--
	}
	return content[:cut]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

// StripMarkdownCodeBlock removes markdown code block wrappers from JSON responses.
// Some models wrap their JSON output in ```json ... ``` blocks.
func StripMarkdownCodeBlock(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "```json") {
		s = strings.TrimPrefix(s, "```json")
	} else if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
	} else {
		return s
	}

	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// jsonObject returns the outermost {...} span of s, or s itself when there
// is none. Models sometimes add a sentence around the object.
func jsonObject(s string) string {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < start {
		return s
	}
	return s[start : end+1]
}
