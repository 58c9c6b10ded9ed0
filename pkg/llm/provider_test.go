package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// --- Registry ---

func TestNewProvider_Unknown(t *testing.T) {
	_, err := NewProvider("nope", ProviderConfig{})
	if err == nil {
		t.Fatal("expected error for unknown provider")
	}
	if !strings.Contains(err.Error(), "openai") {
		t.Errorf("error should list available providers, got %v", err)
	}
}

func TestNewProvider_RequiresKey(t *testing.T) {
	for _, name := range []string{"openai", "openrouter", "anthropic", "azure"} {
		if _, err := NewProvider(name, ProviderConfig{}); err == nil {
			t.Errorf("%s: expected error without API key", name)
		}
	}
}

func TestNewProvider_DefaultModel(t *testing.T) {
	p, err := NewProvider("openai", ProviderConfig{APIKey: "sk-test"})
	if err != nil {
		t.Fatal(err)
	}
	if p.Model() != "gpt-4" {
		t.Errorf("Model() = %q, want gpt-4", p.Model())
	}
	if p.Name() != "openai" {
		t.Errorf("Name() = %q", p.Name())
	}
}

func TestAvailableProviders_Sorted(t *testing.T) {
	got := AvailableProviders()
	for i := 1; i < len(got); i++ {
		if got[i-1] > got[i] {
			t.Fatalf("not sorted: %v", got)
		}
	}
	if !IsRegistered("ollama") || !IsRegistered("azure") {
		t.Errorf("built-in providers missing: %v", got)
	}
}

func TestDetectProvider(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("OPENROUTER_API_KEY", "")

	if name, _ := DetectProvider(); name != "" {
		t.Errorf("DetectProvider() with no keys = %q, want empty", name)
	}

	t.Setenv("OPENROUTER_API_KEY", "or-key")
	if name, key := DetectProvider(); name != "openrouter" || key != "or-key" {
		t.Errorf("DetectProvider() = %q, %q", name, key)
	}

	t.Setenv("OPENAI_API_KEY", "oa-key")
	if name, key := DetectProvider(); name != "openai" || key != "oa-key" {
		t.Errorf("DetectProvider() = %q, %q; openai should win", name, key)
	}
}

func TestRequiresAPIKey(t *testing.T) {
	if RequiresAPIKey("ollama") {
		t.Error("ollama should not require a key")
	}
	if !RequiresAPIKey("openai") || EnvKey("openai") != "OPENAI_API_KEY" {
		t.Error("openai key metadata wrong")
	}
}

// --- OpenAI ---

func TestOpenAIProvider_Complete(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1,
			"model": "gpt-4-0613",
			"choices": [{"index": 0, "finish_reason": "stop",
				"message": {"role": "assistant", "content": "{\"Wiek\": 30}"}}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 5, "total_tokens": 17}
		}`)
	}))
	defer srv.Close()

	p, err := NewOpenAIProvider(ProviderConfig{APIKey: "sk-test", BaseURL: srv.URL + "/", Timeout: 5 * time.Second})
	if err != nil {
		t.Fatal(err)
	}

	resp, err := p.Complete(context.Background(), Request{
		Messages:    []Message{{Role: RoleSystem, Content: "sys"}, {Role: RoleUser, Content: "hi"}},
		MaxTokens:   200,
		Temperature: 0,
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if resp.Content != `{"Wiek": 30}` {
		t.Errorf("Content = %q", resp.Content)
	}
	if resp.Usage.InputTokens != 12 || resp.Usage.OutputTokens != 5 {
		t.Errorf("Usage = %+v", resp.Usage)
	}
	if resp.Model != "gpt-4-0613" {
		t.Errorf("Model = %q", resp.Model)
	}

	if got["model"] != "gpt-4" {
		t.Errorf("request model = %v", got["model"])
	}
	if got["max_tokens"] != float64(200) {
		t.Errorf("request max_tokens = %v", got["max_tokens"])
	}
	if msgs, _ := got["messages"].([]any); len(msgs) != 2 {
		t.Errorf("request messages = %v", got["messages"])
	}
}

func TestOpenAIProvider_ServerErrorNotRetried(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"error": {"message": "boom", "type": "server_error"}}`)
	}))
	defer srv.Close()

	p, err := NewOpenAIProvider(ProviderConfig{APIKey: "sk-test", BaseURL: srv.URL + "/"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Complete(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "x"}}}); err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("server called %d times, want 1", calls)
	}
}

// --- Anthropic ---

func TestAnthropicProvider_ToolUse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "claude-3-5-haiku-20241022",
			"stop_reason": "tool_use",
			"content": [{"type": "tool_use", "id": "tu_1", "name": "record_profile",
				"input": {"Wiek": 28, "Płeć": "K", "5 km Tempo": 4.75}}],
			"usage": {"input_tokens": 20, "output_tokens": 8}
		}`)
	}))
	defer srv.Close()

	p, err := NewAnthropicProvider(ProviderConfig{APIKey: "test", BaseURL: srv.URL + "/"})
	if err != nil {
		t.Fatal(err)
	}

	resp, err := p.Complete(context.Background(), Request{
		Messages:   []Message{{Role: RoleSystem, Content: "sys"}, {Role: RoleUser, Content: "text"}},
		MaxTokens:  200,
		JSONSchema: map[string]any{"type": "object", "properties": map[string]any{}, "required": []string{"Wiek"}},
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(resp.Content), &data); err != nil {
		t.Fatalf("tool input is not JSON: %q", resp.Content)
	}
	if data["Płeć"] != "K" {
		t.Errorf("decoded tool input = %v", data)
	}
	if resp.FinishReason != "tool_use" {
		t.Errorf("FinishReason = %q", resp.FinishReason)
	}
}

// --- Ollama ---

func TestOllamaProvider_Complete(t *testing.T) {
	var got ollamaRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_ = json.NewEncoder(w).Encode(ollamaResponse{
			Model:           "llama3.2",
			Message:         ollamaMessage{Role: "assistant", Content: "ok"},
			Done:            true,
			PromptEvalCount: 3,
			EvalCount:       1,
		})
	}))
	defer srv.Close()

	p, err := NewOllamaProvider(ProviderConfig{BaseURL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}

	resp, err := p.Complete(context.Background(), Request{
		Messages:  []Message{{Role: RoleUser, Content: "hi"}},
		MaxTokens: 200,
	})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Content != "ok" || resp.FinishReason != "stop" {
		t.Errorf("resp = %+v", resp)
	}
	if got.Stream || got.Options.NumPredict != 200 || got.Model != "llama3.2" {
		t.Errorf("request = %+v", got)
	}
}

func TestOllamaProvider_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	p, _ := NewOllamaProvider(ProviderConfig{BaseURL: srv.URL})
	_, err := p.Complete(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Errorf("expected status error, got %v", err)
	}
}

// --- Azure ---

func TestAzureProvider_Complete(t *testing.T) {
	var path, apiKey, version string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		apiKey = r.Header.Get("api-key")
		version = r.URL.Query().Get("api-version")
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "x", "object": "chat.completion", "created": 1, "model": "gpt-4",
			"choices": [{"index": 0, "finish_reason": "stop",
				"message": {"role": "assistant", "content": "hello"}}],
			"usage": {"prompt_tokens": 1, "completion_tokens": 1, "total_tokens": 2}
		}`)
	}))
	defer srv.Close()

	p, err := NewAzureProvider(ProviderConfig{APIKey: "az-key", BaseURL: srv.URL, Model: "runners-gpt4"})
	if err != nil {
		t.Fatal(err)
	}

	resp, err := p.Complete(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if resp.Content != "hello" {
		t.Errorf("Content = %q", resp.Content)
	}
	if !strings.Contains(path, "/openai/deployments/runners-gpt4/chat/completions") {
		t.Errorf("path = %q", path)
	}
	if apiKey != "az-key" {
		t.Errorf("api-key header = %q", apiKey)
	}
	if version != defaultAzureAPIVersion {
		t.Errorf("api-version = %q", version)
	}
}

func TestAzureProvider_RequiresEndpoint(t *testing.T) {
	if _, err := NewAzureProvider(ProviderConfig{APIKey: "k"}); err == nil {
		t.Error("expected error without endpoint")
	}
}

// --- Observer ---

func TestMultiObserver(t *testing.T) {
	var a, b int
	m := NewMultiObserver(ObserverFunc(func(context.Context, LLMCallEvent) { a++ }))
	m.Add(ObserverFunc(func(context.Context, LLMCallEvent) { b++ }))
	m.OnLLMCall(context.Background(), LLMCallEvent{Provider: "openai"})
	if a != 1 || b != 1 {
		t.Errorf("observers called a=%d b=%d", a, b)
	}
}
