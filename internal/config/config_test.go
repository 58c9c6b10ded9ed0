package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

// clearProviderEnv hides any real credentials from the test.
func clearProviderEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "OPENROUTER_API_KEY", "AZURE_OPENAI_API_KEY"} {
		t.Setenv(k, "")
	}
}

func prepared(t *testing.T, file string) *viper.Viper {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	v := viper.New()
	if err := Prepare(v, file); err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	return v
}

// --- Defaults ---

func TestLoad_Defaults(t *testing.T) {
	clearProviderEnv(t)
	cfg, err := Load(prepared(t, ""))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Bounds.MinAge != 10 || cfg.Bounds.MaxAge != 100 || cfg.Bounds.MinTempo != 3 || cfg.Bounds.MaxTempo != 10 {
		t.Errorf("Bounds = %+v", cfg.Bounds)
	}
	if cfg.LLM.Timeout != 15*time.Second || cfg.LLM.MaxTokens != 200 {
		t.Errorf("LLM = %+v", cfg.LLM)
	}
	if cfg.Server.Addr != ":8080" || cfg.Data.ReferencePath != "df_cleaned.csv" {
		t.Errorf("Server/Data = %+v / %+v", cfg.Server, cfg.Data)
	}
	if cfg.Model.Name != "huber_model_halfmarathon_time" || cfg.Cache.TTL != time.Hour {
		t.Errorf("Model/Cache = %+v / %+v", cfg.Model, cfg.Cache)
	}
	if n, _ := cfg.InputLimit(); n != 4096 {
		t.Errorf("InputLimit() = %d, want 4096", n)
	}
	if cfg.LLMEnabled() {
		t.Error("no credential should mean no LLM")
	}
	if !strings.Contains(cfg.Describe(), "pattern matching only") {
		t.Errorf("Describe() = %q", cfg.Describe())
	}
}

// --- Sources ---

func TestLoad_EnvOverrides(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("KALKULATOR_BOUNDS_MAX_AGE", "90")
	t.Setenv("KALKULATOR_LLM_PROVIDER", "Anthropic")
	t.Setenv("KALKULATOR_LLM_TIMEOUT", "5s")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")

	cfg, err := Load(prepared(t, ""))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Bounds.MaxAge != 90 {
		t.Errorf("MaxAge = %d", cfg.Bounds.MaxAge)
	}
	if cfg.LLM.Provider != "anthropic" || cfg.LLM.APIKey != "sk-ant-test" || cfg.LLM.Timeout != 5*time.Second {
		t.Errorf("LLM = %+v", cfg.LLM)
	}
	if !cfg.LLMEnabled() {
		t.Error("LLM should be enabled with a key")
	}
	if strings.Contains(cfg.Describe(), "sk-ant-test") {
		t.Error("Describe() must not leak the key")
	}
}

func TestLoad_DetectsProvider(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load(prepared(t, ""))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LLM.Provider != "openai" || cfg.LLM.APIKey != "sk-test" {
		t.Errorf("LLM = %+v", cfg.LLM)
	}
	pc := cfg.ProviderConfig()
	if pc.APIKey != "sk-test" || pc.MaxRetries != 0 {
		t.Errorf("ProviderConfig() = %+v", pc)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	clearProviderEnv(t)
	path := filepath.Join(t.TempDir(), "kalkulator.yaml")
	content := `
bounds:
  min_age: 16
llm:
  provider: none
server:
  addr: "127.0.0.1:9000"
max_input_size: 1KiB
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(prepared(t, path))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Bounds.MinAge != 16 || cfg.Server.Addr != "127.0.0.1:9000" {
		t.Errorf("cfg = %+v", cfg)
	}
	if n, _ := cfg.InputLimit(); n != 1024 {
		t.Errorf("InputLimit() = %d", n)
	}
	if cfg.LLMEnabled() {
		t.Error("provider none should disable the LLM")
	}
}

func TestPrepare_MissingExplicitFile(t *testing.T) {
	t.Chdir(t.TempDir())
	if err := Prepare(viper.New(), filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing explicit config file")
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("KALKULATOR_TEST_DOTENV=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("KALKULATOR_TEST_DOTENV", "")
	os.Unsetenv("KALKULATOR_TEST_DOTENV")

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv() error = %v", err)
	}
	if got := os.Getenv("KALKULATOR_TEST_DOTENV"); got != "from-file" {
		t.Errorf("env = %q", got)
	}
	if err := LoadDotEnv(filepath.Join(dir, "missing.env")); err != nil {
		t.Errorf("missing file should be ignored, got %v", err)
	}
}

// --- Validation ---

func TestValidate(t *testing.T) {
	clearProviderEnv(t)

	tests := []struct {
		name string
		env  map[string]string
	}{
		{"inverted age bounds", map[string]string{"KALKULATOR_BOUNDS_MIN_AGE": "80", "KALKULATOR_BOUNDS_MAX_AGE": "20"}},
		{"unknown provider", map[string]string{"KALKULATOR_LLM_PROVIDER": "skynet"}},
		{"bad size", map[string]string{"KALKULATOR_MAX_INPUT_SIZE": "lots"}},
		{"bad endpoint", map[string]string{"KALKULATOR_MODEL_ENDPOINT": "not a url"}},
		{"zero tokens", map[string]string{"KALKULATOR_LLM_MAX_TOKENS": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(prepared(t, "")); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
