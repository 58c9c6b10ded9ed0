// Package config resolves kalkulator settings from defaults, an optional
// YAML file, a .env file, the environment and command-line flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/AlanSteinbarth/Kalkulator-dla-biegaczy/pkg/llm"
	"github.com/AlanSteinbarth/Kalkulator-dla-biegaczy/pkg/predict"
	"github.com/AlanSteinbarth/Kalkulator-dla-biegaczy/pkg/profile"
)

// EnvPrefix is prepended to every environment override, e.g.
// KALKULATOR_LLM_PROVIDER.
const EnvPrefix = "KALKULATOR"

// ProviderNone disables the LLM path.
const ProviderNone = "none"

// Config is the resolved configuration.
type Config struct {
	Bounds profile.Bounds `mapstructure:"bounds"`
	LLM    LLMConfig      `mapstructure:"llm"`
	Server ServerConfig   `mapstructure:"server"`
	Data   DataConfig     `mapstructure:"data"`
	Model  ModelConfig    `mapstructure:"model"`
	Cache  CacheConfig    `mapstructure:"cache"`

	// MaxInputSize is the free-text limit as written, e.g. "4KiB".
	MaxInputSize string `mapstructure:"max_input_size"`

	Debug bool `mapstructure:"debug"`
	Quiet bool `mapstructure:"quiet"`
	JSON  bool `mapstructure:"log_json"`
}

// LLMConfig selects and tunes the text-understanding service.
type LLMConfig struct {
	Provider   string        `mapstructure:"provider" validate:"omitempty,oneof=openai openrouter anthropic ollama azure none"`
	Model      string        `mapstructure:"model"`
	APIKey     string        `mapstructure:"api_key"`
	BaseURL    string        `mapstructure:"base_url" validate:"omitempty,url"`
	APIVersion string        `mapstructure:"api_version"`
	Timeout    time.Duration `mapstructure:"timeout" validate:"gt=0"`
	MaxTokens  int           `mapstructure:"max_tokens" validate:"gt=0"`
	RateLimit  float64       `mapstructure:"rate_limit" validate:"gte=0"`
	Structured bool          `mapstructure:"structured_output"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `mapstructure:"addr" validate:"required"`
}

// DataConfig locates the reference dataset.
type DataConfig struct {
	ReferencePath string `mapstructure:"reference_path"`
}

// ModelConfig locates the prediction service.
type ModelConfig struct {
	Endpoint string        `mapstructure:"endpoint" validate:"omitempty,url"`
	Name     string        `mapstructure:"name" validate:"required"`
	Timeout  time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

// CacheConfig bounds cached reference data and predictions.
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl" validate:"gte=0"`
}

var validate = validator.New()

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	b := profile.DefaultBounds()
	v.SetDefault("bounds.min_age", b.MinAge)
	v.SetDefault("bounds.max_age", b.MaxAge)
	v.SetDefault("bounds.min_tempo", b.MinTempo)
	v.SetDefault("bounds.max_tempo", b.MaxTempo)

	v.SetDefault("llm.provider", "")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.api_version", "")
	v.SetDefault("llm.timeout", 15*time.Second)
	v.SetDefault("llm.max_tokens", 200)
	v.SetDefault("llm.rate_limit", 0)
	v.SetDefault("llm.structured_output", false)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("data.reference_path", "df_cleaned.csv")
	v.SetDefault("model.endpoint", "")
	v.SetDefault("model.name", predict.DefaultModelName)
	v.SetDefault("model.timeout", 10*time.Second)
	v.SetDefault("cache.ttl", time.Hour)
	v.SetDefault("max_input_size", "4KiB")

	v.SetDefault("debug", false)
	v.SetDefault("quiet", false)
	v.SetDefault("log_json", false)
}

// Prepare wires environment handling and the optional config file into v.
// file may be empty, in which case .kalkulator.yaml is looked up in the
// home and working directories. A missing file is not an error.
func Prepare(v *viper.Viper, file string) error {
	if err := LoadDotEnv(".env"); err != nil {
		return err
	}

	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigName(".kalkulator")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

// LoadDotEnv loads variables from path without overriding ones already
// set. A missing file is ignored.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Load decodes v into a Config, fills in the API key from the provider's
// conventional variable and validates the result.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.LLM.Provider = strings.ToLower(strings.TrimSpace(cfg.LLM.Provider))
	if cfg.LLM.Provider == "" {
		name, key := llm.DetectProvider()
		cfg.LLM.Provider = name
		if cfg.LLM.APIKey == "" {
			cfg.LLM.APIKey = key
		}
	}
	if cfg.LLM.APIKey == "" && cfg.LLM.Provider != "" {
		if env := llm.EnvKey(cfg.LLM.Provider); env != "" {
			cfg.LLM.APIKey = os.Getenv(env)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints and the bounds.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := profile.ValidateBounds(c.Bounds); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := c.InputLimit(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// InputLimit returns MaxInputSize in bytes. Empty or "0" means unlimited.
func (c *Config) InputLimit() (int, error) {
	s := strings.TrimSpace(c.MaxInputSize)
	if s == "" || s == "0" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("max_input_size %q: %w", s, err)
	}
	return int(n), nil
}

// LLMEnabled reports whether a provider is selected and usable. Providers
// that need a key are disabled without one.
func (c *Config) LLMEnabled() bool {
	p := c.LLM.Provider
	if p == "" || p == ProviderNone {
		return false
	}
	if llm.RequiresAPIKey(p) && c.LLM.APIKey == "" {
		return false
	}
	return true
}

// ProviderConfig returns the llm settings for the selected provider.
func (c *Config) ProviderConfig() llm.ProviderConfig {
	pc := llm.DefaultProviderConfig()
	pc.APIKey = c.LLM.APIKey
	pc.BaseURL = c.LLM.BaseURL
	pc.Model = c.LLM.Model
	pc.APIVersion = c.LLM.APIVersion
	pc.Timeout = c.LLM.Timeout
	return pc
}

// Describe returns a one-line summary for startup logs. The key is never
// included.
func (c *Config) Describe() string {
	limit, _ := c.InputLimit()
	provider := c.LLM.Provider
	if !c.LLMEnabled() {
		provider = "none (pattern matching only)"
	}
	return fmt.Sprintf("provider=%s input_limit=%s reference=%s cache_ttl=%s",
		provider, humanize.IBytes(uint64(limit)), c.Data.ReferencePath, c.Cache.TTL)
}
