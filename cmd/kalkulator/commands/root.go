// Package commands implements the CLI commands for kalkulator.
package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/AlanSteinbarth/Kalkulator-dla-biegaczy/internal/config"
	"github.com/AlanSteinbarth/Kalkulator-dla-biegaczy/internal/logger"
	"github.com/AlanSteinbarth/Kalkulator-dla-biegaczy/internal/output"
	"github.com/AlanSteinbarth/Kalkulator-dla-biegaczy/pkg/kalkulator"
)

// cfg is resolved once before any subcommand runs.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "kalkulator",
	Short: "Half-marathon finish time calculator for runners",
	Long: `Kalkulator estimates a half-marathon finish time from a runner's age,
gender and 5 km pace.

The profile can be typed as free Polish text, which is read by an LLM
when one is configured and by pattern matching otherwise, or given as
explicit fields.

Examples:
  # Read a profile from text
  kalkulator extract "Mam 28 lat, jestem kobietą, tempo 4:45"

  # Validate explicit fields
  kalkulator validate --age 28 --gender K --pace 4:45

  # Predict a finish time
  kalkulator predict "Mężczyzna, 35 lat, 5:10 min/km" \
      --model-endpoint http://localhost:8000/predict

  # Run the HTTP API
  kalkulator serve --addr :8080`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	flags := rootCmd.PersistentFlags()

	// Global flags
	flags.String("config", "", "config file (default $HOME/.kalkulator.yaml)")
	flags.Bool("debug", false, "enable debug logging")
	flags.BoolP("quiet", "q", false, "only log errors")
	flags.Bool("log-json", false, "log as JSON")
	flags.StringP("format", "f", string(output.FormatText), "output format: text, json, jsonl, yaml")

	// LLM settings
	flags.StringP("provider", "p", "", "LLM provider: openai, openrouter, anthropic, ollama, azure, none (auto-detects from env vars)")
	flags.StringP("model", "m", "", "LLM model name (provider-specific)")
	flags.String("base-url", "", "custom LLM API base URL")

	// Prediction settings
	flags.String("model-endpoint", "", "prediction service URL")
	flags.String("reference", "", "reference dataset CSV")

	_ = viper.BindPFlag("debug", flags.Lookup("debug"))
	_ = viper.BindPFlag("quiet", flags.Lookup("quiet"))
	_ = viper.BindPFlag("log_json", flags.Lookup("log-json"))
	_ = viper.BindPFlag("llm.provider", flags.Lookup("provider"))
	_ = viper.BindPFlag("llm.model", flags.Lookup("model"))
	_ = viper.BindPFlag("llm.base_url", flags.Lookup("base-url"))
	_ = viper.BindPFlag("model.endpoint", flags.Lookup("model-endpoint"))
	_ = viper.BindPFlag("data.reference_path", flags.Lookup("reference"))
}

func loadConfig(cmd *cobra.Command, _ []string) error {
	file, _ := cmd.Flags().GetString("config")
	if err := config.Prepare(viper.GetViper(), file); err != nil {
		logError("%v", err)
		return err
	}

	loaded, err := config.Load(viper.GetViper())
	if err != nil {
		logError("%v", err)
		return err
	}
	cfg = loaded

	logger.Init(logger.Options{
		Debug: cfg.Debug,
		Quiet: cfg.Quiet,
		JSON:  cfg.JSON,
	})
	logger.Debug("configuration loaded", "summary", cfg.Describe(), "file", viper.ConfigFileUsed())
	return nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// newCalculator builds a calculator from the resolved configuration.
func newCalculator(c *config.Config) (*kalkulator.Calculator, error) {
	limit, err := c.InputLimit()
	if err != nil {
		return nil, err
	}

	provider := c.LLM.Provider
	if !c.LLMEnabled() {
		provider = config.ProviderNone
	}

	return kalkulator.New(
		kalkulator.WithProvider(provider),
		kalkulator.WithModel(c.LLM.Model),
		kalkulator.WithAPIKey(c.LLM.APIKey),
		kalkulator.WithBaseURL(c.LLM.BaseURL),
		kalkulator.WithAPIVersion(c.LLM.APIVersion),
		kalkulator.WithTimeout(c.LLM.Timeout),
		kalkulator.WithMaxTokens(c.LLM.MaxTokens),
		kalkulator.WithRateLimit(c.LLM.RateLimit),
		kalkulator.WithStructuredOutput(c.LLM.Structured),
		kalkulator.WithMaxInputSize(limit),
		kalkulator.WithBounds(c.Bounds),
		kalkulator.WithModelEndpoint(c.Model.Endpoint),
		kalkulator.WithModelName(c.Model.Name),
		kalkulator.WithModelTimeout(c.Model.Timeout),
		kalkulator.WithReferencePath(c.Data.ReferencePath),
		kalkulator.WithCacheTTL(c.Cache.TTL),
	)
}

// newWriter returns a writer for the --format flag.
func newWriter(cmd *cobra.Command, w io.Writer) (output.Writer, error) {
	name, _ := cmd.Flags().GetString("format")
	format, err := output.ParseFormat(name)
	if err != nil {
		return nil, err
	}
	return output.NewWriter(w, format)
}

// logError prints an error message to stderr.
func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}

// logInfo prints an info message to stderr (unless quiet mode).
func logInfo(format string, args ...any) {
	if cfg == nil || !cfg.Quiet {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}
