package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AlanSteinbarth/Kalkulator-dla-biegaczy/internal/output"
	"github.com/AlanSteinbarth/Kalkulator-dla-biegaczy/internal/version"
	"github.com/AlanSteinbarth/Kalkulator-dla-biegaczy/pkg/predict"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return printInfo(cmd, version.Get(), version.Full())
	},
}

var modelCmd = &cobra.Command{
	Use:   "model",
	Short: "Describe the prediction model",
	RunE: func(cmd *cobra.Command, _ []string) error {
		info := predict.DefaultModelInfo()
		if cfg != nil && cfg.Model.Name != "" {
			info.Name = cfg.Model.Name
		}
		text := fmt.Sprintf("Model: %s\nAlgorytm: %s\nR²: %.2f\nMAE: %.1f min\nPróbki treningowe: %d",
			info.Name, info.Algorithm, info.R2, info.MAE, info.Samples)
		return printInfo(cmd, info, text)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(modelCmd)
}

// printInfo writes text for the text format and v otherwise.
func printInfo(cmd *cobra.Command, v any, text string) error {
	w, err := newWriter(cmd, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	name, _ := cmd.Flags().GetString("format")
	if f, _ := output.ParseFormat(name); f == output.FormatText {
		v = text
	}
	if err := w.Write(v); err != nil {
		return err
	}
	return w.Flush()
}
