package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AlanSteinbarth/Kalkulator-dla-biegaczy/internal/output"
	"github.com/AlanSteinbarth/Kalkulator-dla-biegaczy/pkg/pace"
	"github.com/AlanSteinbarth/Kalkulator-dla-biegaczy/pkg/profile"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check explicit profile fields",
	Long: `Check age, gender and 5 km pace against the accepted ranges.

Fields that are not given are reported as missing.

Examples:
  kalkulator validate --age 28 --gender K --pace 4:45
  kalkulator validate --age 120 --gender X --pace 2.5 -f json`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
	addProfileFlags(validateCmd)
}

// addProfileFlags registers the typed form fields on cmd.
func addProfileFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.Int("age", 0, "age in years")
	flags.String("gender", "", "gender: M or K")
	flags.String("pace", "", "5 km pace in min/km, as 4:45 or 4.75")
}

// hasProfileFlags reports whether any form field was given.
func hasProfileFlags(cmd *cobra.Command) bool {
	flags := cmd.Flags()
	return flags.Changed("age") || flags.Changed("gender") || flags.Changed("pace")
}

// recordFromFlags builds a record from the form fields that were given.
func recordFromFlags(cmd *cobra.Command) (profile.Record, error) {
	flags := cmd.Flags()
	rec := profile.Record{}
	if flags.Changed("age") {
		age, _ := flags.GetInt("age")
		rec[profile.KeyAge] = age
	}
	if flags.Changed("gender") {
		g, _ := flags.GetString("gender")
		rec[profile.KeyGender] = strings.ToUpper(strings.TrimSpace(g))
	}
	if flags.Changed("pace") {
		raw, _ := flags.GetString("pace")
		v, err := pace.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("--pace %q: %w", raw, err)
		}
		rec[profile.KeyPace] = v
	}
	return rec, nil
}

func runValidate(cmd *cobra.Command, _ []string) error {
	calc, err := newCalculator(cfg)
	if err != nil {
		logError("%v", err)
		return err
	}
	w, err := newWriter(cmd, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	rec, err := recordFromFlags(cmd)
	if err != nil {
		logError("%v", err)
		return err
	}

	p, res := calc.FromRecord(rec)
	report := output.Report{Source: "form", Valid: res.Valid, Errors: res.Errors}
	if res.Valid {
		report.Profile = &p
	}
	if err := w.Write(report); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if !res.Valid {
		return errors.New("invalid profile")
	}
	return nil
}
