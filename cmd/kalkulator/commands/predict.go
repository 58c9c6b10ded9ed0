package commands

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/AlanSteinbarth/Kalkulator-dla-biegaczy/internal/output"
	"github.com/AlanSteinbarth/Kalkulator-dla-biegaczy/pkg/profile"
)

var predictCmd = &cobra.Command{
	Use:   "predict [text]",
	Short: "Predict a half-marathon finish time",
	Long: `Predict a half-marathon finish time from free text or explicit fields.

A prediction service must be configured (--model-endpoint, model.endpoint
or KALKULATOR_MODEL_ENDPOINT). When the reference dataset is readable the
result is compared with past finishers of the same gender and age.

Examples:
  kalkulator predict "Mam 28 lat, jestem kobietą, tempo 4:45"
  kalkulator predict --age 35 --gender M --pace 5:10 -f yaml`,
	RunE: runPredict,
}

func init() {
	rootCmd.AddCommand(predictCmd)
	addProfileFlags(predictCmd)
}

func runPredict(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	calc, err := newCalculator(cfg)
	if err != nil {
		logError("%v", err)
		return err
	}
	w, err := newWriter(cmd, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	var (
		report output.Report
		p      profile.Profile
	)
	switch {
	case hasProfileFlags(cmd):
		rec, err := recordFromFlags(cmd)
		if err != nil {
			logError("%v", err)
			return err
		}
		var res profile.Result
		p, res = calc.FromRecord(rec)
		report = output.Report{Source: "form", Valid: res.Valid, Errors: res.Errors}
	case len(args) > 0:
		text := strings.Join(args, " ")
		res, err := calc.Extract(ctx, text)
		report = extractionReport(text, res, err)
		if err == nil {
			p = res.Profile
		}
	default:
		return cmd.Help()
	}

	if !report.Valid {
		if err := writeReport(w, report); err != nil {
			return err
		}
		return errors.New("invalid profile")
	}
	report.Profile = &p

	est, err := calc.Estimate(ctx, p)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("Predykcja nie powiodła się: %v", err))
		if werr := writeReport(w, report); werr != nil {
			return werr
		}
		return err
	}
	report.Prediction = est.Prediction
	report.Comparison = est.Comparison
	return writeReport(w, report)
}

func writeReport(w output.Writer, r output.Report) error {
	if err := w.Write(r); err != nil {
		return err
	}
	return w.Flush()
}
