package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/AlanSteinbarth/Kalkulator-dla-biegaczy/internal/logger"
	"github.com/AlanSteinbarth/Kalkulator-dla-biegaczy/internal/output"
	"github.com/AlanSteinbarth/Kalkulator-dla-biegaczy/pkg/extractor"
	"github.com/AlanSteinbarth/Kalkulator-dla-biegaczy/pkg/kalkulator"
)

var extractCmd = &cobra.Command{
	Use:   "extract [text]",
	Short: "Read a runner profile from free text",
	Long: `Read age, gender and 5 km pace from free Polish text.

The LLM is asked first when one is configured; pattern matching is
used when it is not, or when its answer is unusable.

Examples:
  kalkulator extract "Mam 28 lat, jestem kobietą, tempo 4:45"

  # One description per line, four at a time
  kalkulator extract --file opisy.txt --concurrency 4 -f jsonl`,
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	flags := extractCmd.Flags()
	flags.String("file", "", "read one description per line from this file (- for stdin)")
	flags.IntP("concurrency", "c", 2, "concurrent extractions for --file")
}

func runExtract(cmd *cobra.Command, args []string) error {
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

	file, _ := cmd.Flags().GetString("file")
	if file == "" {
		if len(args) == 0 {
			return cmd.Help()
		}
		text := strings.Join(args, " ")
		res, err := calc.Extract(ctx, text)
		if werr := w.Write(extractionReport(text, res, err)); werr != nil {
			return werr
		}
		if ferr := w.Flush(); ferr != nil {
			return ferr
		}
		if err != nil {
			return errors.New("could not read a valid profile from the text")
		}
		return nil
	}

	texts, err := readLines(cmd.InOrStdin(), file)
	if err != nil {
		logError("%v", err)
		return err
	}
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	logger.Debug("batch extraction", "texts", len(texts), "concurrency", concurrency)

	reports := make([]output.Report, len(texts))
	failed := 0
	for r := range calc.ExtractMany(ctx, texts, concurrency) {
		reports[r.Index] = extractionReport(r.Input, r.Result, r.Err)
		if r.Err != nil {
			failed++
		}
	}
	for _, r := range reports {
		if err := w.Write(r); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	logInfo("Read %d of %d profiles", len(texts)-failed, len(texts))
	if failed > 0 {
		return fmt.Errorf("%d of %d texts could not be read", failed, len(texts))
	}
	return nil
}

// extractionReport turns an extraction outcome into a report.
func extractionReport(input string, res *extractor.Result, err error) output.Report {
	r := output.Report{Input: input}
	if err != nil {
		r.Errors = errorMessages(err)
		return r
	}
	p := res.Profile
	r.Valid = true
	r.Source = res.Source
	r.Profile = &p
	return r
}

// errorMessages returns the validation messages carried by err, or err's
// text when there are none.
func errorMessages(err error) []string {
	if problems := extractor.Problems(err); len(problems) > 0 {
		return problems
	}
	switch {
	case errors.Is(err, extractor.ErrEmptyInput):
		return []string{"Nie podano tekstu"}
	case errors.Is(err, kalkulator.ErrInputTooLarge):
		return []string{"Tekst jest zbyt długi"}
	case errors.Is(err, extractor.ErrNotExtracted):
		return []string{"Nie udało się odczytać wieku, płci i tempa z tekstu"}
	}
	return []string{err.Error()}
}

// readLines returns the non-blank lines of path, or of stdin for "-".
func readLines(stdin io.Reader, path string) ([]string, error) {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path) //#nosec G304
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()
		r = f
	}

	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return lines, nil
}
