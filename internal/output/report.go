package output

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/AlanSteinbarth/Kalkulator-dla-biegaczy/pkg/pace"
	"github.com/AlanSteinbarth/Kalkulator-dla-biegaczy/pkg/predict"
	"github.com/AlanSteinbarth/Kalkulator-dla-biegaczy/pkg/profile"
	"github.com/AlanSteinbarth/Kalkulator-dla-biegaczy/pkg/reference"
)

// Report is the result of one CLI request.
type Report struct {
	Input      string                `json:"input,omitempty" yaml:"input,omitempty"`
	Source     string                `json:"source,omitempty" yaml:"source,omitempty"`
	Valid      bool                  `json:"valid" yaml:"valid"`
	Profile    *profile.Profile      `json:"profile,omitempty" yaml:"profile,omitempty"`
	Errors     []string              `json:"errors,omitempty" yaml:"errors,omitempty"`
	Prediction *predict.Prediction   `json:"prediction,omitempty" yaml:"prediction,omitempty"`
	Comparison *reference.Comparison `json:"comparison,omitempty" yaml:"comparison,omitempty"`
}

// TextWriter prints reports for people, in Polish.
type TextWriter struct {
	w *bufio.Writer
}

// Write prints one item. Reports get the full layout; anything else is
// printed with its default format.
func (w *TextWriter) Write(data any) error {
	var text string
	switch v := data.(type) {
	case Report:
		text = RenderText(v)
	case *Report:
		text = RenderText(*v)
	case string:
		text = v + "\n"
	default:
		text = fmt.Sprintf("%+v\n", v)
	}
	if _, err := w.w.WriteString(text); err != nil {
		return err
	}
	return w.w.Flush()
}

// Flush flushes the buffer.
func (w *TextWriter) Flush() error {
	return w.w.Flush()
}

// RenderText formats r for a terminal.
func RenderText(r Report) string {
	var sb strings.Builder

	if r.Input != "" {
		fmt.Fprintf(&sb, "Tekst: %s\n", r.Input)
	}
	if p := r.Profile; p != nil {
		fmt.Fprintf(&sb, "Wiek: %d lat\n", p.Age)
		fmt.Fprintf(&sb, "Płeć: %s\n", p.Gender.Display())
		if secs, err := pace.TotalSeconds(p.Pace); err == nil {
			fmt.Fprintf(&sb, "Tempo na 5 km: %s min/km (czas na 5 km: %s)\n", pace.Format(p.Pace), pace.FormatDuration(secs))
		}
	}
	if r.Source != "" {
		fmt.Fprintf(&sb, "Źródło: %s\n", r.Source)
	}
	for _, e := range r.Errors {
		fmt.Fprintf(&sb, "Błąd: %s\n", e)
	}
	if pr := r.Prediction; pr != nil {
		fmt.Fprintf(&sb, "Przewidywany czas półmaratonu: %s\n", pr.Formatted)
	}
	if c := r.Comparison; c != nil {
		for _, g := range []*reference.Group{c.Gender, c.Age} {
			if g == nil {
				continue
			}
			fmt.Fprintf(&sb, "%s: %d biegaczy, średni czas %.1f min, szybszych od Ciebie %.1f%%\n",
				g.Label, g.Count, g.MeanMinutes, g.Percentile)
		}
	}
	return sb.String()
}
