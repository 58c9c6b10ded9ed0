package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/AlanSteinbarth/Kalkulator-dla-biegaczy/pkg/extractor"
	"github.com/AlanSteinbarth/Kalkulator-dla-biegaczy/pkg/kalkulator"
	"github.com/AlanSteinbarth/Kalkulator-dla-biegaczy/pkg/profile"
)

// --- Form flags ---

func newFormCmd(t *testing.T, set map[string]string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	addProfileFlags(cmd)
	for k, v := range set {
		if err := cmd.Flags().Set(k, v); err != nil {
			t.Fatalf("Set(%s) error = %v", k, err)
		}
	}
	return cmd
}

func TestRecordFromFlags(t *testing.T) {
	cmd := newFormCmd(t, map[string]string{"age": "28", "gender": " k ", "pace": "4:45"})
	if !hasProfileFlags(cmd) {
		t.Fatal("hasProfileFlags() = false")
	}
	rec, err := recordFromFlags(cmd)
	if err != nil {
		t.Fatalf("recordFromFlags() error = %v", err)
	}
	if rec[profile.KeyAge] != 28 || rec[profile.KeyGender] != "K" || rec[profile.KeyPace] != 4.75 {
		t.Errorf("record = %v", rec)
	}
}

func TestRecordFromFlags_OnlyGivenFields(t *testing.T) {
	cmd := newFormCmd(t, map[string]string{"age": "28"})
	rec, err := recordFromFlags(cmd)
	if err != nil {
		t.Fatal(err)
	}
	if got := rec.Missing(); len(got) != 2 {
		t.Errorf("Missing() = %v, want gender and pace", got)
	}

	if hasProfileFlags(newFormCmd(t, nil)) {
		t.Error("hasProfileFlags() = true with no flags")
	}
}

func TestRecordFromFlags_BadPace(t *testing.T) {
	cmd := newFormCmd(t, map[string]string{"pace": "szybko"})
	if _, err := recordFromFlags(cmd); err == nil || !strings.Contains(err.Error(), "--pace") {
		t.Errorf("error = %v", err)
	}
}

// --- Reports ---

func TestExtractionReport(t *testing.T) {
	res := &extractor.Result{Source: "regex", Profile: profile.Profile{Age: 28, Gender: profile.Female, Pace: 4.75}}
	r := extractionReport("tekst", res, nil)
	if !r.Valid || r.Source != "regex" || r.Profile == nil || r.Profile.Age != 28 {
		t.Errorf("report = %+v", r)
	}

	r = extractionReport("tekst", nil, extractor.ErrEmptyInput)
	if r.Valid || r.Profile != nil || len(r.Errors) != 1 {
		t.Errorf("failed report = %+v", r)
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"validation", fmt.Errorf("all failed: %w", &extractor.InvalidProfileError{Source: "regex", Errors: []string{"Brak pola: Wiek"}}), "Brak pola: Wiek"},
		{"empty", extractor.ErrEmptyInput, "Nie podano tekstu"},
		{"too large", fmt.Errorf("%w: 5 KiB", kalkulator.ErrInputTooLarge), "Tekst jest zbyt długi"},
		{"not extracted", fmt.Errorf("wrapped: %w", extractor.ErrNotExtracted), "Nie udało się odczytać"},
		{"other", errors.New("boom"), "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := errorMessages(tt.err)
			if len(got) != 1 || !strings.HasPrefix(got[0], tt.want) {
				t.Errorf("errorMessages() = %v, want prefix %q", got, tt.want)
			}
		})
	}
}

// --- Batch input ---

func TestReadLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "opisy.txt")
	if err := os.WriteFile(path, []byte("pierwszy\n\n  drugi  \n"), 0o600); err != nil {
		t.Fatal(err)
	}
	lines, err := readLines(nil, path)
	if err != nil {
		t.Fatalf("readLines() error = %v", err)
	}
	if len(lines) != 2 || lines[1] != "drugi" {
		t.Errorf("lines = %q", lines)
	}

	lines, err = readLines(strings.NewReader("a\nb\n"), "-")
	if err != nil || len(lines) != 2 {
		t.Errorf("stdin lines = %q, %v", lines, err)
	}

	if _, err := readLines(nil, filepath.Join(t.TempDir(), "none.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}
