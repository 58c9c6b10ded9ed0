package pace

import (
	"errors"
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// --- TotalSeconds ---

func TestTotalSeconds(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want float64
	}{
		{"decimal float", 5.0, 1500},
		{"half minute", 4.5, 1350},
		{"int", 6, 1800},
		{"decimal string", "6.0", 1800},
		{"clock string", "4:30", 1350},
		{"clock with spaces", " 5:00 ", 1500},
		{"comma string", "6,20", 6.20 * 300},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := TotalSeconds(tt.in)
			if err != nil {
				t.Fatalf("TotalSeconds(%v) error = %v", tt.in, err)
			}
			if !almostEqual(got, tt.want) {
				t.Errorf("TotalSeconds(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestTotalSeconds_CommaMatchesDot(t *testing.T) {
	comma, err := TotalSeconds("6,20")
	if err != nil {
		t.Fatal(err)
	}
	dot, err := TotalSeconds(6.20)
	if err != nil {
		t.Fatal(err)
	}
	if comma != dot {
		t.Errorf("comma %v != dot %v", comma, dot)
	}
}

func TestTotalSeconds_Strict(t *testing.T) {
	bad := []any{"", "abc", "4:", ":30", "4:75", "1:2:3", "x:30", nil, true, math.NaN(), math.Inf(1), []int{1}}
	for _, in := range bad {
		if _, err := TotalSeconds(in); !errors.Is(err, ErrInvalidPace) {
			t.Errorf("TotalSeconds(%#v) error = %v, want ErrInvalidPace", in, err)
		}
	}
}

// --- Parse ---

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"4:45", 4.75},
		{"5:30", 5.5},
		{"5.30", 5.3},
		{"5,30", 5.3},
		{"7", 7},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		if err != nil {
			t.Fatalf("Parse(%q) error = %v", tt.in, err)
		}
		if !almostEqual(got, tt.want) {
			t.Errorf("Parse(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

// --- Formatting ---

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0:00:00"},
		{59.9, "0:00:59"},
		{3600, "1:00:00"},
		{5025.4, "1:23:45"},
		{-3, "0:00:00"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.in); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormat(t *testing.T) {
	if got := Format(4.75); got != "4:45" {
		t.Errorf("Format(4.75) = %q", got)
	}
	if got := Format(6.0); got != "6:00" {
		t.Errorf("Format(6.0) = %q", got)
	}
}
