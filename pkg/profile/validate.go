package profile

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cast"
)

// Bounds holds the accepted value ranges.
type Bounds struct {
	MinAge   int     `mapstructure:"min_age" yaml:"min_age" validate:"gte=0"`
	MaxAge   int     `mapstructure:"max_age" yaml:"max_age" validate:"gtefield=MinAge"`
	MinTempo float64 `mapstructure:"min_tempo" yaml:"min_tempo" validate:"gt=0"`
	MaxTempo float64 `mapstructure:"max_tempo" yaml:"max_tempo" validate:"gtefield=MinTempo"`
}

// DefaultBounds returns the production limits.
func DefaultBounds() Bounds {
	return Bounds{
		MinAge:   10,
		MaxAge:   100,
		MinTempo: 3.0,
		MaxTempo: 10.0,
	}
}

// Result is the outcome of validating a record.
type Result struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// Error joins the messages, for use in log lines and wrapped errors.
func (r Result) Error() string {
	return strings.Join(r.Errors, "; ")
}

var validate = validator.New()

// Validate checks rec against b.
//
// Presence is checked first: every absent key yields one message and the
// value checks are skipped. Otherwise age, gender and pace are checked
// independently and each failure adds exactly one message.
func Validate(rec Record, b Bounds) Result {
	var errs []string
	for _, k := range rec.Missing() {
		errs = append(errs, fmt.Sprintf("Brak pola: %s", k))
	}
	if len(errs) > 0 {
		return Result{Valid: false, Errors: errs}
	}

	if age, ok := coerceAge(rec[KeyAge]); !ok || validate.Var(age, fmt.Sprintf("gte=%d,lte=%d", b.MinAge, b.MaxAge)) != nil {
		errs = append(errs, fmt.Sprintf("Wiek powinien być liczbą z zakresu %d-%d lat", b.MinAge, b.MaxAge))
	}

	if g, ok := coerceGender(rec[KeyGender]); !ok || validate.Var(g, "oneof=M K") != nil {
		errs = append(errs, "Płeć powinna być określona jako 'M' lub 'K'")
	}

	if pace, ok := coercePace(rec[KeyPace]); !ok || validate.Var(pace, fmt.Sprintf("gte=%g,lte=%g", b.MinTempo, b.MaxTempo)) != nil {
		errs = append(errs, fmt.Sprintf("Tempo na 5km powinno być liczbą z zakresu %.1f-%.1f min/km", b.MinTempo, b.MaxTempo))
	}

	return Result{Valid: len(errs) == 0, Errors: errs}
}

// FromRecord validates rec and, when it passes, converts it to a Profile.
func FromRecord(rec Record, b Bounds) (Profile, Result) {
	res := Validate(rec, b)
	if !res.Valid {
		return Profile{}, res
	}
	age, _ := coerceAge(rec[KeyAge])
	g, _ := coerceGender(rec[KeyGender])
	pace, _ := coercePace(rec[KeyPace])
	return Profile{
		Age:    age,
		Gender: Gender(g),
		Pace:   pace,
	}, res
}

// ageString matches decimal whole numbers, optionally written as "30.0".
var ageString = regexp.MustCompile(`^[+-]?\d+(?:\.0+)?$`)

// coerceAge converts an age value. Decimal whole-number strings and numeric
// types are accepted; fractional numbers are truncated. Strings are always
// read in base 10, so "010" is 10 and "0x1E" is not an age. Booleans and
// nil are not ages.
func coerceAge(v any) (int, bool) {
	switch t := v.(type) {
	case nil, bool:
		return 0, false
	case string:
		t = strings.TrimSpace(t)
		if !ageString.MatchString(t) {
			return 0, false
		}
		whole, _, _ := strings.Cut(t, ".")
		n, err := strconv.Atoi(whole)
		if err != nil {
			return 0, false
		}
		return n, true
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0, false
		}
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// coerceGender accepts only the exact codes, as strings or Gender values.
func coerceGender(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case Gender:
		return string(t), true
	}
	return "", false
}

// coercePace converts a pace value in decimal minutes. Numeric strings are
// accepted with either a dot or a comma as the decimal separator.
func coercePace(v any) (float64, bool) {
	switch t := v.(type) {
	case nil, bool:
		return 0, false
	case string:
		t = strings.ReplaceAll(strings.TrimSpace(t), ",", ".")
		if t == "" {
			return 0, false
		}
		v = t
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// ValidateBounds checks that b describes non-empty ranges.
func ValidateBounds(b Bounds) error {
	if err := validate.Struct(b); err != nil {
		return fmt.Errorf("invalid bounds: %w", err)
	}
	return nil
}
