// Package pace converts running paces between their textual and numeric
// forms and derives the 5 km time the prediction model takes as input.
package pace

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// Distance is the reference distance in kilometres.
const Distance = 5

// ErrInvalidPace is returned for input that is not a pace.
var ErrInvalidPace = errors.New("invalid pace")

// Parse converts a pace string to decimal minutes per kilometre.
//
// "MM:SS" is read as minutes plus seconds/60. Anything else is read as a
// decimal number, with either a dot or a comma as the separator.
func Parse(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidPace)
	}

	if strings.Contains(s, ":") {
		return parseClock(s)
	}

	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPace, s)
	}
	return checkFinite(f, s)
}

func parseClock(s string) (float64, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("%w: %q is not MM:SS", ErrInvalidPace, s)
	}
	minutes, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || minutes < 0 {
		return 0, fmt.Errorf("%w: bad minutes in %q", ErrInvalidPace, s)
	}
	seconds, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil || seconds < 0 || seconds >= 60 {
		return 0, fmt.Errorf("%w: bad seconds in %q", ErrInvalidPace, s)
	}
	return float64(minutes) + seconds/60, nil
}

func checkFinite(f float64, src string) (float64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPace, src)
	}
	return f, nil
}

// Minutes converts any supported pace value (number or string) to decimal
// minutes per kilometre.
func Minutes(v any) (float64, error) {
	switch t := v.(type) {
	case nil, bool:
		return 0, fmt.Errorf("%w: %v", ErrInvalidPace, v)
	case string:
		return Parse(t)
	case fmt.Stringer:
		return Parse(t.String())
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidPace, err)
	}
	return checkFinite(f, fmt.Sprint(v))
}

// TotalSeconds returns the time in seconds for Distance kilometres at the
// given pace. It is strict: any value Minutes rejects is returned as an
// error wrapping ErrInvalidPace.
func TotalSeconds(v any) (float64, error) {
	m, err := Minutes(v)
	if err != nil {
		return 0, err
	}
	return m * Distance * 60, nil
}

// FormatDuration renders seconds as H:MM:SS, dropping fractions.
func FormatDuration(seconds float64) string {
	total := int(seconds)
	if total < 0 {
		total = 0
	}
	return fmt.Sprintf("%d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}

// Format renders decimal minutes per kilometre as M:SS.
func Format(minutes float64) string {
	total := int(math.Round(minutes * 60))
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
