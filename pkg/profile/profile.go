// Package profile defines the runner profile used for half-marathon
// predictions and the rules that decide whether a profile is usable.
//
// A profile travels through the system in two shapes: as a loosely typed
// Record (the three canonical keys, as produced by an LLM response or a
// form) and as a typed Profile once it has passed validation.
package profile

import (
	"fmt"
)

// Canonical record keys. They match the column names of the reference
// dataset and the feature names of the prediction model.
const (
	KeyAge    = "Wiek"
	KeyGender = "Płeć"
	KeyPace   = "5 km Tempo"
)

// RequiredKeys lists the record keys in declaration order.
var RequiredKeys = []string{KeyAge, KeyGender, KeyPace}

// Gender is the two-value gender code used by the model.
type Gender string

const (
	Male   Gender = "M"
	Female Gender = "K"
)

// Valid reports whether g is one of the known codes.
func (g Gender) Valid() bool {
	return g == Male || g == Female
}

// Display returns the human-readable Polish name of the gender.
func (g Gender) Display() string {
	if g == Male {
		return "Mężczyzna"
	}
	return "Kobieta"
}

// ParseGender accepts the canonical codes in any case.
func ParseGender(s string) (Gender, error) {
	switch s {
	case "M", "m":
		return Male, nil
	case "K", "k":
		return Female, nil
	default:
		return "", fmt.Errorf("unknown gender code %q (want M or K)", s)
	}
}

// Profile is a validated runner profile.
type Profile struct {
	Age    int     `json:"Wiek" yaml:"wiek"`
	Gender Gender  `json:"Płeć" yaml:"plec"`
	Pace   float64 `json:"5 km Tempo" yaml:"tempo_5km"`
}

// Record returns the profile as a loosely typed record.
func (p Profile) Record() Record {
	return Record{
		KeyAge:    p.Age,
		KeyGender: string(p.Gender),
		KeyPace:   p.Pace,
	}
}

// Record is a partial, loosely typed profile keyed by the canonical names.
// Values may be numbers, numeric strings or anything else a caller
// received; Validate decides what is acceptable.
type Record map[string]any

// Missing returns the required keys absent from r, in declaration order.
func (r Record) Missing() []string {
	var missing []string
	for _, k := range RequiredKeys {
		if _, ok := r[k]; !ok {
			missing = append(missing, k)
		}
	}
	return missing
}
