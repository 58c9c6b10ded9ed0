package extractor

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/AlanSteinbarth/Kalkulator-dla-biegaczy/pkg/pace"
	"github.com/AlanSteinbarth/Kalkulator-dla-biegaczy/pkg/profile"
)

// Rules run against lower-cased text. RE2 has neither lookahead nor a
// Unicode-aware \b, so boundaries next to Polish letters are spelled out
// with \p{L} classes and "(?:\D|$)" stands in for "not followed by a digit".

// AgeRule matches an age followed by a years marker.
type AgeRule struct {
	Name    string
	Pattern *regexp.Regexp
}

// Apply returns the age captured by the rule.
func (r AgeRule) Apply(text string) (int, bool) {
	m := r.Pattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// AgeRules are tried in order; the first match wins.
var AgeRules = []AgeRule{
	{
		Name:    "years-marker",
		Pattern: regexp.MustCompile(`(\d{1,3})\s*(?:lat|l\b|roku|years?)`),
	},
}

// GenderRule matches a gender-indicating token and classifies it.
type GenderRule struct {
	Name     string
	Pattern  *regexp.Regexp
	Classify func(token string) (profile.Gender, bool)
}

// Apply returns the gender found by the rule.
func (r GenderRule) Apply(text string) (profile.Gender, bool) {
	m := r.Pattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return r.Classify(m[1])
}

// GenderRules are tried in order. Whole words come first, so a stray
// letter elsewhere in the text never outranks "kobieta" or "facet".
var GenderRules = []GenderRule{
	{
		Name:     "word",
		Pattern:  regexp.MustCompile(`(kobiet\p{L}*|mężczyzn\p{L}*|facet\p{L}*|chłop\p{L}*)`),
		Classify: classifyGender,
	},
	{
		Name:     "letter",
		Pattern:  regexp.MustCompile(`(?:^|[^\p{L}\d])([km])(?:[^\p{L}\d]|$)`),
		Classify: classifyGender,
	},
}

// classifyGender maps a matched token to a gender. Tokens that name
// neither gender are reported as unresolved rather than defaulted.
func classifyGender(token string) (profile.Gender, bool) {
	token = strings.TrimSpace(token)
	switch {
	case strings.Contains(token, "kobiet"):
		return profile.Female, true
	case strings.Contains(token, "mężczyzn"), strings.Contains(token, "facet"), strings.Contains(token, "chłop"):
		return profile.Male, true
	case token == "k":
		return profile.Female, true
	case token == "m":
		return profile.Male, true
	default:
		return "", false
	}
}

// PaceRule pairs a pattern with the normaliser for its capture.
type PaceRule struct {
	Name      string
	Pattern   *regexp.Regexp
	Normalize func(string) (float64, error)
}

// Apply returns the pace in decimal minutes found by the rule.
func (r PaceRule) Apply(text string) (float64, bool) {
	m := r.Pattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	v, err := r.Normalize(m[1])
	if err != nil {
		return 0, false
	}
	return v, true
}

// normalizeDecimal reads "5.30" or "6,20" as decimal minutes.
func normalizeDecimal(s string) (float64, error) {
	return strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
}

// normalizeClock reads "4:45" as minutes plus seconds/60. Seconds are not
// range-checked, so "4:75" reads as 5.25 and the validator judges the
// result.
func normalizeClock(s string) (float64, error) {
	mins, secs, ok := strings.Cut(s, ":")
	if !ok {
		return 0, fmt.Errorf("%w: %q is not MM:SS", pace.ErrInvalidPace, s)
	}
	m, err := strconv.Atoi(mins)
	if err != nil {
		return 0, fmt.Errorf("%w: bad minutes in %q", pace.ErrInvalidPace, s)
	}
	n, err := strconv.Atoi(secs)
	if err != nil {
		return 0, fmt.Errorf("%w: bad seconds in %q", pace.ErrInvalidPace, s)
	}
	return float64(m) + float64(n)/60, nil
}

const minSuffix = `(?:min(?:ut)?(?:y|ę)?(?:\s*(?:na|/|\s+)\s*km)?)`

// PaceRules run from most to least specific; the first match wins.
var PaceRules = []PaceRule{
	{
		Name:      "decimal-with-unit",
		Pattern:   regexp.MustCompile(`(\d{1,2}[.,]\d{1,2})\s*` + minSuffix),
		Normalize: normalizeDecimal,
	},
	{
		Name:      "clock-with-optional-unit",
		Pattern:   regexp.MustCompile(`(\d{1,2}:\d{2})\s*` + minSuffix + `?`),
		Normalize: normalizeClock,
	},
	{
		Name:      "tempo-decimal",
		Pattern:   regexp.MustCompile(`tempo[:\s]*(\d{1,2}[.,]\d{1,2})`),
		Normalize: normalizeDecimal,
	},
	{
		Name:      "tempo-clock",
		Pattern:   regexp.MustCompile(`tempo[:\s]*(\d{1,2}:\d{2})`),
		Normalize: normalizeClock,
	},
	{
		Name:      "biegam-decimal",
		Pattern:   regexp.MustCompile(`biegam[^0-9]*(\d{1,2}[.,]\d{1,2})`),
		Normalize: normalizeDecimal,
	},
	{
		Name:      "bare-clock",
		Pattern:   regexp.MustCompile(`(\d{1,2}:\d{2})(?:\D|$)`),
		Normalize: normalizeClock,
	},
	{
		Name:      "bare-decimal",
		Pattern:   regexp.MustCompile(`(\d{1,2}[.,]\d{1,2})(?:\D|$)`),
		Normalize: normalizeDecimal,
	},
}

// ResolveAge applies AgeRules to lower-cased text.
func ResolveAge(text string) (int, bool) {
	for _, r := range AgeRules {
		if v, ok := r.Apply(text); ok {
			return v, true
		}
	}
	return 0, false
}

// ResolveGender applies GenderRules to lower-cased text.
func ResolveGender(text string) (profile.Gender, bool) {
	for _, r := range GenderRules {
		if v, ok := r.Apply(text); ok {
			return v, true
		}
	}
	return "", false
}

// ResolvePace applies PaceRules to lower-cased text.
func ResolvePace(text string) (float64, bool) {
	for _, r := range PaceRules {
		if v, ok := r.Apply(text); ok {
			return v, true
		}
	}
	return 0, false
}
