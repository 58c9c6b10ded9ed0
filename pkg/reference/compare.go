package reference

import (
	"fmt"
	"math"

	"github.com/AlanSteinbarth/Kalkulator-dla-biegaczy/pkg/profile"
)

const (
	// DefaultBins is the histogram resolution.
	DefaultBins = 40

	// AgeSpread is the half-width, in years, of the age comparison group.
	AgeSpread = 1
)

// Bin is one histogram bucket, in minutes. Start is inclusive; End is
// exclusive except for the last bin.
type Bin struct {
	Start float64 `json:"start" yaml:"start"`
	End   float64 `json:"end" yaml:"end"`
	Count int     `json:"count" yaml:"count"`
}

// Group summarises finish times of one comparison group.
type Group struct {
	Label string `json:"label" yaml:"label"`
	Count int    `json:"count" yaml:"count"`
	// MeanMinutes is the group's average finish time.
	MeanMinutes float64 `json:"mean_minutes" yaml:"mean_minutes"`
	// Percentile is the share of the group, in percent, that finished
	// faster than the predicted time.
	Percentile float64 `json:"percentile" yaml:"percentile"`
	Histogram  []Bin   `json:"histogram" yaml:"histogram"`
	// UserBin is the index of the bin holding the predicted time, or -1
	// when it falls outside the group's range.
	UserBin int `json:"user_bin" yaml:"user_bin"`
}

// Comparison places a predicted time among comparable runners.
type Comparison struct {
	PredictedMinutes float64 `json:"predicted_minutes" yaml:"predicted_minutes"`
	Gender           *Group  `json:"gender,omitempty" yaml:"gender,omitempty"`
	Age              *Group  `json:"age,omitempty" yaml:"age,omitempty"`
}

// Compare builds the gender and age group summaries for p's predicted
// time in seconds. A group with no runners is left nil.
func (d *Dataset) Compare(p profile.Profile, predictedSeconds float64, bins int) Comparison {
	if bins <= 0 {
		bins = DefaultBins
	}
	predicted := predictedSeconds / 60
	cmp := Comparison{PredictedMinutes: predicted}

	if g, err := Summarise(fmt.Sprintf("Płeć: %s", p.Gender.Display()), d.ByGender(p.Gender), predicted, bins); err == nil {
		cmp.Gender = g
	}
	label := fmt.Sprintf("Wiek: %d-%d lat", p.Age-AgeSpread, p.Age+AgeSpread)
	if g, err := Summarise(label, d.ByAge(p.Age, AgeSpread), predicted, bins); err == nil {
		cmp.Age = g
	}
	return cmp
}

// Summarise computes the statistics of seconds relative to predicted,
// which is in minutes.
func Summarise(label string, seconds []float64, predicted float64, bins int) (*Group, error) {
	if len(seconds) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoData, label)
	}

	minutes := make([]float64, len(seconds))
	var sum float64
	var faster int
	for i, s := range seconds {
		m := s / 60
		minutes[i] = m
		sum += m
		if m < predicted {
			faster++
		}
	}

	hist, userBin := Histogram(minutes, bins, predicted)
	return &Group{
		Label:       label,
		Count:       len(minutes),
		MeanMinutes: sum / float64(len(minutes)),
		Percentile:  100 * float64(faster) / float64(len(minutes)),
		Histogram:   hist,
		UserBin:     userBin,
	}, nil
}

// Histogram splits values into n equal-width bins between their minimum
// and maximum. It also returns the bin containing mark, or -1.
func Histogram(values []float64, n int, mark float64) ([]Bin, int) {
	if len(values) == 0 || n <= 0 {
		return nil, -1
	}

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi == lo {
		// All values equal: a single bin one minute wide.
		hi = lo + 1
		n = 1
	}

	width := (hi - lo) / float64(n)
	bins := make([]Bin, n)
	for i := range bins {
		bins[i].Start = lo + float64(i)*width
		bins[i].End = lo + float64(i+1)*width
	}
	bins[n-1].End = hi

	index := func(v float64) int {
		i := int((v - lo) / width)
		if i >= n {
			i = n - 1
		}
		return i
	}
	for _, v := range values {
		bins[index(v)].Count++
	}

	userBin := -1
	if mark >= lo && mark <= hi {
		userBin = index(mark)
	}
	return bins, userBin
}
