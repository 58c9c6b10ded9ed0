// Package reference loads the dataset of past half-marathon finishers and
// places a predicted time among comparable runners.
package reference

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cast"

	"github.com/AlanSteinbarth/Kalkulator-dla-biegaczy/internal/cache"
	"github.com/AlanSteinbarth/Kalkulator-dla-biegaczy/internal/logger"
	"github.com/AlanSteinbarth/Kalkulator-dla-biegaczy/pkg/profile"
)

// Column names in the reference CSV.
const (
	ColumnAge    = profile.KeyAge
	ColumnGender = profile.KeyGender
	ColumnTime   = "Czas"
)

// ErrNoData is returned when a comparison group is empty.
var ErrNoData = errors.New("no reference data for group")

// Runner is one finisher in the reference dataset.
type Runner struct {
	Age    int
	Gender profile.Gender
	// Seconds is the half-marathon finish time.
	Seconds float64
}

// Dataset is the in-memory reference table.
type Dataset struct {
	Runners []Runner
	// Skipped counts rows dropped because a value could not be read.
	Skipped int
	// Size is the number of bytes read.
	Size int64
}

// LoadFile reads the dataset at path.
func LoadFile(path string) (*Dataset, error) {
	f, err := os.Open(path) //#nosec G304
	if err != nil {
		return nil, fmt.Errorf("open reference data: %w", err)
	}
	defer f.Close()

	ds, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if info, err := f.Stat(); err == nil {
		ds.Size = info.Size()
	}
	logger.Info("reference data loaded",
		"path", path,
		"runners", len(ds.Runners),
		"skipped", ds.Skipped,
		"size", humanize.IBytes(uint64(ds.Size)))
	return ds, nil
}

// Load parses CSV with a header row. Columns are found by name; extra
// columns are ignored. Rows with an unreadable age, gender or time are
// skipped and counted.
func Load(r io.Reader) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("reference data is empty")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols := map[string]int{}
	for i, name := range header {
		cols[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	for _, want := range []string{ColumnAge, ColumnGender, ColumnTime} {
		if _, ok := cols[want]; !ok {
			return nil, fmt.Errorf("reference data has no %q column", want)
		}
	}
	ageCol, genderCol, timeCol := cols[ColumnAge], cols[ColumnGender], cols[ColumnTime]

	ds := &Dataset{}
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		runner, ok := parseRow(row, ageCol, genderCol, timeCol)
		if !ok {
			ds.Skipped++
			continue
		}
		ds.Runners = append(ds.Runners, runner)
	}
	return ds, nil
}

func parseRow(row []string, ageCol, genderCol, timeCol int) (Runner, bool) {
	if ageCol >= len(row) || genderCol >= len(row) || timeCol >= len(row) {
		return Runner{}, false
	}

	ageText, timeText := strings.TrimSpace(row[ageCol]), strings.TrimSpace(row[timeCol])
	if ageText == "" || timeText == "" {
		return Runner{}, false
	}

	age, err := cast.ToFloat64E(ageText)
	if err != nil {
		return Runner{}, false
	}
	g, err := profile.ParseGender(strings.TrimSpace(row[genderCol]))
	if err != nil {
		return Runner{}, false
	}
	secs, err := cast.ToFloat64E(timeText)
	if err != nil || secs <= 0 {
		return Runner{}, false
	}
	return Runner{Age: int(age), Gender: g, Seconds: secs}, true
}

// ByGender returns the finish times of runners with gender g.
func (d *Dataset) ByGender(g profile.Gender) []float64 {
	var out []float64
	for _, r := range d.Runners {
		if r.Gender == g {
			out = append(out, r.Seconds)
		}
	}
	return out
}

// ByAge returns the finish times of runners whose age is within spread
// years of age, inclusive.
func (d *Dataset) ByAge(age, spread int) []float64 {
	var out []float64
	for _, r := range d.Runners {
		if r.Age >= age-spread && r.Age <= age+spread {
			out = append(out, r.Seconds)
		}
	}
	return out
}

// Loader provides the reference dataset.
type Loader interface {
	Dataset(ctx context.Context) (*Dataset, error)
}

// FileSource loads the dataset from a CSV file and keeps it for a TTL.
type FileSource struct {
	path  string
	cache *cache.Cache[*Dataset]
}

// NewFileSource creates a loader for path. The file is read on first use
// and again after ttl; a zero ttl keeps it for the life of the process.
func NewFileSource(path string, ttl time.Duration) *FileSource {
	return &FileSource{path: path, cache: cache.New[*Dataset](ttl)}
}

// Path returns the dataset location.
func (s *FileSource) Path() string {
	return s.path
}

// Dataset returns the cached dataset, loading it when needed.
func (s *FileSource) Dataset(ctx context.Context) (*Dataset, error) {
	return s.cache.GetOrLoad(ctx, s.path, func(context.Context) (*Dataset, error) {
		return LoadFile(s.path)
	})
}

// StaticSource serves an already loaded dataset.
type StaticSource struct {
	Data *Dataset
}

// Dataset returns s.Data.
func (s StaticSource) Dataset(context.Context) (*Dataset, error) {
	if s.Data == nil {
		return nil, errors.New("no reference data loaded")
	}
	return s.Data, nil
}
