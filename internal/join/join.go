// Package join aligns consumption and weather series by calendar day and
// derives the quantities the charts plot. It does no I/O.
package join

import (
	"errors"
	"fmt"
	"time"

	"github.com/jgoulah/energyplot/pkg/models"
)

// ErrMissingDay matches every MissingDayError
var ErrMissingDay = errors.New("day missing from series")

// MissingDayError reports a day present in the base series but absent from
// another series required by the join.
type MissingDayError struct {
	Date   string
	Series string
}

func (e *MissingDayError) Error() string {
	return fmt.Sprintf("%s: %s has no value for %s", ErrMissingDay, e.Series, e.Date)
}

func (e *MissingDayError) Is(target error) bool {
	return target == ErrMissingDay
}

// DayKey truncates t to its calendar date in loc
func DayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(models.DateLayout)
}

// Series is a named day-keyed series that remembers insertion order
type Series struct {
	Name   string
	keys   []string
	values map[string]float64
}

// NewSeries creates an empty series
func NewSeries(name string) *Series {
	return &Series{Name: name, values: make(map[string]float64)}
}

// Add accumulates v into day
func (s *Series) Add(day string, v float64) {
	if _, ok := s.values[day]; !ok {
		s.keys = append(s.keys, day)
	}
	s.values[day] += v
}

// Days returns the day keys in first-seen order
func (s *Series) Days() []string {
	return s.keys
}

// Value returns the value for day
func (s *Series) Value(day string) (float64, bool) {
	v, ok := s.values[day]
	return v, ok
}

// Len returns the number of distinct days
func (s *Series) Len() int {
	return len(s.keys)
}

// Map returns a new series with f applied to every value
func (s *Series) Map(name string, f func(float64) float64) *Series {
	out := NewSeries(name)
	for _, k := range s.keys {
		out.Add(k, f(s.values[k]))
	}
	return out
}

// Daily buckets readings into a series keyed by their start day in loc.
// Readings on the same day are summed.
func Daily(name string, readings []models.ConsumptionReading, loc *time.Location) *Series {
	s := NewSeries(name)
	for _, r := range readings {
		s.Add(DayKey(r.Start, loc), r.Quantity)
	}
	return s
}

// Weather builds a temperature series from weather days
func Weather(name string, days []models.WeatherDay) *Series {
	s := NewSeries(name)
	for _, d := range days {
		s.Add(d.Key(), d.Temperature)
	}
	return s
}

// Row is one joined day. Values holds the base series first, then each
// other series in the order passed to Join.
type Row struct {
	Date   string
	Values []float64
}

// Join inner-joins others onto base, in base's day order. A day missing
// from any series while present in another is an error, never silently
// dropped.
func Join(base *Series, others ...*Series) ([]Row, error) {
	rows := make([]Row, 0, base.Len())
	for _, day := range base.keys {
		values := make([]float64, 0, len(others)+1)
		values = append(values, base.values[day])
		for _, other := range others {
			v, ok := other.values[day]
			if !ok {
				return nil, &MissingDayError{Date: day, Series: other.Name}
			}
			values = append(values, v)
		}
		rows = append(rows, Row{Date: day, Values: values})
	}

	for _, other := range others {
		for _, day := range other.keys {
			if _, ok := base.values[day]; !ok {
				return nil, &MissingDayError{Date: day, Series: base.Name}
			}
		}
	}

	return rows, nil
}

// Split partitions rows into those before cutoff and those on or after it,
// preserving order within each partition.
func Split(rows []Row, cutoff time.Time) (before, after []Row) {
	key := cutoff.Format(models.DateLayout)
	for _, r := range rows {
		// yyyy-MM-dd keys sort lexically
		if r.Date < key {
			before = append(before, r)
		} else {
			after = append(after, r)
		}
	}
	return before, after
}

// XY is a single chart coordinate
type XY struct {
	X, Y float64
}

// Points selects two value columns as ordered (x, y) pairs
func Points(rows []Row, xCol, yCol int) []XY {
	pts := make([]XY, len(rows))
	for i, r := range rows {
		pts[i] = XY{X: r.Values[xCol], Y: r.Values[yCol]}
	}
	return pts
}

// TimePoints pairs each row's date, as unix seconds in UTC, with a value column
func TimePoints(rows []Row, col int) ([]XY, error) {
	pts := make([]XY, len(rows))
	for i, r := range rows {
		d, err := time.Parse(models.DateLayout, r.Date)
		if err != nil {
			return nil, fmt.Errorf("parsing day %q: %w", r.Date, err)
		}
		pts[i] = XY{X: float64(d.Unix()), Y: r.Values[col]}
	}
	return pts, nil
}

// SeriesRows turns a single series into rows with one value column
func SeriesRows(s *Series) []Row {
	rows, _ := Join(s)
	return rows
}
