package keystat

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// DateLayout is the calendar-day representation used on the wire.
const DateLayout = "2006-01-02"

// ErrInvalidInterval is returned for intervals whose end precedes the start
// or that have a zero boundary.
var ErrInvalidInterval = errors.New("invalid date interval")

// Point is a single (value, value_date) observation produced by a resolver.
// The zero Point is the placeholder for a date that could not be resolved.
type Point struct {
	Value     float64   `json:"value"`
	ValueDate time.Time `json:"value_date"`
}

// NewPoint creates a point for the given value and date.
func NewPoint(value float64, valueDate time.Time) Point {
	return Point{Value: value, ValueDate: valueDate}
}

// Missing returns the placeholder used for unresolvable dates.
func Missing() Point {
	return Point{}
}

// IsValid reports whether the point carries both a date and a numeric value.
func (p Point) IsValid() bool {
	return !p.ValueDate.IsZero() && !math.IsNaN(p.Value)
}

// KeyStat is a point tagged with the instrument it was resolved for.
type KeyStat struct {
	InstrumentURL string    `json:"instrument_url"`
	Value         float64   `json:"value"`
	ValueDate     time.Time `json:"value_date"`
}

// Day truncates t to midnight UTC of its calendar date. The date component is
// taken in t's own location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Interval is an inclusive range of calendar days.
type Interval struct {
	Start time.Time
	End   time.Time
}

// NewInterval builds an interval and validates it.
func NewInterval(start, end time.Time) (Interval, error) {
	iv := Interval{Start: start, End: end}
	if err := iv.Validate(); err != nil {
		return Interval{}, err
	}
	return iv, nil
}

// Validate checks both boundaries are set and ordered at day granularity.
func (iv Interval) Validate() error {
	if iv.Start.IsZero() || iv.End.IsZero() {
		return fmt.Errorf("%w: missing boundary", ErrInvalidInterval)
	}
	if Day(iv.End).Before(Day(iv.Start)) {
		return fmt.Errorf("%w: end %s is before start %s", ErrInvalidInterval,
			iv.End.Format(DateLayout), iv.Start.Format(DateLayout))
	}
	return nil
}

// Days expands the interval into every calendar day, both ends included.
func (iv Interval) Days() []time.Time {
	start, end := Day(iv.Start), Day(iv.End)
	if end.Before(start) {
		return nil
	}

	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// String renders the interval as an ISO 8601 date interval.
func (iv Interval) String() string {
	return iv.Start.Format(DateLayout) + "/" + iv.End.Format(DateLayout)
}
