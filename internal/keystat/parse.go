package keystat

import (
	"fmt"
	"strings"
	"time"
)

var boundaryLayouts = []string{
	DateLayout,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// ParseInterval parses an ISO 8601 date interval: a single date or datetime,
// or two of them separated by "/". A single boundary is a one-day interval.
func ParseInterval(s string) (Interval, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Interval{}, fmt.Errorf("%w: empty", ErrInvalidInterval)
	}

	startText, endText, isPair := strings.Cut(s, "/")
	start, err := parseBoundary(startText)
	if err != nil {
		return Interval{}, err
	}
	if !isPair {
		return NewInterval(start, start)
	}

	end, err := parseBoundary(endText)
	if err != nil {
		return Interval{}, err
	}
	return NewInterval(start, end)
}

func parseBoundary(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range boundaryLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: cannot parse %q", ErrInvalidInterval, s)
}
