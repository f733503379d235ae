// Package archive turns a web-archive capture listing into a per-day index of
// replayable snapshots and builds the requests that fetch them.
package archive

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"financehistory/internal/keystat"
)

// TimestampLayout is the 14-digit capture timestamp format (YYYYMMDDhhmmss, UTC).
const TimestampLayout = "20060102150405"

// ErrTimestampFormat means the archive listing changed format under us.
var ErrTimestampFormat = errors.New("unexpected capture timestamp format")

// CaptureRecord is one row of a capture listing.
type CaptureRecord struct {
	Timestamp string `json:"timestamp"`
	Status    int    `json:"status"`
	Replay    string `json:"replay"`
}

// Successful reports whether the capture recorded an HTTP 200.
func (r CaptureRecord) Successful() bool {
	return r.Status == http.StatusOK
}

// Time parses the capture timestamp.
func (r CaptureRecord) Time() (time.Time, error) {
	if len(r.Timestamp) != len(TimestampLayout) {
		return time.Time{}, fmt.Errorf("%w: %q", ErrTimestampFormat, r.Timestamp)
	}
	t, err := time.ParseInLocation(TimestampLayout, r.Timestamp, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", ErrTimestampFormat, r.Timestamp, err)
	}
	return t, nil
}

type capture struct {
	at     time.Time
	replay string
}

// Index maps a calendar day to the replay reference of the last successful
// capture taken that day. It is immutable once built.
type Index struct {
	days map[time.Time]capture
}

// BuildIndex keeps successful captures only and, per calendar day, the one
// with the latest timestamp. Equal timestamps resolve to the later record.
// A malformed timestamp on a successful record fails the whole build.
func BuildIndex(records []CaptureRecord) (*Index, error) {
	idx := &Index{days: make(map[time.Time]capture)}

	for _, rec := range records {
		if !rec.Successful() {
			continue
		}
		at, err := rec.Time()
		if err != nil {
			return nil, err
		}

		day := keystat.Day(at)
		if cur, ok := idx.days[day]; ok && at.Before(cur.at) {
			continue
		}
		idx.days[day] = capture{at: at, replay: rec.Replay}
	}

	return idx, nil
}

// Lookup returns the replay reference for the calendar day of t.
func (idx *Index) Lookup(t time.Time) (string, bool) {
	if idx == nil {
		return "", false
	}
	c, ok := idx.days[keystat.Day(t)]
	return c.replay, ok
}

// Len returns the number of indexed days.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.days)
}

// Days returns the indexed days in ascending order.
func (idx *Index) Days() []time.Time {
	if idx == nil {
		return nil
	}
	days := make([]time.Time, 0, len(idx.days))
	for d := range idx.days {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}
