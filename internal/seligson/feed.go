// Package seligson reads the Seligson fund value CSV feeds.
package seligson

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
)

// Feeds maps the Morningstar snapshot URLs of Seligson funds to the CSV feed
// carrying the same fund's daily values.
var Feeds = map[string]string{
	"http://www.morningstar.fi/fi/funds/snapshot/snapshot.aspx?id=F0GBR04O2R": "http://www.seligson.fi/graafit/global-brands.csv",
	"http://www.morningstar.fi/fi/funds/snapshot/snapshot.aspx?id=F0GBR04UMF": "http://www.seligson.fi/graafit/global-pharma.csv",
	"http://www.morningstar.fi/fi/funds/snapshot/snapshot.aspx?id=F0GBR04O2J": "http://www.seligson.fi/graafit/rahamarkkina.csv",
}

// ErrFeedFormat is returned for rows the feed parser cannot read.
var ErrFeedFormat = errors.New("unexpected feed format")

var dateLayouts = []string{"02.01.2006", "2.1.2006", "02/01/2006", "2006-01-02"}

// Observation is one row of a feed. Value is NaN when the feed has no value
// for the day.
type Observation struct {
	Date  time.Time
	Value float64
}

// ParseFeed reads a headerless "date;value" feed with day-first dates.
// Unreadable dates fail the whole feed; unreadable values become NaN.
func ParseFeed(r io.Reader) ([]Observation, error) {
	reader := csv.NewReader(r)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var out []Observation
	for line := 1; ; line++ {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrFeedFormat, err)
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}

		date, err := parseDate(rec[0])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrFeedFormat, line, err)
		}

		value := math.NaN()
		if len(rec) > 1 {
			value = parseValue(rec[1])
		}
		out = append(out, Observation{Date: date, Value: value})
	}
	return out, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("bad date %q", s)
}

func parseValue(s string) float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
