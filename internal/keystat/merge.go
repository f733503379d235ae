package keystat

import (
	"slices"
)

// Tag attaches the instrument URL to every valid point and normalizes the
// value date to day granularity. Placeholders are dropped.
func Tag(instrumentURL string, points []Point) []KeyStat {
	stats := make([]KeyStat, 0, len(points))
	for _, p := range points {
		if !p.IsValid() {
			continue
		}
		stats = append(stats, KeyStat{
			InstrumentURL: instrumentURL,
			Value:         p.Value,
			ValueDate:     Day(p.ValueDate.UTC()),
		})
	}
	return stats
}

// SortUniq orders stats by (value_date, position of instrument_url in
// instruments) and collapses runs sharing that key to their first element.
// The sort is stable, so the first element of a run is the one that came
// first in stats. Instruments missing from the list sort after known ones.
func SortUniq(stats []KeyStat, instruments []string) []KeyStat {
	position := make(map[string]int, len(instruments))
	for i, u := range instruments {
		if _, seen := position[u]; !seen {
			position[u] = i
		}
	}
	rank := func(u string) int {
		if i, ok := position[u]; ok {
			return i
		}
		return len(instruments)
	}

	sorted := make([]KeyStat, len(stats))
	copy(sorted, stats)
	slices.SortStableFunc(sorted, func(a, b KeyStat) int {
		if c := a.ValueDate.Compare(b.ValueDate); c != 0 {
			return c
		}
		return rank(a.InstrumentURL) - rank(b.InstrumentURL)
	})

	return slices.CompactFunc(sorted, func(a, b KeyStat) bool {
		return a.ValueDate.Equal(b.ValueDate) && a.InstrumentURL == b.InstrumentURL
	})
}
