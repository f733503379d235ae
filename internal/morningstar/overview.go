// Package morningstar parses archived Morningstar snapshot pages.
package morningstar

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"financehistory/internal/keystat"
)

// ErrNoKeyStats is returned when a page has no dated key stats row.
var ErrNoKeyStats = errors.New("no key stats on page")

var dateLayouts = []string{"02.01.2006", "02/01/2006", "2006-01-02"}

var numberRe = regexp.MustCompile(`[-+]?\d[\d .,]*`)

// ParseOverviewKeyStats extracts the headline value of the overview key stats
// table. The first row whose heading carries a date wins, e.g.
//
//	<td class="line heading">NAV<span class="heading"><br />13.03.2015</span></td>
//	<td class="line">&nbsp;</td><td class="line text">EUR 6,74</td>
func ParseOverviewKeyStats(r io.Reader) (keystat.Point, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return keystat.Point{}, fmt.Errorf("parse overview page: %w", err)
	}

	var (
		point keystat.Point
		found bool
		perr  error
	)
	doc.Find("table.overviewKeyStatsTable tr").EachWithBreak(func(i int, row *goquery.Selection) bool {
		heading := row.Find("td.heading").First()
		if heading.Length() == 0 {
			return true
		}
		date, ok := parseDate(heading.Find("span.heading").Text())
		if !ok {
			return true
		}

		found = true
		text := row.Find("td.text").Last().Text()
		value, err := ParseValue(text)
		if err != nil {
			perr = err
			return false
		}
		point = keystat.NewPoint(value, date)
		return false
	})

	if !found {
		return keystat.Point{}, ErrNoKeyStats
	}
	if perr != nil {
		return keystat.Point{}, perr
	}
	return point, nil
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, "\u00a0", " "))
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseValue reads a number the way Finnish pages print them: optional
// currency text around it, spaces or NBSP as thousand separators and a comma
// as the decimal mark. "1,234.5" style input is accepted as well.
func ParseValue(s string) (float64, error) {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	m := numberRe.FindString(s)
	if m == "" {
		return 0, fmt.Errorf("no number in %q", strings.TrimSpace(s))
	}
	m = strings.TrimRight(strings.ReplaceAll(m, " ", ""), ".,")
	if strings.Contains(m, ",") && strings.Contains(m, ".") {
		m = strings.ReplaceAll(m, ",", "")
	} else {
		m = strings.ReplaceAll(m, ",", ".")
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, fmt.Errorf("parse value %q: %w", strings.TrimSpace(s), err)
	}
	return v, nil
}
