package archive

import (
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"financehistory/internal/fetcher"
)

// pywb renders capture times client-side:
//
//	<script>document.write(ts_to_date("20150312190004", true))</script>
var tsToDate = regexp.MustCompile(`ts_to_date\(\s*"([^"]*)"`)

// IndexDescriptor builds the request for the pywb capture listing of
// instrumentURL under replayBaseURL.
func IndexDescriptor(replayBaseURL, instrumentURL string) fetcher.Descriptor {
	full := strings.TrimRight(replayBaseURL, "/") + "/pywb-cdx/*/" + instrumentURL
	return fetcher.NewDescriptor(full)
}

// ParseCDXList reads a pywb capture listing page. The first table row is the
// header; every following row is one capture with its replay link, its
// timestamp script and, in the second cell, the recorded HTTP status. pywb
// leaves the status cell empty for captures it did not record a status for;
// those are served as regular pages and count as 200.
func ParseCDXList(r io.Reader) ([]CaptureRecord, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse capture listing: %w", err)
	}

	var records []CaptureRecord
	doc.Find("tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() == 0 {
			return
		}

		rec := CaptureRecord{Status: parseStatus(cells.Eq(1).Text())}
		if m := tsToDate.FindStringSubmatch(row.Find("script").Text()); m != nil {
			rec.Timestamp = m[1]
		}
		if href, ok := row.Find("a").Attr("href"); ok {
			rec.Replay = strings.TrimSpace(href)
		}
		records = append(records, rec)
	})

	return records, nil
}

func parseStatus(text string) int {
	text = strings.TrimSpace(text)
	if text == "" || text == "-" {
		return http.StatusOK
	}
	status, err := strconv.Atoi(text)
	if err != nil {
		return 0
	}
	return status
}
