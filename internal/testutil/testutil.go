package testutil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"financehistory/internal/archive"
	"financehistory/internal/fetcher"
	"financehistory/internal/keystat"
	"financehistory/internal/seligson"
)

// MockBatchFetcher is a mock implementation of fetcher.BatchFetcher for testing.
// Every call is recorded.
type MockBatchFetcher struct {
	FetchFunc func(ctx context.Context, d fetcher.Descriptor) fetcher.Response

	mu      sync.Mutex
	Batches [][]fetcher.Descriptor
}

// FetchBatch implements fetcher.BatchFetcher
func (m *MockBatchFetcher) FetchBatch(ctx context.Context, descriptors []fetcher.Descriptor) []fetcher.Response {
	m.mu.Lock()
	m.Batches = append(m.Batches, append([]fetcher.Descriptor(nil), descriptors...))
	m.mu.Unlock()

	responses := make([]fetcher.Response, len(descriptors))
	for i, d := range descriptors {
		if m.FetchFunc != nil {
			responses[i] = m.FetchFunc(ctx, d)
		} else {
			responses[i] = NewResponse(d.URL, http.StatusNotFound, "")
		}
	}
	return responses
}

// Requested returns the keys of every descriptor fetched so far, in order.
func (m *MockBatchFetcher) Requested() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var keys []string
	for _, batch := range m.Batches {
		for _, d := range batch {
			keys = append(keys, d.Key())
		}
	}
	return keys
}

// NewStaticBatchFetcher answers from a map of descriptor key to (status, body).
// Unknown keys get a 404.
func NewStaticBatchFetcher(pages map[string]Page) *MockBatchFetcher {
	return &MockBatchFetcher{
		FetchFunc: func(ctx context.Context, d fetcher.Descriptor) fetcher.Response {
			p, ok := pages[d.Key()]
			if !ok {
				return NewResponse(d.Key(), http.StatusNotFound, "not found")
			}
			if p.Err != nil {
				return fetcher.Response{URL: d.Key(), Err: p.Err}
			}
			status := p.Status
			if status == 0 {
				status = http.StatusOK
			}
			return NewResponse(d.Key(), status, p.Body)
		},
	}
}

// Page is a canned response for NewStaticBatchFetcher
type Page struct {
	Status int
	Body   string
	Err    error
}

// NewResponse builds a response whose body tracks Close calls.
func NewResponse(url string, status int, body string) fetcher.Response {
	return fetcher.Response{
		Status: status,
		Body:   &Body{Reader: strings.NewReader(body)},
		URL:    url,
	}
}

// Body is an io.ReadCloser that records whether it was closed
type Body struct {
	io.Reader
	mu     sync.Mutex
	closed bool
}

// Close implements io.Closer
func (b *Body) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

// Closed reports whether Close was called
func (b *Body) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// CDXRow is one capture row of a pywb listing page
type CDXRow struct {
	Timestamp string
	Status    string
	Replay    string
}

// CDXPage renders a pywb capture listing in the layout pywb serves.
func CDXPage(rows ...CDXRow) string {
	var b strings.Builder
	b.WriteString("<html><body><table id=\"captures\">\n")
	b.WriteString("<tr><th>Timestamp</th><th>Status</th><th>Original URL</th></tr>\n")
	for _, r := range rows {
		fmt.Fprintf(&b, "<tr><td><a href=\"%s\"><script>document.write(ts_to_date(\"%s\", true))</script></a></td>"+
			"<td>%s</td><td>original</td></tr>\n", r.Replay, r.Timestamp, r.Status)
	}
	b.WriteString("</table></body></html>")
	return b.String()
}

// OverviewPage renders a snapshot page whose key stats table carries one
// dated row, e.g. OverviewPage("NAV", "13.03.2015", "EUR&nbsp;6,74").
func OverviewPage(label, date, value string) string {
	return `<html><body><div id="overviewQuickstatsDiv">
<table class="snapshotTextColor snapshotTextFontStyle snapshotTable overviewKeyStatsTable" border="0">
<tr><td class="titleBarHeading" colspan="3">Key Stats</td></tr>
<tr><td class="line heading">` + label + `<span class="heading"><br />` + date + `</span></td>
<td class="line">&nbsp;</td><td class="line text">` + value + `</td></tr>
<tr><td class="line heading">Day Change</td><td class="line">&nbsp;</td><td class="line text">0,15%</td></tr>
</table></div></body></html>`
}

// MemoryCache is an in-process implementation of the resolver cache.
type MemoryCache struct {
	mu       sync.Mutex
	points   map[string]keystat.Point
	captures map[string][]archive.CaptureRecord

	PointGets int
	PointSets int
}

// NewMemoryCache creates an empty cache
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		points:   make(map[string]keystat.Point),
		captures: make(map[string][]archive.CaptureRecord),
	}
}

// GetPoint returns a memoized point
func (c *MemoryCache) GetPoint(ctx context.Context, key string) (keystat.Point, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.PointGets++
	p, ok := c.points[key]
	return p, ok, nil
}

// SetPoint memoizes a point
func (c *MemoryCache) SetPoint(ctx context.Context, key string, p keystat.Point) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.PointSets++
	c.points[key] = p
	return nil
}

// GetCaptures returns a memoized capture listing
func (c *MemoryCache) GetCaptures(ctx context.Context, instrumentURL string) ([]archive.CaptureRecord, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.captures[instrumentURL]
	return r, ok, nil
}

// SetCaptures memoizes a capture listing
func (c *MemoryCache) SetCaptures(ctx context.Context, instrumentURL string, records []archive.CaptureRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.captures[instrumentURL] = records
	return nil
}

// MockResolver is a mock resolver for testing
type MockResolver struct {
	ResolveFunc func(ctx context.Context, days []time.Time) ([]keystat.Point, error)
}

// Resolve implements resolver.Resolver
func (m *MockResolver) Resolve(ctx context.Context, days []time.Time) ([]keystat.Point, error) {
	if m.ResolveFunc != nil {
		return m.ResolveFunc(ctx, days)
	}
	return nil, nil
}

// NewMockResolver returns a resolver that always answers with points
func NewMockResolver(points ...keystat.Point) *MockResolver {
	return &MockResolver{
		ResolveFunc: func(ctx context.Context, days []time.Time) ([]keystat.Point, error) {
			return points, nil
		},
	}
}

// MockFeedFetcher is a mock feed download
type MockFeedFetcher struct {
	FetchFunc func(ctx context.Context, feedURL string) ([]seligson.Observation, error)

	mu    sync.Mutex
	Calls []string
}

// FetchSeries implements resolver.FeedFetcher
func (m *MockFeedFetcher) FetchSeries(ctx context.Context, feedURL string) ([]seligson.Observation, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, feedURL)
	m.mu.Unlock()

	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, feedURL)
	}
	return nil, nil
}
