package resolver

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financehistory/internal/archive"
	"financehistory/internal/fetcher"
	"financehistory/internal/keystat"
	"financehistory/internal/testutil"
)

const (
	baseURL    = "http://basehost.com/basepath"
	instrument = "http://url1.com"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysBetween(start, end time.Time) []time.Time {
	return keystat.Interval{Start: start, End: end}.Days()
}

func replayURL(ts string) string {
	return baseURL + "/" + ts + "/" + instrument
}

func indexKey() string {
	return archive.IndexDescriptor(baseURL, instrument).Key()
}

// archivePages serves a listing with captures on 2015-03-10 and 2015-03-14
// whose pages report the previous trading day's NAV.
func archivePages() map[string]testutil.Page {
	return map[string]testutil.Page{
		indexKey(): {Body: testutil.CDXPage(
			testutil.CDXRow{Timestamp: "20150310080000", Status: "200", Replay: replayURL("20150310080000")},
			testutil.CDXRow{Timestamp: "20150310220004", Status: "200", Replay: replayURL("20150310220004")},
			testutil.CDXRow{Timestamp: "20150312220004", Status: "404", Replay: replayURL("20150312220004")},
			testutil.CDXRow{Timestamp: "20150314220004", Status: "", Replay: replayURL("20150314220004")},
		)},
		replayURL("20150310080000"): {Body: testutil.OverviewPage("NAV", "06.03.2015", "EUR 6,60")},
		replayURL("20150310220004"): {Body: testutil.OverviewPage("NAV", "09.03.2015", "EUR&nbsp;6,65")},
		replayURL("20150314220004"): {Body: testutil.OverviewPage("NAV", "13.03.2015", "EUR&nbsp;6,74")},
	}
}

func newArchiveResolver(f fetcher.BatchFetcher, c Cache) *ArchiveResolver {
	return NewArchiveResolver(instrument, Deps{
		ReplayBaseURL: baseURL,
		Archive:       f,
		Cache:         c,
		Log:           zerolog.Nop(),
	})
}

func TestArchiveResolver_Resolve(t *testing.T) {
	f := testutil.NewStaticBatchFetcher(archivePages())
	r := newArchiveResolver(f, nil)

	points, err := r.Resolve(context.Background(), daysBetween(day(2015, 3, 10), day(2015, 3, 14)))
	require.NoError(t, err)

	assert.Equal(t, []keystat.Point{
		keystat.NewPoint(6.65, day(2015, 3, 9)),
		keystat.NewPoint(6.74, day(2015, 3, 13)),
	}, points)

	// one index lookup, then one batch with only the days that have a capture
	require.Len(t, f.Batches, 2)
	assert.Len(t, f.Batches[0], 1)
	assert.Equal(t, []string{replayURL("20150310220004"), replayURL("20150314220004")},
		f.Requested()[1:])
}

func TestArchiveResolver_PerItemFailures(t *testing.T) {
	tests := []struct {
		name string
		page testutil.Page
	}{
		{name: "not found", page: testutil.Page{Status: http.StatusNotFound, Body: "gone"}},
		{name: "server error", page: testutil.Page{Status: http.StatusBadGateway}},
		{name: "unparsable page", page: testutil.Page{Body: "<html><body>Sign in</body></html>"}},
		{name: "transport error", page: testutil.Page{Err: fetcher.NewNetworkError(replayURL("20150310220004"), errors.New("connection reset"))}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pages := archivePages()
			pages[replayURL("20150310220004")] = tt.page

			var bodies []*testutil.Body
			static := testutil.NewStaticBatchFetcher(pages)
			f := &testutil.MockBatchFetcher{
				FetchFunc: func(ctx context.Context, d fetcher.Descriptor) fetcher.Response {
					resp := static.FetchFunc(ctx, d)
					if b, ok := resp.Body.(*testutil.Body); ok {
						bodies = append(bodies, b)
					}
					return resp
				},
			}

			points, err := newArchiveResolver(f, nil).Resolve(context.Background(),
				daysBetween(day(2015, 3, 10), day(2015, 3, 14)))
			require.NoError(t, err)

			require.Len(t, points, 2)
			assert.False(t, points[0].IsValid(), "failed day becomes a placeholder")
			assert.Equal(t, keystat.NewPoint(6.74, day(2015, 3, 13)), points[1])

			for _, b := range bodies {
				assert.True(t, b.Closed(), "every response body is closed")
			}
		})
	}
}

func TestArchiveResolver_DaysWithoutCaptureAreSkipped(t *testing.T) {
	f := testutil.NewStaticBatchFetcher(archivePages())

	points, err := newArchiveResolver(f, nil).Resolve(context.Background(),
		daysBetween(day(2015, 3, 11), day(2015, 3, 13)))
	require.NoError(t, err)
	assert.Empty(t, points)

	// no replay batch is issued when nothing is left to fetch
	assert.Len(t, f.Batches, 1)
}

func TestArchiveResolver_IndexFailuresAreFatal(t *testing.T) {
	tests := []struct {
		name    string
		page    testutil.Page
		checkFn func(t *testing.T, err error)
	}{
		{
			name: "index unavailable",
			page: testutil.Page{Status: http.StatusServiceUnavailable},
			checkFn: func(t *testing.T, err error) {
				var fe *fetcher.FetchError
				require.True(t, errors.As(err, &fe))
				assert.Equal(t, fetcher.ErrorTypeServer, fe.Type)
			},
		},
		{
			name: "index unreachable",
			page: testutil.Page{Err: fetcher.NewNetworkError(indexKey(), errors.New("no route to host"))},
			checkFn: func(t *testing.T, err error) {
				var fe *fetcher.FetchError
				require.True(t, errors.As(err, &fe))
				assert.Equal(t, fetcher.ErrorTypeNetwork, fe.Type)
			},
		},
		{
			name: "timestamp format drift",
			page: testutil.Page{Body: testutil.CDXPage(
				testutil.CDXRow{Timestamp: "2015-03-10 22:00", Status: "200", Replay: replayURL("x")},
			)},
			checkFn: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, archive.ErrTimestampFormat)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pages := archivePages()
			pages[indexKey()] = tt.page

			_, err := newArchiveResolver(testutil.NewStaticBatchFetcher(pages), nil).
				Resolve(context.Background(), []time.Time{day(2015, 3, 10)})
			require.Error(t, err)
			tt.checkFn(t, err)
		})
	}
}

func TestArchiveResolver_Idempotent(t *testing.T) {
	days := daysBetween(day(2015, 3, 1), day(2015, 3, 31))

	first, err := newArchiveResolver(testutil.NewStaticBatchFetcher(archivePages()), nil).
		Resolve(context.Background(), days)
	require.NoError(t, err)

	second, err := newArchiveResolver(testutil.NewStaticBatchFetcher(archivePages()), nil).
		Resolve(context.Background(), days)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestArchiveResolver_UsesCache(t *testing.T) {
	c := testutil.NewMemoryCache()
	days := daysBetween(day(2015, 3, 10), day(2015, 3, 14))

	cold := testutil.NewStaticBatchFetcher(archivePages())
	first, err := newArchiveResolver(cold, c).Resolve(context.Background(), days)
	require.NoError(t, err)
	assert.Equal(t, 2, c.PointSets)

	warm := testutil.NewStaticBatchFetcher(archivePages())
	second, err := newArchiveResolver(warm, c).Resolve(context.Background(), days)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Empty(t, warm.Batches, "listing and replays come from the cache")
}

func TestArchiveResolver_PlaceholdersAreNotCached(t *testing.T) {
	pages := archivePages()
	pages[replayURL("20150310220004")] = testutil.Page{Status: http.StatusNotFound}

	c := testutil.NewMemoryCache()
	_, err := newArchiveResolver(testutil.NewStaticBatchFetcher(pages), c).
		Resolve(context.Background(), daysBetween(day(2015, 3, 10), day(2015, 3, 14)))
	require.NoError(t, err)
	assert.Equal(t, 1, c.PointSets)

	_, found, _ := c.GetPoint(context.Background(), replayURL("20150310220004"))
	assert.False(t, found)
}
