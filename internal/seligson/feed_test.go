package seligson

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financehistory/internal/fetcher"
	"financehistory/internal/ratelimit"
)

const globalBrands = `09.03.2015;6,65
10.03.2015;6.70
11.03.2015;
12.03.2015;NaN
13.03.2015;6.74
`

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseFeed(t *testing.T) {
	obs, err := ParseFeed(strings.NewReader(globalBrands))
	require.NoError(t, err)
	require.Len(t, obs, 5)

	assert.Equal(t, date(2015, 3, 9), obs[0].Date)
	assert.InDelta(t, 6.65, obs[0].Value, 1e-9)
	assert.InDelta(t, 6.70, obs[1].Value, 1e-9)
	assert.True(t, math.IsNaN(obs[2].Value), "empty value")
	assert.True(t, math.IsNaN(obs[3].Value), "NaN value")
	assert.Equal(t, date(2015, 3, 13), obs[4].Date)
}

func TestParseFeed_SkipsBlankLines(t *testing.T) {
	obs, err := ParseFeed(strings.NewReader("\n1.2.2015;1.5\n\n"))
	require.NoError(t, err)
	require.Len(t, obs, 1)
	assert.Equal(t, date(2015, 2, 1), obs[0].Date, "dates are day first")
}

func TestParseFeed_BadDate(t *testing.T) {
	_, err := ParseFeed(strings.NewReader("09.03.2015;6.65\nyesterday;6.70\n"))
	require.ErrorIs(t, err, ErrFeedFormat)
	assert.Contains(t, err.Error(), "line 2")
}

func TestFeeds(t *testing.T) {
	assert.Len(t, Feeds, 3)
	assert.Equal(t, "http://www.seligson.fi/graafit/global-pharma.csv",
		Feeds["http://www.morningstar.fi/fi/funds/snapshot/snapshot.aspx?id=F0GBR04UMF"])
}

func newTestClient() *Client {
	hc := fetcher.NewHTTPClient(fetcher.ClientOptions{Timeout: 5 * time.Second, RetryCount: -1}, zerolog.Nop())
	return NewClient(hc, ratelimit.Unlimited(), zerolog.Nop())
}

func TestClient_FetchSeries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/graafit/global-brands.csv", r.URL.Path)
		w.Header().Set("Content-Type", "text/csv")
		w.Write([]byte(globalBrands))
	}))
	defer server.Close()

	obs, err := newTestClient().FetchSeries(context.Background(), server.URL+"/graafit/global-brands.csv")
	require.NoError(t, err)
	assert.Len(t, obs, 5)
}

func TestClient_FetchSeries_Errors(t *testing.T) {
	tests := []struct {
		name     string
		handler  http.HandlerFunc
		wantType fetcher.ErrorType
	}{
		{
			name: "not found",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
			wantType: fetcher.ErrorTypeClient,
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
			wantType: fetcher.ErrorTypeServer,
		},
		{
			name: "html instead of csv",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("<html><body>Maintenance</body></html>"))
			},
			wantType: fetcher.ErrorTypeFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			_, err := newTestClient().FetchSeries(context.Background(), server.URL+"/feed.csv")
			require.Error(t, err)

			var fe *fetcher.FetchError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, tt.wantType, fe.Type)
		})
	}
}

func TestClient_FetchSeries_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL + "/feed.csv"
	server.Close()

	_, err := newTestClient().FetchSeries(context.Background(), url)

	var fe *fetcher.FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, fetcher.ErrorTypeNetwork, fe.Type)
}
