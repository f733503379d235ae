// Package resolver turns a set of requested days into key stat points for one
// instrument, either from web-archive replays or from a vendor feed.
package resolver

import (
	"context"
	"io"
	"time"

	"github.com/rs/zerolog"

	"financehistory/internal/archive"
	"financehistory/internal/fetcher"
	"financehistory/internal/keystat"
	"financehistory/internal/morningstar"
	"financehistory/internal/seligson"
)

// Resolver resolves one instrument. The returned points may contain
// placeholders (see keystat.Point.IsValid) for days that could not be
// resolved. An error means the whole instrument failed.
type Resolver interface {
	Resolve(ctx context.Context, days []time.Time) ([]keystat.Point, error)
}

// FeedFetcher downloads a vendor feed
type FeedFetcher interface {
	FetchSeries(ctx context.Context, feedURL string) ([]seligson.Observation, error)
}

// Cache memoizes capture listings and parsed replays. Implementations must
// treat a miss and a failure alike from the caller's point of view; errors
// are only logged.
type Cache interface {
	GetPoint(ctx context.Context, requestKey string) (keystat.Point, bool, error)
	SetPoint(ctx context.Context, requestKey string, p keystat.Point) error
	GetCaptures(ctx context.Context, instrumentURL string) ([]archive.CaptureRecord, bool, error)
	SetCaptures(ctx context.Context, instrumentURL string, records []archive.CaptureRecord) error
}

// PageParser extracts a point from a replayed page
type PageParser func(body io.Reader) (keystat.Point, error)

// Deps are the collaborators shared by every resolver of a query.
type Deps struct {
	ReplayBaseURL string
	Archive       fetcher.BatchFetcher
	Feeds         FeedFetcher
	Cache         Cache
	Parse         PageParser
	Log           zerolog.Logger
}

func (d Deps) withDefaults() Deps {
	if d.Cache == nil {
		d.Cache = nopCache{}
	}
	if d.Parse == nil {
		d.Parse = morningstar.ParseOverviewKeyStats
	}
	return d
}

type nopCache struct{}

func (nopCache) GetPoint(context.Context, string) (keystat.Point, bool, error) {
	return keystat.Point{}, false, nil
}

func (nopCache) SetPoint(context.Context, string, keystat.Point) error { return nil }

func (nopCache) GetCaptures(context.Context, string) ([]archive.CaptureRecord, bool, error) {
	return nil, false, nil
}

func (nopCache) SetCaptures(context.Context, string, []archive.CaptureRecord) error { return nil }
