package resolver

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog"

	"financehistory/internal/keystat"
)

// FeedResolver resolves an instrument from its vendor feed.
type FeedResolver struct {
	instrumentURL string
	feedURL       string
	deps          Deps
	log           zerolog.Logger
}

// NewFeedResolver creates a resolver reading feedURL on behalf of instrumentURL.
func NewFeedResolver(instrumentURL, feedURL string, deps Deps) *FeedResolver {
	deps = deps.withDefaults()
	return &FeedResolver{
		instrumentURL: instrumentURL,
		feedURL:       feedURL,
		deps:          deps,
		log: deps.Log.With().
			Str("instrument_url", instrumentURL).
			Str("feed", feedURL).
			Str("resolver", "feed").
			Logger(),
	}
}

// Resolve implements Resolver. It returns one entry per requested day, with
// placeholders for days the feed lacks or has no value for. If no requested
// day is in the feed at all the result is empty.
func (r *FeedResolver) Resolve(ctx context.Context, days []time.Time) ([]keystat.Point, error) {
	r.log.Debug().Msg("querying feed")
	obs, err := r.deps.Feeds.FetchSeries(ctx, r.feedURL)
	if err != nil {
		return nil, err
	}

	byDay := make(map[time.Time]float64, len(obs))
	for _, o := range obs {
		byDay[keystat.Day(o.Date)] = o.Value
	}

	matched := false
	for _, day := range days {
		if _, ok := byDay[keystat.Day(day)]; ok {
			matched = true
			break
		}
	}
	if !matched {
		r.log.Error().Int("days", len(days)).Msg("no requested date in feed")
		return []keystat.Point{}, nil
	}

	points := make([]keystat.Point, 0, len(days))
	for _, day := range days {
		d := keystat.Day(day)
		v, ok := byDay[d]
		if !ok || math.IsNaN(v) {
			points = append(points, keystat.Missing())
			continue
		}
		points = append(points, keystat.NewPoint(v, d))
	}
	return points, nil
}
