package coordinator

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"financehistory/internal/keystat"
	"financehistory/internal/resolver"
)

// Selector picks the resolver for one instrument
type Selector interface {
	Select(instrumentURL string) resolver.Resolver
}

// SelectorFunc adapts a function to Selector
type SelectorFunc func(instrumentURL string) resolver.Resolver

// Select implements Selector
func (f SelectorFunc) Select(instrumentURL string) resolver.Resolver {
	return f(instrumentURL)
}

// Coordinator runs a key stats query across instruments and merges the
// per-instrument results
type Coordinator struct {
	selector    Selector
	parallelism int
	log         zerolog.Logger
}

// New creates a new Coordinator. With parallelism above 1 up to that many
// instruments are resolved at once; the merged result is the same either way.
func New(selector Selector, parallelism int, log zerolog.Logger) *Coordinator {
	if parallelism < 1 {
		parallelism = 1
	}
	return &Coordinator{
		selector:    selector,
		parallelism: parallelism,
		log:         log,
	}
}

// Query returns the key stats of every instrument for every day of the
// interval, ordered by day and then by the instrument's position in
// instrumentURLs. Any instrument failing fails the whole query.
func (c *Coordinator) Query(ctx context.Context, interval keystat.Interval, instrumentURLs []string) ([]keystat.KeyStat, error) {
	if len(instrumentURLs) == 0 {
		return []keystat.KeyStat{}, nil
	}
	if err := interval.Validate(); err != nil {
		return nil, err
	}

	days := interval.Days()
	start := time.Now()

	perInstrument := make([][]keystat.KeyStat, len(instrumentURLs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.parallelism)
	for i, url := range instrumentURLs {
		g.Go(func() error {
			stats, err := c.resolve(gctx, url, days)
			if err != nil {
				return err
			}
			perInstrument[i] = stats
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []keystat.KeyStat
	for _, stats := range perInstrument {
		all = append(all, stats...)
	}
	merged := keystat.SortUniq(all, instrumentURLs)

	c.log.Info().
		Str("interval", interval.String()).
		Int("instruments", len(instrumentURLs)).
		Int("results", len(merged)).
		Dur("elapsed", time.Since(start)).
		Msg("query completed")

	return merged, nil
}

func (c *Coordinator) resolve(ctx context.Context, url string, days []time.Time) ([]keystat.KeyStat, error) {
	points, err := c.selector.Select(url).Resolve(ctx, days)
	if err != nil {
		c.log.Error().Err(err).Str("instrument_url", url).Msg("instrument failed")
		return nil, fmt.Errorf("resolve %s: %w", url, err)
	}

	stats := keystat.Tag(url, points)
	if dropped := len(points) - len(stats); dropped > 0 {
		c.log.Debug().Str("instrument_url", url).Int("dropped", dropped).Msg("invalid points dropped")
	}
	return stats, nil
}
