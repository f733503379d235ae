package resolver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"financehistory/internal/archive"
	"financehistory/internal/fetcher"
	"financehistory/internal/keystat"
)

// ArchiveResolver resolves an instrument from replayed captures of its page.
// It holds the instrument's capture index once loaded and must not be shared
// across instruments.
type ArchiveResolver struct {
	instrumentURL string
	deps          Deps
	log           zerolog.Logger

	index *archive.Index
}

// NewArchiveResolver creates a resolver for one instrument URL.
func NewArchiveResolver(instrumentURL string, deps Deps) *ArchiveResolver {
	deps = deps.withDefaults()
	return &ArchiveResolver{
		instrumentURL: instrumentURL,
		deps:          deps,
		log:           deps.Log.With().Str("instrument_url", instrumentURL).Str("resolver", "archive").Logger(),
	}
}

// Resolve implements Resolver. The result has one entry per day that has a
// capture, in day order; days without a capture are skipped.
func (r *ArchiveResolver) Resolve(ctx context.Context, days []time.Time) ([]keystat.Point, error) {
	idx, err := r.loadIndex(ctx)
	if err != nil {
		return nil, err
	}

	var descriptors []fetcher.Descriptor
	for _, day := range days {
		d, err := archive.ReplayDescriptor(day, idx)
		if errors.Is(err, archive.ErrNoCapture) {
			r.log.Warn().Str("date", day.Format(keystat.DateLayout)).Msg("could not find replay for date")
			continue
		}
		if err != nil {
			return nil, err
		}
		r.log.Debug().Str("date", day.Format(keystat.DateLayout)).Str("replay", d.Key()).Msg("replay selected")
		descriptors = append(descriptors, d)
	}

	points := make([]keystat.Point, len(descriptors))
	var missing []int
	for i, d := range descriptors {
		p, found, err := r.deps.Cache.GetPoint(ctx, d.Key())
		if err != nil {
			r.log.Warn().Err(err).Str("replay", d.Key()).Msg("cache lookup failed")
		}
		if found {
			points[i] = p
			continue
		}
		missing = append(missing, i)
	}

	if len(missing) == 0 {
		return points, nil
	}

	batch := make([]fetcher.Descriptor, len(missing))
	for j, i := range missing {
		batch[j] = descriptors[i]
	}

	responses := r.deps.Archive.FetchBatch(ctx, batch)
	if len(responses) != len(batch) {
		for _, resp := range responses {
			resp.Close()
		}
		return nil, fmt.Errorf("fetch batch returned %d responses for %d requests", len(responses), len(batch))
	}

	for j, resp := range responses {
		p := r.parse(resp)
		points[missing[j]] = p
		if p.IsValid() {
			if err := r.deps.Cache.SetPoint(ctx, batch[j].Key(), p); err != nil {
				r.log.Warn().Err(err).Str("replay", batch[j].Key()).Msg("cache store failed")
			}
		}
	}

	return points, nil
}

// parse always closes resp. Any failure yields a placeholder.
func (r *ArchiveResolver) parse(resp fetcher.Response) keystat.Point {
	defer resp.Close()

	if !resp.OK() {
		ev := r.log.Warn().Str("url", resp.URL)
		if resp.Err != nil {
			ev = ev.Err(resp.Err)
		} else {
			ev = ev.Int("status_code", resp.Status)
		}
		ev.Msg("replay request failed")
		return keystat.Missing()
	}

	p, err := r.deps.Parse(resp.Body)
	if err != nil {
		r.log.Warn().Err(err).Str("url", resp.URL).Msg("could not parse replay")
		return keystat.Missing()
	}
	return p
}

func (r *ArchiveResolver) loadIndex(ctx context.Context) (*archive.Index, error) {
	if r.index != nil {
		return r.index, nil
	}

	records, found, err := r.deps.Cache.GetCaptures(ctx, r.instrumentURL)
	if err != nil {
		r.log.Warn().Err(err).Msg("cache lookup failed")
	}
	if !found {
		records, err = r.fetchCaptures(ctx)
		if err != nil {
			return nil, err
		}
	}

	idx, err := archive.BuildIndex(records)
	if err != nil {
		return nil, fmt.Errorf("index of %s: %w", r.instrumentURL, err)
	}

	if !found {
		if err := r.deps.Cache.SetCaptures(ctx, r.instrumentURL, records); err != nil {
			r.log.Warn().Err(err).Msg("cache store failed")
		}
	}

	r.log.Debug().Int("days", idx.Len()).Msg("capture index loaded")
	r.index = idx
	return idx, nil
}

func (r *ArchiveResolver) fetchCaptures(ctx context.Context) ([]archive.CaptureRecord, error) {
	d := archive.IndexDescriptor(r.deps.ReplayBaseURL, r.instrumentURL)
	responses := r.deps.Archive.FetchBatch(ctx, []fetcher.Descriptor{d})
	if len(responses) != 1 {
		for _, resp := range responses {
			resp.Close()
		}
		return nil, fmt.Errorf("fetch batch returned %d responses for 1 request", len(responses))
	}

	resp := responses[0]
	defer resp.Close()

	if err := fetcher.ResponseError(resp); err != nil {
		return nil, err
	}

	records, err := archive.ParseCDXList(resp.Body)
	if err != nil {
		return nil, fetcher.NewFormatError(resp.URL, "could not read capture listing", err)
	}
	return records, nil
}
