package fetcher

import (
	"bytes"
	"context"
	"io"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/iter"
	"resty.dev/v3"

	"financehistory/internal/ratelimit"
)

// Batcher is the resty-backed BatchFetcher. At most concurrency requests are
// in flight at once; responses come back in descriptor order regardless of
// completion order. Bodies are read in full and the connection released
// before a worker moves on, so a batch never holds more connections than it
// has workers.
type Batcher struct {
	client      *resty.Client
	limiter     *ratelimit.Limiter
	source      ratelimit.Source
	concurrency int
	log         zerolog.Logger
}

// NewBatcher creates a batch fetcher for one upstream source.
func NewBatcher(client *resty.Client, limiter *ratelimit.Limiter, source ratelimit.Source, concurrency int, log zerolog.Logger) *Batcher {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Batcher{
		client:      client,
		limiter:     limiter,
		source:      source,
		concurrency: concurrency,
		log:         log,
	}
}

// FetchBatch implements BatchFetcher
func (b *Batcher) FetchBatch(ctx context.Context, descriptors []Descriptor) []Response {
	mapper := iter.Mapper[Descriptor, Response]{MaxGoroutines: b.concurrency}
	return mapper.Map(descriptors, func(d *Descriptor) Response {
		return b.fetch(ctx, *d)
	})
}

func (b *Batcher) fetch(ctx context.Context, d Descriptor) Response {
	if err := b.limiter.Wait(ctx, b.source); err != nil {
		return Response{URL: d.URL, Err: NewTimeoutError(d.URL, err)}
	}

	resp, err := b.client.R().
		SetContext(ctx).
		SetQueryParams(d.Params).
		SetDoNotParseResponse(true).
		Get(d.URL)

	if err != nil {
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		b.log.Debug().Str("url", d.URL).Err(err).Msg("request failed")
		return Response{URL: d.URL, Err: NewNetworkError(d.URL, err)}
	}

	finalURL := resp.Request.URL
	if resp.RawResponse != nil && resp.RawResponse.Request != nil {
		finalURL = resp.RawResponse.Request.URL.String()
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		b.log.Debug().Str("url", finalURL).Err(err).Msg("reading body failed")
		return Response{URL: finalURL, Err: NewNetworkError(finalURL, err)}
	}

	b.log.Debug().
		Str("url", finalURL).
		Int("status_code", resp.StatusCode()).
		Int("bytes", len(body)).
		Msg("request completed")

	return Response{
		Status: resp.StatusCode(),
		Body:   io.NopCloser(bytes.NewReader(body)),
		URL:    finalURL,
	}
}
