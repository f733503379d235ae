package seligson

import (
	"context"

	"github.com/rs/zerolog"
	"resty.dev/v3"

	"financehistory/internal/fetcher"
	"financehistory/internal/ratelimit"
)

// Client downloads feeds
type Client struct {
	client  *resty.Client
	limiter *ratelimit.Limiter
	log     zerolog.Logger
}

// NewClient creates a feed client. limiter may be nil.
func NewClient(client *resty.Client, limiter *ratelimit.Limiter, log zerolog.Logger) *Client {
	return &Client{
		client:  client,
		limiter: limiter,
		log:     log,
	}
}

// FetchSeries downloads and parses one feed. Transport failures, non-200
// answers and unreadable feeds are all returned as *fetcher.FetchError.
func (c *Client) FetchSeries(ctx context.Context, feedURL string) ([]Observation, error) {
	if err := c.limiter.Wait(ctx, ratelimit.SourceFeed); err != nil {
		return nil, fetcher.NewTimeoutError(feedURL, err)
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(feedURL)
	if err != nil {
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		return nil, fetcher.NewNetworkError(feedURL, err)
	}

	r := fetcher.Response{Status: resp.StatusCode(), Body: resp.Body, URL: feedURL}
	defer r.Close()

	if !r.OK() {
		return nil, fetcher.ResponseError(r)
	}

	obs, err := ParseFeed(r.Body)
	if err != nil {
		return nil, fetcher.NewFormatError(feedURL, "could not parse feed", err)
	}

	c.log.Debug().Str("feed", feedURL).Int("rows", len(obs)).Msg("feed parsed")
	return obs, nil
}
