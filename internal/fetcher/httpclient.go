package fetcher

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"resty.dev/v3"
)

const (
	// Default retry configuration
	defaultRetryCount       = 3
	defaultRetryWaitTime    = 1 * time.Second
	defaultRetryMaxWaitTime = 10 * time.Second

	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "financehistory/1.0"
	minConnPoolSize  = 10
)

// ClientOptions configures the HTTP client shared by a batch fetcher.
type ClientOptions struct {
	// BaseURL is optional; descriptors normally carry absolute URLs
	BaseURL string
	// Timeout bounds each request attempt
	Timeout time.Duration
	// MaxConns sizes the connection pool; see ConnPoolSize
	MaxConns int
	// RetryCount overrides the default; negative disables retries
	RetryCount int
}

// ConnPoolSize returns a connection pool size large enough that a batch with
// the given concurrency never waits on a free connection.
func ConnPoolSize(concurrency int) int {
	return max(minConnPoolSize, 2*concurrency)
}

// NewHTTPClient creates a new HTTP client with retry logic and exponential backoff
func NewHTTPClient(opts ClientOptions, log zerolog.Logger) *resty.Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	conns := opts.MaxConns
	if conns <= 0 {
		conns = minConnPoolSize
	}
	retries := opts.RetryCount
	switch {
	case retries == 0:
		retries = defaultRetryCount
	case retries < 0:
		retries = 0
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConns = conns
	transport.MaxIdleConnsPerHost = conns
	transport.MaxConnsPerHost = conns

	client := resty.NewWithClient(&http.Client{
		Transport: transport,
		Timeout:   timeout,
	}).
		SetHeader("Accept", "text/html,application/xhtml+xml,text/csv;q=0.9,*/*;q=0.8").
		SetHeader("User-Agent", defaultUserAgent).
		SetRetryCount(retries).
		SetRetryWaitTime(defaultRetryWaitTime).
		SetRetryMaxWaitTime(defaultRetryMaxWaitTime).
		AddRetryConditions(retryCondition).
		AddRetryHooks(retryHook(log))

	if opts.BaseURL != "" {
		client.SetBaseURL(opts.BaseURL)
	}

	return client
}

// retryCondition determines whether a request should be retried based on the response and error
func retryCondition(r *resty.Response, err error) bool {
	// Retry on network errors
	if err != nil {
		return true
	}

	switch code := r.StatusCode(); {
	case code >= 500:
		return true
	case code == http.StatusTooManyRequests, code == http.StatusRequestTimeout:
		return true
	default:
		// Don't retry on other client errors; a missing replay stays missing
		return false
	}
}

// retryHook logs retry attempts for observability
func retryHook(log zerolog.Logger) func(*resty.Response, error) {
	return func(r *resty.Response, err error) {
		if err != nil {
			log.Debug().
				Str("url", r.Request.URL).
				Int("attempt", r.Request.Attempt).
				Err(err).
				Msg("retrying request due to error")
			return
		}

		log.Debug().
			Str("url", r.Request.URL).
			Int("attempt", r.Request.Attempt).
			Int("status_code", r.StatusCode()).
			Msg("retrying request due to status code")
	}
}
