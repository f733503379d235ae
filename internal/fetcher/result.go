package fetcher

import (
	"io"
	"net/http"
)

// Response represents the outcome of one request in a batch.
// Either Err is set, or Status and Body describe what the server returned.
type Response struct {
	// Status is the HTTP status code of the final response
	Status int

	// Body holds the response body. It is nil when Err is set.
	Body io.ReadCloser

	// URL is the final URL that produced this response
	URL string

	// Err contains any transport error. If Err is not nil the other fields
	// other than URL should be considered invalid.
	Err error
}

// OK reports whether the request succeeded with HTTP 200.
func (r Response) OK() bool {
	return r.Err == nil && r.Status == http.StatusOK
}

// Close releases the body. It is safe to call on failed responses and more
// than once.
func (r Response) Close() error {
	if r.Body == nil {
		return nil
	}
	// Drain so the connection goes back to the pool.
	_, _ = io.Copy(io.Discard, r.Body)
	return r.Body.Close()
}
