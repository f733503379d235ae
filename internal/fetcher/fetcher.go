package fetcher

import (
	"context"
	"net/url"
	"sort"
	"strings"
)

// Descriptor describes one GET request: a base URL plus query parameters.
// Descriptors are matched back to whatever produced them by position in the
// batch, never by content.
type Descriptor struct {
	URL    string
	Params map[string]string
}

// NewDescriptor splits a full URL into its base part and query parameters.
// Repeated parameters keep their first value.
func NewDescriptor(rawURL string) Descriptor {
	base, query, _ := strings.Cut(rawURL, "?")
	params := make(map[string]string)
	if values, err := url.ParseQuery(query); err == nil {
		for k, v := range values {
			if len(v) > 0 {
				params[k] = v[0]
			}
		}
	}
	return Descriptor{URL: base, Params: params}
}

// Key returns a stable identity for the descriptor, suitable as a cache key.
func (d Descriptor) Key() string {
	if len(d.Params) == 0 {
		return d.URL
	}
	keys := make([]string, 0, len(d.Params))
	for k := range d.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	values := url.Values{}
	for _, k := range keys {
		values.Set(k, d.Params[k])
	}
	return d.URL + "?" + values.Encode()
}

// BatchFetcher issues a batch of GET requests with bounded concurrency.
// The returned slice always has the same length and order as descriptors.
// A failure of one request is reported in that Response and never aborts
// the batch. Callers must Close every Response.
type BatchFetcher interface {
	FetchBatch(ctx context.Context, descriptors []Descriptor) []Response
}
