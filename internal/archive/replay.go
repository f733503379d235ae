package archive

import (
	"errors"
	"fmt"
	"time"

	"financehistory/internal/fetcher"
	"financehistory/internal/keystat"
)

// ErrNoCapture is returned when the index has no capture for a day. It is
// recoverable: the day is skipped.
var ErrNoCapture = errors.New("no capture available")

// ReplayDescriptor builds the request replaying the capture that represents
// day, or ErrNoCapture when the index has none.
func ReplayDescriptor(day time.Time, idx *Index) (fetcher.Descriptor, error) {
	ref, ok := idx.Lookup(day)
	if !ok {
		return fetcher.Descriptor{}, fmt.Errorf("%w for %s", ErrNoCapture, day.Format(keystat.DateLayout))
	}
	return fetcher.NewDescriptor(ref), nil
}
