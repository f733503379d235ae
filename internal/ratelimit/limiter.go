package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Source identifies an upstream we send requests to
type Source string

const (
	// SourceArchive is the web-archive replay host (capture indexes and replays)
	SourceArchive Source = "archive"
	// SourceFeed is the vendor CSV feed host
	SourceFeed Source = "feed"
)

// Limiter manages rate limits for different upstreams
type Limiter struct {
	limiters map[Source]*rate.Limiter
	mu       sync.RWMutex
}

// New creates a limiter from requests-per-second limits. A limit of zero or
// less leaves that source unlimited.
func New(limits map[Source]float64) *Limiter {
	l := &Limiter{
		limiters: make(map[Source]*rate.Limiter),
	}
	for src, rps := range limits {
		l.Set(src, rps)
	}
	return l
}

// Unlimited returns a limiter that never blocks
func Unlimited() *Limiter {
	return New(nil)
}

// Set replaces the limit for a source
func (l *Limiter) Set(src Source, rps float64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if rps <= 0 {
		delete(l.limiters, src)
		return
	}

	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	l.limiters[src] = rate.NewLimiter(rate.Limit(rps), burst)
}

// Wait blocks until the rate limiter permits an event for the given source
// It returns an error if the context is canceled before the event can proceed
func (l *Limiter) Wait(ctx context.Context, src Source) error {
	if l == nil {
		return nil
	}

	l.mu.RLock()
	limiter, exists := l.limiters[src]
	l.mu.RUnlock()

	if !exists {
		// If no limiter exists for this source, allow the request without limiting
		return nil
	}

	return limiter.Wait(ctx)
}
