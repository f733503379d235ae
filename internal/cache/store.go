// Package cache memoizes parsed key stats and capture listings in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"financehistory/internal/archive"
	"financehistory/internal/keystat"
)

const keyPrefix = "financehistory"

// Config configures the store. A TTL of zero disables that half of the cache.
type Config struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int

	PointTTL time.Duration
	ListTTL  time.Duration
}

// Store is a Redis-backed memo of replay results. When disabled every
// operation is a no-op and every lookup misses.
type Store struct {
	rdb      *redis.Client
	enabled  bool
	pointTTL time.Duration
	listTTL  time.Duration
}

// New connects to Redis when cfg.Enabled is set.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if !cfg.Enabled {
		return &Store{enabled: false}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &Store{
		rdb:      rdb,
		enabled:  true,
		pointTTL: cfg.PointTTL,
		listTTL:  cfg.ListTTL,
	}, nil
}

// Close closes the Redis connection
func (s *Store) Close() error {
	if s.rdb != nil {
		return s.rdb.Close()
	}
	return nil
}

// Enabled returns whether Redis is enabled
func (s *Store) Enabled() bool {
	return s.enabled
}

// PointKey is the key of a parsed replay, identified by its request key.
func PointKey(requestKey string) string {
	return fmt.Sprintf("%s:point:%s", keyPrefix, requestKey)
}

// CapturesKey is the key of an instrument's capture listing.
func CapturesKey(instrumentURL string) string {
	return fmt.Sprintf("%s:captures:%s", keyPrefix, instrumentURL)
}

// GetPoint returns the memoized point for a replay request.
func (s *Store) GetPoint(ctx context.Context, requestKey string) (keystat.Point, bool, error) {
	var p keystat.Point
	found, err := s.get(ctx, s.pointTTL, PointKey(requestKey), &p)
	if err != nil || !found {
		return keystat.Point{}, false, err
	}
	return p, true, nil
}

// SetPoint memoizes a parsed replay. Placeholders are never stored.
func (s *Store) SetPoint(ctx context.Context, requestKey string, p keystat.Point) error {
	if !p.IsValid() {
		return nil
	}
	return s.set(ctx, s.pointTTL, PointKey(requestKey), p)
}

// GetCaptures returns the memoized capture listing of an instrument.
func (s *Store) GetCaptures(ctx context.Context, instrumentURL string) ([]archive.CaptureRecord, bool, error) {
	var records []archive.CaptureRecord
	found, err := s.get(ctx, s.listTTL, CapturesKey(instrumentURL), &records)
	if err != nil || !found {
		return nil, false, err
	}
	return records, true, nil
}

// SetCaptures memoizes the capture listing of an instrument.
func (s *Store) SetCaptures(ctx context.Context, instrumentURL string, records []archive.CaptureRecord) error {
	return s.set(ctx, s.listTTL, CapturesKey(instrumentURL), records)
}

func (s *Store) get(ctx context.Context, ttl time.Duration, key string, dest any) (bool, error) {
	if !s.enabled || ttl <= 0 {
		return false, nil
	}

	data, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("cache unmarshal failed: %w", err)
	}
	return true, nil
}

func (s *Store) set(ctx context.Context, ttl time.Duration, key string, value any) error {
	if !s.enabled || ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal failed: %w", err)
	}
	if err := s.rdb.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}
