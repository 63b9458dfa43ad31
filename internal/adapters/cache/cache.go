// Package cache keeps serialized report results for a short time so repeated
// queries over the same scope skip the store.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/youss97/transportBackend/pkg/logger"
	"github.com/youss97/transportBackend/pkg/metrics"
)

// ReportCache stores opaque report payloads by key.
type ReportCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// MemoryCache is a process-local ReportCache.
type MemoryCache struct {
	items *TTLCache[string, []byte]
	ttl   time.Duration
}

// NewMemoryCache creates a MemoryCache whose entries live for ttl.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{items: NewTTLCache[string, []byte](), ttl: ttl}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := c.items.Get(key)
	return v, ok, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, value []byte) error {
	c.items.Set(key, value, c.ttl)
	return nil
}

// Fetch returns the cached value for key or builds, stores and returns it.
// A nil cache always builds. Cache failures are logged and never fail the
// report.
func Fetch[T any](ctx context.Context, c ReportCache, report, key string, build func() (T, error)) (T, error) {
	if c == nil {
		return build()
	}
	log := logger.Named("cache")

	raw, ok, err := c.Get(ctx, key)
	if err != nil {
		metrics.RecordErrorByComponent("cache", "get")
		log.Warn(ctx, "cache read failed", logger.String("key", key), logger.Error(err))
	}
	if ok {
		var v T
		if err := json.Unmarshal(raw, &v); err == nil {
			metrics.RecordCacheHit(report)
			return v, nil
		}
		log.Warn(ctx, "cached payload unreadable", logger.String("key", key))
	}
	metrics.RecordCacheMiss(report)

	v, err := build()
	if err != nil {
		return v, err
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return v, nil
	}
	if err := c.Set(ctx, key, payload); err != nil {
		metrics.RecordErrorByComponent("cache", "set")
		log.Warn(ctx, "cache write failed", logger.String("key", key), logger.Error(err))
	}
	return v, nil
}
