// Package cachemanager provides a generic TTL cache and a read-through
// wrapper. Watch mode uses it to avoid re-parsing extends-referenced
// files between change events; one-shot resolution never caches.
package cachemanager

import (
	"context"
	"time"
)

// CacheManager is the minimal cache surface the loader needs.
type CacheManager[K comparable, V any] interface {
	Get(ctx context.Context, key K) (V, bool)
	GetWithRefresh(ctx context.Context, key K, ttl time.Duration) (V, bool)
	Set(ctx context.Context, key K, value V, ttl time.Duration)
	Delete(ctx context.Context, keys ...K) error
	Flush(ctx context.Context) error
}
