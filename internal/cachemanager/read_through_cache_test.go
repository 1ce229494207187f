package cachemanager

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestReadThroughCache_LoadsOnMiss(t *testing.T) {
	ctx := context.Background()
	manager := NewInMemoryCacheManager[string, string]("test", DefaultExpiration, DefaultCleanupInterval)

	calls := 0
	cache := NewReadThroughCache(manager, func(ctx context.Context, input string) (string, error) {
		calls++
		return "loaded:" + input, nil
	}, false)

	value, err := cache.Get(ctx, "key", "input", time.Minute)
	require.NoError(t, err)
	require.Equal(t, "loaded:input", value)
	require.Equal(t, 1, calls)

	// Second get hits the cache.
	value, err = cache.Get(ctx, "key", "input", time.Minute)
	require.NoError(t, err)
	require.Equal(t, "loaded:input", value)
	require.Equal(t, 1, calls, "loader should not be called on cache hit")
}

func TestReadThroughCache_SkipCache(t *testing.T) {
	ctx := context.Background()
	manager := NewInMemoryCacheManager[string, string]("test", DefaultExpiration, DefaultCleanupInterval)

	calls := 0
	cache := NewReadThroughCache(manager, func(ctx context.Context, input string) (string, error) {
		calls++
		return input, nil
	}, true)

	_, err := cache.Get(ctx, "key", "input", time.Minute)
	require.NoError(t, err)
	_, err = cache.Get(ctx, "key", "input", time.Minute)
	require.NoError(t, err)
	require.Equal(t, 2, calls, "skip-cache mode should call the loader every time")
}

func TestReadThroughCache_ErrorsAreNotCached(t *testing.T) {
	ctx := context.Background()
	manager := NewInMemoryCacheManager[string, string]("test", DefaultExpiration, DefaultCleanupInterval)

	calls := 0
	cache := NewReadThroughCache(manager, func(ctx context.Context, input string) (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("transient failure")
		}
		return "recovered", nil
	}, false)

	_, err := cache.Get(ctx, "key", "input", time.Minute)
	require.Error(t, err)

	value, err := cache.Get(ctx, "key", "input", time.Minute)
	require.NoError(t, err)
	require.Equal(t, "recovered", value)
	require.Equal(t, 2, calls)
}
