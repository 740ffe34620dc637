package data

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestCache(t *testing.T) (CacheClient, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)

	rdb := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	return NewCacheClient(rdb), mr
}

func TestNewCacheClient(t *testing.T) {
	cache, mr := setupTestCache(t)
	defer mr.Close()
	assert.NotNil(t, cache)
}

func TestCacheRoundTrip(t *testing.T) {
	cache, mr := setupTestCache(t)
	defer mr.Close()

	ctx := context.Background()
	key := BuildCacheKey(CacheKeyMapURL, "3d1f00ff3d1f00ff3d1f00ff3d1f00ff")

	err := cache.Set(ctx, key, "https://maps.test/a.png", time.Hour)
	require.NoError(t, err)

	var url string
	err = cache.Get(ctx, key, &url)
	require.NoError(t, err)
	assert.Equal(t, "https://maps.test/a.png", url)
}

func TestCacheGet_NotFound(t *testing.T) {
	cache, mr := setupTestCache(t)
	defer mr.Close()

	var url string
	err := cache.Get(context.Background(), "map:url:missing", &url)
	assert.ErrorIs(t, err, ErrCacheNotFound)
}

func TestCacheGet_ExpiredKey(t *testing.T) {
	cache, mr := setupTestCache(t)
	defer mr.Close()

	ctx := context.Background()
	key := BuildCacheKey(CacheKeyMapURL, "abc")
	require.NoError(t, cache.Set(ctx, key, "https://maps.test/a.png", time.Minute))

	mr.FastForward(2 * time.Minute)

	var url string
	err := cache.Get(ctx, key, &url)
	assert.ErrorIs(t, err, ErrCacheNotFound)
}

func TestCacheDelete(t *testing.T) {
	cache, mr := setupTestCache(t)
	defer mr.Close()

	ctx := context.Background()
	key := BuildCacheKey(CacheKeyMapURL, "abc")
	require.NoError(t, cache.Set(ctx, key, "https://maps.test/a.png", time.Hour))
	require.NoError(t, cache.Delete(ctx, key))

	exists, err := cache.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCacheExists(t *testing.T) {
	cache, mr := setupTestCache(t)
	defer mr.Close()

	ctx := context.Background()
	key := BuildCacheKey(CacheKeyMapURL, "abc")

	exists, err := cache.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, cache.Set(ctx, key, "https://maps.test/a.png", time.Hour))

	exists, err = cache.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCacheSetNX(t *testing.T) {
	cache, mr := setupTestCache(t)
	defer mr.Close()

	ctx := context.Background()
	key := BuildCacheKey(CacheKeyWarmLock, "lock")

	ok, err := cache.SetNX(ctx, key, 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	// second holder is rejected while the key lives
	ok, err = cache.SetNX(ctx, key, 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	mr.FastForward(2 * time.Minute)

	ok, err = cache.SetNX(ctx, key, 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCacheNilClient(t *testing.T) {
	cache := NewCacheClient(nil)
	ctx := context.Background()

	var url string
	assert.Error(t, cache.Get(ctx, "k", &url))
	assert.Error(t, cache.Set(ctx, "k", "v", time.Minute))
	assert.Error(t, cache.Delete(ctx, "k"))

	_, err := cache.Exists(ctx, "k")
	assert.Error(t, err)

	_, err = cache.SetNX(ctx, "k", "v", time.Minute)
	assert.Error(t, err)
}

func TestBuildCacheKey(t *testing.T) {
	assert.Equal(t, "map:url:abc", BuildCacheKey(CacheKeyMapURL, "abc"))
	assert.Equal(t, "map:warm:a:b", BuildCacheKey(CacheKeyWarmLock, "a", "b"))
}
