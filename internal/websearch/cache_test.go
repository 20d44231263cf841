package websearch

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/usecase-engine/pkg/types"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, rdb
}

func TestRedisCacheRoundTrip(t *testing.T) {
	mr, rdb := setupRedis(t)
	cache := NewRedisCache(rdb, time.Hour)
	ctx := context.Background()

	_, ok, err := cache.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	want := []types.WebResult{{URL: "https://a.org", Title: "A", Score: 0.5, Source: "google"}}
	require.NoError(t, cache.Set(ctx, "k", want))

	got, ok, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, want, got)
	assert.Equal(t, time.Hour, mr.TTL("k"))

	mr.FastForward(2 * time.Hour)
	_, ok, err = cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisCacheDefaultTTL(t *testing.T) {
	mr, rdb := setupRedis(t)
	cache := NewRedisCache(rdb, 0)
	require.NoError(t, cache.Set(context.Background(), "k", []types.WebResult{{URL: "https://a.org"}}))
	assert.Equal(t, 24*time.Hour, mr.TTL("k"))
}

func TestRedisCacheCorruptValue(t *testing.T) {
	mr, rdb := setupRedis(t)
	require.NoError(t, mr.Set("k", "not json"))
	_, _, err := NewRedisCache(rdb, 0).Get(context.Background(), "k")
	assert.ErrorContains(t, err, "decoding cached results")
}

func TestDialRedis(t *testing.T) {
	mr, _ := setupRedis(t)
	rdb, err := DialRedis(context.Background(), mr.Addr())
	require.NoError(t, err)
	rdb.Close()

	_, err = DialRedis(context.Background(), "127.0.0.1:1")
	assert.Error(t, err)
}

func TestSearcherWithRedisCache(t *testing.T) {
	_, rdb := setupRedis(t)
	backend := &mockBackend{name: "a", results: []types.WebResult{{URL: "https://x.org", Title: "X", Score: 1}}}
	s := &Searcher{Backends: []Backend{backend}, Cache: NewRedisCache(rdb, time.Minute)}

	_, err := s.Search(context.Background(), "q")
	require.NoError(t, err)
	out, err := s.Search(context.Background(), "q")
	require.NoError(t, err)
	assert.True(t, out.Cached)
	assert.Equal(t, 1, backend.calls)
}
