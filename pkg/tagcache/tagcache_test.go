package tagcache

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeKV is an in-memory KV with redis.Nil miss semantics, enough to drive
// the cache through live get-or-set / invalidate round trips.
type fakeKV struct {
	data map[string]string
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: make(map[string]string)}
}

func (f *fakeKV) Get(_ context.Context, key string) (string, error) {
	v, ok := f.data[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (f *fakeKV) SetEX(_ context.Context, key, value string, _ time.Duration) error {
	f.data[key] = value
	return nil
}

func (f *fakeKV) SetNX(_ context.Context, key, value string, _ time.Duration) (bool, error) {
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	f.data[key] = value
	return true, nil
}

func (f *fakeKV) Incr(_ context.Context, key string) (int64, error) {
	n, _ := strconv.ParseInt(f.data[key], 10, 64)
	n++
	f.data[key] = strconv.FormatInt(n, 10)
	return n, nil
}

func TestCacheKeyDeterministic(t *testing.T) {
	k1, err := cacheKey("grades", 1, map[string]any{"file_hash": "A"})
	require.NoError(t, err)
	k2, err := cacheKey("grades", 1, map[string]any{"file_hash": "A"})
	require.NoError(t, err)
	assert.Equal(t, k1, k2)
	assert.Regexp(t, `^grades:v1:[0-9a-f]{12}$`, k1)
}

func TestCacheKeyChangesWithVersion(t *testing.T) {
	k1, err := cacheKey("grades", 1, map[string]any{"file_hash": "A"})
	require.NoError(t, err)
	k2, err := cacheKey("grades", 2, map[string]any{"file_hash": "A"})
	require.NoError(t, err)
	assert.NotEqual(t, k1, k2)
}

func TestJitteredTTLWithinTenPercent(t *testing.T) {
	base := 24 * time.Hour
	jittered := jitteredTTL("some-key", base)
	lower := time.Duration(float64(base) * 0.9)
	upper := time.Duration(float64(base) * 1.1)
	assert.GreaterOrEqual(t, jittered, lower)
	assert.LessOrEqual(t, jittered, upper)
}

func TestJitteredTTLDeterministic(t *testing.T) {
	a := jitteredTTL("grades:v1:abc", time.Hour)
	b := jitteredTTL("grades:v1:abc", time.Hour)
	assert.Equal(t, a, b)
}

func TestJitteredTTLZeroPassesThrough(t *testing.T) {
	assert.Equal(t, time.Duration(0), jitteredTTL("k", 0))
}

func TestGetOrSetInvalidateRoundTrip(t *testing.T) {
	ctx := context.Background()
	cache := New(newFakeKV())

	loads := 0
	loader := func(context.Context) (any, error) {
		loads++
		return map[string]any{"mean_gpa": 3.3}, nil
	}
	keyFields := map[string]any{"file_hash": "A"}

	// First read misses and invokes the loader.
	_, hit, err := cache.GetOrSet(ctx, "grades", keyFields, time.Hour, loader)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 1, loads)

	// Second read serves the cached value and marks it as a hit.
	value, hit, err := cache.GetOrSet(ctx, "grades", keyFields, time.Hour, loader)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, loads)
	m, ok := value.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, m["cache_hit"])

	// Invalidation bumps past the seeded version...
	newVersion, err := cache.Invalidate(ctx, "grades")
	require.NoError(t, err)
	assert.Equal(t, int64(2), newVersion)

	// ...so the same key fields miss and the loader runs again.
	_, hit, err = cache.GetOrSet(ctx, "grades", keyFields, time.Hour, loader)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, loads)
}

func TestInvalidateBeforeFirstReadStillAdvances(t *testing.T) {
	ctx := context.Background()
	cache := New(newFakeKV())

	// An invalidate on a never-read tag establishes v1; the first read then
	// caches under it, and the next invalidate moves readers to v2.
	v, err := cache.Invalidate(ctx, "professors")
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)

	loads := 0
	loader := func(context.Context) (any, error) {
		loads++
		return "x", nil
	}
	_, _, err = cache.GetOrSet(ctx, "professors", map[string]any{"k": 1}, time.Hour, loader)
	require.NoError(t, err)

	v, err = cache.Invalidate(ctx, "professors")
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)

	_, hit, err := cache.GetOrSet(ctx, "professors", map[string]any{"k": 1}, time.Hour, loader)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, loads)
}
