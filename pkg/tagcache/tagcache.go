// Package tagcache implements the versioned tag cache: cache
// keys are bound to a bumpable per-tag integer version, so invalidation is a
// single INCR and never a DEL against value keys.
package tagcache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Loader produces the value to cache on a miss.
type Loader func(ctx context.Context) (any, error)

// KV is the slice of the KV store the cache needs. Satisfied by
// *kvstore.Client; tests substitute an in-memory map.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	SetEX(ctx context.Context, key, value string, ttl time.Duration) error
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	Incr(ctx context.Context, key string) (int64, error)
}

// Cache is the versioned get-or-set cache over a KV store.
type Cache struct {
	kv KV
}

// New returns a Cache backed by kv.
func New(kv KV) *Cache {
	return &Cache{kv: kv}
}

func versionKey(tag string) string {
	return "tagver:" + tag
}

// currentVersion reads tagver:{tag}. An unset counter is seeded to 1 with a
// SET-if-absent before returning, so the first Invalidate INCRs it to 2 and
// readers that cached under v1 actually miss. Returning 1 without the seed
// would leave the first INCR landing back on 1.
func (c *Cache) currentVersion(ctx context.Context, tag string) (int64, error) {
	v, err := c.kv.Get(ctx, versionKey(tag))
	if errors.Is(err, redis.Nil) {
		if _, err := c.kv.SetNX(ctx, versionKey(tag), "1", 0); err != nil {
			return 0, err
		}
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	var n int64
	if _, err := fmt.Sscanf(v, "%d", &n); err != nil {
		return 1, nil
	}
	return n, nil
}

// cacheKey builds "{tag}:v{version}:{sha1(canonical_json(keyFields))[:12]}".
func cacheKey(tag string, version int64, keyFields any) (string, error) {
	canonical, err := json.Marshal(keyFields)
	if err != nil {
		return "", fmt.Errorf("tagcache: canonicalize key fields: %w", err)
	}
	sum := sha1.Sum(canonical)
	digest := hex.EncodeToString(sum[:])[:12]
	return fmt.Sprintf("%s:v%d:%s", tag, version, digest), nil
}

// jitteredTTL applies deterministic ±10% jitter to ttl, seeded from the sha1
// of key so repeated writes of the same key pick the same jitter.
func jitteredTTL(key string, ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return ttl
	}
	sum := sha1.Sum([]byte(key))
	// Use the first 4 bytes as an unsigned fraction in [0,1), then map to
	// [-0.1, 0.1] of the base TTL.
	n := uint32(sum[0])<<24 | uint32(sum[1])<<16 | uint32(sum[2])<<8 | uint32(sum[3])
	frac := float64(n) / float64(^uint32(0)) // [0,1)
	offset := (frac*0.2 - 0.1) * float64(ttl)
	return ttl + time.Duration(offset)
}

// GetOrSet fetches the cached value for (tag, keyFields), invoking loader and
// storing the result under a TTL-jittered SETEX on a miss. The returned bool
// is true on a cache hit.
func (c *Cache) GetOrSet(ctx context.Context, tag string, keyFields any, ttl time.Duration, loader Loader) (any, bool, error) {
	version, err := c.currentVersion(ctx, tag)
	if err != nil {
		return nil, false, fmt.Errorf("tagcache: read version for %q: %w", tag, err)
	}

	key, err := cacheKey(tag, version, keyFields)
	if err != nil {
		return nil, false, err
	}

	raw, err := c.kv.Get(ctx, key)
	if err == nil {
		var value any
		if jerr := json.Unmarshal([]byte(raw), &value); jerr == nil {
			if m, ok := value.(map[string]any); ok {
				m["cache_hit"] = true
			}
			return value, true, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		return nil, false, fmt.Errorf("tagcache: read %q: %w", key, err)
	}

	value, err := loader(ctx)
	if err != nil {
		return nil, false, err
	}

	serialized, err := json.Marshal(value)
	if err != nil {
		return nil, false, fmt.Errorf("tagcache: serialize value for %q: %w", key, err)
	}

	if ttl > 0 {
		if err := c.kv.SetEX(ctx, key, string(serialized), jitteredTTL(key, ttl)); err != nil {
			return nil, false, fmt.Errorf("tagcache: write %q: %w", key, err)
		}
	}

	return value, false, nil
}

// Invalidate bumps the tag's version and returns the new value. Old keys are
// left to expire by TTL; no DEL is ever issued against value keys.
func (c *Cache) Invalidate(ctx context.Context, tag string) (int64, error) {
	return c.kv.Incr(ctx, versionKey(tag))
}
