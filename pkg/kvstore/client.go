// Package kvstore wraps the Redis client used as the durable KV + atomic
// scripting backend for TagCache, ProvenanceStore, ProfileStore, and
// ConversationStore.
package kvstore

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds Redis connection settings, loaded from environment
// (REDIS_URL, REDIS_OP_TIMEOUT_MS).
type Config struct {
	URL       string
	OpTimeout time.Duration // default 50ms
	TTLDays   int           // default conversation/profile TTL multiplier
}

// LoadConfigFromEnv reads REDIS_URL / REDIS_OP_TIMEOUT_MS / REDIS_TTL_DAYS,
// falling back to local-development defaults for anything unset.
func LoadConfigFromEnv() Config {
	cfg := Config{
		URL:       getEnv("REDIS_URL", "redis://localhost:6379/0"),
		OpTimeout: 50 * time.Millisecond,
		TTLDays:   7,
	}
	if v := os.Getenv("REDIS_OP_TIMEOUT_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			cfg.OpTimeout = time.Duration(ms) * time.Millisecond
		}
	}
	if v := os.Getenv("REDIS_TTL_DAYS"); v != "" {
		if d, err := strconv.Atoi(v); err == nil {
			cfg.TTLDays = d
		}
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Client wraps the go-redis client and provides an operation-timeout-bounded
// EVAL helper used by every store package.
type Client struct {
	rdb       *redis.Client
	opTimeout time.Duration
}

// NewClient parses cfg.URL and opens a Redis client. It does not ping; call
// Health to verify connectivity.
func NewClient(cfg Config) (*Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("kvstore: invalid redis url: %w", err)
	}
	return &Client{
		rdb:       redis.NewClient(opts),
		opTimeout: cfg.OpTimeout,
	}, nil
}

// Raw exposes the underlying redis.Client for packages that need primitives
// this wrapper does not cover (e.g. SADD, SCARD in pkg/provenance).
func (c *Client) Raw() *redis.Client {
	return c.rdb
}

// withTimeout derives a bounded context for a single KV operation so a slow
// Redis never blocks the orchestrator beyond its configured op timeout.
func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.opTimeout)
}

// Get fetches a value; redis.Nil is returned unwrapped so callers can check
// errors.Is(err, redis.Nil) for cache-miss handling.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	cctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.rdb.Get(cctx, key).Result()
}

// SetEX stores value under key with the given TTL.
func (c *Client) SetEX(ctx context.Context, key, value string, ttl time.Duration) error {
	cctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.rdb.Set(cctx, key, value, ttl).Err()
}

// SetNX stores value under key only when the key is absent, returning
// whether the write happened. Used by TagCache to seed a tag's version
// counter so the first INCR advances past it.
func (c *Client) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	cctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.rdb.SetNX(cctx, key, value, ttl).Result()
}

// Incr atomically increments key and returns the new value, used by TagCache
// for tag-version bumps.
func (c *Client) Incr(ctx context.Context, key string) (int64, error) {
	cctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.rdb.Incr(cctx, key).Result()
}

// Eval runs a Lua script by SHA, falling back to EVAL (and caching the
// script) on NOSCRIPT, matching go-redis's Script.Run convention.
func (c *Client) Eval(ctx context.Context, script *redis.Script, keys []string, args ...any) *redis.Cmd {
	cctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return script.Run(cctx, c.rdb, keys, args...)
}

// Health pings Redis with a short bounded deadline and reports latency.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	start := time.Now()
	cctx, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
	defer cancel()

	if err := c.rdb.Ping(cctx).Err(); err != nil {
		return HealthStatus{Status: "unhealthy", ResponseTime: time.Since(start)}, err
	}
	return HealthStatus{Status: "healthy", ResponseTime: time.Since(start)}, nil
}

// HealthStatus reports the outcome of a bounded PING probe.
type HealthStatus struct {
	Status       string        `json:"status"`
	ResponseTime time.Duration `json:"response_time_ms"`
}

// Close releases the underlying connection pool.
func (c *Client) Close() error {
	return c.rdb.Close()
}
