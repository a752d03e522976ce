// Package cache is a two-tier byte cache: an in-memory L1 and an optional
// Redis L2 that survives restarts.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"ytscribe/internal/logging"
)

// Options configures a Tiered cache.
type Options struct {
	// RedisURL enables L2 when non-empty and reachable.
	RedisURL        string
	TTL             time.Duration
	MaxEntries      int
	CleanupInterval time.Duration
}

// Tiered implements L1 (sync.Map) + L2 (Redis) caching.
type Tiered struct {
	l1         sync.Map // key -> *entry
	rdb        *redis.Client
	ttl        time.Duration
	maxEntries int

	hits   atomic.Int64
	misses atomic.Int64

	stop     chan struct{}
	stopOnce sync.Once
	logger   *zap.SugaredLogger
}

type entry struct {
	data      []byte
	expiresAt time.Time
}

// New creates the cache and starts its L1 cleanup loop. An invalid or
// unreachable Redis only disables L2.
func New(ctx context.Context, opts Options, logger *zap.SugaredLogger) *Tiered {
	logger = logging.OrNop(logger)
	if opts.TTL <= 0 {
		opts.TTL = time.Hour
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = time.Minute
	}

	c := &Tiered{
		ttl:        opts.TTL,
		maxEntries: opts.MaxEntries,
		stop:       make(chan struct{}),
		logger:     logger,
	}

	if opts.RedisURL != "" {
		if rdb, err := connect(ctx, opts.RedisURL); err != nil {
			logger.Warnw("redis unavailable, L2 cache disabled", "error", err)
		} else {
			c.rdb = rdb
		}
	}

	logger.Debugw("cache initialized", "ttl", opts.TTL, "redis", c.rdb != nil, "max_entries", opts.MaxEntries)
	go c.cleanupLoop(opts.CleanupInterval)
	return c
}

func connect(ctx context.Context, url string) (*redis.Client, error) {
	redisOpts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	rdb := redis.NewClient(redisOpts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping %s: %w", redisOpts.Addr, err)
	}
	return rdb, nil
}

// Key builds a deterministic cache key from parts.
func Key(prefix string, parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return fmt.Sprintf("ytscribe:%s:%x", prefix, hash[:12])
}

// HasL2 reports whether Redis is connected.
func (c *Tiered) HasL2() bool {
	return c.rdb != nil
}

// Get tries L1, then L2. An L2 hit populates L1.
func (c *Tiered) Get(ctx context.Context, key string) ([]byte, bool) {
	if val, ok := c.l1.Load(key); ok {
		e := val.(*entry)
		if time.Now().Before(e.expiresAt) {
			c.hits.Add(1)
			return e.data, true
		}
		c.l1.Delete(key)
	}

	if c.rdb != nil {
		data, err := c.rdb.Get(ctx, key).Bytes()
		if err == nil {
			c.hits.Add(1)
			c.l1.Store(key, &entry{data: data, expiresAt: time.Now().Add(c.ttl)})
			return data, true
		}
		if err != redis.Nil {
			c.logger.Debugw("L2 get failed", "key", key, "error", err)
		}
	}

	c.misses.Add(1)
	return nil, false
}

// Set stores data in both tiers.
func (c *Tiered) Set(ctx context.Context, key string, data []byte) {
	c.evictIfNeeded()
	c.l1.Store(key, &entry{data: data, expiresAt: time.Now().Add(c.ttl)})

	if c.rdb != nil {
		if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.logger.Debugw("L2 set failed", "key", key, "error", err)
		}
	}
}

// GetJSON decodes a cached value into v.
func (c *Tiered) GetJSON(ctx context.Context, key string, v any) bool {
	data, ok := c.Get(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		c.l1.Delete(key)
		return false
	}
	return true
}

// SetJSON encodes v and stores it.
func (c *Tiered) SetJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode cache value: %w", err)
	}
	c.Set(ctx, key, data)
	return nil
}

// Stats returns hit and miss counters.
func (c *Tiered) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Len counts L1 entries.
func (c *Tiered) Len() int {
	n := 0
	c.l1.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Close stops the cleanup loop and the Redis client.
func (c *Tiered) Close() error {
	c.stopOnce.Do(func() { close(c.stop) })
	if c.rdb != nil {
		return c.rdb.Close()
	}
	return nil
}

// evictIfNeeded drops expired entries, then the oldest, until L1 has room.
func (c *Tiered) evictIfNeeded() {
	if c.maxEntries <= 0 {
		return
	}
	count := c.Len()
	if count < c.maxEntries {
		return
	}

	now := time.Now()
	c.l1.Range(func(key, val any) bool {
		if now.After(val.(*entry).expiresAt) {
			c.l1.Delete(key)
			count--
		}
		return true
	})

	for count >= c.maxEntries {
		var oldestKey any
		var oldestAt time.Time
		c.l1.Range(func(key, val any) bool {
			e := val.(*entry)
			// earlier expiry = older entry
			if oldestKey == nil || e.expiresAt.Before(oldestAt) {
				oldestKey, oldestAt = key, e.expiresAt
			}
			return true
		})
		if oldestKey == nil {
			return
		}
		c.l1.Delete(oldestKey)
		count--
	}
}

func (c *Tiered) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			now := time.Now()
			c.l1.Range(func(key, val any) bool {
				if now.After(val.(*entry).expiresAt) {
					c.l1.Delete(key)
				}
				return true
			})
		}
	}
}
