// Package cache stores resolved query responses in Redis. Concurrent misses
// for the same key are collapsed into one resolution.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/corpus-search/internal/searcher/resolver"
	"github.com/Adithya-Monish-Kumar-K/corpus-search/pkg/config"
	pkgredis "github.com/Adithya-Monish-Kumar-K/corpus-search/pkg/redis"
)

type QueryCache struct {
	client    *pkgredis.Client
	keyPrefix string
	ttl       time.Duration
	group     singleflight.Group
	logger    *slog.Logger
}

func New(client *pkgredis.Client, cfg config.RedisConfig) *QueryCache {
	return &QueryCache{
		client:    client,
		keyPrefix: cfg.KeyPrefix + "search:",
		ttl:       cfg.CacheTTL,
		logger:    slog.Default().With("component", "query-cache"),
	}
}

func (c *QueryCache) Get(ctx context.Context, strategy string, terms []string) (*resolver.Response, bool) {
	key := c.buildKey(strategy, terms)
	data, err := c.client.Get(ctx, key)
	if err != nil {
		if !pkgredis.IsNilError(err) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		return nil, false
	}
	var resp resolver.Response
	if err := json.Unmarshal([]byte(data), &resp); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		return nil, false
	}
	c.logger.Debug("cache hit", "terms", terms, "key", key)
	return &resp, true
}

func (c *QueryCache) Set(ctx context.Context, strategy string, terms []string, resp *resolver.Response) {
	key := c.buildKey(strategy, terms)
	data, err := json.Marshal(resp)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached response for terms, or runs computeFn
// once per key across concurrent callers and caches its result. The bool
// reports a cache hit.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	strategy string,
	terms []string,
	computeFn func() (*resolver.Response, error),
) (*resolver.Response, bool, error) {
	if resp, ok := c.Get(ctx, strategy, terms); ok {
		return resp, true, nil
	}
	key := c.buildKey(strategy, terms)
	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		resp, err := computeFn()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, strategy, terms, resp)
		return resp, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.(*resolver.Response), false, nil
}

// Invalidate drops every cached response. It runs after each index build.
func (c *QueryCache) Invalidate(ctx context.Context) error {
	deleted, err := c.client.FlushByPattern(ctx, c.keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidate", "keys_deleted", deleted)
	return nil
}

// buildKey is independent of term order: "a b" and "b a" resolve to the
// same documents.
func (c *QueryCache) buildKey(strategy string, terms []string) string {
	sorted := append([]string(nil), terms...)
	sort.Strings(sorted)
	raw := strategy + "|" + strings.Join(sorted, "\x00")
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%x", c.keyPrefix, hash[:16])
}
