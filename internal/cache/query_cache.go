// Package cache provides a Redis-backed cache for product listing pages.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nextshop/storefront/internal/catalog"
)

const keyPrefix = "products:v1:"

// QueryCache caches assembled listing pages keyed by the canonicalized
// query. A nil *QueryCache is a valid no-op cache: every read misses and
// writes are dropped.
type QueryCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// New creates a query cache with the given TTL.
func New(client *redis.Client, ttl time.Duration, logger *slog.Logger) *QueryCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &QueryCache{client: client, ttl: ttl, logger: logger}
}

// Key canonicalizes a normalized request into a cache key. Two requests
// that produce the same page produce the same key.
func Key(req catalog.Request) string {
	order := "asc"
	if req.Desc {
		order = "desc"
	}
	parts := []string{
		"page=" + strconv.Itoa(req.Page),
		"size=" + strconv.Itoa(req.PageSize),
		"category=" + req.Category,
		"search=" + strings.ToLower(req.Search),
		"sort=" + req.SortBy,
		"order=" + order,
		"cursor=" + req.Cursor,
	}
	return keyPrefix + strings.Join(parts, "&")
}

// Get returns the cached page for the key, or a miss. Redis failures are
// logged and reported as misses so the store remains the source of truth.
func (c *QueryCache) Get(ctx context.Context, key string) (*catalog.PageResult, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil && c.logger != nil {
			c.logger.Warn("query cache read failed",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
		return nil, false
	}

	var page catalog.PageResult
	if err := json.Unmarshal(data, &page); err != nil {
		if c.logger != nil {
			c.logger.Warn("query cache entry corrupt, dropping",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
		_ = c.client.Del(ctx, key).Err()
		return nil, false
	}

	return &page, true
}

// Set stores the page under the key with the configured TTL. Failures are
// logged, never surfaced.
func (c *QueryCache) Set(ctx context.Context, key string, page *catalog.PageResult) {
	if c == nil || c.client == nil {
		return
	}

	data, err := json.Marshal(page)
	if err != nil {
		if c.logger != nil {
			c.logger.Warn("query cache marshal failed", slog.String("error", err.Error()))
		}
		return
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil && c.logger != nil {
		c.logger.Warn("query cache write failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}

// Invalidate drops every cached listing page. Called after any review
// write since rating aggregates appear in listings.
func (c *QueryCache) Invalidate(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}

	iter := c.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan cache keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete cache keys: %w", err)
	}
	return nil
}
