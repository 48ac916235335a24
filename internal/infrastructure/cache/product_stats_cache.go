package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cotiza/backend/internal/domain/catalog"
	"github.com/redis/go-redis/v9"
)

// DefaultProductStatsTTL bounds how stale cached product stats can get
const DefaultProductStatsTTL = 5 * time.Minute

const productStatsKeyPrefix = "cotiza:products:"

// StatsKey derives a stable cache key from the filter fields that affect stats.
// Paging and sorting are ignored.
func StatsKey(f catalog.ProductFilter) string {
	var b strings.Builder
	b.WriteString(strings.ToLower(strings.TrimSpace(f.Search)))
	for _, part := range []string{f.Category, f.Brand, f.Supplier, string(f.Status)} {
		b.WriteByte('|')
		b.WriteString(strings.ToLower(strings.TrimSpace(part)))
	}
	b.WriteByte('|')
	if f.PriceMin != nil {
		b.WriteString(f.PriceMin.String())
	}
	b.WriteByte('|')
	if f.PriceMax != nil {
		b.WriteString(f.PriceMax.String())
	}
	sum := sha1.Sum([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// RedisProductStatsCache caches product stats and facets in Redis.
// Invalidation bumps a generation counter that is part of every key, so old
// entries are never read again and expire on their own.
type RedisProductStatsCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisProductStatsCache creates a product stats cache on an existing client
func NewRedisProductStatsCache(client redis.UniversalClient, ttl time.Duration) *RedisProductStatsCache {
	if ttl <= 0 {
		ttl = DefaultProductStatsTTL
	}
	return &RedisProductStatsCache{client: client, ttl: ttl}
}

func (c *RedisProductStatsCache) generation(ctx context.Context) (string, error) {
	gen, err := c.client.Get(ctx, productStatsKeyPrefix+"gen").Result()
	if errors.Is(err, redis.Nil) {
		return "0", nil
	}
	return gen, err
}

func (c *RedisProductStatsCache) get(ctx context.Context, name string, dest any) (bool, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		return false, fmt.Errorf("read product cache generation: %w", err)
	}
	raw, err := c.client.Get(ctx, productStatsKeyPrefix+gen+":"+name).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read product cache: %w", err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("decode product cache entry: %w", err)
	}
	return true, nil
}

func (c *RedisProductStatsCache) set(ctx context.Context, name string, value any) error {
	gen, err := c.generation(ctx)
	if err != nil {
		return fmt.Errorf("read product cache generation: %w", err)
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode product cache entry: %w", err)
	}
	return c.client.Set(ctx, productStatsKeyPrefix+gen+":"+name, raw, c.ttl).Err()
}

// GetStats returns cached stats for the filter
func (c *RedisProductStatsCache) GetStats(ctx context.Context, f catalog.ProductFilter) (*catalog.ProductStats, bool, error) {
	var stats catalog.ProductStats
	ok, err := c.get(ctx, "stats:"+StatsKey(f), &stats)
	if !ok || err != nil {
		return nil, false, err
	}
	return &stats, true, nil
}

// SetStats stores stats for the filter
func (c *RedisProductStatsCache) SetStats(ctx context.Context, f catalog.ProductFilter, stats *catalog.ProductStats) error {
	return c.set(ctx, "stats:"+StatsKey(f), stats)
}

// GetFacets returns the cached facets
func (c *RedisProductStatsCache) GetFacets(ctx context.Context) (*catalog.Facets, bool, error) {
	var facets catalog.Facets
	ok, err := c.get(ctx, "facets", &facets)
	if !ok || err != nil {
		return nil, false, err
	}
	return &facets, true, nil
}

// SetFacets stores the facets
func (c *RedisProductStatsCache) SetFacets(ctx context.Context, facets *catalog.Facets) error {
	return c.set(ctx, "facets", facets)
}

// Invalidate drops every cached entry by moving to a new generation
func (c *RedisProductStatsCache) Invalidate(ctx context.Context) error {
	if err := c.client.Incr(ctx, productStatsKeyPrefix+"gen").Err(); err != nil {
		return fmt.Errorf("invalidate product cache: %w", err)
	}
	return nil
}
