package cache

import (
	"context"
	"time"

	"github.com/cotiza/backend/internal/domain/catalog"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ProductStatsCache caches product stats and facets between catalog writes
type ProductStatsCache interface {
	GetStats(ctx context.Context, f catalog.ProductFilter) (*catalog.ProductStats, bool, error)
	SetStats(ctx context.Context, f catalog.ProductFilter, stats *catalog.ProductStats) error
	GetFacets(ctx context.Context) (*catalog.Facets, bool, error)
	SetFacets(ctx context.Context, facets *catalog.Facets) error
	Invalidate(ctx context.Context) error
}

var (
	_ ProductStatsCache = (*RedisProductStatsCache)(nil)
	_ ProductStatsCache = (*InMemoryProductStatsCache)(nil)
)

// NewProductStatsCache uses Redis when a client is given and falls back to
// process memory otherwise. The in-memory cache is not shared between instances.
func NewProductStatsCache(client redis.UniversalClient, ttl time.Duration, logger *zap.Logger) ProductStatsCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	if client != nil {
		logger.Info("using Redis product stats cache", zap.Duration("ttl", ttl))
		return NewRedisProductStatsCache(client, ttl)
	}
	logger.Warn("Redis not configured, product stats are cached in memory")
	return NewInMemoryProductStatsCache(ttl)
}
