package cache

import (
	"context"
	"sync"
	"time"

	"github.com/cotiza/backend/internal/domain/catalog"
)

type statsEntry struct {
	stats     catalog.ProductStats
	expiresAt time.Time
}

// InMemoryProductStatsCache caches product stats in process memory.
// It is used when Redis is not configured.
type InMemoryProductStatsCache struct {
	mu        sync.RWMutex
	ttl       time.Duration
	stats     map[string]statsEntry
	facets    *catalog.Facets
	facetsExp time.Time
	now       func() time.Time
}

// NewInMemoryProductStatsCache creates an in-memory product stats cache
func NewInMemoryProductStatsCache(ttl time.Duration) *InMemoryProductStatsCache {
	if ttl <= 0 {
		ttl = DefaultProductStatsTTL
	}
	return &InMemoryProductStatsCache{
		ttl:   ttl,
		stats: make(map[string]statsEntry),
		now:   time.Now,
	}
}

// GetStats returns cached stats for the filter
func (c *InMemoryProductStatsCache) GetStats(_ context.Context, f catalog.ProductFilter) (*catalog.ProductStats, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.stats[StatsKey(f)]
	if !ok || c.now().After(e.expiresAt) {
		return nil, false, nil
	}
	stats := e.stats
	return &stats, true, nil
}

// SetStats stores a copy of stats for the filter
func (c *InMemoryProductStatsCache) SetStats(_ context.Context, f catalog.ProductFilter, stats *catalog.ProductStats) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats[StatsKey(f)] = statsEntry{stats: *stats, expiresAt: c.now().Add(c.ttl)}
	return nil
}

// GetFacets returns the cached facets
func (c *InMemoryProductStatsCache) GetFacets(context.Context) (*catalog.Facets, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.facets == nil || c.now().After(c.facetsExp) {
		return nil, false, nil
	}
	facets := *c.facets
	return &facets, true, nil
}

// SetFacets stores the facets
func (c *InMemoryProductStatsCache) SetFacets(_ context.Context, facets *catalog.Facets) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	copied := *facets
	c.facets = &copied
	c.facetsExp = c.now().Add(c.ttl)
	return nil
}

// Invalidate drops every cached entry
func (c *InMemoryProductStatsCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats = make(map[string]statsEntry)
	c.facets = nil
	return nil
}
