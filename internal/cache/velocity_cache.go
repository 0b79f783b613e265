// Package cache holds the in-process TTL cache for velocity metrics. The
// underlying aggregation is I/O heavy and both scheduled monitors consume it
// within the same evaluation cycle, so stale-serving within the TTL is
// explicitly acceptable.
package cache

import (
	"sync"
	"time"

	"github.com/NTEKIMJOHN/Genesis-WMS-DIY-sub000/internal/models"
)

// VelocityCache is the get/set contract the velocity estimator uses,
// keyed by (tenant, SKU, warehouse).
type VelocityCache interface {
	Get(tenantID, skuID, warehouseID string) (*models.VelocityMetrics, bool)
	Set(tenantID, skuID, warehouseID string, metrics *models.VelocityMetrics)
}

type cacheKey struct {
	tenantID    string
	skuID       string
	warehouseID string
}

type cacheEntry struct {
	metrics   *models.VelocityMetrics
	expiresAt time.Time
}

type velocityCache struct {
	mutex   sync.RWMutex
	entries map[cacheKey]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewVelocityCache creates an in-memory cache whose entries expire after ttl.
func NewVelocityCache(ttl time.Duration) VelocityCache {
	return &velocityCache{
		entries: make(map[cacheKey]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *velocityCache) Get(tenantID, skuID, warehouseID string) (*models.VelocityMetrics, bool) {
	key := cacheKey{tenantID, skuID, warehouseID}

	c.mutex.RLock()
	entry, ok := c.entries[key]
	c.mutex.RUnlock()

	if !ok {
		return nil, false
	}
	if c.now().After(entry.expiresAt) {
		// Lazy eviction; the next Set overwrites the slot anyway.
		c.mutex.Lock()
		delete(c.entries, key)
		c.mutex.Unlock()
		return nil, false
	}
	return entry.metrics, true
}

func (c *velocityCache) Set(tenantID, skuID, warehouseID string, metrics *models.VelocityMetrics) {
	key := cacheKey{tenantID, skuID, warehouseID}

	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.entries[key] = cacheEntry{metrics: metrics, expiresAt: c.now().Add(c.ttl)}
}
