package openmeteo

import (
	"container/list"
	"context"
	"fmt"
	"sync"

	"github.com/couchcryptid/wildfire-hotspot-etl/internal/domain"
	"github.com/couchcryptid/wildfire-hotspot-etl/internal/observability"
	"golang.org/x/sync/singleflight"
)

// CachedProvider wraps a WindProvider with an in-memory LRU cache keyed by
// rounded coordinates, so hotspots in the same grid cell share one lookup.
// Concurrent misses on one cell are collapsed into a single upstream call.
type CachedProvider struct {
	inner     domain.WindProvider
	cache     *windCache
	flight    singleflight.Group
	precision int
	metrics   *observability.Metrics
}

// NewCachedProvider creates a cache decorator around a wind provider.
// precision is the number of decimals coordinates are rounded to for the key.
func NewCachedProvider(inner domain.WindProvider, maxEntries, precision int, metrics *observability.Metrics) *CachedProvider {
	return &CachedProvider{
		inner:     inner,
		cache:     newWindCache(maxEntries),
		precision: precision,
		metrics:   metrics,
	}
}

func (c *CachedProvider) cellKey(lat, lon float64) string {
	return fmt.Sprintf("%.*f,%.*f", c.precision, lat, c.precision, lon)
}

func (c *CachedProvider) CurrentWind(ctx context.Context, lat, lon float64) (domain.Wind, error) {
	key := c.cellKey(lat, lon)
	if w, ok := c.cache.get(key); ok {
		c.metrics.WindCache.WithLabelValues("hit").Inc()
		return w, nil
	}
	c.metrics.WindCache.WithLabelValues("miss").Inc()

	v, err, _ := c.flight.Do(key, func() (any, error) {
		w, err := c.inner.CurrentWind(ctx, lat, lon)
		if err != nil {
			// Failures are not cached so a neighbouring hotspot can retry.
			return w, err
		}
		c.cache.put(key, w)
		return w, nil
	})
	return v.(domain.Wind), err
}

// windCache is a mutex-guarded LRU of wind readings by cell key.
type windCache struct {
	mu    sync.Mutex
	limit int
	order *list.List // front is most recently used
	byKey map[string]*list.Element
}

type cachedWind struct {
	key  string
	wind domain.Wind
}

func newWindCache(limit int) *windCache {
	if limit < 1 {
		limit = 1
	}
	return &windCache{
		limit: limit,
		order: list.New(),
		byKey: make(map[string]*list.Element, limit),
	}
}

func (c *windCache) get(key string) (domain.Wind, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.byKey[key]
	if !ok {
		return domain.Wind{}, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cachedWind).wind, true
}

func (c *windCache) put(key string, w domain.Wind) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.byKey[key]; ok {
		el.Value.(*cachedWind).wind = w
		c.order.MoveToFront(el)
		return
	}
	c.byKey[key] = c.order.PushFront(&cachedWind{key: key, wind: w})
	for c.order.Len() > c.limit {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.byKey, oldest.Value.(*cachedWind).key)
	}
}

func (c *windCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
