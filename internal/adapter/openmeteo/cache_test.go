package openmeteo

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/couchcryptid/wildfire-hotspot-etl/internal/domain"
	"github.com/couchcryptid/wildfire-hotspot-etl/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mock for cache tests ---

type countingProvider struct {
	mu    sync.Mutex
	calls int
	wind  domain.Wind
	err   error
}

func (m *countingProvider) CurrentWind(_ context.Context, _, _ float64) (domain.Wind, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.wind, m.err
}

// --- CachedProvider tests ---

func TestCachedProvider_CacheHit(t *testing.T) {
	inner := &countingProvider{wind: domain.Wind{SpeedKPH: 18, DirectionDeg: 270}}
	metrics := observability.NewMetricsForTesting()
	cached := NewCachedProvider(inner, 10, 2, metrics)

	w1, err := cached.CurrentWind(context.Background(), 38.581, -122.824)
	require.NoError(t, err)
	w2, err := cached.CurrentWind(context.Background(), 38.584, -122.819)
	require.NoError(t, err)

	assert.Equal(t, w1, w2)
	assert.Equal(t, 1, inner.calls, "nearby points share a rounded key")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.WindCache.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.WindCache.WithLabelValues("miss")))
}

func TestCachedProvider_DifferentCellsMiss(t *testing.T) {
	inner := &countingProvider{wind: domain.Wind{SpeedKPH: 18}}
	cached := NewCachedProvider(inner, 10, 2, observability.NewMetricsForTesting())

	_, _ = cached.CurrentWind(context.Background(), 38.58, -122.82)
	_, _ = cached.CurrentWind(context.Background(), 38.60, -122.82)

	assert.Equal(t, 2, inner.calls)
}

func TestCachedProvider_ErrorsNotCached(t *testing.T) {
	inner := &countingProvider{err: errors.New("upstream down")}
	cached := NewCachedProvider(inner, 10, 2, observability.NewMetricsForTesting())

	_, err := cached.CurrentWind(context.Background(), 1, 2)
	require.Error(t, err)
	_, err = cached.CurrentWind(context.Background(), 1, 2)
	require.Error(t, err)

	assert.Equal(t, 2, inner.calls)
	assert.Zero(t, cached.cache.size())
}

func TestCachedProvider_ConcurrentAccess(t *testing.T) {
	inner := &countingProvider{wind: domain.Wind{SpeedKPH: 5}}
	cached := NewCachedProvider(inner, 4, 1, observability.NewMetricsForTesting())

	var wg sync.WaitGroup
	for i := range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = cached.CurrentWind(context.Background(), float64(i%8), 0)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, cached.cache.size(), 4)
}

// blockingProvider holds every call until release is closed.
type blockingProvider struct {
	countingProvider
	release chan struct{}
}

func (m *blockingProvider) CurrentWind(ctx context.Context, lat, lon float64) (domain.Wind, error) {
	<-m.release
	return m.countingProvider.CurrentWind(ctx, lat, lon)
}

func TestCachedProvider_ConcurrentMissesShareOneLookup(t *testing.T) {
	inner := &blockingProvider{
		countingProvider: countingProvider{wind: domain.Wind{SpeedKPH: 12}},
		release:          make(chan struct{}),
	}
	cached := NewCachedProvider(inner, 10, 2, observability.NewMetricsForTesting())

	const callers = 8
	var started, wg sync.WaitGroup
	results := make([]domain.Wind, callers)
	for i := range callers {
		wg.Add(1)
		started.Add(1)
		go func() {
			defer wg.Done()
			started.Done()
			results[i], _ = cached.CurrentWind(context.Background(), 38.581, -122.821)
		}()
	}
	started.Wait()
	time.Sleep(50 * time.Millisecond)
	close(inner.release)
	wg.Wait()

	for _, w := range results {
		assert.Equal(t, 12.0, w.SpeedKPH)
	}
	assert.Equal(t, 1, inner.calls)
}

// --- windCache unit tests ---

func TestWindCache_BasicGetPut(t *testing.T) {
	c := newWindCache(3)

	c.put("a", domain.Wind{SpeedKPH: 1})
	c.put("b", domain.Wind{SpeedKPH: 2})

	w, ok := c.get("a")
	assert.True(t, ok)
	assert.Equal(t, 1.0, w.SpeedKPH)

	_, ok = c.get("missing")
	assert.False(t, ok)
}

func TestWindCache_Eviction(t *testing.T) {
	c := newWindCache(2)

	c.put("a", domain.Wind{SpeedKPH: 1})
	c.put("b", domain.Wind{SpeedKPH: 2})
	c.put("c", domain.Wind{SpeedKPH: 3}) // evicts "a"

	_, ok := c.get("a")
	assert.False(t, ok, "a should have been evicted")

	w, ok := c.get("b")
	assert.True(t, ok)
	assert.Equal(t, 2.0, w.SpeedKPH)

	w, ok = c.get("c")
	assert.True(t, ok)
	assert.Equal(t, 3.0, w.SpeedKPH)
}

func TestWindCache_AccessPromotesEntry(t *testing.T) {
	c := newWindCache(2)

	c.put("a", domain.Wind{SpeedKPH: 1})
	c.put("b", domain.Wind{SpeedKPH: 2})

	c.get("a")

	// "b" is now least recently used.
	c.put("c", domain.Wind{SpeedKPH: 3})

	_, ok := c.get("a")
	assert.True(t, ok, "a was accessed recently, should not be evicted")

	_, ok = c.get("b")
	assert.False(t, ok, "b should have been evicted")
}

func TestWindCache_UpdateExisting(t *testing.T) {
	c := newWindCache(2)

	c.put("a", domain.Wind{SpeedKPH: 1})
	c.put("a", domain.Wind{SpeedKPH: 9})

	w, ok := c.get("a")
	assert.True(t, ok)
	assert.Equal(t, 9.0, w.SpeedKPH)
	assert.Equal(t, 1, c.size())
}
