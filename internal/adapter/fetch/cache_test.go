package fetch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/couchcryptid/disease-map-service/internal/observability"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mock for cache tests ---

type countingFetcher struct {
	calls map[string]int
	data  []byte
	err   error
}

func (m *countingFetcher) Fetch(_ context.Context, name string) ([]byte, error) {
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[name]++
	if m.err != nil {
		return nil, m.err
	}
	return m.data, nil
}

// --- Cached tests ---

func TestCached_Hit(t *testing.T) {
	inner := &countingFetcher{data: []byte("State,Year,Cases")}
	metrics := observability.NewMetricsForTesting()
	c := NewCached(inner, 10, 0, clockwork.NewFakeClock(), metrics)

	d1, err := c.Fetch(context.Background(), "HIV_data.xlsx")
	require.NoError(t, err)
	d2, err := c.Fetch(context.Background(), "HIV_data.xlsx")
	require.NoError(t, err)

	assert.Equal(t, d1, d2)
	assert.Equal(t, 1, inner.calls["HIV_data.xlsx"], "should only call inner once")
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.FetchCache.WithLabelValues("hit")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.FetchCache.WithLabelValues("miss")), 0)
}

func TestCached_DifferentNamesMiss(t *testing.T) {
	inner := &countingFetcher{data: []byte("x")}
	c := NewCached(inner, 10, 0, clockwork.NewFakeClock(), observability.NewMetricsForTesting())

	_, _ = c.Fetch(context.Background(), "HIV_data.xlsx")
	_, _ = c.Fetch(context.Background(), "TB_data.xlsx")

	assert.Equal(t, 1, inner.calls["HIV_data.xlsx"])
	assert.Equal(t, 1, inner.calls["TB_data.xlsx"])
}

func TestCached_TTLExpiry(t *testing.T) {
	clock := clockwork.NewFakeClock()
	inner := &countingFetcher{data: []byte("x")}
	metrics := observability.NewMetricsForTesting()
	c := NewCached(inner, 10, time.Minute, clock, metrics)

	_, _ = c.Fetch(context.Background(), "usa_states.geojson")
	clock.Advance(30 * time.Second)
	_, _ = c.Fetch(context.Background(), "usa_states.geojson")
	assert.Equal(t, 1, inner.calls["usa_states.geojson"])

	clock.Advance(time.Minute)
	_, _ = c.Fetch(context.Background(), "usa_states.geojson")
	assert.Equal(t, 2, inner.calls["usa_states.geojson"])
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.FetchCache.WithLabelValues("expired")), 0)
}

func TestCached_ErrorsAreNotCached(t *testing.T) {
	inner := &countingFetcher{err: errors.New("connection refused")}
	c := NewCached(inner, 10, 0, clockwork.NewFakeClock(), observability.NewMetricsForTesting())

	_, err := c.Fetch(context.Background(), "HIV_data.xlsx")
	require.Error(t, err)

	inner.err = nil
	inner.data = []byte("ok")
	data, err := c.Fetch(context.Background(), "HIV_data.xlsx")
	require.NoError(t, err)
	assert.Equal(t, []byte("ok"), data)
	assert.Equal(t, 2, inner.calls["HIV_data.xlsx"])
}

// --- LRU cache unit tests ---

func TestLRUCache_BasicGetPut(t *testing.T) {
	c := newLRUCache(3)

	c.put("a", cached{data: []byte("A")})
	c.put("b", cached{data: []byte("B")})

	result, ok := c.get("a")
	assert.True(t, ok)
	assert.Equal(t, []byte("A"), result.data)

	_, ok = c.get("missing")
	assert.False(t, ok)
}

func TestLRUCache_Eviction(t *testing.T) {
	c := newLRUCache(2)

	c.put("a", cached{data: []byte("A")})
	c.put("b", cached{data: []byte("B")})
	c.put("c", cached{data: []byte("C")}) // evicts "a"

	_, ok := c.get("a")
	assert.False(t, ok, "a should have been evicted")
	assert.Equal(t, 2, c.len())

	result, ok := c.get("c")
	assert.True(t, ok)
	assert.Equal(t, []byte("C"), result.data)
}

func TestLRUCache_AccessPromotesEntry(t *testing.T) {
	c := newLRUCache(2)

	c.put("a", cached{data: []byte("A")})
	c.put("b", cached{data: []byte("B")})

	c.get("a")

	// "b" is now least recently used.
	c.put("c", cached{data: []byte("C")})

	_, ok := c.get("a")
	assert.True(t, ok, "a was accessed recently, should not be evicted")

	_, ok = c.get("b")
	assert.False(t, ok, "b should have been evicted")
}

func TestLRUCache_Delete(t *testing.T) {
	c := newLRUCache(3)

	c.put("a", cached{data: []byte("A")})
	c.put("b", cached{data: []byte("B")})
	c.delete("a")
	c.delete("missing")

	_, ok := c.get("a")
	assert.False(t, ok)
	assert.Equal(t, 1, c.len())

	c.put("c", cached{data: []byte("C")})
	c.put("d", cached{data: []byte("D")})
	_, ok = c.get("b")
	assert.True(t, ok, "capacity is not reduced by deletes")
}
