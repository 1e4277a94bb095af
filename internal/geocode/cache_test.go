package geocode

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicworks/idlewatch/internal/observability"
)

type countingGeocoder struct {
	calls   int
	results map[string]*Coordinates
	err     error
}

func (g *countingGeocoder) Lookup(ctx context.Context, address string) (*Coordinates, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return g.results[address], nil
}

func TestCachedGeocoderHit(t *testing.T) {
	inner := &countingGeocoder{results: map[string]*Coordinates{
		"123 Main St": {Lat: 39.95, Lng: -75.19},
	}}
	cached := NewCachedGeocoder(inner, 10, observability.NewMetricsForTesting())

	first, err := cached.Lookup(context.Background(), "123 Main St")
	require.NoError(t, err)
	second, err := cached.Lookup(context.Background(), "123 Main St")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.calls)
}

func TestCachedGeocoderDoesNotCacheMisses(t *testing.T) {
	inner := &countingGeocoder{results: map[string]*Coordinates{}}
	cached := NewCachedGeocoder(inner, 10, observability.NewMetricsForTesting())

	for i := 0; i < 3; i++ {
		coords, err := cached.Lookup(context.Background(), "unknown place")
		require.NoError(t, err)
		assert.Nil(t, coords)
	}

	assert.Equal(t, 3, inner.calls)
}

func TestCachedGeocoderDoesNotCacheErrors(t *testing.T) {
	inner := &countingGeocoder{err: errors.New("upstream down")}
	cached := NewCachedGeocoder(inner, 10, observability.NewMetricsForTesting())

	_, err := cached.Lookup(context.Background(), "123 Main St")
	require.Error(t, err)
	_, err = cached.Lookup(context.Background(), "123 Main St")
	require.Error(t, err)

	assert.Equal(t, 2, inner.calls)
}

func TestCachedGeocoderEvictsLeastRecentlyUsed(t *testing.T) {
	inner := &countingGeocoder{results: map[string]*Coordinates{
		"a": {Lat: 1}, "b": {Lat: 2}, "c": {Lat: 3},
	}}
	cached := NewCachedGeocoder(inner, 2, observability.NewMetricsForTesting())

	ctx := context.Background()
	_, _ = cached.Lookup(ctx, "a")
	_, _ = cached.Lookup(ctx, "b")

	// Touch "a" so "b" becomes the eviction candidate.
	_, _ = cached.Lookup(ctx, "a")
	_, _ = cached.Lookup(ctx, "c")

	assert.Equal(t, 3, inner.calls)

	_, _ = cached.Lookup(ctx, "b")
	assert.Equal(t, 4, inner.calls, "evicted entry should hit the inner geocoder again")

	_, _ = cached.Lookup(ctx, "a")
	assert.Equal(t, 5, inner.calls, "inserting b evicted a")
}
