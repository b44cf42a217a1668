package lod

import (
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/oceanview/internal/ocean/points"
)

func TestFrameCache_HitReturnsSameSlice(t *testing.T) {
	c := NewFrameCache(DefaultCapacity, PolicyFIFO)
	pts := makePoints(20)
	const idA, idB points.Identity = 0xA, 0xB

	first := c.Get(3, idA, pts, 8)
	second := c.Get(3, idA, pts, 8)
	require.Len(t, first, 7)
	assert.Same(t, &first[0], &second[0])

	third := c.Get(3, idB, pts, 8)
	assert.NotSame(t, &first[0], &third[0])
	assert.Equal(t, 2, c.Len())

	stats := c.Stats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(2), stats.Misses)
}

func TestFrameCache_ZoomIgnoredOnHit(t *testing.T) {
	c := NewFrameCache(DefaultCapacity, PolicyFIFO)
	pts := makePoints(20)

	first := c.Get(0, 1, pts, 6)
	again := c.Get(0, 1, pts, 14)
	assert.Len(t, again, 4)
	assert.Same(t, &first[0], &again[0])
}

func TestFrameCache_FIFOEvictsFirstInserted(t *testing.T) {
	c := NewFrameCache(100, PolicyFIFO)
	pts := makePoints(4)

	for i := 0; i < 101; i++ {
		c.Get(i, points.Identity(i*7+1), pts, 12)
	}

	assert.Equal(t, 100, c.Len())
	assert.False(t, c.Contains(0, 1))
	for i := 1; i < 101; i++ {
		assert.True(t, c.Contains(i, points.Identity(i*7+1)), "key %d", i)
	}
	assert.Equal(t, uint64(1), c.Stats().Evictions)
}

func TestFrameCache_FIFOIgnoresHits(t *testing.T) {
	c := NewFrameCache(2, PolicyFIFO)
	pts := makePoints(4)

	c.Get(0, 1, pts, 12)
	c.Get(1, 1, pts, 12)
	c.Get(0, 1, pts, 12) // hit, does not refresh
	c.Get(2, 1, pts, 12)

	want := []Key{{FrameIndex: 1, Identity: 1}, {FrameIndex: 2, Identity: 1}}
	if diff := cmp.Diff(want, c.Keys()); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
}

func TestFrameCache_LRURefreshesOnHit(t *testing.T) {
	c := NewFrameCache(2, PolicyLRU)
	pts := makePoints(4)

	c.Get(0, 1, pts, 12)
	c.Get(1, 1, pts, 12)
	c.Get(0, 1, pts, 12)
	c.Get(2, 1, pts, 12)

	assert.True(t, c.Contains(0, 1))
	assert.False(t, c.Contains(1, 1))
	assert.True(t, c.Contains(2, 1))
}

func TestFrameCache_Clear(t *testing.T) {
	c := NewFrameCache(0, PolicyFIFO)
	assert.Equal(t, DefaultCapacity, c.Stats().Capacity)

	c.Get(0, 1, makePoints(3), 12)
	c.Clear()
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, Stats{Capacity: DefaultCapacity}, c.Stats())
}

func TestFrameCache_GetFrame(t *testing.T) {
	c := NewFrameCache(10, PolicyFIFO)
	f := points.NewFrame(2, "ds", testTime, makePoints(10))

	got := c.GetFrame(f, 6)
	assert.Len(t, got, 2)
	assert.True(t, c.Contains(2, f.Identity()))
	assert.Nil(t, c.GetFrame(nil, 6))
}

func TestFrameCache_ConcurrentAccess(t *testing.T) {
	c := NewFrameCache(16, PolicyLRU)
	pts := makePoints(50)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				got := c.Get(i%32, points.Identity(w%2), pts, 8)
				if len(got) != 17 {
					t.Errorf("unexpected sample size %d", len(got))
					return
				}
			}
		}(w)
	}
	wg.Wait()
	assert.LessOrEqual(t, c.Len(), 16)
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("lru")
	require.NoError(t, err)
	assert.Equal(t, PolicyLRU, p)

	p, err = ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyFIFO, p)

	_, err = ParsePolicy("random")
	assert.Error(t, err)
	assert.Equal(t, "lru", PolicyLRU.String())
}
