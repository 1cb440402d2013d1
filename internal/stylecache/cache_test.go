package stylecache

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/stylesync/internal/styletree"
)

func TestRecordAndLookup(t *testing.T) {
	cache := New()
	origin := styletree.Of("color", "red")
	cache.Record("h1", origin)

	got, ok := cache.Lookup("h1")
	require.True(t, ok)
	assert.True(t, got.Equal(origin))

	// the cache holds its own copy
	origin.Set("color", styletree.String("blue"))
	got, _ = cache.Lookup("h1")
	assert.True(t, got.Equal(styletree.Of("color", "red")))

	_, ok = cache.Lookup("missing")
	assert.False(t, ok)
	assert.Equal(t, 1, cache.Len())
}

func TestLookupAndMergeLaterWins(t *testing.T) {
	cache := New()
	cache.Record("a", styletree.Of("color", "red"))
	cache.Record("b", styletree.Of("@media print", styletree.Of("color", "black")))
	cache.Record("c", styletree.Of("color", "green"))
	cache.Record("d", styletree.Of("@media print", styletree.Of("margin", 0)))

	merged := cache.LookupAndMerge([]string{"a", "missing", "b", "c", "d"})
	expected := styletree.Of(
		"color", "green",
		"@media print", styletree.Of("color", "black", "margin", 0),
	)
	assert.True(t, merged.Equal(expected))

	assert.Equal(t, 0, cache.LookupAndMerge(nil).Len())
}

func TestCollisionsAreCountedNotReplaced(t *testing.T) {
	cache := New()
	cache.Record("x", styletree.Of("color", "red"))
	cache.Record("x", styletree.Of("color", "red"))
	assert.Equal(t, int64(0), cache.Collisions())

	cache.Record("x", styletree.Of("color", "blue"))
	assert.Equal(t, int64(1), cache.Collisions())

	got, _ := cache.Lookup("x")
	assert.True(t, got.Equal(styletree.Of("color", "red")))
}

func TestReset(t *testing.T) {
	cache := New()
	cache.Record("x", styletree.Of("color", "red"))
	cache.Record("x", styletree.Of("color", "blue"))
	cache.Reset()

	assert.Equal(t, 0, cache.Len())
	assert.Equal(t, int64(0), cache.Collisions())
}

func TestDefaultIsProcessScoped(t *testing.T) {
	assert.Same(t, Default(), Default())
}

func TestConcurrentRecord(t *testing.T) {
	cache := New()
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				id := fmt.Sprintf("h%d", i)
				cache.Record(id, styletree.Of("width", i))
				_ = cache.LookupAndMerge([]string{id})
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, cache.Len())
	assert.Equal(t, int64(0), cache.Collisions())
}
