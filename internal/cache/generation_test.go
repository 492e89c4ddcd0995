package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerationCache_SkipsSetAfterFlush(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryCache(time.Minute, 0)
	defer mem.Close()
	g := WithGenerations(mem)

	gen := g.Generation()
	stored, err := g.SetIfGeneration(ctx, gen, "a", []byte("1"), 0)
	require.NoError(t, err)
	assert.True(t, stored)

	stale := g.Generation()
	require.NoError(t, g.Flush(ctx))
	assert.Equal(t, stale+1, g.Generation())

	stored, err = g.SetIfGeneration(ctx, stale, "b", []byte("2"), 0)
	require.NoError(t, err)
	assert.False(t, stored)

	_, found, err := g.Get(ctx, "b")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestGenerationCache_WrapIsIdempotent(t *testing.T) {
	mem := NewMemoryCache(time.Minute, 0)
	defer mem.Close()

	g := WithGenerations(mem)
	assert.Same(t, g, WithGenerations(g))
}

func TestGenerationCache_ConcurrentFlushAndSet(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryCache(time.Minute, 0)
	defer mem.Close()
	g := WithGenerations(mem)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = g.SetIfGeneration(ctx, g.Generation(), "k", []byte("v"), 0)
		}()
		go func() {
			defer wg.Done()
			_ = g.Flush(ctx)
		}()
	}
	wg.Wait()

	assert.Equal(t, uint64(50), g.Generation())
}
