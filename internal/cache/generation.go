package cache

import (
	"context"
	"sync"
	"time"
)

// GenerationCache counts flushes so that a payload loaded before a flush is
// never written back after it.
type GenerationCache struct {
	Cache

	mu         sync.RWMutex
	generation uint64
}

// WithGenerations wraps c. Wrapping a GenerationCache returns it unchanged.
func WithGenerations(c Cache) *GenerationCache {
	if g, ok := c.(*GenerationCache); ok {
		return g
	}
	return &GenerationCache{Cache: c}
}

// Generation returns the number of flushes seen so far
func (g *GenerationCache) Generation() uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.generation
}

// SetIfGeneration stores value only if no flush happened since generation was
// read. It reports whether the value was stored.
func (g *GenerationCache) SetIfGeneration(ctx context.Context, generation uint64, key string, value []byte, ttl time.Duration) (bool, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.generation != generation {
		return false, nil
	}
	if err := g.Cache.Set(ctx, key, value, ttl); err != nil {
		return false, err
	}
	return true, nil
}

// Flush advances the generation even when the underlying flush fails.
func (g *GenerationCache) Flush(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.generation++
	return g.Cache.Flush(ctx)
}
