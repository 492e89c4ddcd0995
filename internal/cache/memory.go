package cache

import (
	"context"
	"sync"
	"time"

	"transaction-service/internal/util"

	"github.com/puzpuzpuz/xsync/v3"
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryCache is an in-process Cache backed by a concurrent map. A background
// sweeper removes expired entries; Get never returns one even before the sweep.
type MemoryCache struct {
	entries    *xsync.MapOf[string, entry]
	defaultTTL time.Duration
	now        func() time.Time

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// MemoryOption configures a MemoryCache
type MemoryOption func(*MemoryCache)

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) MemoryOption {
	return func(c *MemoryCache) {
		c.now = now
	}
}

// NewMemoryCache creates a cache and starts its sweeper. A sweepInterval <= 0
// disables the sweeper; expired entries are then only dropped on read.
func NewMemoryCache(defaultTTL, sweepInterval time.Duration, opts ...MemoryOption) *MemoryCache {
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}

	c := &MemoryCache{
		entries:    xsync.NewMapOf[string, entry](),
		defaultTTL: defaultTTL,
		now:        time.Now,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	if sweepInterval > 0 {
		go c.sweepLoop(sweepInterval)
	} else {
		close(c.done)
	}
	return c
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	e, ok := c.entries.Load(key)
	if !ok {
		return nil, false, nil
	}
	if c.expired(e) {
		c.deleteIfExpired(key)
		return nil, false, nil
	}
	return e.value, true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	c.entries.Store(key, entry{value: value, expiresAt: c.now().Add(ttl)})
	return nil
}

func (c *MemoryCache) Flush(_ context.Context) error {
	c.entries.Clear()
	return nil
}

// Len returns the number of stored entries, expired ones included
func (c *MemoryCache) Len() int {
	return c.entries.Size()
}

// DeleteExpired removes every expired entry and returns how many were removed
func (c *MemoryCache) DeleteExpired() int {
	var expired []string
	c.entries.Range(func(key string, e entry) bool {
		if c.expired(e) {
			expired = append(expired, key)
		}
		return true
	})

	removed := 0
	for _, key := range expired {
		if c.deleteIfExpired(key) {
			removed++
		}
	}
	return removed
}

// Close stops the sweeper. It is safe to call more than once.
func (c *MemoryCache) Close() error {
	c.closeOnce.Do(func() {
		close(c.stop)
	})
	<-c.done
	return nil
}

func (c *MemoryCache) expired(e entry) bool {
	return !c.now().Before(e.expiresAt)
}

// deleteIfExpired removes key only if the stored entry is still expired, so a
// concurrent Set is never lost.
func (c *MemoryCache) deleteIfExpired(key string) bool {
	removed := false
	c.entries.Compute(key, func(old entry, loaded bool) (entry, bool) {
		removed = loaded && c.expired(old)
		return old, !loaded || removed
	})
	return removed
}

func (c *MemoryCache) sweepLoop(interval time.Duration) {
	defer close(c.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			if n := c.DeleteExpired(); n > 0 {
				util.CacheEvictionsTotal.Add(float64(n))
			}
		}
	}
}
