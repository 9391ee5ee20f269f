package assistant

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Cache stores answered questions per budget. Every budget carries a
// monotonic version; an entry is only served while the version it was
// computed under is still current, so Invalidate hides every earlier entry
// from readers that start after it returns.
type Cache interface {
	Get(ctx context.Context, budgetID uint, key string) (*Answer, bool, error)
	Put(ctx context.Context, budgetID uint, key string, answer *Answer, version uint64) error
	Version(ctx context.Context, budgetID uint) (uint64, error)
	Invalidate(ctx context.Context, budgetID uint) error
}

type memoryEntry struct {
	version uint64
	answer  Answer
}

// MemoryCache is an in-process Cache with a fixed time-to-live.
type MemoryCache struct {
	entries  *gocache.Cache
	mu       sync.RWMutex
	versions map[uint]uint64
}

// NewMemoryCache creates a MemoryCache whose entries expire after ttl.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		entries:  gocache.New(ttl, 2*ttl),
		versions: make(map[uint]uint64),
	}
}

func (c *MemoryCache) Get(_ context.Context, budgetID uint, key string) (*Answer, bool, error) {
	v, ok := c.entries.Get(key)
	if !ok {
		return nil, false, nil
	}
	entry := v.(memoryEntry)

	c.mu.RLock()
	current := c.versions[budgetID]
	c.mu.RUnlock()
	if entry.version != current {
		c.entries.Delete(key)
		return nil, false, nil
	}

	answer := entry.answer
	return &answer, true, nil
}

func (c *MemoryCache) Put(_ context.Context, _ uint, key string, answer *Answer, version uint64) error {
	c.entries.Set(key, memoryEntry{version: version, answer: *answer}, gocache.DefaultExpiration)
	return nil
}

func (c *MemoryCache) Version(_ context.Context, budgetID uint) (uint64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.versions[budgetID], nil
}

func (c *MemoryCache) Invalidate(_ context.Context, budgetID uint) error {
	c.mu.Lock()
	c.versions[budgetID]++
	c.mu.Unlock()
	return nil
}
