package prayer

import (
	"context"
	"sync"
	"time"
)

// Cache stores fetched timings so sessions opened on the same day share one upstream call.
type Cache interface {
	Get(ctx context.Context, key string) (Timings, bool, error)
	Set(ctx context.Context, key string, timings Timings, ttl time.Duration) error
}

type memoryEntry struct {
	timings Timings
	expires time.Time
}

// MemoryCache is a process-local Cache.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryCache creates an empty in-process cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (m *MemoryCache) Get(_ context.Context, key string) (Timings, bool, error) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}
	if !entry.expires.IsZero() && !m.now().Before(entry.expires) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return nil, false, nil
	}
	return entry.timings.Clone(), true, nil
}

func (m *MemoryCache) Set(_ context.Context, key string, timings Timings, ttl time.Duration) error {
	entry := memoryEntry{timings: timings.Clone()}
	if ttl > 0 {
		entry.expires = m.now().Add(ttl)
	}

	m.mu.Lock()
	m.entries[key] = entry
	m.mu.Unlock()
	return nil
}
