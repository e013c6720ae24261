package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryProvider is an in-process Provider with TTL expiry. Suitable for
// single-instance deployments and tests; entries are evicted lazily on read.
type MemoryProvider struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{entries: make(map[string]memoryEntry)}
}

func (m *MemoryProvider) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrCacheMiss
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return nil, ErrCacheMiss
	}
	value := make([]byte, len(entry.value))
	copy(value, entry.value)
	return value, nil
}

func (m *MemoryProvider) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	entry := memoryEntry{value: make([]byte, len(value))}
	copy(entry.value, value)
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}

	m.mu.Lock()
	m.entries[key] = entry
	m.mu.Unlock()
	return nil
}

func (m *MemoryProvider) Del(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

func (m *MemoryProvider) Close() error {
	m.mu.Lock()
	m.entries = make(map[string]memoryEntry)
	m.mu.Unlock()
	return nil
}
