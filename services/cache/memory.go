package cache

import (
	"sync"
	"time"
)

// MemoryService implements CacheService with an in-process map. It backs the
// rate-limit block window when no memcached address is configured, so a
// single-process run needs no external service.
type MemoryService struct {
	mu    sync.Mutex
	items map[string]memoryItem
}

type memoryItem struct {
	value     []byte
	expiresAt time.Time
}

// NewMemoryService creates an empty in-memory cache.
func NewMemoryService() *MemoryService {
	return &MemoryService{items: make(map[string]memoryItem)}
}

// Get retrieves a value, treating expired entries as misses.
func (m *MemoryService) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	if !item.expiresAt.IsZero() && time.Now().After(item.expiresAt) {
		delete(m.items, key)
		return nil, ErrCacheMiss
	}
	return item.value, nil
}

// Set stores a value. A zero expiration means the entry never expires.
func (m *MemoryService) Set(key string, value []byte, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	item := memoryItem{value: value}
	if expiration > 0 {
		item.expiresAt = time.Now().Add(expiration)
	}
	m.items[key] = item
	return nil
}

// Delete removes a value.
func (m *MemoryService) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}
