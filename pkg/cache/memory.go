package cache

import (
	"context"
	"sync"
	"time"
)

// Memory is a process-local cache. Expired entries are dropped on read;
// when the cache is full the entry closest to expiry is evicted.
type Memory[V any] struct {
	mu         sync.Mutex
	items      map[string]memoryItem[V]
	maxSize    int
	defaultTTL time.Duration
	now        func() time.Time
}

type memoryItem[V any] struct {
	value   V
	expires time.Time // zero means never
}

// NewMemory returns an in-memory cache holding at most maxSize entries (0 for unbounded).
func NewMemory[V any](maxSize int, defaultTTL time.Duration) *Memory[V] {
	return &Memory[V]{
		items:      make(map[string]memoryItem[V]),
		maxSize:    maxSize,
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
}

func (m *Memory[V]) Get(_ context.Context, key string) (V, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	it, ok := m.items[key]
	if !ok || m.expired(it) {
		delete(m.items, key)
		var zero V
		return zero, ErrNotFound
	}
	return it.value, nil
}

func (m *Memory[V]) Set(_ context.Context, key string, value V, ttl time.Duration) error {
	if ttl == 0 {
		ttl = m.defaultTTL
	}

	it := memoryItem[V]{value: value}
	if ttl > 0 {
		it.expires = m.now().Add(ttl)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.items[key]; !exists && m.maxSize > 0 && len(m.items) >= m.maxSize {
		m.evict()
	}
	m.items[key] = it
	return nil
}

func (m *Memory[V]) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.items, key)
	m.mu.Unlock()
	return nil
}

// Len returns the number of stored entries, expired or not.
func (m *Memory[V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

func (m *Memory[V]) expired(it memoryItem[V]) bool {
	return !it.expires.IsZero() && !m.now().Before(it.expires)
}

// evict drops expired entries, or the soonest-expiring one if none expired.
func (m *Memory[V]) evict() {
	var (
		victim string
		soonest time.Time
	)
	for k, it := range m.items {
		if m.expired(it) {
			delete(m.items, k)
			continue
		}
		if !it.expires.IsZero() && (soonest.IsZero() || it.expires.Before(soonest)) {
			victim, soonest = k, it.expires
		}
	}
	if len(m.items) < m.maxSize {
		return
	}
	if victim == "" {
		for k := range m.items {
			victim = k
			break
		}
	}
	delete(m.items, victim)
}

var _ Cache[any] = (*Memory[any])(nil)
