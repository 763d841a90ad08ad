package cache

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	result   []string
	storedAt time.Time
}

// MemoryStore keeps entries in process. It is the default store.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	buckets map[string]map[string]entry
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:     ttl,
		now:     time.Now,
		buckets: make(map[string]map[string]entry),
	}
}

func (m *MemoryStore) Get(_ context.Context, bucket, key string) ([]string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.buckets[bucket][key]
	if !ok || m.expired(e) {
		return nil, false, nil
	}

	return e.result, true, nil
}

func (m *MemoryStore) Set(_ context.Context, bucket, key string, result []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries, ok := m.buckets[bucket]
	if !ok {
		entries = make(map[string]entry)
		m.buckets[bucket] = entries
	}
	entries[key] = entry{result: result, storedAt: m.now()}

	return nil
}

func (m *MemoryStore) Delete(_ context.Context, bucket, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.buckets[bucket], key)

	return nil
}

func (m *MemoryStore) Sweep(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var removed int
	for bucket, entries := range m.buckets {
		for key, e := range entries {
			if m.expired(e) {
				delete(entries, key)
				removed++
			}
		}
		if len(entries) == 0 {
			delete(m.buckets, bucket)
		}
	}

	return removed, nil
}

func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.buckets = make(map[string]map[string]entry)

	return nil
}

func (m *MemoryStore) expired(e entry) bool {
	return !m.now().Before(e.storedAt.Add(m.ttl))
}
