package services

import "sync"

// memo is a per-store result cache. A fresh memo replaces the old one on every
// store swap, so entries never outlive the data they were computed from.
type memo struct {
	mu      sync.RWMutex
	entries map[string]any
}

func newMemo() *memo {
	return &memo{entries: make(map[string]any)}
}

func (m *memo) get(key string) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.entries[key]
	return v, ok
}

// put keeps the first value stored for key. Concurrent misses compute the same
// deterministic result, so later writers are dropped.
func (m *memo) put(key string, v any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[key]; !ok {
		m.entries[key] = v
	}
}

func (m *memo) len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
