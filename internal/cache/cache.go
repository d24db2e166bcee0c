// Package cache provides the key-value response cache the list loader
// checks before hitting the data API. Freshness is decided by the
// server-supplied modification timestamp stored with each entry, not by
// the cache itself.
package cache

import (
	"sync"
	"time"
)

// Entry is one cached payload.
type Entry struct {
	Body      []byte
	Modified  time.Time // server-supplied Last-Modified stamp
	FetchedAt time.Time
}

// Cache is the abstraction injected into the loader.
type Cache interface {
	Get(key string) (Entry, bool)
	Put(key string, e Entry)
	Delete(key string)
}

// Memory is an in-process Cache guarded by an RWMutex.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string]Entry)}
}

func (m *Memory) Get(key string) (Entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[key]
	return e, ok
}

func (m *Memory) Put(key string, e Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = e
}

func (m *Memory) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
}
