// Package kv provides the flat string key-value substrate the dashboard state
// lives on: a synchronous Store contract, an in-memory implementation, and a
// remote-backed implementation that mirrors the server's client-storage
// namespace.
package kv

import "sync"

// Store is a synchronous string-to-string store. Get on a missing key returns
// ok=false, never an error; no operation fails for a missing key. Values are
// opaque strings; callers do their own JSON encoding.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Remove(key string)
	Clear()
	Len() int
	Key(index int) (string, bool)
	Keys() []string
}

// MemoryStore is the local fallback tier: a plain in-process store with
// insertion-ordered key enumeration. Safe for concurrent use.
type MemoryStore struct {
	mu    sync.Mutex
	data  map[string]string
	order []string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

func (s *MemoryStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.data[key]
	return value, ok
}

func (s *MemoryStore) Set(key, value string) {
	if key == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data[key]; !exists {
		s.order = append(s.order, key)
	}
	s.data[key] = value
}

func (s *MemoryStore) Remove(key string) {
	if key == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data[key]; !exists {
		return
	}
	delete(s.data, key)
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[string]string)
	s.order = nil
}

func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

func (s *MemoryStore) Key(index int) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.order) {
		return "", false
	}
	return s.order[index], true
}

func (s *MemoryStore) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}
