package storage

import (
	"sort"
	"sync"
)

// Store keeps a bounded, insertion-ordered list of values per key.
// When a key is full the oldest value is dropped.
type Store[T any] struct {
	mu       sync.RWMutex
	keys     map[string]*keyStore[T]
	capacity int
}

type keyStore[T any] struct {
	mu    sync.Mutex
	items []T
}

func NewStore[T any](capacity int) *Store[T] {
	return &Store[T]{
		keys:     make(map[string]*keyStore[T]),
		capacity: capacity,
	}
}

func (s *Store[T]) getOrCreateKeyStore(key string) *keyStore[T] {
	s.mu.Lock()
	defer s.mu.Unlock()

	ks, ok := s.keys[key]
	if !ok {
		ks = &keyStore[T]{}
		s.keys[key] = ks
	}
	return ks
}

func (s *Store[T]) Push(key string, val T) {
	ks := s.getOrCreateKeyStore(key)

	s.mu.RLock()
	capacity := s.capacity
	s.mu.RUnlock()

	ks.mu.Lock()
	defer ks.mu.Unlock()

	if capacity > 0 && len(ks.items) >= capacity {
		over := len(ks.items) - capacity + 1
		ks.items = append(ks.items[:0:0], ks.items[over:]...)
	}
	ks.items = append(ks.items, val)
}

// Get returns a copy of the values stored under key, oldest first.
func (s *Store[T]) Get(key string) ([]T, bool) {
	s.mu.RLock()
	ks, ok := s.keys[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}

	ks.mu.Lock()
	defer ks.mu.Unlock()

	items := make([]T, len(ks.items))
	copy(items, ks.items)
	return items, true
}

// Filter returns the values under key that satisfy keep, oldest first.
func (s *Store[T]) Filter(key string, keep func(T) bool) []T {
	items, _ := s.Get(key)

	out := items[:0]
	for _, it := range items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}

func (s *Store[T]) Len(key string) int {
	s.mu.RLock()
	ks, ok := s.keys[key]
	s.mu.RUnlock()
	if !ok {
		return 0
	}

	ks.mu.Lock()
	defer ks.mu.Unlock()
	return len(ks.items)
}

func (s *Store[T]) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.keys))
	for k := range s.keys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (s *Store[T]) ClearKey(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.keys, key)
}

func (s *Store[T]) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = make(map[string]*keyStore[T])
}

func (s *Store[T]) SetCapacity(capacity int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.capacity = capacity
	if capacity <= 0 {
		return
	}

	for _, ks := range s.keys {
		ks.mu.Lock()
		if len(ks.items) > capacity {
			ks.items = append(ks.items[:0:0], ks.items[len(ks.items)-capacity:]...)
		}
		ks.mu.Unlock()
	}
}

func (s *Store[T]) GetCapacity() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.capacity
}
