package cache

import (
	"context"
	"hash/fnv"
	"sync"
	"time"
)

// DefaultShards is used when NewMemory receives a non-positive shard count.
const DefaultShards = 32

type entry[V any] struct {
	value    V
	expireAt time.Time
}

type shard[V any] struct {
	mu    sync.Mutex
	items map[string]entry[V]
}

// Memory is an in-process Cache. Keys are spread over shards by FNV-1a hash
// and each shard has its own mutex.
type Memory[V any] struct {
	shards []*shard[V]
	clock  clocker
}

// NewMemory creates a Memory cache reading time from clock.
func NewMemory[V any](clock clocker, shards int) *Memory[V] {
	if shards < 1 {
		shards = DefaultShards
	}

	m := &Memory[V]{
		shards: make([]*shard[V], shards),
		clock:  clock,
	}
	for i := range m.shards {
		m.shards[i] = &shard[V]{items: make(map[string]entry[V])}
	}

	return m
}

func (m *Memory[V]) shardFor(key string) *shard[V] {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return m.shards[h.Sum32()%uint32(len(m.shards))]
}

// Set stores value under key for ttl.
func (m *Memory[V]) Set(_ context.Context, key string, value V, ttl time.Duration) error {
	if ttl <= 0 {
		return ErrInvalidTTL
	}

	s := m.shardFor(key)
	s.mu.Lock()
	s.items[key] = entry[V]{value: value, expireAt: m.clock.Now().Add(ttl)}
	s.mu.Unlock()

	return nil
}

// SetIfAbsent stores value only when key has no live entry.
func (m *Memory[V]) SetIfAbsent(_ context.Context, key string, value V, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		return false, ErrInvalidTTL
	}

	now := m.clock.Now()
	s := m.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.items[key]; ok && !now.After(e.expireAt) {
		return false, nil
	}
	s.items[key] = entry[V]{value: value, expireAt: now.Add(ttl)}

	return true, nil
}

// Get returns the value for key while now <= expiry. An expired entry is
// removed on the way out.
func (m *Memory[V]) Get(_ context.Context, key string) (V, time.Time, bool, error) {
	var zero V

	now := m.clock.Now()
	s := m.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.items[key]
	if !ok {
		return zero, time.Time{}, false, nil
	}
	if now.After(e.expireAt) {
		delete(s.items, key)
		return zero, time.Time{}, false, nil
	}

	return e.value, e.expireAt, true, nil
}

// Delete removes key from its shard.
func (m *Memory[V]) Delete(_ context.Context, key string) error {
	s := m.shardFor(key)
	s.mu.Lock()
	delete(s.items, key)
	s.mu.Unlock()

	return nil
}

// Len returns the number of stored entries, expired ones included.
func (m *Memory[V]) Len() int {
	n := 0
	for _, s := range m.shards {
		s.mu.Lock()
		n += len(s.items)
		s.mu.Unlock()
	}
	return n
}
