package locker

import (
	"context"
	"sync"
)

type memEntry struct {
	ch   chan struct{}
	refs int
}

// Memory is an in-process keyed mutex. Entries are reference counted and
// dropped once no caller holds or waits on them.
type Memory struct {
	mu    sync.Mutex
	locks map[string]*memEntry
}

// NewMemory creates an empty Memory locker.
func NewMemory() *Memory {
	return &Memory{locks: make(map[string]*memEntry)}
}

// Lock waits for key, giving up when ctx is done.
func (m *Memory) Lock(ctx context.Context, key string) (Unlock, error) {
	m.mu.Lock()
	e, ok := m.locks[key]
	if !ok {
		e = &memEntry{ch: make(chan struct{}, 1)}
		m.locks[key] = e
	}
	e.refs++
	m.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		m.release(key, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			m.release(key, e)
		})
	}, nil
}

func (m *Memory) release(key string, e *memEntry) {
	m.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(m.locks, key)
	}
	m.mu.Unlock()
}

// Len returns the number of keys currently held or awaited.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.locks)
}
