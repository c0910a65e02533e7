package messaging

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

const memoryBuffer = 64

type memGroup struct {
	ch   chan *memMessage
	refs int
}

// Memory delivers messages between publishers and consumers of the same
// process. Each group on a destination receives every message once; a
// consumer without a group forms its own group. Messages published while no
// consumer is attached are dropped.
type Memory struct {
	mu     sync.Mutex
	topics map[string]map[string]*memGroup
	anon   int
	closed bool
	done   chan struct{}
}

// NewMemory creates an in-process Messaging.
func NewMemory() *Memory {
	return &Memory{
		topics: make(map[string]map[string]*memGroup),
		done:   make(chan struct{}),
	}
}

// Close stops all consumers. Further calls return nil.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.closed {
		m.closed = true
		close(m.done)
	}
	return nil
}

// Publish hands msg to every group consuming destination, blocking while a
// group's buffer is full.
func (m *Memory) Publish(ctx context.Context, destination string, msg OutgoingMessage) error {
	if destination == "" {
		return ErrDestinationRequired
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	groups := make([]*memGroup, 0, len(m.topics[destination]))
	for _, g := range m.topics[destination] {
		groups = append(groups, g)
	}
	m.mu.Unlock()

	for _, g := range groups {
		select {
		case g.ch <- newMemMessage(destination, msg):
		case <-ctx.Done():
			return ctx.Err()
		case <-m.done:
			return ErrClosed
		}
	}

	return nil
}

// Consume processes messages from source until ctx is done or the client is
// closed.
func (m *Memory) Consume(ctx context.Context, source string, handler Handler, opts ...ConsumeOption) error {
	if err := validateConsume(ctx, source, handler); err != nil {
		return err
	}

	co := newConsumeOptions(opts...)
	g, leave, err := m.join(source, co.group)
	if err != nil {
		return err
	}
	defer leave()

	var wg sync.WaitGroup
	for range co.concurrency {
		wg.Go(func() {
			for {
				select {
				case msg := <-g.ch:
					dispatch(ctx, DriverMemory, handler, msg, co.autoAck)
				case <-ctx.Done():
					return
				case <-m.done:
					return
				}
			}
		})
	}
	wg.Wait()

	return ctx.Err()
}

func (m *Memory) join(source, group string) (*memGroup, func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, nil, ErrClosed
	}
	if group == "" {
		m.anon++
		group = fmt.Sprintf("\x00anon-%d", m.anon)
	}

	groups, ok := m.topics[source]
	if !ok {
		groups = make(map[string]*memGroup)
		m.topics[source] = groups
	}
	g, ok := groups[group]
	if !ok {
		g = &memGroup{ch: make(chan *memMessage, memoryBuffer)}
		groups[group] = g
	}
	g.refs++

	return g, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if g.refs--; g.refs == 0 {
			delete(groups, group)
		}
		if len(groups) == 0 {
			delete(m.topics, source)
		}
	}, nil
}

type memMessage struct {
	source  string
	msg     OutgoingMessage
	settled atomic.Bool
}

func newMemMessage(source string, msg OutgoingMessage) *memMessage {
	return &memMessage{source: source, msg: msg}
}

func (m *memMessage) Body() []byte             { return m.msg.Body }
func (m *memMessage) Key() []byte              { return m.msg.Key }
func (m *memMessage) Header(key string) string { return m.msg.Headers[key] }
func (m *memMessage) Source() string           { return m.source }

func (m *memMessage) Ack(context.Context) error {
	m.settled.Store(true)
	return nil
}

// Nack drops the message; the memory driver does not redeliver.
func (m *memMessage) Nack(context.Context) error {
	m.settled.Store(true)
	return nil
}
