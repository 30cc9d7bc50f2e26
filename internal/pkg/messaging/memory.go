package messaging

import (
	"context"
	"io"
	"sync"
)

// Noop discards every event. It backs events.driver "none".
type Noop struct{}

func (Noop) Publish(context.Context, string, Event) error { return nil }

func (Noop) Close() error { return nil }

// Published is an event captured by Memory.
type Published struct {
	Topic string
	Event Event
}

// Memory records published events in order. It backs events.driver
// "memory" and the tests.
type Memory struct {
	mu     sync.Mutex
	events []Published
	closed bool
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Publish(ctx context.Context, topic string, ev Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return io.ErrClosedPipe
	}
	m.events = append(m.events, Published{Topic: topic, Event: ev})
	return nil
}

// Messages returns a copy of everything published so far.
func (m *Memory) Messages() []Published {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]Published(nil), m.events...)
}

func (m *Memory) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}
