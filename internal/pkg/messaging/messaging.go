package messaging

import (
	"context"
	"errors"
	"io"
	"maps"
	"slices"
	"sync"
)

// Publisher sends events to a topic (a Kafka topic, NATS subject, NSQ topic
// or Pub/Sub topic id).
type Publisher interface {
	io.Closer

	Publish(ctx context.Context, topic string, ev Event) error
}

// Event is a broker-agnostic message.
type Event struct {
	// Key partitions Kafka messages and orders Pub/Sub messages.
	Key string
	Body []byte
	// Attributes become Kafka and NATS headers or Pub/Sub attributes. NSQ has
	// no headers and drops them.
	Attributes map[string]string
}

// ErrTopicRequired is returned for an empty topic.
var ErrTopicRequired = errors.New("messaging: topic is required")

// sortedAttributes yields attributes in key order so brokers see a stable
// header layout.
func (e Event) sortedAttributes(fn func(k, v string)) {
	for _, k := range slices.Sorted(maps.Keys(e.Attributes)) {
		if k != "" {
			fn(k, e.Attributes[k])
		}
	}
}

// topics lazily builds one client per topic and closes them all at once.
// Kafka writers and Pub/Sub publishers are both bound to a single topic.
type topics[T any] struct {
	mu     sync.Mutex
	closed bool
	items  map[string]T
	open   func(topic string) T
}

func newTopics[T any](open func(topic string) T) *topics[T] {
	return &topics[T]{items: map[string]T{}, open: open}
}

func (t *topics[T]) get(topic string) (T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var zero T
	if t.closed {
		return zero, io.ErrClosedPipe
	}
	if item, ok := t.items[topic]; ok {
		return item, nil
	}

	item := t.open(topic)
	t.items[topic] = item
	return item, nil
}

// drain marks the cache closed and hands back what was opened. ok is false
// when it was already drained.
func (t *topics[T]) drain() (items []T, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil, false
	}
	t.closed = true
	items = slices.Collect(maps.Values(t.items))
	t.items = nil
	return items, true
}
