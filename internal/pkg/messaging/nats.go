package messaging

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
)

// ErrNATSURLRequired is returned when the NATS server URL is missing.
var ErrNATSURLRequired = errors.New("messaging: nats url is required")

// NATSConfig configures the NATS implementation.
type NATSConfig struct {
	URL string

	// Options are passed to nats.Connect.
	Options []nats.Option
}

// NATS publishes to core NATS subjects. Key travels as the "key" header.
type NATS struct {
	conn *nats.Conn
}

// NewNATS connects to the NATS server.
func NewNATS(cfg NATSConfig) (*NATS, error) {
	if cfg.URL == "" {
		return nil, ErrNATSURLRequired
	}

	conn, err := nats.Connect(cfg.URL, cfg.Options...)
	if err != nil {
		return nil, fmt.Errorf("messaging: nats connect: %w", err)
	}

	return &NATS{conn: conn}, nil
}

// Close drains pending publishes and closes the connection.
func (n *NATS) Close() error {
	if n.conn.IsClosed() {
		return nil
	}
	return n.conn.Drain()
}

// Publish sends to the subject and flushes so the server has it on return.
func (n *NATS) Publish(ctx context.Context, topic string, ev Event) error {
	if topic == "" {
		return ErrTopicRequired
	}

	msg := nats.NewMsg(topic)
	msg.Data = ev.Body
	if ev.Key != "" {
		msg.Header.Set("key", ev.Key)
	}
	ev.sortedAttributes(func(k, v string) { msg.Header.Set(k, v) })

	if err := n.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("messaging: nats publish: %w", err)
	}
	if err := n.flush(ctx); err != nil {
		return fmt.Errorf("messaging: nats flush: %w", err)
	}
	return nil
}

// flush waits for the server ack. FlushWithContext insists on a deadline,
// so contexts without one use the connection's default flush timeout.
func (n *NATS) flush(ctx context.Context) error {
	if _, ok := ctx.Deadline(); ok {
		return n.conn.FlushWithContext(ctx)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return n.conn.Flush()
}
