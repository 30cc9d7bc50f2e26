package messaging

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/pubsub/v2"
	"google.golang.org/api/option"
)

// ErrPubSubProjectIDRequired is returned when neither a client nor a project id is given.
var ErrPubSubProjectIDRequired = errors.New("messaging: pubsub project id is required")

// PubSubConfig configures the Google Pub/Sub implementation.
type PubSubConfig struct {
	ProjectID string

	// Client reuses an existing Pub/Sub client.
	Client *pubsub.Client
	// ClientOptions are used when creating a new client.
	ClientOptions []option.ClientOption
}

// PubSub publishes with ordering enabled so events for one site keep their order.
type PubSub struct {
	client     *pubsub.Client
	publishers *topics[*pubsub.Publisher]
}

// NewPubSub constructs a PubSub publisher.
func NewPubSub(ctx context.Context, cfg PubSubConfig) (*PubSub, error) {
	client := cfg.Client
	if client == nil {
		if cfg.ProjectID == "" {
			return nil, ErrPubSubProjectIDRequired
		}

		var err error
		client, err = pubsub.NewClient(ctx, cfg.ProjectID, cfg.ClientOptions...)
		if err != nil {
			return nil, fmt.Errorf("messaging: pubsub new client: %w", err)
		}
	}

	return &PubSub{
		client: client,
		publishers: newTopics(func(topic string) *pubsub.Publisher {
			pub := client.Publisher(topic)
			pub.EnableMessageOrdering = true
			return pub
		}),
	}, nil
}

// Close flushes the publishers and closes the client.
func (p *PubSub) Close() error {
	pubs, ok := p.publishers.drain()
	if !ok {
		return nil
	}
	for _, pub := range pubs {
		pub.Stop()
	}
	return p.client.Close()
}

// Publish sends one message and waits for the server to accept it.
func (p *PubSub) Publish(ctx context.Context, topic string, ev Event) error {
	if topic == "" {
		return ErrTopicRequired
	}

	pub, err := p.publishers.get(topic)
	if err != nil {
		return err
	}

	res := pub.Publish(ctx, &pubsub.Message{
		Data:        ev.Body,
		Attributes:  ev.Attributes,
		OrderingKey: ev.Key,
	})
	if _, err := res.Get(ctx); err != nil {
		return fmt.Errorf("messaging: pubsub publish: %w", err)
	}
	return nil
}
