package messaging

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// ErrKafkaBrokersRequired is returned when no Kafka brokers are configured.
var ErrKafkaBrokersRequired = errors.New("messaging: kafka brokers are required")

// KafkaConfig configures the Kafka implementation.
type KafkaConfig struct {
	Brokers []string

	// WriteTimeout bounds a single WriteMessages call. Zero keeps the kafka-go default.
	WriteTimeout time.Duration
	// AllowAutoTopicCreation lets the first publish create the topic.
	AllowAutoTopicCreation bool
}

// Kafka publishes with one kafka.Writer per topic. Messages are hashed by
// key so every event of a site lands on the same partition.
type Kafka struct {
	writers *topics[*kafka.Writer]
}

// NewKafka constructs a Kafka publisher. Connections are opened lazily on
// the first publish to a topic.
func NewKafka(cfg KafkaConfig) (*Kafka, error) {
	if len(cfg.Brokers) == 0 {
		return nil, ErrKafkaBrokersRequired
	}
	addr := kafka.TCP(cfg.Brokers...)

	return &Kafka{writers: newTopics(func(topic string) *kafka.Writer {
		return &kafka.Writer{
			Addr:                   addr,
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			WriteTimeout:           cfg.WriteTimeout,
			AllowAutoTopicCreation: cfg.AllowAutoTopicCreation,
		}
	})}, nil
}

// Close flushes and closes every writer.
func (k *Kafka) Close() error {
	writers, _ := k.writers.drain()

	var errs []error
	for _, w := range writers {
		errs = append(errs, w.Close())
	}
	return errors.Join(errs...)
}

// Publish writes one message and waits for every in-sync replica.
func (k *Kafka) Publish(ctx context.Context, topic string, ev Event) error {
	if topic == "" {
		return ErrTopicRequired
	}

	w, err := k.writers.get(topic)
	if err != nil {
		return err
	}

	msg := kafka.Message{Key: []byte(ev.Key), Value: ev.Body}
	ev.sortedAttributes(func(key, val string) {
		msg.Headers = append(msg.Headers, kafka.Header{Key: key, Value: []byte(val)})
	})

	if err := w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("messaging: kafka publish: %w", err)
	}
	return nil
}
