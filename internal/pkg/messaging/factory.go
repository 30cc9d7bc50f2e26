package messaging

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Driver names accepted by events.driver.
const (
	DriverNone         = "none"
	DriverMemory       = "memory"
	DriverNSQ          = "nsq"
	DriverNATS         = "nats"
	DriverKafka        = "kafka"
	DriverGooglePubSub = "google-pubsub"
)

// ErrUnknownDriver indicates an unsupported events driver.
var ErrUnknownDriver = errors.New("messaging: unknown driver")

// FactoryOptions holds the settings of every backend; only the selected
// driver's section is read.
type FactoryOptions struct {
	NSQ    NSQConfig
	Kafka  KafkaConfig
	NATS   NATSConfig
	PubSub PubSubConfig
}

type constructor func(ctx context.Context, opts FactoryOptions) (Publisher, error)

var drivers = map[string]constructor{
	DriverNone:   func(context.Context, FactoryOptions) (Publisher, error) { return Noop{}, nil },
	DriverMemory: func(context.Context, FactoryOptions) (Publisher, error) { return NewMemory(), nil },
	DriverNSQ:    func(_ context.Context, o FactoryOptions) (Publisher, error) { return NewNSQ(o.NSQ) },
	DriverNATS:   func(_ context.Context, o FactoryOptions) (Publisher, error) { return NewNATS(o.NATS) },
	DriverKafka:  func(_ context.Context, o FactoryOptions) (Publisher, error) { return NewKafka(o.Kafka) },
	DriverGooglePubSub: func(ctx context.Context, o FactoryOptions) (Publisher, error) {
		return NewPubSub(ctx, o.PubSub)
	},
}

// aliases maps shorthand driver names to their canonical form.
var aliases = map[string]string{
	"":       DriverNone,
	"pubsub": DriverGooglePubSub,
}

// NewFromDriver constructs a Publisher by driver name. Names are
// case-insensitive; an empty name selects DriverNone.
func NewFromDriver(ctx context.Context, driver string, opts FactoryOptions) (Publisher, error) {
	name := strings.ToLower(strings.TrimSpace(driver))
	if canonical, ok := aliases[name]; ok {
		name = canonical
	}

	newPublisher, ok := drivers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
	return newPublisher(ctx, opts)
}
