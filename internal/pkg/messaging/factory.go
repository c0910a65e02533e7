package messaging

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	// DriverMemory selects the in-process driver.
	DriverMemory = "memory"
	// DriverNATS selects the NATS backend.
	DriverNATS = "nats"
	// DriverKafka selects the Kafka backend.
	DriverKafka = "kafka"
	// DriverNSQ selects the NSQ backend.
	DriverNSQ = "nsq"
	// DriverPubSub selects the Google Pub/Sub backend.
	DriverPubSub = "pubsub"
)

// ErrUnknownDriver indicates an unsupported messaging driver.
var ErrUnknownDriver = errors.New("messaging: unknown driver")

// FactoryOptions groups config for supported messaging backends.
type FactoryOptions struct {
	Kafka  KafkaConfig
	NATS   NATSConfig
	NSQ    NSQConfig
	PubSub PubSubConfig
}

// NewFromDriver constructs a Messaging implementation by driver name. An
// empty name selects the memory driver. ctx bounds client construction only.
func NewFromDriver(ctx context.Context, driver string, opts FactoryOptions) (Messaging, error) {
	switch strings.TrimSpace(driver) {
	case "", DriverMemory:
		return NewMemory(), nil
	case DriverKafka:
		return NewKafka(opts.Kafka)
	case DriverNATS:
		return NewNATS(opts.NATS)
	case DriverNSQ:
		return NewNSQ(opts.NSQ)
	case DriverPubSub:
		return NewPubSub(ctx, opts.PubSub)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, driver)
	}
}
