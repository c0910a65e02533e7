package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"cloud.google.com/go/pubsub/v2"
	"google.golang.org/api/option"
)

var (
	// ErrPubSubProjectIDRequired is returned when no client and no project ID are configured.
	ErrPubSubProjectIDRequired = errors.New("messaging: pubsub project id is required")
)

// PubSubConfig configures the Google Pub/Sub implementation.
type PubSubConfig struct {
	// ProjectID is the Google Cloud project ID.
	ProjectID string

	// Client provides an existing Pub/Sub client. It is closed with the driver.
	Client *pubsub.Client
	// ClientOptions are used when creating a new client.
	ClientOptions []option.ClientOption
}

// PubSub is a Messaging backed by Google Pub/Sub. Headers travel as
// attributes and Key as the ordering key. Consume reads the subscription
// named by WithGroup, or one named after the source when no group is set.
type PubSub struct {
	client *pubsub.Client

	mu         sync.Mutex
	publishers map[string]*pubsub.Publisher
	closed     bool
}

// NewPubSub constructs a PubSub client.
func NewPubSub(ctx context.Context, cfg PubSubConfig) (*PubSub, error) {
	client := cfg.Client
	if client == nil {
		if cfg.ProjectID == "" {
			return nil, ErrPubSubProjectIDRequired
		}

		c, err := pubsub.NewClient(ctx, cfg.ProjectID, cfg.ClientOptions...)
		if err != nil {
			return nil, fmt.Errorf("messaging: pubsub new client: %w", err)
		}
		client = c
	}

	return &PubSub{client: client, publishers: make(map[string]*pubsub.Publisher)}, nil
}

// Close flushes and stops every publisher, then closes the client.
func (p *PubSub) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	pubs := p.publishers
	p.publishers = nil
	p.mu.Unlock()

	for _, pub := range pubs {
		pub.Stop()
	}
	return p.client.Close()
}

// Publish sends msg to a topic and waits for the server ID.
func (p *PubSub) Publish(ctx context.Context, destination string, msg OutgoingMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if destination == "" {
		return ErrDestinationRequired
	}

	pub, err := p.publisher(destination)
	if err != nil {
		return err
	}

	key := string(msg.Key)
	res := pub.Publish(ctx, &pubsub.Message{
		Data:        msg.Body,
		Attributes:  msg.Headers,
		OrderingKey: key,
	})
	if _, err := res.Get(ctx); err != nil {
		if key != "" {
			// a failed ordered publish pauses the key until resumed
			pub.ResumePublish(key)
		}
		return fmt.Errorf("messaging: pubsub publish: %w", err)
	}
	return nil
}

func (p *PubSub) publisher(topic string) (*pubsub.Publisher, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrClosed
	}
	if pub, ok := p.publishers[topic]; ok {
		return pub, nil
	}

	pub := p.client.Publisher(topic)
	pub.EnableMessageOrdering = true
	p.publishers[topic] = pub
	return pub, nil
}

// Consume receives from the subscription until ctx is done.
func (p *PubSub) Consume(ctx context.Context, source string, handler Handler, opts ...ConsumeOption) error {
	if err := validateConsume(ctx, source, handler); err != nil {
		return err
	}
	if p.isClosed() {
		return ErrClosed
	}
	co := newConsumeOptions(opts...)

	subscription := co.group
	if subscription == "" {
		subscription = source
	}

	sub := p.client.Subscriber(subscription)
	sub.ReceiveSettings.NumGoroutines = co.concurrency
	sub.ReceiveSettings.MaxOutstandingMessages = co.concurrency

	err := sub.Receive(ctx, func(ctx context.Context, m *pubsub.Message) {
		dispatch(ctx, DriverPubSub, handler, &pubSubMessage{source: source, msg: m}, co.autoAck)
	})
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		return fmt.Errorf("messaging: pubsub receive: %w", err)
	}
	return nil
}

func (p *PubSub) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

type pubSubMessage struct {
	source string
	msg    *pubsub.Message
}

func (m *pubSubMessage) Body() []byte   { return m.msg.Data }
func (m *pubSubMessage) Key() []byte    { return []byte(m.msg.OrderingKey) }
func (m *pubSubMessage) Source() string { return m.source }

func (m *pubSubMessage) Header(key string) string {
	return m.msg.Attributes[key]
}

func (m *pubSubMessage) Ack(context.Context) error {
	m.msg.Ack()
	return nil
}

// Nack asks the server to redeliver the message.
func (m *pubSubMessage) Nack(context.Context) error {
	m.msg.Nack()
	return nil
}
