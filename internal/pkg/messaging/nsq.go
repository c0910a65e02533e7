package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	nsq "github.com/nsqio/go-nsq"
)

var (
	// ErrNSQProducerAddrRequired is returned when publishing without a producer address.
	ErrNSQProducerAddrRequired = errors.New("messaging: nsq producer address is required")
	// ErrNSQConsumerAddrsRequired is returned when no nsqd or lookupd consumer addresses are configured.
	ErrNSQConsumerAddrsRequired = errors.New("messaging: nsq consumer nsqd/lookupd addresses are required")
	// ErrNSQChannelRequired is returned when Consume is called without WithGroup.
	ErrNSQChannelRequired = errors.New("messaging: nsq channel is required")
)

// NSQConfig configures the NSQ implementation.
type NSQConfig struct {
	// ProducerAddr is the nsqd address used for publishing.
	ProducerAddr string

	// ConsumerNSQDAddrs lists nsqd addresses for consumers.
	ConsumerNSQDAddrs []string
	// ConsumerLookupdAddrs lists nsqlookupd addresses for consumers. When
	// set they win over ConsumerNSQDAddrs.
	ConsumerLookupdAddrs []string

	// ProducerConfig overrides the default producer config.
	ProducerConfig *nsq.Config
	// ConsumerConfig overrides the default consumer config.
	ConsumerConfig *nsq.Config
}

// NSQ is a Messaging backed by go-nsq. The WithGroup name is the NSQ
// channel, so consumers sharing a group split the messages between them.
//
// NSQ frames carry only a body, so Key and Headers travel in a JSON envelope.
// Bodies that are not an envelope are delivered as-is.
type NSQ struct {
	producer *nsq.Producer

	consumerNSQDAddrs    []string
	consumerLookupdAddrs []string
	consumerConfig       *nsq.Config

	mu        sync.Mutex
	consumers []*nsq.Consumer
	closed    bool
}

// NewNSQ constructs an NSQ client. The producer connects on first publish.
func NewNSQ(cfg NSQConfig) (*NSQ, error) {
	if cfg.ProducerAddr == "" && len(cfg.ConsumerNSQDAddrs) == 0 && len(cfg.ConsumerLookupdAddrs) == 0 {
		return nil, ErrNSQProducerAddrRequired
	}

	var producer *nsq.Producer
	if cfg.ProducerAddr != "" {
		pcfg := cfg.ProducerConfig
		if pcfg == nil {
			pcfg = nsq.NewConfig()
		}

		p, err := nsq.NewProducer(cfg.ProducerAddr, pcfg)
		if err != nil {
			return nil, fmt.Errorf("messaging: nsq new producer: %w", err)
		}
		p.SetLoggerLevel(nsq.LogLevelError)

		producer = p
	}

	ccfg := cfg.ConsumerConfig
	if ccfg == nil {
		ccfg = nsq.NewConfig()
	}

	return &NSQ{
		producer:             producer,
		consumerNSQDAddrs:    append([]string{}, cfg.ConsumerNSQDAddrs...),
		consumerLookupdAddrs: append([]string{}, cfg.ConsumerLookupdAddrs...),
		consumerConfig:       ccfg,
	}, nil
}

// Close stops every consumer and then the producer.
func (n *NSQ) Close() error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	consumers := n.consumers
	n.consumers = nil
	n.mu.Unlock()

	for _, c := range consumers {
		stopNSQConsumer(c)
	}
	if n.producer != nil {
		n.producer.Stop()
	}
	return nil
}

// Publish sends msg to an NSQ topic.
func (n *NSQ) Publish(ctx context.Context, destination string, msg OutgoingMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if destination == "" {
		return ErrDestinationRequired
	}
	if n.producer == nil {
		return ErrNSQProducerAddrRequired
	}
	if n.isClosed() {
		return ErrClosed
	}

	body, err := encodeNSQEnvelope(msg)
	if err != nil {
		return fmt.Errorf("messaging: nsq encode: %w", err)
	}
	if err := n.producer.Publish(destination, body); err != nil {
		return fmt.Errorf("messaging: nsq publish: %w", err)
	}
	return nil
}

// Consume reads source on channel WithGroup until ctx is done.
func (n *NSQ) Consume(ctx context.Context, source string, handler Handler, opts ...ConsumeOption) error {
	if err := validateConsume(ctx, source, handler); err != nil {
		return err
	}
	if len(n.consumerNSQDAddrs) == 0 && len(n.consumerLookupdAddrs) == 0 {
		return ErrNSQConsumerAddrsRequired
	}
	co := newConsumeOptions(opts...)
	if co.group == "" {
		return ErrNSQChannelRequired
	}

	ccfg := *n.consumerConfig
	if ccfg.MaxInFlight < co.concurrency {
		ccfg.MaxInFlight = co.concurrency
	}

	consumer, err := nsq.NewConsumer(source, co.group, &ccfg)
	if err != nil {
		return fmt.Errorf("messaging: nsq new consumer: %w", err)
	}
	consumer.SetLoggerLevel(nsq.LogLevelError)
	consumer.AddConcurrentHandlers(nsq.HandlerFunc(func(m *nsq.Message) error {
		m.DisableAutoResponse()
		dispatch(ctx, DriverNSQ, handler, newNSQMessage(source, m), co.autoAck)
		return nil
	}), co.concurrency)

	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		stopNSQConsumer(consumer)
		return ErrClosed
	}
	n.consumers = append(n.consumers, consumer)
	n.mu.Unlock()

	if err := n.connect(consumer); err != nil {
		n.forget(consumer)
		stopNSQConsumer(consumer)
		return err
	}

	select {
	case <-ctx.Done():
		n.forget(consumer)
		stopNSQConsumer(consumer)
		return ctx.Err()
	case <-consumer.StopChan:
		return nil
	}
}

func (n *NSQ) connect(consumer *nsq.Consumer) error {
	if len(n.consumerLookupdAddrs) > 0 {
		if err := consumer.ConnectToNSQLookupds(n.consumerLookupdAddrs); err != nil {
			return fmt.Errorf("messaging: nsq connect lookupd: %w", err)
		}
		return nil
	}

	if err := consumer.ConnectToNSQDs(n.consumerNSQDAddrs); err != nil {
		return fmt.Errorf("messaging: nsq connect nsqd: %w", err)
	}
	return nil
}

func (n *NSQ) forget(consumer *nsq.Consumer) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for i, c := range n.consumers {
		if c == consumer {
			n.consumers = append(n.consumers[:i], n.consumers[i+1:]...)
			return
		}
	}
}

func (n *NSQ) isClosed() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.closed
}

func stopNSQConsumer(consumer *nsq.Consumer) {
	consumer.Stop()
	<-consumer.StopChan
}

const nsqEnvelopeVersion = 1

type nsqEnvelope struct {
	V       int               `json:"v"`
	Key     []byte            `json:"key,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    []byte            `json:"body"`
}

func encodeNSQEnvelope(msg OutgoingMessage) ([]byte, error) {
	return json.Marshal(nsqEnvelope{
		V:       nsqEnvelopeVersion,
		Key:     msg.Key,
		Headers: msg.Headers,
		Body:    msg.Body,
	})
}

// decodeNSQEnvelope unwraps raw. A body from a foreign publisher comes back
// untouched with no key or headers.
func decodeNSQEnvelope(raw []byte) nsqEnvelope {
	var env nsqEnvelope
	if err := json.Unmarshal(raw, &env); err != nil || env.V != nsqEnvelopeVersion {
		return nsqEnvelope{Body: raw}
	}
	return env
}

type nsqResponder interface {
	Finish()
	Requeue(delay time.Duration)
}

type nsqMessage struct {
	topic     string
	env       nsqEnvelope
	raw       nsqResponder
	responded atomic.Bool
}

func newNSQMessage(topic string, m *nsq.Message) *nsqMessage {
	return &nsqMessage{topic: topic, env: decodeNSQEnvelope(m.Body), raw: m}
}

func (m *nsqMessage) Body() []byte   { return m.env.Body }
func (m *nsqMessage) Key() []byte    { return m.env.Key }
func (m *nsqMessage) Source() string { return m.topic }

func (m *nsqMessage) Header(key string) string {
	return m.env.Headers[key]
}

// Ack finishes the message. Only the first Ack or Nack reaches nsqd.
func (m *nsqMessage) Ack(context.Context) error {
	if m.responded.CompareAndSwap(false, true) {
		m.raw.Finish()
	}
	return nil
}

// Nack requeues the message with nsqd's default backoff.
func (m *nsqMessage) Nack(context.Context) error {
	if m.responded.CompareAndSwap(false, true) {
		m.raw.Requeue(-1)
	}
	return nil
}
