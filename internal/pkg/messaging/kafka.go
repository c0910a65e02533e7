package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

var (
	// ErrKafkaBrokersRequired is returned when no Kafka brokers are configured.
	ErrKafkaBrokersRequired = errors.New("messaging: kafka brokers are required")
	// ErrKafkaGroupRequired is returned when Consume is called without WithGroup.
	ErrKafkaGroupRequired = errors.New("messaging: kafka consumer group is required")
)

// KafkaConfig configures the Kafka implementation.
type KafkaConfig struct {
	// Brokers lists Kafka broker addresses.
	Brokers []string
	// WriteTimeout bounds a single publish. Zero uses kafka-go's default.
	WriteTimeout time.Duration
}

// Kafka is a Messaging backed by kafka-go. Messages with the same key land
// on the same partition.
type Kafka struct {
	cfg KafkaConfig

	mu      sync.Mutex
	writers map[string]*kafka.Writer
	readers map[*kafka.Reader]struct{}
	closed  bool
}

// NewKafka constructs a Kafka client. Connections are opened lazily.
func NewKafka(cfg KafkaConfig) (*Kafka, error) {
	if len(cfg.Brokers) == 0 {
		return nil, ErrKafkaBrokersRequired
	}

	return &Kafka{
		cfg:     cfg,
		writers: make(map[string]*kafka.Writer),
		readers: make(map[*kafka.Reader]struct{}),
	}, nil
}

// Close shuts down all readers and writers.
func (k *Kafka) Close() error {
	k.mu.Lock()
	if k.closed {
		k.mu.Unlock()
		return nil
	}
	k.closed = true
	writers, readers := k.writers, k.readers
	k.writers, k.readers = nil, nil
	k.mu.Unlock()

	var errs []error
	for r := range readers {
		errs = append(errs, r.Close())
	}
	for _, w := range writers {
		errs = append(errs, w.Close())
	}
	return errors.Join(errs...)
}

// Publish writes msg to a topic.
func (k *Kafka) Publish(ctx context.Context, destination string, msg OutgoingMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if destination == "" {
		return ErrDestinationRequired
	}

	w, err := k.writer(destination)
	if err != nil {
		return err
	}

	km := kafka.Message{Key: msg.Key, Value: msg.Body}
	for key, v := range msg.Headers {
		km.Headers = append(km.Headers, kafka.Header{Key: key, Value: []byte(v)})
	}

	if err := w.WriteMessages(ctx, km); err != nil {
		return fmt.Errorf("messaging: kafka publish: %w", err)
	}
	return nil
}

func (k *Kafka) writer(topic string) (*kafka.Writer, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.closed {
		return nil, ErrClosed
	}
	if w, ok := k.writers[topic]; ok {
		return w, nil
	}

	w := &kafka.Writer{
		Addr:                   kafka.TCP(k.cfg.Brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		WriteTimeout:           k.cfg.WriteTimeout,
		AllowAutoTopicCreation: true,
	}
	k.writers[topic] = w
	return w, nil
}

// Consume reads source as consumer group WithGroup until ctx is done.
// Offsets are committed by Ack.
func (k *Kafka) Consume(ctx context.Context, source string, handler Handler, opts ...ConsumeOption) error {
	if err := validateConsume(ctx, source, handler); err != nil {
		return err
	}
	co := newConsumeOptions(opts...)
	if co.group == "" {
		return ErrKafkaGroupRequired
	}

	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  k.cfg.Brokers,
		GroupID:  co.group,
		Topic:    source,
		MaxBytes: 10e6,
	})

	k.mu.Lock()
	if k.closed {
		k.mu.Unlock()
		return errors.Join(ErrClosed, r.Close())
	}
	k.readers[r] = struct{}{}
	k.mu.Unlock()

	msgCh := make(chan kafka.Message)
	var wg sync.WaitGroup
	for range co.concurrency {
		wg.Go(func() {
			for km := range msgCh {
				dispatch(ctx, DriverKafka, handler, &kafkaMessage{reader: r, msg: km}, co.autoAck)
			}
		})
	}

	fetchErr := fetchLoop(ctx, r, msgCh)
	close(msgCh)
	wg.Wait()

	k.mu.Lock()
	_, owned := k.readers[r]
	delete(k.readers, r)
	k.mu.Unlock()

	var closeErr error
	if owned {
		closeErr = r.Close()
	}

	if ctx.Err() != nil {
		return errors.Join(ctx.Err(), closeErr)
	}
	return errors.Join(fmt.Errorf("messaging: kafka consume: %w", fetchErr), closeErr)
}

func fetchLoop(ctx context.Context, r *kafka.Reader, out chan<- kafka.Message) error {
	for {
		km, err := r.FetchMessage(ctx)
		if err != nil {
			return err
		}

		select {
		case out <- km:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

type kafkaMessage struct {
	reader *kafka.Reader
	msg    kafka.Message
}

func (m *kafkaMessage) Body() []byte   { return m.msg.Value }
func (m *kafkaMessage) Key() []byte    { return m.msg.Key }
func (m *kafkaMessage) Source() string { return m.msg.Topic }

func (m *kafkaMessage) Header(key string) string {
	for _, h := range m.msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

// Ack commits the message offset for the consumer group.
func (m *kafkaMessage) Ack(ctx context.Context) error {
	return m.reader.CommitMessages(ctx, m.msg)
}

// Nack leaves the offset uncommitted so the message is read again after a
// rebalance or restart.
func (m *kafkaMessage) Nack(context.Context) error {
	return nil
}
