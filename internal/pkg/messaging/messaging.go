package messaging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"

	"github.com/shandysiswandi/otpauth/internal/pkg/stacktrace"
)

var (
	// ErrDestinationRequired is returned when the topic or subject is empty.
	ErrDestinationRequired = errors.New("messaging: destination is required")
	// ErrHandlerRequired is returned when Consume is called with a nil handler.
	ErrHandlerRequired = errors.New("messaging: handler is required")
	// ErrClosed is returned when the client has been closed.
	ErrClosed = io.ErrClosedPipe
)

// Messaging is a broker client that can publish and consume messages.
type Messaging interface {
	io.Closer

	Publisher
	Consumer
}

// Publisher publishes messages to a destination (topic or subject).
type Publisher interface {
	Publish(ctx context.Context, destination string, msg OutgoingMessage) error
}

// Consumer consumes messages from a source until ctx is done.
type Consumer interface {
	Consume(ctx context.Context, source string, handler Handler, opts ...ConsumeOption) error
}

// Handler processes a received message.
type Handler func(ctx context.Context, msg Message) error

// OutgoingMessage is a message to be published.
type OutgoingMessage struct {
	// Key picks the Kafka partition and the Pub/Sub ordering key.
	Key []byte
	// Body is the message payload.
	Body []byte
	// Headers are string headers carried with the message.
	Headers map[string]string
}

// Message is a received message.
type Message interface {
	Body() []byte
	Key() []byte
	// Header returns the first value of a header, or "".
	Header(key string) string
	// Source returns the topic or subject the message arrived on.
	Source() string
	Ack(ctx context.Context) error
	Nack(ctx context.Context) error
}

func validateConsume(ctx context.Context, source string, handler Handler) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if source == "" {
		return ErrDestinationRequired
	}
	if handler == nil {
		return ErrHandlerRequired
	}
	return nil
}

// dispatch runs handler behind a panic guard and settles msg when autoAck is on.
func dispatch(ctx context.Context, driver string, handler Handler, msg Message, autoAck bool) {
	herr := safeHandle(ctx, driver, handler, msg)
	if herr != nil {
		slog.WarnContext(ctx, "messaging handler returned error", "driver", driver, "source", msg.Source(), "error", herr)
	}
	if !autoAck {
		return
	}

	settle := msg.Ack
	if herr != nil {
		settle = msg.Nack
	}
	if err := settle(ctx); err != nil {
		slog.WarnContext(ctx, "messaging failed to settle message", "driver", driver, "source", msg.Source(), "error", err)
	}
}

func safeHandle(ctx context.Context, driver string, handler Handler, msg Message) (err error) {
	defer func() {
		rvr := recover()
		if rvr == nil {
			return
		}
		stack := debug.Stack()
		if paths := stacktrace.InternalPaths(stack); len(paths) > 0 {
			slog.ErrorContext(ctx, "panic in messaging handler", "driver", driver, "panic", rvr, "stack", paths)
		} else {
			slog.ErrorContext(ctx, "panic in messaging handler", "driver", driver, "panic", rvr, "stack", string(stack))
		}
		err = fmt.Errorf("messaging: panic in %s handler: %v", driver, rvr)
	}()

	return handler(ctx, msg)
}
