package inbound

import (
	"context"
	"log/slog"
	"slices"

	"github.com/shandysiswandi/otpauth/internal/pkg/config"
	"github.com/shandysiswandi/otpauth/internal/pkg/goroutine"
	"github.com/shandysiswandi/otpauth/internal/pkg/instrument"
	"github.com/shandysiswandi/otpauth/internal/pkg/messaging"
	"github.com/shandysiswandi/otpauth/internal/pkg/uid"
	"github.com/shandysiswandi/otpauth/internal/shared/event"
)

func RegisterMQConsumer(
	ctx context.Context,
	cfg config.Config,
	routine *goroutine.Manager,
	messenger messaging.Consumer,
	uuid uid.StringID,
	uc uc,
	ins instrument.Instrumentation,
) {
	mqHandler := &MQHandler{uc: uc, uuid: uuid, ins: ins}

	enableConsumerNames := cfg.GetArray("modules.auth.consumer_names")

	var consumers = []struct {
		name    string
		topic   string // destination where publisher sent message
		group   string // kafka consumer group, nats queue group
		handler messaging.Handler
	}{
		{
			name:    event.OTPIssuedConsumerAudit,
			topic:   event.OTPIssuedDestination,
			group:   event.OTPIssuedConsumerAudit,
			handler: mqHandler.OTPIssuedAudit,
		},
	}

	for _, consumer := range consumers {
		if len(enableConsumerNames) > 0 && slices.Contains(enableConsumerNames, consumer.name) {
			routine.Go(ctx, func(pCtx context.Context) error {
				slog.InfoContext(ctx, "Running job for handling consumer", "consumer", consumer.name)
				return messenger.Consume(pCtx,
					consumer.topic,
					consumer.handler,
					messaging.WithGroup(consumer.group),
					messaging.WithAutoAck(true),
					messaging.WithConcurrency(cfg.GetInt("modules.auth.consumer_concurrency")),
				)
			})
		}
	}
}
