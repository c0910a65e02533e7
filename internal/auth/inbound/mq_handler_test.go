package inbound

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shandysiswandi/otpauth/internal/pkg/config"
	"github.com/shandysiswandi/otpauth/internal/pkg/goroutine"
	"github.com/shandysiswandi/otpauth/internal/pkg/instrument"
	"github.com/shandysiswandi/otpauth/internal/pkg/messaging"
	"github.com/shandysiswandi/otpauth/internal/shared/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubMessage struct {
	body    []byte
	headers map[string]string
}

func (m stubMessage) Body() []byte               { return m.body }
func (m stubMessage) Key() []byte                { return nil }
func (m stubMessage) Header(key string) string   { return m.headers[key] }
func (m stubMessage) Source() string             { return event.OTPIssuedDestination }
func (m stubMessage) Ack(context.Context) error  { return nil }
func (m stubMessage) Nack(context.Context) error { return nil }

func TestMQHandler_OTPIssuedAudit(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		// Arrange
		uc := &fakeUC{}
		h := &MQHandler{uc: uc, uuid: fixedID("generated"), ins: instrument.NewNoop()}

		// Act
		err := h.OTPIssuedAudit(context.Background(), stubMessage{
			body:    []byte(`{"user_id":42,"session_id":"1001","issued_at":"2026-01-02T03:04:05Z","expires_at":"2026-01-02T03:05:05Z"}`),
			headers: map[string]string{keyOfCorrelationID: "cid-42"},
		})

		// Assert
		require.NoError(t, err)
		got := uc.consumedSnapshot()
		require.Len(t, got, 1)
		assert.EqualValues(t, 42, got[0].UserID)
		assert.EqualValues(t, 1001, got[0].SessionID)
		assert.Equal(t, time.Date(2026, 1, 2, 3, 5, 5, 0, time.UTC), got[0].ExpiresAt.UTC())
	})

	t.Run("BadBodyIsDropped", func(t *testing.T) {
		uc := &fakeUC{}
		h := &MQHandler{uc: uc, uuid: fixedID("generated"), ins: instrument.NewNoop()}

		err := h.OTPIssuedAudit(context.Background(), stubMessage{body: []byte("not json")})

		assert.NoError(t, err)
		assert.Empty(t, uc.consumedSnapshot())
	})

	t.Run("UsecaseErrorIsReturned", func(t *testing.T) {
		boom := errors.New("boom")
		uc := &fakeUC{consumeErr: boom}
		h := &MQHandler{uc: uc, uuid: fixedID("generated"), ins: instrument.NewNoop()}

		err := h.OTPIssuedAudit(context.Background(), stubMessage{body: []byte(`{"user_id":1}`)})

		assert.ErrorIs(t, err, boom)
	})
}

func TestRegisterMQConsumer(t *testing.T) {
	// Arrange
	cfg, err := config.NewViperFromBytes("yaml", []byte("modules:\n  auth:\n    consumer_names: auth_otp_issued_audit\n"))
	require.NoError(t, err)

	uc := &fakeUC{}
	bus := messaging.NewMemory()
	routine := goroutine.NewManager(4)
	ctx, cancel := context.WithCancel(context.Background())

	RegisterMQConsumer(ctx, cfg, routine, bus, fixedID("generated"), uc, instrument.NewNoop())

	// Act: publish until the consumer has attached and handled one message
	require.Eventually(t, func() bool {
		_ = bus.Publish(context.Background(), event.OTPIssuedDestination, messaging.OutgoingMessage{
			Body: []byte(`{"user_id":42,"session_id":"1001"}`),
		})
		return len(uc.consumedSnapshot()) > 0
	}, 2*time.Second, 10*time.Millisecond)

	// Assert
	cancel()
	_ = routine.Wait()
	assert.EqualValues(t, 42, uc.consumedSnapshot()[0].UserID)
}
