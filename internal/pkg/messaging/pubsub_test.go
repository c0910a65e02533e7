package messaging

import (
	"context"
	"testing"
	"time"

	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"cloud.google.com/go/pubsub/v2/pstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const pubSubTestProject = "otpauth-test"

func newTestPubSub(t *testing.T) *PubSub {
	t.Helper()

	srv := pstest.NewServer()
	t.Cleanup(func() { _ = srv.Close() })

	ps, err := NewPubSub(context.Background(), PubSubConfig{
		ProjectID: pubSubTestProject,
		ClientOptions: []option.ClientOption{
			option.WithEndpoint(srv.Addr),
			option.WithoutAuthentication(),
			option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
		},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = ps.Close() })

	return ps
}

func createTestSubscription(t *testing.T, ps *PubSub, topic, subscription string) {
	t.Helper()
	ctx := context.Background()

	topicName := "projects/" + pubSubTestProject + "/topics/" + topic
	_, err := ps.client.TopicAdminClient.CreateTopic(ctx, &pubsubpb.Topic{Name: topicName})
	require.NoError(t, err)

	_, err = ps.client.SubscriptionAdminClient.CreateSubscription(ctx, &pubsubpb.Subscription{
		Name:  "projects/" + pubSubTestProject + "/subscriptions/" + subscription,
		Topic: topicName,
	})
	require.NoError(t, err)
}

func TestPubSub_PublishConsume(t *testing.T) {
	t.Run("HeadersBecomeAttributes", func(t *testing.T) {
		// Arrange
		ps := newTestPubSub(t)
		createTestSubscription(t, ps, "auth.otp_issued", "auth_otp_issued_audit")

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		got := make(chan Message, 1)
		done := make(chan error, 1)
		go func() {
			done <- ps.Consume(ctx, "auth.otp_issued", func(_ context.Context, msg Message) error {
				got <- msg
				return nil
			}, WithGroup("auth_otp_issued_audit"), WithAutoAck(true))
		}()

		// Act
		err := ps.Publish(context.Background(), "auth.otp_issued", OutgoingMessage{
			Key:     []byte("42"),
			Body:    []byte(`{"user_id":42}`),
			Headers: map[string]string{"cID": "corr-1"},
		})
		require.NoError(t, err)

		// Assert
		select {
		case msg := <-got:
			assert.Equal(t, []byte(`{"user_id":42}`), msg.Body())
			assert.Equal(t, "corr-1", msg.Header("cID"))
			assert.Equal(t, "auth.otp_issued", msg.Source())
		case <-time.After(5 * time.Second):
			t.Fatal("message not delivered")
		}

		cancel()
		assert.ErrorIs(t, <-done, context.Canceled)
	})

	t.Run("PublishAfterClose", func(t *testing.T) {
		// Arrange
		ps := newTestPubSub(t)
		require.NoError(t, ps.Close())

		// Act
		err := ps.Publish(context.Background(), "auth.otp_issued", OutgoingMessage{Body: []byte("x")})

		// Assert
		assert.ErrorIs(t, err, ErrClosed)
	})

	t.Run("Validation", func(t *testing.T) {
		// Arrange
		ps := newTestPubSub(t)
		h := func(context.Context, Message) error { return nil }

		// Act & Assert
		assert.ErrorIs(t, ps.Publish(context.Background(), "", OutgoingMessage{}), ErrDestinationRequired)
		assert.ErrorIs(t, ps.Consume(context.Background(), "", h), ErrDestinationRequired)
		assert.ErrorIs(t, ps.Consume(context.Background(), "topic", nil), ErrHandlerRequired)
	})
}
