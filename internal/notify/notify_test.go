package notify

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/soyeahso/intentd/internal/config"
	"github.com/soyeahso/intentd/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func silent() *logging.Logger {
	return logging.New(nil, "silent")
}

type room struct{ token, account string }

type fakeDonor struct {
	mu    sync.Mutex
	rooms []room
}

func (f *fakeDonor) DonateRoom(_ context.Context, token, accountID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rooms = append(f.rooms, room{token, accountID})
}

func TestParseNotification(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    Notification
		wantErr bool
	}{
		{"valid", `{"token":"abc123","accountId":"alice"}`, Notification{Token: "abc123", AccountID: "alice"}, false},
		{"extra fields", `{"token":"abc123","accountId":"alice","type":"chat"}`, Notification{Token: "abc123", AccountID: "alice"}, false},
		{"missing token", `{"accountId":"alice"}`, Notification{}, true},
		{"missing account", `{"token":"abc123"}`, Notification{}, true},
		{"not json", `token=abc123`, Notification{}, true},
		{"empty", ``, Notification{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseNotification([]byte(tt.data))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDonationHandler(t *testing.T) {
	donor := &fakeDonor{}
	h := NewDonationHandler(donor, silent())

	err := h.Handle(context.Background(), &sarama.ConsumerMessage{Value: []byte(`{"token":"abc123","accountId":"alice"}`)})
	require.NoError(t, err)
	err = h.Handle(context.Background(), &sarama.ConsumerMessage{Value: []byte(`garbage`)})
	require.NoError(t, err, "malformed messages are consumed")

	assert.Equal(t, []room{{"abc123", "alice"}}, donor.rooms)
}

type fakeSession struct {
	sarama.ConsumerGroupSession
	ctx    context.Context
	marked []int64
}

func (s *fakeSession) Context() context.Context { return s.ctx }

func (s *fakeSession) MarkMessage(msg *sarama.ConsumerMessage, _ string) {
	s.marked = append(s.marked, msg.Offset)
}

type fakeClaim struct {
	sarama.ConsumerGroupClaim
	msgs chan *sarama.ConsumerMessage
}

func (c *fakeClaim) Messages() <-chan *sarama.ConsumerMessage { return c.msgs }

type handlerFunc func(ctx context.Context, msg *sarama.ConsumerMessage) error

func (f handlerFunc) Handle(ctx context.Context, msg *sarama.ConsumerMessage) error { return f(ctx, msg) }

func TestGroupHandler_MarksHandledMessages(t *testing.T) {
	claim := &fakeClaim{msgs: make(chan *sarama.ConsumerMessage, 3)}
	for i := int64(0); i < 3; i++ {
		claim.msgs <- &sarama.ConsumerMessage{Topic: "intentd.notifications", Offset: i}
	}
	close(claim.msgs)

	h := groupHandler{
		handler: handlerFunc(func(_ context.Context, msg *sarama.ConsumerMessage) error {
			if msg.Offset == 1 {
				return errors.New("transient")
			}
			return nil
		}),
		log: silent(),
	}
	sess := &fakeSession{ctx: context.Background()}

	require.NoError(t, h.Setup(sess))
	require.NoError(t, h.ConsumeClaim(sess, claim))
	require.NoError(t, h.Cleanup(sess))
	assert.Equal(t, []int64{0, 2}, sess.marked)
}

type fakeGroup struct {
	sarama.ConsumerGroup
	calls   atomic.Int32
	consume func(ctx context.Context, call int32) error
	errs    chan error
	closed  atomic.Bool
}

func (g *fakeGroup) Consume(ctx context.Context, _ []string, _ sarama.ConsumerGroupHandler) error {
	return g.consume(ctx, g.calls.Add(1))
}

func (g *fakeGroup) Errors() <-chan error { return g.errs }

func (g *fakeGroup) Close() error {
	g.closed.Store(true)
	return nil
}

func TestConsumer_RejoinsUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	g := &fakeGroup{errs: make(chan error, 1)}
	g.consume = func(ctx context.Context, call int32) error {
		if call < 3 {
			return nil
		}
		cancel()
		<-ctx.Done()
		return nil
	}
	g.errs <- errors.New("broker hiccup")

	c := newConsumer(g, []string{"intentd.notifications"}, NewDonationHandler(&fakeDonor{}, silent()), silent())
	err := c.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(3), g.calls.Load())

	require.NoError(t, c.Close())
	assert.True(t, g.closed.Load())
}

func TestConsumer_StopsWhenGroupClosed(t *testing.T) {
	g := &fakeGroup{errs: make(chan error)}
	g.consume = func(context.Context, int32) error { return sarama.ErrClosedConsumerGroup }

	c := newConsumer(g, []string{"t"}, NewDonationHandler(&fakeDonor{}, silent()), silent())
	done := make(chan error, 1)
	go func() { done <- c.Run(context.Background()) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
}

func TestConsumer_ReturnsGroupFailure(t *testing.T) {
	g := &fakeGroup{errs: make(chan error)}
	boom := errors.New("no available brokers")
	g.consume = func(context.Context, int32) error { return boom }

	c := newConsumer(g, []string{"t"}, NewDonationHandler(&fakeDonor{}, silent()), silent())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	assert.ErrorIs(t, c.Run(ctx), boom)
}

func TestNewConsumer_NoBrokers(t *testing.T) {
	_, err := NewConsumer(config.KafkaConfig{Topic: "t", GroupID: "g"}, NewDonationHandler(&fakeDonor{}, silent()), silent())
	assert.Error(t, err)
}
