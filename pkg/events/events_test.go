package events

import (
	"context"
	"errors"
	"rentacar/pkg/kafka"
	"rentacar/pkg/logger"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockProducer struct {
	publishFunc func(ctx context.Context, msg kafka.Message) error
	closed      bool
}

func (m *mockProducer) Publish(ctx context.Context, msg kafka.Message) error {
	return m.publishFunc(ctx, msg)
}

func (m *mockProducer) Close() error {
	m.closed = true
	return nil
}

type ctxKey struct{}

func TestKafkaPublisher_Publish(t *testing.T) {
	var got kafka.Message
	producer := &mockProducer{publishFunc: func(ctx context.Context, msg kafka.Message) error {
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		got = msg
		return nil
	}}

	pub := NewKafkaPublisher(producer, logger.Discard(), time.Second, func(ctx context.Context) string {
		id, _ := ctx.Value(ctxKey{}).(string)
		return id
	})

	ctx, cancel := context.WithCancel(context.WithValue(context.Background(), ctxKey{}, "req-1"))
	cancel()
	pub.Publish(ctx, Event{Type: BookingCreated, Key: "car-1", Payload: map[string]string{"id": "b1"}})

	assert.Equal(t, "car-1", got.Key)
	assert.Equal(t, BookingCreated, got.GetEventType())
	assert.Equal(t, "req-1", got.GetCorrelationID())
	assert.Equal(t, Source, got.Headers[kafka.HeaderSource])
	assert.JSONEq(t, `{"id":"b1"}`, string(got.Value))

	require.NoError(t, pub.Close())
	assert.True(t, producer.closed)
}

func TestKafkaPublisher_FailuresAreSwallowed(t *testing.T) {
	calls := 0
	producer := &mockProducer{publishFunc: func(context.Context, kafka.Message) error {
		calls++
		return errors.New("broker down")
	}}
	pub := NewKafkaPublisher(producer, logger.Discard(), time.Second, nil)

	assert.NotPanics(t, func() {
		pub.Publish(context.Background(), Event{Type: UserDeleted, Key: "u1", Payload: map[string]string{}})
		pub.Publish(context.Background(), Event{Type: UserDeleted, Key: "u1", Payload: make(chan int)})
	})
	assert.Equal(t, 1, calls, "unencodable payloads never reach the producer")
}

func TestNoop(t *testing.T) {
	pub := Noop()
	pub.Publish(context.Background(), Event{Type: UserRegistered})
	assert.NoError(t, pub.Close())
}
