// Package events publishes domain events (user and booking lifecycle) to the
// message broker. Delivery is best effort: a failed publish is logged and
// never fails the request that caused it.
package events

import (
	"context"
	"rentacar/pkg/kafka"
	"rentacar/pkg/logger"
	"time"
)

const (
	UserRegistered  = "user.registered"
	UserUpdated     = "user.updated"
	UserDeleted     = "user.deleted"
	UserRoleChanged = "user.role_changed"
	BookingCreated  = "booking.created"
	BookingUpdated  = "booking.updated"

	SchemaVersion = "1"
	Source        = "rentacar"
)

type Event struct {
	Type    string
	Key     string
	Payload any
}

type Publisher interface {
	Publish(ctx context.Context, event Event)
	Close() error
}

type noopPublisher struct{}

// Noop is used when no broker is configured.
func Noop() Publisher {
	return noopPublisher{}
}

func (noopPublisher) Publish(context.Context, Event) {}

func (noopPublisher) Close() error { return nil }

type messageProducer interface {
	Publish(ctx context.Context, msg kafka.Message) error
	Close() error
}

type kafkaPublisher struct {
	producer messageProducer
	log      *logger.Logger
	timeout  time.Duration
	corrID   func(ctx context.Context) string
}

// NewKafkaPublisher publishes through producer. correlationID extracts the
// request id from the caller's context and may be nil.
func NewKafkaPublisher(producer messageProducer, log *logger.Logger, timeout time.Duration, correlationID func(ctx context.Context) string) Publisher {
	return &kafkaPublisher{
		producer: producer,
		log:      log,
		timeout:  timeout,
		corrID:   correlationID,
	}
}

func (p *kafkaPublisher) Publish(ctx context.Context, event Event) {
	builder := kafka.NewMessage().
		WithKey(event.Key).
		WithEventType(event.Type).
		WithSchemaVersion(SchemaVersion).
		WithSource(Source).
		WithValue(event.Payload)
	if p.corrID != nil {
		builder.WithCorrelationID(p.corrID(ctx))
	}

	msg, err := builder.Build()
	if err != nil {
		p.log.Error("Failed to build event", "event_type", event.Type, "key", event.Key, "error", err)
		return
	}

	// The request may finish before the broker answers.
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()

	if err := p.producer.Publish(pubCtx, msg); err != nil {
		p.log.Warn("Event not published", "event_type", event.Type, "key", event.Key, "error", err)
	}
}

func (p *kafkaPublisher) Close() error {
	return p.producer.Close()
}
