package kafka_middleware

import (
	"context"
	"time"

	"rentacar/pkg/kafka"
	"rentacar/pkg/logger"
)

// Logging logs every publish with its event metadata and outcome.
func Logging(log *logger.Logger) kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next kafka.PublishFunc) error {
		start := time.Now()

		err := next(ctx, msg)

		attrs := []any{
			"topic", msg.Topic,
			"key", msg.Key,
			"event_id", msg.GetEventID(),
			"event_type", msg.GetEventType(),
			"correlation_id", msg.GetCorrelationID(),
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if err != nil {
			log.Error("Failed to publish event", append(attrs, "error", err, "error_type", kafka.ClassifyError(err).String())...)
			return err
		}

		log.Debug("Event published", attrs...)
		return nil
	}
}
