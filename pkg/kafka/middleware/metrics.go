package kafka_middleware

import (
	"context"
	"time"

	"rentacar/pkg/kafka"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	published *prometheus.CounterVec
	duration  prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		published: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "events_published_total",
				Help: "Domain events handed to Kafka, by event type and result.",
			},
			[]string{"event_type", "result"},
		),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "events_publish_duration_seconds",
			Help:    "Time spent publishing a domain event.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	for _, c := range []prometheus.Collector{m.published, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) Middleware() kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next kafka.PublishFunc) error {
		start := time.Now()
		err := next(ctx, msg)
		m.duration.Observe(time.Since(start).Seconds())

		result := "ok"
		if err != nil {
			result = kafka.ClassifyError(err).String()
		}
		m.published.WithLabelValues(msg.GetEventType(), result).Inc()
		return err
	}
}
