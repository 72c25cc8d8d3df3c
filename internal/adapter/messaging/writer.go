package messaging

import (
	"time"

	otelkafka "github.com/Trendyol/otel-kafka-konsumer"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const (
	batchSize    = 100
	batchTimeout = 10 * time.Millisecond
)

func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		BatchSize:              batchSize,
		BatchTimeout:           batchTimeout,
		AllowAutoTopicCreation: true,
	}
}

// NewTracedWriter wraps w so every write starts a producer span and carries
// the trace context in the message headers.
func NewTracedWriter(w *kafka.Writer, clientID string) (*otelkafka.Writer, error) {
	return otelkafka.NewWriter(w,
		otelkafka.WithTracerProvider(otel.GetTracerProvider()),
		otelkafka.WithPropagator(propagation.TraceContext{}),
		otelkafka.WithAttributes([]attribute.KeyValue{
			semconv.MessagingDestinationNameKey.String(w.Topic),
			attribute.String("messaging.kafka.client_id", clientID),
		}),
	)
}
