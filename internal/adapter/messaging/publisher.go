package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/trace"

	"github.com/rl1809/bookshop/internal/core/domain"
)

const eventTypeHeader = "x-event-type"

// KafkaPublisher turns domain events into enveloped Kafka messages.
type KafkaPublisher struct {
	producer *Producer
	source   string
}

func NewKafkaPublisher(producer *Producer, source string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, source: source}
}

func (k *KafkaPublisher) Publish(ctx context.Context, ev domain.Event) error {
	msg, err := k.message(ctx, ev)
	if err != nil {
		return err
	}
	return k.producer.Enqueue(ctx, msg)
}

func (k *KafkaPublisher) message(ctx context.Context, ev domain.Event) (kafka.Message, error) {
	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encode %s payload: %w", ev.Type, err)
	}

	env := Envelope{
		EventID:      uuid.NewString(),
		EventType:    string(ev.Type),
		EventVersion: envelopeVersion,
		OccurredAt:   ev.OccurredAt.UTC(),
		Producer:     k.source,
		Payload:      payload,
	}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		env.TraceID = sc.TraceID().String()
	}

	value, err := json.Marshal(env)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encode envelope: %w", err)
	}

	return kafka.Message{
		Key:     []byte(strconv.FormatInt(ev.Key, 10)),
		Value:   value,
		Time:    ev.OccurredAt,
		Headers: []kafka.Header{{Key: eventTypeHeader, Value: []byte(ev.Type)}},
	}, nil
}

// NopPublisher drops every event. Used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, domain.Event) error { return nil }
