package messaging

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/rl1809/bookshop/internal/core/domain"
)

func getKafkaBrokers(t *testing.T) []string {
	brokers := os.Getenv("KAFKA_BROKERS")
	if brokers == "" {
		t.Skip("Kafka not available: KAFKA_BROKERS not set")
	}
	return strings.Split(brokers, ",")
}

func TestTracedWriter_RoundTrip(t *testing.T) {
	brokers := getKafkaBrokers(t)
	topic := "bookshop-test-" + uuid.NewString()

	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(prev)

	writer, err := NewTracedWriter(NewKafkaWriter(brokers, topic), "bookshop-test")
	if err != nil {
		t.Fatalf("failed to create writer: %v", err)
	}

	p := NewProducer(writer, 4, nil)
	p.Start()
	pub := NewKafkaPublisher(p, "bookshop-test")

	err = pub.Publish(context.Background(), domain.Event{
		Type:       domain.EventOrderCancelled,
		Key:        11,
		OccurredAt: time.Now(),
		Payload:    domain.OrderCancelled{OrderID: 11, MemberID: 1},
	})
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	p.Close()

	reader := kafka.NewReader(kafka.ReaderConfig{Brokers: brokers, Topic: topic})
	defer reader.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	msg, err := reader.ReadMessage(ctx)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(msg.Key) != "11" {
		t.Errorf("expected key 11, got %q", msg.Key)
	}

	var traced bool
	for _, h := range msg.Headers {
		if h.Key == "traceparent" {
			traced = true
		}
	}
	if !traced {
		t.Error("expected traceparent header")
	}
}
