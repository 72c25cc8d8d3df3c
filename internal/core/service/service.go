package service

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/rl1809/bookshop/internal/core/domain"
	"github.com/rl1809/bookshop/internal/port"
)

const tracerName = "github.com/rl1809/bookshop/internal/core/service"

var (
	ErrMemberNotFound   = errors.New("member not found")
	ErrItemNotFound     = errors.New("item not found")
	ErrOrderNotFound    = errors.New("order not found")
	ErrDuplicateRequest = errors.New("duplicate request")
)

func tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// publish runs after commit, so a broker failure is logged and never undoes the write.
func publish(ctx context.Context, events port.EventPublisher, logger *zap.Logger, ev domain.Event) {
	if events == nil {
		return
	}
	if err := events.Publish(ctx, ev); err != nil {
		logger.Error("failed to publish event",
			zap.String("event_type", string(ev.Type)),
			zap.Int64("key", ev.Key),
			zap.Error(err),
		)
	}
}

func orNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
