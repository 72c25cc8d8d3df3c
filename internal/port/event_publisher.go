package port

import (
	"context"

	"github.com/rl1809/bookshop/internal/core/domain"
)

type EventPublisher interface {
	// Publish hands the event to the broker; delivery may complete asynchronously
	Publish(ctx context.Context, event domain.Event) error
}
