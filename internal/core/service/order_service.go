package service

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/rl1809/bookshop/internal/core/domain"
	"github.com/rl1809/bookshop/internal/port"
)

type OrderService struct {
	db     port.DatabaseRepository
	cache  port.CacheRepository
	events port.EventPublisher
	policy domain.CancelPolicy
	logger *zap.Logger
}

func NewOrderService(db port.DatabaseRepository, cache port.CacheRepository, events port.EventPublisher, policy domain.CancelPolicy, logger *zap.Logger) *OrderService {
	if policy == "" {
		policy = domain.CancelPolicyReject
	}
	return &OrderService{
		db:     db,
		cache:  cache,
		events: events,
		policy: policy,
		logger: orNop(logger),
	}
}

// Order places an order of count units of one item for a member and returns the order ID.
func (s *OrderService) Order(ctx context.Context, memberID, itemID int64, count int) (int64, error) {
	ctx, span := tracer().Start(ctx, "order.place")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("member.id", memberID),
		attribute.Int64("item.id", itemID),
		attribute.Int("order.count", count),
	)

	var placed domain.Order
	err := s.db.RunAtomic(ctx, func(ctx context.Context) error {
		member, err := s.db.FindMember(ctx, memberID)
		if err != nil {
			return fmt.Errorf("find member: %w", err)
		}
		if member == nil {
			return ErrMemberNotFound
		}

		item, err := s.db.FindItem(ctx, itemID)
		if err != nil {
			return fmt.Errorf("find item: %w", err)
		}
		if item == nil {
			return ErrItemNotFound
		}

		if err := item.RemoveStock(count); err != nil {
			return err
		}
		if err := s.db.UpdateItem(ctx, *item); err != nil {
			return fmt.Errorf("update item stock: %w", err)
		}

		order, err := domain.NewOrder(member.ID, member.Address, domain.OrderLine{
			ItemID:     item.ID,
			OrderPrice: item.Price,
			Count:      count,
		})
		if err != nil {
			return err
		}

		order.ID, err = s.db.SaveOrder(ctx, *order)
		if err != nil {
			return fmt.Errorf("save order: %w", err)
		}
		placed = *order
		return nil
	})
	if err != nil {
		recordError(span, err)
		return 0, err
	}

	total := placed.TotalPrice()
	span.SetAttributes(
		attribute.Int64("order.id", placed.ID),
		attribute.Int("order.total_price", total),
	)
	s.logger.Info("order placed",
		zap.Int64("order_id", placed.ID),
		zap.Int64("member_id", memberID),
		zap.Int64("item_id", itemID),
		zap.Int("count", count),
		zap.Int("total_price", total),
	)

	publish(ctx, s.events, s.logger, domain.Event{
		Type:       domain.EventOrderPlaced,
		Key:        placed.ID,
		OccurredAt: time.Now().UTC(),
		Payload: domain.OrderPlaced{
			OrderID:    placed.ID,
			MemberID:   memberID,
			ItemID:     itemID,
			Count:      count,
			TotalPrice: total,
		},
	})
	return placed.ID, nil
}

// OrderOnce behaves like Order but rejects a requestID that was already used.
// The key is released when the order fails so the client can retry.
func (s *OrderService) OrderOnce(ctx context.Context, requestID string, memberID, itemID int64, count int) (int64, error) {
	idempotencyKey := fmt.Sprintf("order:%s", requestID)

	ok, err := s.cache.SetIdempotency(ctx, idempotencyKey)
	if err != nil {
		return 0, fmt.Errorf("idempotency check failed: %w", err)
	}
	if !ok {
		return 0, ErrDuplicateRequest
	}

	id, err := s.Order(ctx, memberID, itemID, count)
	if err != nil {
		if relErr := s.cache.ReleaseIdempotency(ctx, idempotencyKey); relErr != nil {
			s.logger.Warn("failed to release idempotency key",
				zap.String("key", idempotencyKey),
				zap.Error(relErr),
			)
		}
		return 0, err
	}
	return id, nil
}

// Cancel moves the order to CANCEL and puts every line's count back into stock.
func (s *OrderService) Cancel(ctx context.Context, orderID int64) error {
	ctx, span := tracer().Start(ctx, "order.cancel")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("order.id", orderID),
		attribute.String("order.cancel_policy", string(s.policy)),
	)

	var (
		cancelled domain.Order
		changed   bool
	)
	err := s.db.RunAtomic(ctx, func(ctx context.Context) error {
		order, err := s.db.FindOrder(ctx, orderID)
		if err != nil {
			return fmt.Errorf("find order: %w", err)
		}
		if order == nil {
			return ErrOrderNotFound
		}

		changed, err = order.Cancel(s.policy)
		if err != nil || !changed {
			return err
		}

		for _, line := range order.Lines {
			item, err := s.db.FindItem(ctx, line.ItemID)
			if err != nil {
				return fmt.Errorf("find item: %w", err)
			}
			if item == nil {
				return fmt.Errorf("%w: id %d", ErrItemNotFound, line.ItemID)
			}
			item.AddStock(line.Count)
			if err := s.db.UpdateItem(ctx, *item); err != nil {
				return fmt.Errorf("restore item stock: %w", err)
			}
		}

		if err := s.db.UpdateOrderStatus(ctx, *order); err != nil {
			return fmt.Errorf("update order status: %w", err)
		}
		cancelled = *order
		return nil
	})
	if err != nil {
		recordError(span, err)
		return err
	}
	if !changed {
		s.logger.Info("order already cancelled, ignored", zap.Int64("order_id", orderID))
		return nil
	}

	s.logger.Info("order cancelled", zap.Int64("order_id", orderID))
	publish(ctx, s.events, s.logger, domain.Event{
		Type:       domain.EventOrderCancelled,
		Key:        orderID,
		OccurredAt: time.Now().UTC(),
		Payload:    domain.OrderCancelled{OrderID: orderID, MemberID: cancelled.MemberID},
	})
	return nil
}

func (s *OrderService) CompleteDelivery(ctx context.Context, orderID int64) error {
	err := s.db.RunAtomic(ctx, func(ctx context.Context) error {
		order, err := s.db.FindOrder(ctx, orderID)
		if err != nil {
			return fmt.Errorf("find order: %w", err)
		}
		if order == nil {
			return ErrOrderNotFound
		}
		if err := order.CompleteDelivery(); err != nil {
			return err
		}
		if err := s.db.UpdateOrderStatus(ctx, *order); err != nil {
			return fmt.Errorf("update order status: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("delivery completed", zap.Int64("order_id", orderID))
	return nil
}

func (s *OrderService) FindOne(ctx context.Context, orderID int64) (*domain.Order, error) {
	order, err := s.db.FindOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("find order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *OrderService) Search(ctx context.Context, search domain.OrderSearch) ([]domain.Order, error) {
	orders, err := s.db.SearchOrders(ctx, search)
	if err != nil {
		return nil, fmt.Errorf("search orders: %w", err)
	}
	return orders, nil
}
