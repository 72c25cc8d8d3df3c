package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/rl1809/bookshop/internal/core/domain"
	"github.com/rl1809/bookshop/internal/port"
)

type ItemService struct {
	db     port.DatabaseRepository
	logger *zap.Logger
}

func NewItemService(db port.DatabaseRepository, logger *zap.Logger) *ItemService {
	return &ItemService{db: db, logger: orNop(logger)}
}

type UpdateItemParams struct {
	Name          string
	Price         int
	StockQuantity int
}

func (s *ItemService) SaveItem(ctx context.Context, item domain.Item) (int64, error) {
	kind, err := domain.ParseItemKind(string(item.Kind))
	if err != nil {
		return 0, err
	}
	item.Kind = kind
	if err := item.Validate(); err != nil {
		return 0, err
	}

	id, err := s.db.SaveItem(ctx, item)
	if err != nil {
		return 0, fmt.Errorf("save item: %w", err)
	}
	s.logger.Info("item saved",
		zap.Int64("item_id", id),
		zap.String("kind", string(kind)),
		zap.Int("stock", item.StockQuantity),
	)
	return id, nil
}

// UpdateItem changes the mutable fields of an existing item.
func (s *ItemService) UpdateItem(ctx context.Context, id int64, p UpdateItemParams) error {
	return s.db.RunAtomic(ctx, func(ctx context.Context) error {
		item, err := s.db.FindItem(ctx, id)
		if err != nil {
			return fmt.Errorf("find item: %w", err)
		}
		if item == nil {
			return ErrItemNotFound
		}

		item.Name = p.Name
		item.Price = p.Price
		item.StockQuantity = p.StockQuantity
		if err := item.Validate(); err != nil {
			return err
		}
		if err := s.db.UpdateItem(ctx, *item); err != nil {
			return fmt.Errorf("update item: %w", err)
		}
		return nil
	})
}

func (s *ItemService) FindOne(ctx context.Context, id int64) (*domain.Item, error) {
	item, err := s.db.FindItem(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find item: %w", err)
	}
	if item == nil {
		return nil, ErrItemNotFound
	}
	return item, nil
}

func (s *ItemService) FindItems(ctx context.Context) ([]domain.Item, error) {
	items, err := s.db.FindItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("find items: %w", err)
	}
	return items, nil
}
