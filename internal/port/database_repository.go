package port

import (
	"context"

	"github.com/rl1809/bookshop/internal/core/domain"
)

// Finders return (nil, nil) when the record does not exist.

type MemberRepository interface {
	// SaveMember inserts the member and returns its new ID
	SaveMember(ctx context.Context, member domain.Member) (int64, error)

	// FindMember retrieves a member by ID
	FindMember(ctx context.Context, id int64) (*domain.Member, error)

	// FindMembersByName returns all members with exactly this name
	FindMembersByName(ctx context.Context, name string) ([]domain.Member, error)

	// FindMembers lists every member ordered by ID
	FindMembers(ctx context.Context) ([]domain.Member, error)
}

type ItemRepository interface {
	// SaveItem inserts the item and returns its new ID
	SaveItem(ctx context.Context, item domain.Item) (int64, error)

	// FindItem retrieves an item by ID; inside RunAtomic the row stays locked until commit
	FindItem(ctx context.Context, id int64) (*domain.Item, error)

	// FindItems lists every item ordered by ID
	FindItems(ctx context.Context) ([]domain.Item, error)

	// UpdateItem overwrites the stored item when item.Version matches and bumps the version
	UpdateItem(ctx context.Context, item domain.Item) error
}

type OrderRepository interface {
	// SaveOrder inserts the order with its lines and returns its new ID
	SaveOrder(ctx context.Context, order domain.Order) (int64, error)

	// FindOrder retrieves an order and its lines; inside RunAtomic the row stays locked until commit
	FindOrder(ctx context.Context, id int64) (*domain.Order, error)

	// UpdateOrderStatus persists status and delivery status
	UpdateOrderStatus(ctx context.Context, order domain.Order) error

	// SearchOrders filters by member name and status
	SearchOrders(ctx context.Context, search domain.OrderSearch) ([]domain.Order, error)
}

type Transactor interface {
	// RunAtomic runs fn in one transaction; repositories called with the ctx passed to fn join it
	RunAtomic(ctx context.Context, fn func(ctx context.Context) error) error
}

type DatabaseRepository interface {
	Transactor
	MemberRepository
	ItemRepository
	OrderRepository
}
