package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/bookshop/internal/core/domain"
)

func seedBook(t *testing.T, m *MemoryAdapter, stock int) domain.Item {
	t.Helper()
	item := domain.Item{Kind: domain.ItemKindBook, Name: "JPA", Price: 10000, StockQuantity: stock, Author: "kim"}
	id, err := m.SaveItem(context.Background(), item)
	require.NoError(t, err)
	item.ID = id
	return item
}

func TestMemoryAdapter_SaveMember_AssignsSequentialIDs(t *testing.T) {
	m := NewMemoryAdapter()
	ctx := context.Background()

	id1, err := m.SaveMember(ctx, domain.Member{Name: "kim"})
	require.NoError(t, err)
	id2, err := m.SaveMember(ctx, domain.Member{Name: "lee"})
	require.NoError(t, err)

	assert.Equal(t, int64(1), id1)
	assert.Equal(t, int64(2), id2)

	found, err := m.FindMember(ctx, id2)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "lee", found.Name)
}

func TestMemoryAdapter_SaveMember_DuplicateName(t *testing.T) {
	m := NewMemoryAdapter()
	ctx := context.Background()

	_, err := m.SaveMember(ctx, domain.Member{Name: "kim"})
	require.NoError(t, err)

	_, err = m.SaveMember(ctx, domain.Member{Name: "kim"})
	assert.ErrorIs(t, err, domain.ErrDuplicateMember)
}

func TestMemoryAdapter_FindMissingReturnsNil(t *testing.T) {
	m := NewMemoryAdapter()
	ctx := context.Background()

	member, err := m.FindMember(ctx, 42)
	assert.NoError(t, err)
	assert.Nil(t, member)

	item, err := m.FindItem(ctx, 42)
	assert.NoError(t, err)
	assert.Nil(t, item)

	order, err := m.FindOrder(ctx, 42)
	assert.NoError(t, err)
	assert.Nil(t, order)
}

func TestMemoryAdapter_FindMembersByName(t *testing.T) {
	m := NewMemoryAdapter()
	ctx := context.Background()

	for _, name := range []string{"kim", "lee", "park"} {
		_, err := m.SaveMember(ctx, domain.Member{Name: name})
		require.NoError(t, err)
	}

	found, err := m.FindMembersByName(ctx, "lee")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, int64(2), found[0].ID)

	all, err := m.FindMembers(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, "kim", all[0].Name)
}

func TestMemoryAdapter_UpdateItem_Versioning(t *testing.T) {
	m := NewMemoryAdapter()
	ctx := context.Background()
	item := seedBook(t, m, 10)

	item.StockQuantity = 8
	require.NoError(t, m.UpdateItem(ctx, item))

	stored, err := m.FindItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, stored.StockQuantity)
	assert.Equal(t, 1, stored.Version)

	// stale copy still carries version 0
	item.StockQuantity = 5
	assert.ErrorIs(t, m.UpdateItem(ctx, item), ErrOptimisticLock)

	assert.ErrorIs(t, m.UpdateItem(ctx, domain.Item{ID: 99}), ErrNotFound)
}

func TestMemoryAdapter_RunAtomic_RollsBackOnError(t *testing.T) {
	m := NewMemoryAdapter()
	ctx := context.Background()
	item := seedBook(t, m, 10)
	boom := errors.New("boom")

	err := m.RunAtomic(ctx, func(ctx context.Context) error {
		stored, err := m.FindItem(ctx, item.ID)
		if err != nil {
			return err
		}
		stored.StockQuantity = 0
		if err := m.UpdateItem(ctx, *stored); err != nil {
			return err
		}
		if _, err := m.SaveMember(ctx, domain.Member{Name: "ghost"}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	stored, err := m.FindItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, stored.StockQuantity)
	assert.Equal(t, 0, stored.Version)

	members, err := m.FindMembers(ctx)
	require.NoError(t, err)
	assert.Empty(t, members)

	// the sequence is rolled back with the rest of the snapshot
	id, err := m.SaveMember(ctx, domain.Member{Name: "kim"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
}

func TestMemoryAdapter_RunAtomic_RollsBackOnPanic(t *testing.T) {
	m := NewMemoryAdapter()
	ctx := context.Background()

	assert.Panics(t, func() {
		_ = m.RunAtomic(ctx, func(ctx context.Context) error {
			_, _ = m.SaveMember(ctx, domain.Member{Name: "kim"})
			panic("boom")
		})
	})

	members, err := m.FindMembers(ctx)
	require.NoError(t, err)
	assert.Empty(t, members)
}

func TestMemoryAdapter_RunAtomic_Nested(t *testing.T) {
	m := NewMemoryAdapter()
	ctx := context.Background()

	err := m.RunAtomic(ctx, func(ctx context.Context) error {
		return m.RunAtomic(ctx, func(ctx context.Context) error {
			_, err := m.SaveMember(ctx, domain.Member{Name: "kim"})
			return err
		})
	})
	require.NoError(t, err)

	members, err := m.FindMembersByName(ctx, "kim")
	require.NoError(t, err)
	assert.Len(t, members, 1)
}

func TestMemoryAdapter_RunAtomic_Serializes(t *testing.T) {
	m := NewMemoryAdapter()
	ctx := context.Background()
	item := seedBook(t, m, 0)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := m.RunAtomic(ctx, func(ctx context.Context) error {
				stored, err := m.FindItem(ctx, item.ID)
				if err != nil {
					return err
				}
				stored.AddStock(1)
				return m.UpdateItem(ctx, *stored)
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	stored, err := m.FindItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, stored.StockQuantity)
	assert.Equal(t, 50, stored.Version)
}

func TestMemoryAdapter_OrdersAreCopied(t *testing.T) {
	m := NewMemoryAdapter()
	ctx := context.Background()

	order, err := domain.NewOrder(1, domain.Address{City: "Seoul"}, domain.OrderLine{ItemID: 1, OrderPrice: 100, Count: 2})
	require.NoError(t, err)
	id, err := m.SaveOrder(ctx, *order)
	require.NoError(t, err)

	found, err := m.FindOrder(ctx, id)
	require.NoError(t, err)
	found.Lines[0].Count = 99

	again, err := m.FindOrder(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 2, again.Lines[0].Count)
}

func TestMemoryAdapter_UpdateOrderStatus(t *testing.T) {
	m := NewMemoryAdapter()
	ctx := context.Background()

	order, err := domain.NewOrder(1, domain.Address{}, domain.OrderLine{ItemID: 1, OrderPrice: 100, Count: 1})
	require.NoError(t, err)
	id, err := m.SaveOrder(ctx, *order)
	require.NoError(t, err)

	order.ID = id
	order.Status = domain.OrderStatusCancel
	order.UpdatedAt = order.OrderDate.Add(time.Minute)
	require.NoError(t, m.UpdateOrderStatus(ctx, *order))

	found, err := m.FindOrder(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancel, found.Status)
	assert.Equal(t, order.UpdatedAt, found.UpdatedAt)

	assert.ErrorIs(t, m.UpdateOrderStatus(ctx, domain.Order{ID: 77}), ErrNotFound)
}

func TestMemoryAdapter_SearchOrders(t *testing.T) {
	m := NewMemoryAdapter()
	ctx := context.Background()

	kim, err := m.SaveMember(ctx, domain.Member{Name: "kim"})
	require.NoError(t, err)
	lee, err := m.SaveMember(ctx, domain.Member{Name: "lee"})
	require.NoError(t, err)

	place := func(memberID int64, status domain.OrderStatus) {
		order, err := domain.NewOrder(memberID, domain.Address{}, domain.OrderLine{ItemID: 1, OrderPrice: 100, Count: 1})
		require.NoError(t, err)
		order.Status = status
		_, err = m.SaveOrder(ctx, *order)
		require.NoError(t, err)
	}
	place(kim, domain.OrderStatusOrder)
	place(kim, domain.OrderStatusCancel)
	place(lee, domain.OrderStatusOrder)

	tests := []struct {
		name   string
		search domain.OrderSearch
		want   []int64
	}{
		{"no filter", domain.OrderSearch{}, []int64{1, 2, 3}},
		{"by member", domain.OrderSearch{MemberName: "kim"}, []int64{1, 2}},
		{"by status", domain.OrderSearch{Status: domain.OrderStatusOrder}, []int64{1, 3}},
		{"both", domain.OrderSearch{MemberName: "kim", Status: domain.OrderStatusCancel}, []int64{2}},
		{"unknown member", domain.OrderSearch{MemberName: "nobody"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orders, err := m.SearchOrders(ctx, tt.search)
			require.NoError(t, err)

			var ids []int64
			for _, o := range orders {
				ids = append(ids, o.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestMemoryAdapter_SearchOrders_Capped(t *testing.T) {
	m := NewMemoryAdapter()
	ctx := context.Background()

	for i := 0; i < maxSearchResults+5; i++ {
		order, err := domain.NewOrder(1, domain.Address{}, domain.OrderLine{ItemID: 1, OrderPrice: 1, Count: 1})
		require.NoError(t, err, fmt.Sprintf("order %d", i))
		_, err = m.SaveOrder(ctx, *order)
		require.NoError(t, err)
	}

	orders, err := m.SearchOrders(ctx, domain.OrderSearch{})
	require.NoError(t, err)
	assert.Len(t, orders, maxSearchResults)
	assert.Equal(t, int64(1), orders[0].ID)
}
