package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/rl1809/bookshop/internal/core/domain"
)

const maxSearchResults = 1000

type memoryTxKey struct{}

type memoryData struct {
	members map[int64]domain.Member
	items   map[int64]domain.Item
	orders  map[int64]domain.Order

	memberSeq int64
	itemSeq   int64
	orderSeq  int64
}

func (d memoryData) clone() memoryData {
	out := memoryData{
		members:   make(map[int64]domain.Member, len(d.members)),
		items:     make(map[int64]domain.Item, len(d.items)),
		orders:    make(map[int64]domain.Order, len(d.orders)),
		memberSeq: d.memberSeq,
		itemSeq:   d.itemSeq,
		orderSeq:  d.orderSeq,
	}
	for k, v := range d.members {
		out.members[k] = v
	}
	for k, v := range d.items {
		out.items[k] = v
	}
	for k, v := range d.orders {
		out.orders[k] = copyOrder(v)
	}
	return out
}

func copyOrder(o domain.Order) domain.Order {
	o.Lines = append([]domain.OrderLine(nil), o.Lines...)
	return o
}

// MemoryAdapter keeps every record in process. Transactions are serialised
// by one mutex and roll back by restoring a snapshot.
type MemoryAdapter struct {
	mu   sync.Mutex
	data memoryData
}

func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{
		data: memoryData{
			members: make(map[int64]domain.Member),
			items:   make(map[int64]domain.Item),
			orders:  make(map[int64]domain.Order),
		},
	}
}

func (m *MemoryAdapter) RunAtomic(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.inTx(ctx) {
		return fn(ctx)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.data.clone()
	defer func() {
		if r := recover(); r != nil {
			m.data = snapshot
			panic(r)
		}
	}()

	if err := fn(context.WithValue(ctx, memoryTxKey{}, m)); err != nil {
		m.data = snapshot
		return err
	}
	return nil
}

func (m *MemoryAdapter) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(memoryTxKey{}).(*MemoryAdapter)
	return owner == m
}

// lock is a no-op inside RunAtomic, which already holds the mutex.
func (m *MemoryAdapter) lock(ctx context.Context) func() {
	if m.inTx(ctx) {
		return func() {}
	}
	m.mu.Lock()
	return m.mu.Unlock
}

func (m *MemoryAdapter) SaveMember(ctx context.Context, member domain.Member) (int64, error) {
	defer m.lock(ctx)()

	for _, existing := range m.data.members {
		if existing.Name == member.Name {
			return 0, domain.ErrDuplicateMember
		}
	}
	m.data.memberSeq++
	member.ID = m.data.memberSeq
	m.data.members[member.ID] = member
	return member.ID, nil
}

func (m *MemoryAdapter) FindMember(ctx context.Context, id int64) (*domain.Member, error) {
	defer m.lock(ctx)()

	member, ok := m.data.members[id]
	if !ok {
		return nil, nil
	}
	return &member, nil
}

func (m *MemoryAdapter) FindMembersByName(ctx context.Context, name string) ([]domain.Member, error) {
	defer m.lock(ctx)()

	var out []domain.Member
	for _, member := range m.data.members {
		if member.Name == name {
			out = append(out, member)
		}
	}
	sortMembers(out)
	return out, nil
}

func (m *MemoryAdapter) FindMembers(ctx context.Context) ([]domain.Member, error) {
	defer m.lock(ctx)()

	out := make([]domain.Member, 0, len(m.data.members))
	for _, member := range m.data.members {
		out = append(out, member)
	}
	sortMembers(out)
	return out, nil
}

func (m *MemoryAdapter) SaveItem(ctx context.Context, item domain.Item) (int64, error) {
	defer m.lock(ctx)()

	m.data.itemSeq++
	item.ID = m.data.itemSeq
	m.data.items[item.ID] = item
	return item.ID, nil
}

func (m *MemoryAdapter) FindItem(ctx context.Context, id int64) (*domain.Item, error) {
	defer m.lock(ctx)()

	item, ok := m.data.items[id]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

func (m *MemoryAdapter) FindItems(ctx context.Context) ([]domain.Item, error) {
	defer m.lock(ctx)()

	out := make([]domain.Item, 0, len(m.data.items))
	for _, item := range m.data.items {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryAdapter) UpdateItem(ctx context.Context, item domain.Item) error {
	defer m.lock(ctx)()

	stored, ok := m.data.items[item.ID]
	if !ok {
		return ErrNotFound
	}
	if stored.Version != item.Version {
		return ErrOptimisticLock
	}
	item.Version++
	m.data.items[item.ID] = item
	return nil
}

func (m *MemoryAdapter) SaveOrder(ctx context.Context, order domain.Order) (int64, error) {
	defer m.lock(ctx)()

	m.data.orderSeq++
	order.ID = m.data.orderSeq
	m.data.orders[order.ID] = copyOrder(order)
	return order.ID, nil
}

func (m *MemoryAdapter) FindOrder(ctx context.Context, id int64) (*domain.Order, error) {
	defer m.lock(ctx)()

	order, ok := m.data.orders[id]
	if !ok {
		return nil, nil
	}
	order = copyOrder(order)
	return &order, nil
}

func (m *MemoryAdapter) UpdateOrderStatus(ctx context.Context, order domain.Order) error {
	defer m.lock(ctx)()

	stored, ok := m.data.orders[order.ID]
	if !ok {
		return ErrNotFound
	}
	stored.Status = order.Status
	stored.Delivery.Status = order.Delivery.Status
	stored.UpdatedAt = order.UpdatedAt
	m.data.orders[order.ID] = stored
	return nil
}

func (m *MemoryAdapter) SearchOrders(ctx context.Context, search domain.OrderSearch) ([]domain.Order, error) {
	defer m.lock(ctx)()

	var out []domain.Order
	for _, order := range m.data.orders {
		if search.Status != "" && order.Status != search.Status {
			continue
		}
		if search.MemberName != "" && m.data.members[order.MemberID].Name != search.MemberName {
			continue
		}
		out = append(out, copyOrder(order))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > maxSearchResults {
		out = out[:maxSearchResults]
	}
	return out, nil
}

func sortMembers(members []domain.Member) {
	sort.Slice(members, func(i, j int) bool { return members[i].ID < members[j].ID })
}
