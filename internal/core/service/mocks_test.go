package service

import (
	"context"
	"errors"
	"sync"

	"github.com/rl1809/bookshop/internal/core/domain"
)

type mockPublisher struct {
	mu     sync.Mutex
	events []domain.Event
	err    error
}

func (m *mockPublisher) Publish(ctx context.Context, ev domain.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, ev)
	return nil
}

func (m *mockPublisher) ofType(t domain.EventType) []domain.Event {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.Event
	for _, ev := range m.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

// Mock CacheRepository
type mockCacheRepo struct {
	idempotencySet map[string]bool
	released       []string
	setErr         error
	mu             sync.Mutex
}

func newMockCacheRepo() *mockCacheRepo {
	return &mockCacheRepo{idempotencySet: make(map[string]bool)}
}

func (m *mockCacheRepo) SetIdempotency(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.setErr != nil {
		return false, m.setErr
	}
	if m.idempotencySet[key] {
		return false, nil
	}
	m.idempotencySet[key] = true
	return true, nil
}

func (m *mockCacheRepo) ReleaseIdempotency(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.idempotencySet, key)
	m.released = append(m.released, key)
	return nil
}

var errBrokerDown = errors.New("broker down")
