package cart

import (
	"context"
	"sync"

	"storefront/internal/domain"
)

// Persister durably stores one cart per scope. Load of an unknown scope returns an empty cart.
type Persister interface {
	Load(ctx context.Context, scope Scope) ([]domain.CartLine, error)
	Save(ctx context.Context, scope Scope, lines []domain.CartLine) error
}

// MemoryPersister keeps carts in process memory.
type MemoryPersister struct {
	mu    sync.Mutex
	carts map[Scope][]domain.CartLine
}

func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{carts: make(map[Scope][]domain.CartLine)}
}

func (m *MemoryPersister) Load(_ context.Context, scope Scope) ([]domain.CartLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return domain.CloneLines(m.carts[scope]), nil
}

func (m *MemoryPersister) Save(_ context.Context, scope Scope, lines []domain.CartLine) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts[scope] = domain.CloneLines(lines)
	return nil
}
