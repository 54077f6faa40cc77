// Package cart keeps the shopper's cart, partitioned by identity scope.
package cart

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

// Store is the cart of the active scope. Every mutation is persisted before it
// becomes visible; a failed save leaves the cart as it was.
type Store struct {
	mu        sync.Mutex
	persister Persister
	scope     Scope
	lines     []domain.CartLine
	logger    *log.Logger
}

// Open loads the cart persisted for scope.
func Open(ctx context.Context, persister Persister, scope Scope, logger *log.Logger) (*Store, error) {
	if !scope.Valid() {
		return nil, fmt.Errorf("cart: invalid scope %q", scope)
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	lines, err := persister.Load(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("load cart %s: %w", scope, err)
	}
	return &Store{persister: persister, scope: scope, lines: domain.CloneLines(lines), logger: logger}, nil
}

// Scope returns the active scope.
func (s *Store) Scope() Scope {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scope
}

// Switch saves the outgoing cart under its scope and loads the incoming one.
// The two carts are never merged.
func (s *Store) Switch(ctx context.Context, to Scope) error {
	if !to.Valid() {
		return fmt.Errorf("cart: invalid scope %q", to)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if to == s.scope {
		return nil
	}
	if err := s.persister.Save(ctx, s.scope, s.lines); err != nil {
		return fmt.Errorf("save cart %s: %w", s.scope, err)
	}
	incoming, err := s.persister.Load(ctx, to)
	if err != nil {
		return fmt.Errorf("load cart %s: %w", to, err)
	}
	s.logger.Printf("cart: switch from=%s to=%s lines=%d", s.scope, to, len(incoming))
	s.scope = to
	s.lines = domain.CloneLines(incoming)
	return nil
}

// Add puts one unit of p in the cart, appending a line if p is not there yet.
func (s *Store) Add(ctx context.Context, p domain.Product) error {
	if p.ID == "" {
		return domain.NewValidationError("_id", "is required")
	}
	return s.mutate(ctx, func(lines []domain.CartLine) ([]domain.CartLine, error) {
		if i := indexOf(lines, p.ID); i >= 0 {
			lines[i].Quantity++
			return lines, nil
		}
		return append(lines, domain.LineFromProduct(p)), nil
	})
}

// Increment adds one unit to an existing line.
func (s *Store) Increment(ctx context.Context, productID string) error {
	return s.mutate(ctx, func(lines []domain.CartLine) ([]domain.CartLine, error) {
		i := indexOf(lines, productID)
		if i < 0 {
			return nil, fmt.Errorf("cart line %s: %w", productID, domain.ErrNotFound)
		}
		lines[i].Quantity++
		return lines, nil
	})
}

// Decrement removes one unit; a line at quantity 1 is removed entirely.
func (s *Store) Decrement(ctx context.Context, productID string) error {
	return s.mutate(ctx, func(lines []domain.CartLine) ([]domain.CartLine, error) {
		i := indexOf(lines, productID)
		if i < 0 {
			return nil, fmt.Errorf("cart line %s: %w", productID, domain.ErrNotFound)
		}
		if lines[i].Quantity <= 1 {
			return append(lines[:i], lines[i+1:]...), nil
		}
		lines[i].Quantity--
		return lines, nil
	})
}

// Remove drops a line. Removing an absent line is a no-op.
func (s *Store) Remove(ctx context.Context, productID string) error {
	return s.mutate(ctx, func(lines []domain.CartLine) ([]domain.CartLine, error) {
		if i := indexOf(lines, productID); i >= 0 {
			return append(lines[:i], lines[i+1:]...), nil
		}
		return lines, nil
	})
}

// Clear empties the cart.
func (s *Store) Clear(ctx context.Context) error {
	return s.mutate(ctx, func([]domain.CartLine) ([]domain.CartLine, error) {
		return []domain.CartLine{}, nil
	})
}

// Lines returns a copy of the current lines.
func (s *Store) Lines() []domain.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.CloneLines(s.lines)
}

// Total is the sum of price*quantity.
func (s *Store) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.SumLines(s.lines)
}

// Count is the number of units across all lines.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, l := range s.lines {
		n += l.Quantity
	}
	return n
}

// mutate applies fn to a copy, persists the result and only then commits it.
func (s *Store) mutate(ctx context.Context, fn func([]domain.CartLine) ([]domain.CartLine, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := fn(domain.CloneLines(s.lines))
	if err != nil {
		return err
	}
	if err := s.persister.Save(ctx, s.scope, next); err != nil {
		s.logger.Printf("cart: save scope=%s err=%v", s.scope, err)
		return fmt.Errorf("save cart %s: %w", s.scope, err)
	}
	s.lines = next
	return nil
}

func indexOf(lines []domain.CartLine, productID string) int {
	for i, l := range lines {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}
