package order

import (
	"context"

	"storefront/internal/domain"
)

// Repository persists immutable orders. Create is a single-record write; a duplicate
// (user, idempotency key) or gateway payment id yields domain.ErrAlreadyExists.
type Repository interface {
	Create(ctx context.Context, o domain.Order) (*domain.Order, error)
	GetByIdempotencyKey(ctx context.Context, userID, key string) (*domain.Order, error)
	// ListByUser returns the user's orders newest first; never nil.
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
}
