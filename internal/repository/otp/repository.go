package otp

import (
	"context"
	"time"
)

// Repository keeps one pending password-reset code per email.
type Repository interface {
	// Save replaces any pending code for email.
	Save(ctx context.Context, email, code string, ttl time.Duration) error
	// Get returns the pending code, or domain.ErrNotFound when absent or expired.
	Get(ctx context.Context, email string) (string, error)
	Delete(ctx context.Context, email string) error
}
