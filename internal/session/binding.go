// Package session binds the shopper's bearer credential to a resolved profile
// and keeps the cart scope in step with it.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"

	"storefront/internal/cart"
	"storefront/internal/domain"
)

// IdentityProvider resolves a credential to a profile. It returns
// domain.ErrInvalidToken for a missing, expired or tampered credential.
type IdentityProvider interface {
	Profile(ctx context.Context, token string) (*domain.User, error)
}

// CredentialStore persists the current credential. Credential returns "" when none is stored.
type CredentialStore interface {
	Credential(ctx context.Context) (string, error)
	SetCredential(ctx context.Context, token string) error
	ClearCredential(ctx context.Context) error
}

// CartScoper moves the cart between identity scopes. *cart.Store satisfies it.
type CartScoper interface {
	Switch(ctx context.Context, scope cart.Scope) error
}

// Binding holds the current credential and profile.
type Binding struct {
	mu       sync.Mutex
	provider IdentityProvider
	creds    CredentialStore
	cart     CartScoper
	token    string
	profile  *domain.User
	logger   *log.Logger
}

func New(provider IdentityProvider, creds CredentialStore, c CartScoper, logger *log.Logger) *Binding {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Binding{provider: provider, creds: creds, cart: c, logger: logger}
}

// Restore resolves the credential stored by an earlier run. With no stored
// credential the binding stays anonymous and returns a nil profile.
func (b *Binding) Restore(ctx context.Context) (*domain.User, error) {
	token, err := b.creds.Credential(ctx)
	if err != nil {
		return nil, err
	}
	if token == "" {
		b.mu.Lock()
		defer b.mu.Unlock()
		return nil, b.cart.Switch(ctx, cart.Guest)
	}
	return b.Resolve(ctx, token)
}

// Login stores credential, resolves its profile and moves the cart to the user's scope.
func (b *Binding) Login(ctx context.Context, credential string) (*domain.User, error) {
	if credential == "" {
		return nil, domain.ErrInvalidToken
	}
	if err := b.creds.SetCredential(ctx, credential); err != nil {
		return nil, err
	}
	return b.Resolve(ctx, credential)
}

// Logout forgets the credential and profile and moves the cart to guest scope.
func (b *Binding) Logout(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.reset(ctx)
}

// Resolve asks the identity provider for credential's profile. An invalid
// credential is cleared rather than retried; other failures leave state as is.
func (b *Binding) Resolve(ctx context.Context, credential string) (*domain.User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	user, err := b.provider.Profile(ctx, credential)
	if errors.Is(err, domain.ErrInvalidToken) {
		b.logger.Printf("session: credential rejected, clearing")
		if resetErr := b.reset(ctx); resetErr != nil {
			return nil, errors.Join(err, resetErr)
		}
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("resolve profile: %w", err)
	}

	if err := b.cart.Switch(ctx, cart.UserScope(user.ID)); err != nil {
		return nil, err
	}
	b.token = credential
	b.profile = user
	b.logger.Printf("session: resolved user_id=%s", user.ID)
	return user, nil
}

// Profile returns the resolved profile, or nil when anonymous.
func (b *Binding) Profile() *domain.User {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.profile
}

// Token returns the resolved credential, or "" when anonymous.
func (b *Binding) Token() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.token
}

func (b *Binding) reset(ctx context.Context) error {
	b.token = ""
	b.profile = nil
	if err := b.creds.ClearCredential(ctx); err != nil {
		return err
	}
	return b.cart.Switch(ctx, cart.Guest)
}
