// Package checkout turns the shopper's cart into an order.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

// PlaceRequest is what the backend needs to create an order.
type PlaceRequest struct {
	Items          []domain.CartLine
	PaymentMethod  domain.PaymentMethod
	Address        string
	Total          decimal.Decimal
	Proof          domain.PaymentProof
	IdempotencyKey string
}

// Backend is the storefront API as seen by checkout.
type Backend interface {
	CreatePaymentSession(ctx context.Context, amountMinor int64) (*domain.PaymentSession, error)
	PlaceOrder(ctx context.Context, token string, req PlaceRequest) (*domain.Order, error)
}

// PaymentCollector runs the gateway's payment step for a session and returns the signed proof.
type PaymentCollector interface {
	Collect(ctx context.Context, session *domain.PaymentSession) (domain.PaymentProof, error)
}

// Identity exposes the current credential and profile. *session.Binding satisfies it.
type Identity interface {
	Token() string
	Profile() *domain.User
}

// Cart is the part of the cart store checkout touches. *cart.Store satisfies it.
type Cart interface {
	Lines() []domain.CartLine
	Clear(ctx context.Context) error
}

// Request selects how to pay and where to ship. An empty Address uses the profile address.
type Request struct {
	Method  domain.PaymentMethod
	Address string
}

var ErrNothingToRetry = errors.New("no failed checkout to retry")

// Flow runs checkouts. A failed attempt is remembered so Retry can resend it
// with the same idempotency key.
type Flow struct {
	mu        sync.Mutex
	backend   Backend
	identity  Identity
	cart      Cart
	collector PaymentCollector
	logger    *log.Logger
	newKey    func() string
	pending   *attempt
}

type attempt struct {
	req   PlaceRequest
	token string
}

func New(backend Backend, identity Identity, c Cart, collector PaymentCollector, logger *log.Logger) *Flow {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Flow{
		backend:   backend,
		identity:  identity,
		cart:      c,
		collector: collector,
		logger:    logger,
		newKey:    uuid.NewString,
	}
}

// Checkout places an order for the current cart. The cart is cleared only
// after the order exists; on any failure it is left untouched.
func (f *Flow) Checkout(ctx context.Context, r Request) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	token := f.identity.Token()
	profile := f.identity.Profile()
	if token == "" || profile == nil {
		return nil, domain.ErrInvalidToken
	}
	lines := f.cart.Lines()
	if len(lines) == 0 {
		return nil, domain.ErrEmptyCart
	}
	address := strings.TrimSpace(r.Address)
	if address == "" {
		address = profile.ShippingAddress()
	}

	a := &attempt{
		token: token,
		req: PlaceRequest{
			Items:          lines,
			PaymentMethod:  r.Method,
			Address:        address,
			Total:          domain.SumLines(lines),
			IdempotencyKey: f.newKey(),
		},
	}
	return f.run(ctx, a)
}

// Retry resends the last failed checkout with its original idempotency key,
// so a retry after a lost response cannot create a second order.
func (f *Flow) Retry(ctx context.Context) (*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pending == nil {
		return nil, ErrNothingToRetry
	}
	return f.run(ctx, f.pending)
}

func (f *Flow) run(ctx context.Context, a *attempt) (*domain.Order, error) {
	if a.req.PaymentMethod == domain.PaymentCard && !a.req.Proof.Complete() {
		proof, err := f.collectPayment(ctx, a.req.Total)
		if err != nil {
			f.pending = nil
			if retryable(err) {
				f.pending = a
			}
			return nil, err
		}
		a.req.Proof = proof
	}

	order, err := f.backend.PlaceOrder(ctx, a.token, a.req)
	if err != nil {
		if !retryable(err) {
			f.pending = nil
			return nil, err
		}
		f.pending = a
		f.logger.Printf("checkout: place failed key=%s err=%v", a.req.IdempotencyKey, err)
		return nil, err
	}
	f.pending = nil
	f.logger.Printf("checkout: placed order_id=%s total=%s", order.ID, order.TotalAmount)

	if err := f.cart.Clear(ctx); err != nil {
		return order, fmt.Errorf("order %s placed but cart not cleared: %w", order.ID, err)
	}
	return order, nil
}

func (f *Flow) collectPayment(ctx context.Context, total decimal.Decimal) (domain.PaymentProof, error) {
	if f.collector == nil {
		return domain.PaymentProof{}, errors.New("checkout: card payment needs a payment collector")
	}
	amount, ok := domain.MinorUnits(total)
	if !ok || amount <= 0 {
		return domain.PaymentProof{}, domain.NewValidationError("total", "cart total cannot be charged to a card")
	}
	session, err := f.backend.CreatePaymentSession(ctx, amount)
	if err != nil {
		return domain.PaymentProof{}, fmt.Errorf("open payment session: %w", err)
	}
	proof, err := f.collector.Collect(ctx, session)
	if err != nil {
		return domain.PaymentProof{}, fmt.Errorf("collect payment: %w", err)
	}
	return proof, nil
}

// retryable reports whether resending the same attempt can succeed.
func retryable(err error) bool {
	return errors.Is(err, domain.ErrUpstream) || errors.Is(err, domain.ErrPersistence)
}
