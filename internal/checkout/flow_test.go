package checkout

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/cart"
	"storefront/internal/domain"
	"storefront/internal/payment"
)

const gatewaySecret = "gw-secret"

// fakeBackend behaves like the server: it recomputes totals, checks card
// signatures and replays orders by idempotency key.
type fakeBackend struct {
	orders       map[string]*domain.Order
	placed       []PlaceRequest
	sessions     []int64
	failNext     error
	dropResponse bool
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{orders: map[string]*domain.Order{}}
}

func (b *fakeBackend) CreatePaymentSession(_ context.Context, amount int64) (*domain.PaymentSession, error) {
	b.sessions = append(b.sessions, amount)
	return &domain.PaymentSession{ID: "order_gw", Amount: amount, Currency: "INR"}, nil
}

func (b *fakeBackend) PlaceOrder(_ context.Context, token string, req PlaceRequest) (*domain.Order, error) {
	b.placed = append(b.placed, req)
	if b.failNext != nil {
		err := b.failNext
		b.failNext = nil
		return nil, err
	}
	if prior, ok := b.orders[req.IdempotencyKey]; ok {
		return prior, nil
	}
	if req.PaymentMethod == domain.PaymentCard &&
		!payment.VerifySignature(gatewaySecret, req.Proof.GatewayOrderID, req.Proof.GatewayPaymentID, req.Proof.Signature) {
		return nil, &payment.VerificationError{Reason: payment.ReasonInvalidSignature}
	}
	o := &domain.Order{
		ID:            fmt.Sprintf("o%d", len(b.orders)+1),
		UserID:        token,
		Items:         domain.CloneLines(req.Items),
		PaymentMethod: req.PaymentMethod,
		TotalAmount:   domain.SumLines(req.Items),
		Address:       req.Address,
		Status:        domain.OrderStatusPlaced,
	}
	b.orders[req.IdempotencyKey] = o
	if b.dropResponse {
		b.dropResponse = false
		return nil, fmt.Errorf("read response: %w", domain.ErrUpstream)
	}
	return o, nil
}

type staticIdentity struct {
	token   string
	profile *domain.User
}

func (s staticIdentity) Token() string         { return s.token }
func (s staticIdentity) Profile() *domain.User { return s.profile }

type widget struct {
	signature string
	calls     int
}

func (w *widget) Collect(_ context.Context, s *domain.PaymentSession) (domain.PaymentProof, error) {
	w.calls++
	sig := w.signature
	if sig == "" {
		sig = payment.Sign(gatewaySecret, s.ID, "pay_1")
	}
	return domain.PaymentProof{GatewayOrderID: s.ID, GatewayPaymentID: "pay_1", Signature: sig}, nil
}

var alice = &domain.User{ID: "alice", Address: "12 FC Road", City: "Pune", District: "Pune", State: "MH", Pincode: "411001"}

func scenarioCart(t *testing.T) *cart.Store {
	t.Helper()
	ctx := context.Background()
	store, err := cart.Open(ctx, cart.NewMemoryPersister(), cart.UserScope(alice.ID), nil)
	require.NoError(t, err)
	shirt := domain.Product{ID: "p1", Name: "Shirt", Price: decimal.NewFromInt(100)}
	hat := domain.Product{ID: "p2", Name: "Cap", Price: decimal.NewFromInt(50)}
	require.NoError(t, store.Add(ctx, shirt))
	require.NoError(t, store.Add(ctx, shirt))
	require.NoError(t, store.Add(ctx, hat))
	return store
}

func newFlow(backend Backend, c Cart, w PaymentCollector) *Flow {
	f := New(backend, staticIdentity{token: "alice", profile: alice}, c, w, nil)
	n := 0
	f.newKey = func() string {
		n++
		return fmt.Sprintf("key-%d", n)
	}
	return f
}

func TestCheckout_CODClearsCart(t *testing.T) {
	backend := newFakeBackend()
	store := scenarioCart(t)
	flow := newFlow(backend, store, nil)

	order, err := flow.Checkout(context.Background(), Request{Method: domain.PaymentCOD})
	require.NoError(t, err)
	assert.True(t, order.TotalAmount.Equal(decimal.NewFromInt(250)))
	assert.Equal(t, domain.OrderStatusPlaced, order.Status)
	assert.Equal(t, alice.ShippingAddress(), order.Address)
	assert.Empty(t, store.Lines())
	assert.Empty(t, backend.sessions)
}

func TestCheckout_CardCaptured(t *testing.T) {
	backend := newFakeBackend()
	store := scenarioCart(t)
	w := &widget{}
	flow := newFlow(backend, store, w)

	order, err := flow.Checkout(context.Background(), Request{Method: domain.PaymentCard, Address: "Office"})
	require.NoError(t, err)
	assert.Equal(t, []int64{25000}, backend.sessions)
	assert.Equal(t, 1, w.calls)
	assert.Equal(t, "Office", order.Address)
	assert.Empty(t, store.Lines())
}

func TestCheckout_CardSignatureMismatchKeepsCart(t *testing.T) {
	backend := newFakeBackend()
	store := scenarioCart(t)
	before := store.Lines()
	flow := newFlow(backend, store, &widget{signature: payment.Sign("wrong", "order_gw", "pay_1")})

	order, err := flow.Checkout(context.Background(), Request{Method: domain.PaymentCard})
	require.Error(t, err)
	assert.Nil(t, order)
	assert.True(t, errors.Is(err, domain.ErrPaymentNotVerified))
	assert.Empty(t, backend.orders)
	assert.Equal(t, before, store.Lines())

	_, err = flow.Retry(context.Background())
	assert.ErrorIs(t, err, ErrNothingToRetry, "a rejected payment is not retried")
}

func TestCheckout_CardTotalOutsideChargeableRange(t *testing.T) {
	ctx := context.Background()
	prices := map[string]string{
		"fraction of a paisa": "10.005",
		"free":                "0",
		"above ledger limit":  "10000000000",
	}
	for name, price := range prices {
		t.Run(name, func(t *testing.T) {
			backend := newFakeBackend()
			store, err := cart.Open(ctx, cart.NewMemoryPersister(), cart.UserScope(alice.ID), nil)
			require.NoError(t, err)
			require.NoError(t, store.Add(ctx, domain.Product{ID: "p1", Name: "Odd", Price: decimal.RequireFromString(price)}))
			w := &widget{}
			flow := newFlow(backend, store, w)

			_, err = flow.Checkout(ctx, Request{Method: domain.PaymentCard})
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Empty(t, backend.sessions, "no session is opened for an unchargeable total")
			assert.Zero(t, w.calls)
			assert.Empty(t, backend.placed)
			assert.Len(t, store.Lines(), 1)

			_, err = flow.Retry(ctx)
			assert.ErrorIs(t, err, ErrNothingToRetry)
		})
	}
}

func TestCheckout_RetryAfterLostResponseReplays(t *testing.T) {
	backend := newFakeBackend()
	backend.dropResponse = true
	store := scenarioCart(t)
	w := &widget{}
	flow := newFlow(backend, store, w)
	ctx := context.Background()

	_, err := flow.Checkout(ctx, Request{Method: domain.PaymentCard})
	require.ErrorIs(t, err, domain.ErrUpstream)
	assert.Len(t, store.Lines(), 2, "cart must survive a failed attempt")

	order, err := flow.Retry(ctx)
	require.NoError(t, err)
	assert.Len(t, backend.orders, 1, "retry must not create a second order")
	assert.Equal(t, "o1", order.ID)
	assert.Equal(t, backend.placed[0].IdempotencyKey, backend.placed[1].IdempotencyKey)
	assert.Equal(t, 1, w.calls, "proof is reused on retry")
	assert.Empty(t, store.Lines())

	_, err = flow.Retry(ctx)
	assert.ErrorIs(t, err, ErrNothingToRetry)
}

func TestCheckout_NewAttemptGetsNewKey(t *testing.T) {
	backend := newFakeBackend()
	flow := newFlow(backend, scenarioCart(t), nil)
	ctx := context.Background()

	_, err := flow.Checkout(ctx, Request{Method: domain.PaymentCOD})
	require.NoError(t, err)

	flow.cart = scenarioCart(t)
	_, err = flow.Checkout(ctx, Request{Method: domain.PaymentCOD})
	require.NoError(t, err)

	require.Len(t, backend.placed, 2)
	assert.NotEqual(t, backend.placed[0].IdempotencyKey, backend.placed[1].IdempotencyKey)
	assert.Len(t, backend.orders, 2)
}

func TestCheckout_Preconditions(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()

	anon := New(backend, staticIdentity{}, scenarioCart(t), nil, nil)
	_, err := anon.Checkout(ctx, Request{Method: domain.PaymentCOD})
	assert.ErrorIs(t, err, domain.ErrInvalidToken)

	empty, err := cart.Open(ctx, cart.NewMemoryPersister(), cart.UserScope(alice.ID), nil)
	require.NoError(t, err)
	_, err = newFlow(backend, empty, nil).Checkout(ctx, Request{Method: domain.PaymentCOD})
	assert.ErrorIs(t, err, domain.ErrEmptyCart)

	assert.Empty(t, backend.placed)
}
