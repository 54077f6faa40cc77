package order

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/shopspring/decimal"

	"storefront/internal/domain"
	"storefront/internal/payment"
	"storefront/internal/publisher"
	orderrepo "storefront/internal/repository/order"
	"storefront/internal/validation"
)

// PaymentVerifier checks a card callback before an order may be written.
type PaymentVerifier interface {
	HandleCallback(ctx context.Context, cb payment.Callback) (payment.Result, error)
}

// UserLookup confirms that an order's owner exists.
type UserLookup interface {
	Exists(ctx context.Context, userID string) (bool, error)
}

// Ledger creates and lists orders.
type Ledger struct {
	repo      orderrepo.Repository
	payments  PaymentVerifier
	users     UserLookup
	publisher publisher.Publisher
	logger    *log.Logger
}

func New(repo orderrepo.Repository, payments PaymentVerifier, users UserLookup, pub publisher.Publisher, logger *log.Logger) *Ledger {
	if pub == nil {
		pub = publisher.Nop{}
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Ledger{repo: repo, payments: payments, users: users, publisher: pub, logger: logger}
}

// LineInput is one submitted cart line.
type LineInput struct {
	ProductID string          `json:"_id" validate:"required"`
	Name      string          `json:"name" validate:"required"`
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image"`
	Quantity  int             `json:"quantity" validate:"min=1"`
}

// PlaceInput is a checkout submission. ClientTotal is informational only; the
// stored total is always recomputed from Items.
type PlaceInput struct {
	UserID         string              `json:"-"`
	Items          []LineInput         `json:"items" validate:"dive"`
	PaymentMethod  string              `json:"paymentMethod" validate:"required"`
	Address        string              `json:"address" validate:"required"`
	Proof          domain.PaymentProof `json:"-"`
	IdempotencyKey string              `json:"-"`
	ClientTotal    *decimal.Decimal    `json:"-"`
}

// Result of PlaceOrder. Replayed is true when an earlier order with the same
// idempotency key was returned instead of creating a new one.
type Result struct {
	Order    *domain.Order
	Replayed bool
}

// PlaceOrder verifies payment (for card orders) and persists one immutable order.
// Nothing is written unless every check passes.
func (l *Ledger) PlaceOrder(ctx context.Context, in PlaceInput) (*Result, error) {
	if len(in.Items) == 0 {
		return nil, domain.ErrEmptyCart
	}
	method, err := validatePlace(&in)
	if err != nil {
		return nil, err
	}

	if in.IdempotencyKey != "" {
		prior, err := l.repo.GetByIdempotencyKey(ctx, in.UserID, in.IdempotencyKey)
		if err == nil {
			l.logger.Printf("order ledger: replay id=%s user_id=%s", prior.ID, in.UserID)
			return &Result{Order: prior, Replayed: true}, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: lookup idempotency key: %v", domain.ErrPersistence, err)
		}
	}

	ok, err := l.users.Exists(ctx, in.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: lookup user: %v", domain.ErrPersistence, err)
	}
	if !ok {
		return nil, fmt.Errorf("user %s: %w", in.UserID, domain.ErrNotFound)
	}

	items := make([]domain.CartLine, 0, len(in.Items))
	for _, li := range in.Items {
		items = append(items, domain.CartLine{
			ProductID: li.ProductID,
			Name:      li.Name,
			Price:     li.Price,
			Image:     li.Image,
			Quantity:  li.Quantity,
		})
	}
	total := domain.SumLines(items)
	if in.ClientTotal != nil && !in.ClientTotal.Equal(total) {
		l.logger.Printf("order ledger: client total ignored user_id=%s client=%s computed=%s", in.UserID, in.ClientTotal, total)
	}

	o := domain.Order{
		UserID:         in.UserID,
		Items:          items,
		PaymentMethod:  method,
		TotalAmount:    total,
		Address:        in.Address,
		Status:         domain.OrderStatusPlaced,
		IdempotencyKey: in.IdempotencyKey,
	}

	if method == domain.PaymentCard {
		expected, ok := domain.MinorUnits(total)
		if !ok || expected <= 0 {
			return nil, domain.NewValidationError("items", "order total cannot be charged to a card")
		}
		res, err := l.payments.HandleCallback(ctx, payment.Callback{
			OrderID:        in.Proof.GatewayOrderID,
			PaymentID:      in.Proof.GatewayPaymentID,
			Signature:      in.Proof.Signature,
			ExpectedAmount: expected,
		})
		if err != nil {
			return nil, fmt.Errorf("verify payment: %w", err)
		}
		if err := res.Err(); err != nil {
			l.logger.Printf("order ledger: rejected user_id=%s payment_id=%s reason=%s", in.UserID, in.Proof.GatewayPaymentID, res.Reason)
			return nil, err
		}
		o.GatewayOrderID = in.Proof.GatewayOrderID
		o.GatewayPaymentID = in.Proof.GatewayPaymentID
		o.GatewaySignature = in.Proof.Signature
	}

	created, err := l.repo.Create(ctx, o)
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			if in.IdempotencyKey != "" {
				if prior, lookupErr := l.repo.GetByIdempotencyKey(ctx, in.UserID, in.IdempotencyKey); lookupErr == nil {
					return &Result{Order: prior, Replayed: true}, nil
				}
			}
			return nil, fmt.Errorf("payment already used for another order: %w", err)
		}
		if method == domain.PaymentCard {
			l.logger.Printf("order ledger: needs manual reconciliation user_id=%s gateway_order_id=%s gateway_payment_id=%s total=%s err=%v",
				in.UserID, o.GatewayOrderID, o.GatewayPaymentID, total, err)
		} else {
			l.logger.Printf("order ledger: persist user_id=%s err=%v", in.UserID, err)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}

	l.logger.Printf("order ledger: placed id=%s user_id=%s method=%s total=%s", created.ID, created.UserID, created.PaymentMethod, created.TotalAmount)
	if err := l.publisher.OrderPlaced(ctx, *created); err != nil {
		l.logger.Printf("order ledger: publish id=%s err=%v", created.ID, err)
	}
	return &Result{Order: created}, nil
}

// History returns userID's orders, newest first. Never nil.
func (l *Ledger) History(ctx context.Context, userID string) ([]domain.Order, error) {
	orders, err := l.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: list orders: %v", domain.ErrPersistence, err)
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return orders, nil
}

func validatePlace(in *PlaceInput) (domain.PaymentMethod, error) {
	in.Address = strings.TrimSpace(in.Address)
	in.IdempotencyKey = strings.TrimSpace(in.IdempotencyKey)
	in.Items = append([]LineInput(nil), in.Items...)
	for i := range in.Items {
		in.Items[i].ProductID = strings.TrimSpace(in.Items[i].ProductID)
		in.Items[i].Name = strings.TrimSpace(in.Items[i].Name)
	}

	verr := validation.Struct(*in)
	total, linesOK := decimal.Zero, true
	for i, li := range in.Items {
		if !domain.ValidAmount(li.Price) {
			verr.Add(fmt.Sprintf("items[%d].price", i), "must be a non-negative amount with at most 2 decimal places")
			linesOK = false
		}
		if li.Quantity > domain.MaxLineQuantity {
			verr.Add(fmt.Sprintf("items[%d].quantity", i), fmt.Sprintf("must be at most %d", domain.MaxLineQuantity))
			linesOK = false
		}
		total = total.Add(li.Price.Mul(decimal.NewFromInt(int64(li.Quantity))))
	}
	if linesOK && !domain.ValidAmount(total) {
		verr.Add("items", "order total exceeds "+domain.MaxAmount.StringFixed(2))
	}
	if in.UserID == "" {
		verr.Add("user", "is required")
	}
	method, ok := domain.ParsePaymentMethod(in.PaymentMethod)
	if in.PaymentMethod != "" && !ok {
		verr.Add("paymentMethod", "must be one of [cod, card]")
	}
	switch {
	case !in.Proof.Empty() && !in.Proof.Complete():
		verr.Add("payment", "razorpayOrderId, razorpayPaymentId and razorpaySignature must be sent together")
	case method == domain.PaymentCard && in.Proof.Empty():
		verr.Add("payment", "card orders require the gateway payment proof")
	case method == domain.PaymentCOD && !in.Proof.Empty():
		verr.Add("payment", "cash on delivery orders must not carry a payment proof")
	}
	if method == domain.PaymentCard && linesOK && !total.IsPositive() {
		verr.Add("items", "card orders must have a positive total")
	}
	if err := verr.OrNil(); err != nil {
		return "", err
	}
	return method, nil
}
