package payment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"storefront/internal/domain"
)

// Status is the outcome of a gateway callback.
type Status string

const (
	Captured Status = "captured"
	Rejected Status = "rejected"
)

// Callback is what the client hands back after the gateway widget completes.
type Callback struct {
	OrderID   string
	PaymentID string
	Signature string
	// ExpectedAmount in minor units; zero skips the amount check.
	ExpectedAmount int64
}

// Result of HandleCallback. Reason is set only when Status is Rejected.
type Result struct {
	Status Status
	Reason Reason
}

// Err returns a *VerificationError for a rejected result and nil otherwise.
func (r Result) Err() error {
	if r.Status == Captured {
		return nil
	}
	return &VerificationError{Reason: r.Reason}
}

// Coordinator opens payment sessions and verifies gateway callbacks.
type Coordinator struct {
	gateway  Gateway
	secret   string
	currency string
	logger   *log.Logger
}

// NewCoordinator wires a coordinator. secret is the shared key the gateway signs callbacks with.
func NewCoordinator(gateway Gateway, secret, currency string, logger *log.Logger) *Coordinator {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if currency == "" {
		currency = "INR"
	}
	return &Coordinator{gateway: gateway, secret: secret, currency: strings.ToUpper(currency), logger: logger}
}

// Currency returns the currency sessions are opened in.
func (c *Coordinator) Currency() string {
	return c.currency
}

// CreateSession opens a gateway-side payment intent for amountMinor. Failures are not retried.
func (c *Coordinator) CreateSession(ctx context.Context, amountMinor int64) (*domain.PaymentSession, error) {
	if amountMinor <= 0 {
		return nil, domain.NewValidationError("amount", "amount must be a positive number of minor units")
	}
	session, err := c.gateway.CreateOrder(ctx, amountMinor, c.currency, newReceipt())
	if err != nil {
		c.logger.Printf("payment coordinator: create session amount=%d err=%v", amountMinor, err)
		if errors.Is(err, ErrGatewayRejected) {
			return nil, domain.NewValidationError("amount", "rejected by the payment gateway")
		}
		return nil, fmt.Errorf("create payment session: %w", err)
	}
	c.logger.Printf("payment coordinator: session opened id=%s amount=%d", session.ID, session.Amount)
	return session, nil
}

// HandleCallback verifies the signature, then asks the gateway whether the payment was captured.
// A signature mismatch never reaches the gateway. A gateway error is returned as an error, not a rejection.
func (c *Coordinator) HandleCallback(ctx context.Context, cb Callback) (Result, error) {
	if !VerifySignature(c.secret, cb.OrderID, cb.PaymentID, cb.Signature) {
		c.logger.Printf("payment coordinator: rejected order_id=%s payment_id=%s reason=%s", cb.OrderID, cb.PaymentID, ReasonInvalidSignature)
		return Result{Status: Rejected, Reason: ReasonInvalidSignature}, nil
	}
	p, err := c.gateway.FetchPayment(ctx, cb.PaymentID)
	if errors.Is(err, ErrGatewayRejected) {
		c.logger.Printf("payment coordinator: rejected payment_id=%s reason=%s", cb.PaymentID, ReasonUnknownPayment)
		return Result{Status: Rejected, Reason: ReasonUnknownPayment}, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("fetch payment %s: %w", cb.PaymentID, err)
	}
	if p.OrderID != cb.OrderID {
		c.logger.Printf("payment coordinator: rejected payment_id=%s order_id=%s gateway_order_id=%s reason=%s", cb.PaymentID, cb.OrderID, p.OrderID, ReasonOrderMismatch)
		return Result{Status: Rejected, Reason: ReasonOrderMismatch}, nil
	}
	if !strings.EqualFold(p.Status, StatusCaptured) {
		c.logger.Printf("payment coordinator: rejected payment_id=%s status=%s reason=%s", cb.PaymentID, p.Status, ReasonNotCaptured)
		return Result{Status: Rejected, Reason: ReasonNotCaptured}, nil
	}
	if cb.ExpectedAmount > 0 && p.Amount != cb.ExpectedAmount {
		c.logger.Printf("payment coordinator: rejected payment_id=%s amount=%d expected=%d reason=%s", cb.PaymentID, p.Amount, cb.ExpectedAmount, ReasonAmountMismatch)
		return Result{Status: Rejected, Reason: ReasonAmountMismatch}, nil
	}
	return Result{Status: Captured}, nil
}
