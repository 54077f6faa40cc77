package payment

import (
	"errors"
	"fmt"

	"storefront/internal/domain"
)

// Reason explains why a callback was rejected.
type Reason string

const (
	ReasonInvalidSignature Reason = "invalid_signature"
	ReasonNotCaptured      Reason = "not_captured"
	ReasonAmountMismatch   Reason = "amount_mismatch"
	ReasonOrderMismatch    Reason = "order_mismatch"
	ReasonUnknownPayment   Reason = "unknown_payment"
)

// ErrGatewayRejected is returned when the gateway refuses a request as invalid
// (400, 404, 422). Unlike domain.ErrUpstream it does not mean the gateway is down.
var ErrGatewayRejected = errors.New("payment gateway rejected the request")

// VerificationError is returned when a gateway callback cannot back an order.
type VerificationError struct {
	Reason Reason
}

func (e *VerificationError) Error() string {
	switch e.Reason {
	case ReasonInvalidSignature:
		return "payment verification failed: invalid signature"
	case ReasonNotCaptured:
		return "payment verification failed: payment not captured"
	case ReasonAmountMismatch:
		return "payment verification failed: captured amount does not match order total"
	case ReasonOrderMismatch:
		return "payment verification failed: payment belongs to another gateway order"
	case ReasonUnknownPayment:
		return "payment verification failed: gateway does not know this payment"
	default:
		return fmt.Sprintf("payment verification failed: %s", e.Reason)
	}
}

// Unwrap lets callers match domain.ErrPaymentNotVerified.
func (e *VerificationError) Unwrap() error {
	return domain.ErrPaymentNotVerified
}
