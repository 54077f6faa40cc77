package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatusPlaced is the status every new order starts with.
const OrderStatusPlaced = "Placed"

// PaymentMethod is how the buyer pays.
type PaymentMethod string

const (
	PaymentCOD  PaymentMethod = "cod"
	PaymentCard PaymentMethod = "card"
)

// ParsePaymentMethod normalises client input ("cod", "Card", ...).
func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(PaymentCOD):
		return PaymentCOD, true
	case string(PaymentCard):
		return PaymentCard, true
	default:
		return "", false
	}
}

// PaymentProof is the signed gateway callback triple.
type PaymentProof struct {
	GatewayOrderID   string `json:"razorpayOrderId"`
	GatewayPaymentID string `json:"razorpayPaymentId"`
	Signature        string `json:"razorpaySignature"`
}

// Complete reports whether all three fields are present.
func (p PaymentProof) Complete() bool {
	return p.GatewayOrderID != "" && p.GatewayPaymentID != "" && p.Signature != ""
}

// Empty reports whether no field is present.
func (p PaymentProof) Empty() bool {
	return p.GatewayOrderID == "" && p.GatewayPaymentID == "" && p.Signature == ""
}

// Order is an immutable record of one successful checkout.
type Order struct {
	ID               string          `json:"_id"`
	UserID           string          `json:"user"`
	Items            []CartLine      `json:"items"`
	PaymentMethod    PaymentMethod   `json:"paymentMethod"`
	TotalAmount      decimal.Decimal `json:"totalAmount"`
	Address          string          `json:"address"`
	Status           string          `json:"status"`
	GatewayOrderID   string          `json:"razorpayOrderId,omitempty"`
	GatewayPaymentID string          `json:"razorpayPaymentId,omitempty"`
	GatewaySignature string          `json:"razorpaySignature,omitempty"`
	IdempotencyKey   string          `json:"-"`
	CreatedAt        time.Time       `json:"createdAt"`
}

// PaymentSession is the gateway-side payment intent. Amount is in minor units.
type PaymentSession struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt,omitempty"`
	Status   string `json:"status,omitempty"`
}

// Ledger bounds. MaxAmount is the largest value a NUMERIC(12,2) column holds.
const MaxLineQuantity = 1000

var MaxAmount = decimal.New(999999999999, -2)

// ValidAmount reports whether amount is non-negative, has at most two decimal
// places and fits the ledger's NUMERIC(12,2) columns.
func ValidAmount(amount decimal.Decimal) bool {
	return !amount.IsNegative() && amount.Equal(amount.Round(2)) && amount.LessThanOrEqual(MaxAmount)
}

// MinorUnits converts a major-unit amount to the gateway's minor unit (paise, cents).
// ok is false when amount is not a valid ledger amount, so the result never wraps.
func MinorUnits(amount decimal.Decimal) (minor int64, ok bool) {
	if !ValidAmount(amount) {
		return 0, false
	}
	shifted := amount.Shift(2)
	if !shifted.BigInt().IsInt64() {
		return 0, false
	}
	return shifted.IntPart(), true
}
