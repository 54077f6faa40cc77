// Package apiclient is a typed client for the storefront REST API.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"storefront/internal/checkout"
	"storefront/internal/domain"
	"storefront/internal/payment"
	"storefront/internal/session"
)

const (
	authHeader        = "auth-token"
	idempotencyHeader = "Idempotency-Key"
)

// Client calls the storefront API. Calls are never retried.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *log.Logger
}

func New(baseURL string, timeout time.Duration, logger *log.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// RegisterRequest carries the sign-up form.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	City     string `json:"city"`
	State    string `json:"state"`
	District string `json:"district"`
	Pincode  string `json:"pincode"`
	Address  string `json:"address"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// Register creates an account and returns its credential.
func (c *Client) Register(ctx context.Context, in RegisterRequest) (string, error) {
	var out tokenResponse
	if err := c.do(ctx, http.MethodPost, "/api/user", "", "", in, &out); err != nil {
		return "", err
	}
	return out.Token, nil
}

// Login exchanges email and password for a credential.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var out tokenResponse
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/user/login", "", "", body, &out); err != nil {
		return "", err
	}
	return out.Token, nil
}

// Profile resolves token to its user. An unknown or expired token yields domain.ErrInvalidToken.
func (c *Client) Profile(ctx context.Context, token string) (*domain.User, error) {
	var out domain.User
	if err := c.do(ctx, http.MethodGet, "/api/user/details", token, "", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Products(ctx context.Context) ([]domain.Product, error) {
	var out []domain.Product
	if err := c.do(ctx, http.MethodGet, "/api/product/allproducts", "", "", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ProductsByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	var out []domain.Product
	if err := c.do(ctx, http.MethodGet, "/api/product/"+category, "", "", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Product(ctx context.Context, id string) (*domain.Product, error) {
	var out domain.Product
	if err := c.do(ctx, http.MethodGet, "/api/product/item/"+id, "", "", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreatePaymentSession opens a gateway session for amountMinor.
func (c *Client) CreatePaymentSession(ctx context.Context, amountMinor int64) (*domain.PaymentSession, error) {
	var out domain.PaymentSession
	body := map[string]int64{"amount": amountMinor}
	if err := c.do(ctx, http.MethodPost, "/api/payment/session", "", "", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyPayment asks the server to check a gateway callback.
func (c *Client) VerifyPayment(ctx context.Context, proof domain.PaymentProof) error {
	body := map[string]string{
		"razorpay_order_id":   proof.GatewayOrderID,
		"razorpay_payment_id": proof.GatewayPaymentID,
		"razorpay_signature":  proof.Signature,
	}
	return c.do(ctx, http.MethodPost, "/api/payment/verify", "", "", body, nil)
}

type placeOrderBody struct {
	CartItems         []domain.CartLine `json:"cartItems"`
	PaymentMethod     string            `json:"paymentMethod"`
	Address           string            `json:"address"`
	TotalAmount       decimal.Decimal   `json:"totalAmount"`
	RazorpayOrderID   string            `json:"razorpayOrderId,omitempty"`
	RazorpayPaymentID string            `json:"razorpayPaymentId,omitempty"`
	RazorpaySignature string            `json:"razorpaySignature,omitempty"`
}

type placeOrderResponse struct {
	Order *domain.Order `json:"order"`
}

// PlaceOrder submits a checkout. The idempotency key makes resubmission safe.
func (c *Client) PlaceOrder(ctx context.Context, token string, req checkout.PlaceRequest) (*domain.Order, error) {
	body := placeOrderBody{
		CartItems:         req.Items,
		PaymentMethod:     string(req.PaymentMethod),
		Address:           req.Address,
		TotalAmount:       req.Total,
		RazorpayOrderID:   req.Proof.GatewayOrderID,
		RazorpayPaymentID: req.Proof.GatewayPaymentID,
		RazorpaySignature: req.Proof.Signature,
	}
	var out placeOrderResponse
	if err := c.do(ctx, http.MethodPost, "/api/order", token, req.IdempotencyKey, body, &out); err != nil {
		return nil, err
	}
	if out.Order == nil {
		return nil, fmt.Errorf("%w: order missing from response", domain.ErrUpstream)
	}
	return out.Order, nil
}

// History lists the caller's orders, newest first.
func (c *Client) History(ctx context.Context, token string) ([]domain.Order, error) {
	var out struct {
		Orders []domain.Order `json:"orders"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/order/history", token, "", nil, &out); err != nil {
		return nil, err
	}
	if out.Orders == nil {
		out.Orders = []domain.Order{}
	}
	return out.Orders, nil
}

func (c *Client) do(ctx context.Context, method, path, token, idempotencyKey string, in, out any) error {
	var reader io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(authHeader, token)
	}
	if idempotencyKey != "" {
		req.Header.Set(idempotencyHeader, idempotencyKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Printf("apiclient: %s %s err=%v", method, path, err)
		return fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("%w: read response: %v", domain.ErrUpstream, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp.StatusCode, data)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: decode response: %v", domain.ErrUpstream, err)
	}
	return nil
}

type errorBody struct {
	Error  string              `json:"error"`
	Reason string              `json:"reason"`
	Errors []domain.FieldError `json:"errors"`
}

// decodeError maps a non-2xx response back onto the domain error it was produced from.
func decodeError(status int, data []byte) error {
	var body errorBody
	_ = json.Unmarshal(data, &body)
	msg := body.Error
	if msg == "" {
		msg = http.StatusText(status)
	}

	switch status {
	case http.StatusBadRequest:
		switch {
		case len(body.Errors) > 0:
			return &domain.ValidationError{Fields: body.Errors}
		case body.Reason != "":
			return &payment.VerificationError{Reason: payment.Reason(body.Reason)}
		case msg == "Invalid email or password":
			return domain.ErrInvalidCredentials
		case msg == domain.ErrEmptyCart.Error():
			return domain.ErrEmptyCart
		case msg == domain.ErrPaymentNotVerified.Error():
			return domain.ErrPaymentNotVerified
		}
		return domain.NewValidationError("body", msg)
	case http.StatusUnauthorized:
		return domain.ErrInvalidToken
	case http.StatusForbidden:
		return domain.ErrForbidden
	case http.StatusNotFound:
		return domain.ErrNotFound
	case http.StatusConflict:
		return domain.ErrAlreadyExists
	case http.StatusInternalServerError:
		return fmt.Errorf("%w: %s", domain.ErrPersistence, msg)
	}
	return fmt.Errorf("%w: status %d: %s", domain.ErrUpstream, status, msg)
}

var (
	_ checkout.Backend         = (*Client)(nil)
	_ session.IdentityProvider = (*Client)(nil)
)
