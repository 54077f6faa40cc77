package httpserver

import (
	"fmt"
	"net/http"
	"testing"

	"storefront/internal/domain"
	"storefront/internal/payment"
)

func TestPaymentSession(t *testing.T) {
	d := newTestDeps()
	router := d.router(t)

	rec := do(router, http.MethodPost, "/api/payment/session", `{"amount":25000}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var session domain.PaymentSession
	decode(t, rec, &session)
	if session.Amount != 25000 || session.Currency != "INR" {
		t.Fatalf("unexpected session: %+v", session)
	}

	if rec := do(router, http.MethodPost, "/api/payment/session", `{"amount":-5}`, nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	d.payments.err = fmt.Errorf("create order: %w", domain.ErrUpstream)
	if rec := do(router, http.MethodPost, "/api/payment/session", `{"amount":100}`, nil); rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
}

func TestPaymentVerify(t *testing.T) {
	body := `{"razorpay_order_id":"order_gw","razorpay_payment_id":"pay_1","razorpay_signature":"abc"}`

	cases := []struct {
		name   string
		result payment.Result
		err    error
		status int
		want   string
	}{
		{name: "captured", result: payment.Result{Status: payment.Captured}, status: http.StatusOK, want: `{"success":true}`},
		{name: "bad signature", result: payment.Result{Status: payment.Rejected, Reason: payment.ReasonInvalidSignature}, status: http.StatusBadRequest, want: "invalid_signature"},
		{name: "not captured", result: payment.Result{Status: payment.Rejected, Reason: payment.ReasonNotCaptured}, status: http.StatusBadRequest, want: "not_captured"},
		{name: "gateway down", err: domain.ErrUpstream, status: http.StatusBadGateway, want: `"success":false`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := newTestDeps()
			d.payments.result, d.payments.err = tc.result, tc.err
			rec := do(d.router(t), http.MethodPost, "/api/payment/verify", body, nil)
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d body=%s", tc.status, rec.Code, rec.Body.String())
			}
			if !contains(rec.Body.String(), tc.want) {
				t.Fatalf("body %s missing %s", rec.Body.String(), tc.want)
			}
			if d.payments.lastCall.PaymentID != "pay_1" || d.payments.lastCall.ExpectedAmount != 0 {
				t.Fatalf("unexpected callback: %+v", d.payments.lastCall)
			}
		})
	}
}

func TestPaymentVerify_MissingField(t *testing.T) {
	d := newTestDeps()
	rec := do(d.router(t), http.MethodPost, "/api/payment/verify", `{"razorpay_order_id":"order_gw"}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if d.payments.lastCall.OrderID != "" {
		t.Fatalf("coordinator called with incomplete callback")
	}
}
