package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
)

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func TestHealthz(t *testing.T) {
	router := newTestDeps().router(t)
	rec := do(router, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestReadyz(t *testing.T) {
	gin.SetMode(gin.TestMode)
	d := newTestDeps()
	deps := Deps{Users: d.users, Products: d.products, Payments: d.payments, Orders: d.orders}

	down := PingFunc(func(context.Context) error { return errors.New("refused") })
	up := PingFunc(func(context.Context) error { return nil })

	cases := []struct {
		name   string
		db     Pinger
		checks map[string]Pinger
		want   int
	}{
		{name: "not configured", db: nil, want: http.StatusServiceUnavailable},
		{name: "unreachable", db: stubPinger{err: errors.New("refused")}, want: http.StatusServiceUnavailable},
		{name: "ready", db: stubPinger{}, want: http.StatusOK},
		{name: "optional store down", db: stubPinger{}, checks: map[string]Pinger{"redis": down, "mongo": up}, want: http.StatusServiceUnavailable},
		{name: "optional stores up", db: stubPinger{}, checks: map[string]Pinger{"redis": up, "mongo": up}, want: http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router, err := buildRouter(logDiscard(), tc.db, deps, Options{ReadyChecks: tc.checks})
			if err != nil {
				t.Fatalf("build router: %v", err)
			}
			rec := do(router, http.MethodGet, "/readyz", "", nil)
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rec.Code)
			}
		})
	}
}

func TestReadyz_ListsFailedChecks(t *testing.T) {
	d := newTestDeps()
	deps := Deps{Users: d.users, Products: d.products, Payments: d.payments, Orders: d.orders}
	checks := map[string]Pinger{"redis": PingFunc(func(context.Context) error { return errors.New("refused") })}

	router, err := buildRouter(logDiscard(), stubPinger{err: errors.New("refused")}, deps, Options{ReadyChecks: checks})
	if err != nil {
		t.Fatalf("build router: %v", err)
	}
	rec := do(router, http.MethodGet, "/readyz", "", nil)

	var body struct {
		Failed []string `json:"failed"`
	}
	decode(t, rec, &body)
	if len(body.Failed) != 2 || body.Failed[0] != "db" || body.Failed[1] != "redis" {
		t.Fatalf("unexpected failed list %v", body.Failed)
	}
}

func TestBuildRouter_RequiresServices(t *testing.T) {
	if _, err := buildRouter(logDiscard(), nil, Deps{}, Options{}); err == nil {
		t.Fatalf("expected error for missing services")
	}
}

func TestAuth_MissingTokenSkipsHandler(t *testing.T) {
	d := newTestDeps()
	router := d.router(t)

	rec := do(router, http.MethodPost, "/api/order", `{"cartItems":[]}`, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if d.orders.calls != 0 {
		t.Fatalf("handler ran without credential")
	}
}

func TestAuth_InvalidToken(t *testing.T) {
	d := newTestDeps()
	router := d.router(t)

	for _, path := range []string{"/api/user/details", "/api/order/history"} {
		rec := do(router, http.MethodGet, path, "", map[string]string{authHeader: "forged"})
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", path, rec.Code)
		}
	}
	if d.orders.calls != 0 {
		t.Fatalf("handler ran with invalid credential")
	}
}

func TestAuth_BearerFallback(t *testing.T) {
	router := newTestDeps().router(t)
	rec := do(router, http.MethodGet, "/api/user/details", "", map[string]string{"Authorization": "Bearer " + validToken})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"email":"alice@example.com"`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Fatalf("profile leaked password: %s", rec.Body.String())
	}
}

func TestAuth_StoreFailureIs500(t *testing.T) {
	d := newTestDeps()
	d.users.authErr = errors.New("db down")
	rec := do(d.router(t), http.MethodGet, "/api/user/details", "", authed())
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{domain.NewValidationError("email", "is required"), http.StatusBadRequest},
		{domain.ErrInvalidCredentials, http.StatusBadRequest},
		{domain.ErrEmptyCart, http.StatusBadRequest},
		{domain.ErrPaymentNotVerified, http.StatusBadRequest},
		{domain.ErrInvalidToken, http.StatusUnauthorized},
		{domain.ErrForbidden, http.StatusForbidden},
		{domain.ErrNotFound, http.StatusNotFound},
		{domain.ErrAlreadyExists, http.StatusConflict},
		{domain.ErrUpstream, http.StatusBadGateway},
		{domain.ErrPersistence, http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		got, body := statusFor(tc.err)
		if got != tc.want {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.want, got)
		}
		if got == http.StatusInternalServerError && body.Error != "internal error" {
			t.Fatalf("%v: internal detail leaked: %q", tc.err, body.Error)
		}
	}
}
