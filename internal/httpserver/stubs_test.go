package httpserver

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"storefront/internal/domain"
	"storefront/internal/payment"
	orderservice "storefront/internal/service/order"
	productservice "storefront/internal/service/product"
	userservice "storefront/internal/service/user"
)

const validToken = "good-token"

var alice = &domain.User{ID: "u-alice", Name: "Alice", Email: "alice@example.com"}

type stubUsers struct {
	registerErr error
	loginErr    error
	updateErr   error
	resetErr    error
	authErr     error
	lastUpdate  struct{ actor, target string }
	lastLogin   string
}

func (s *stubUsers) Register(_ context.Context, _ userservice.RegisterInput) (*domain.User, string, error) {
	if s.registerErr != nil {
		return nil, "", s.registerErr
	}
	return alice, "new-token", nil
}

func (s *stubUsers) Login(_ context.Context, email, _ string) (*domain.User, string, error) {
	s.lastLogin = email
	if s.loginErr != nil {
		return nil, "", s.loginErr
	}
	return alice, "login-token", nil
}

func (s *stubUsers) Authenticate(_ context.Context, token string) (*domain.User, error) {
	if s.authErr != nil {
		return nil, s.authErr
	}
	if token != validToken {
		return nil, domain.ErrInvalidToken
	}
	return alice, nil
}

func (s *stubUsers) Details(_ context.Context, id string) (*domain.User, error) {
	if id != alice.ID {
		return nil, domain.ErrNotFound
	}
	return alice, nil
}

func (s *stubUsers) Update(_ context.Context, actor, target string, _ userservice.UpdateInput) (*domain.User, error) {
	s.lastUpdate.actor, s.lastUpdate.target = actor, target
	if s.updateErr != nil {
		return nil, s.updateErr
	}
	if actor != target {
		return nil, domain.ErrForbidden
	}
	return alice, nil
}

func (s *stubUsers) ForgotPassword(_ context.Context, email string) error {
	if email != alice.Email {
		return domain.ErrNotFound
	}
	return nil
}

func (s *stubUsers) VerifyOTP(_ context.Context, _, code string) error {
	if code != "123456" {
		return domain.NewValidationError("otp", "invalid or expired")
	}
	return nil
}

func (s *stubUsers) ResetPassword(_ context.Context, _, _, _ string) error {
	return s.resetErr
}

type stubProducts struct {
	products []domain.Product
	err      error
	created  *productservice.CreateInput
}

func (s *stubProducts) List(context.Context) ([]domain.Product, error) {
	return s.products, s.err
}

func (s *stubProducts) ListByCategory(_ context.Context, category string) ([]domain.Product, error) {
	if _, ok := domain.ParseCategory(category); !ok {
		return nil, domain.NewValidationError("category", "must be one of [male, female, kids]")
	}
	return s.products, s.err
}

func (s *stubProducts) Get(_ context.Context, id string) (*domain.Product, error) {
	for i := range s.products {
		if s.products[i].ID == id {
			return &s.products[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *stubProducts) Create(_ context.Context, in productservice.CreateInput) (*domain.Product, error) {
	s.created = &in
	return &domain.Product{ID: "p-new", Name: in.Name, Price: in.Price}, nil
}

func (s *stubProducts) Delete(_ context.Context, id string) error {
	if _, err := s.Get(context.Background(), id); err != nil {
		return err
	}
	return nil
}

type stubPayments struct {
	result   payment.Result
	err      error
	lastCall payment.Callback
}

func (s *stubPayments) CreateSession(_ context.Context, amount int64) (*domain.PaymentSession, error) {
	if amount <= 0 {
		return nil, domain.NewValidationError("amount", "amount must be a positive number of minor units")
	}
	if s.err != nil {
		return nil, s.err
	}
	return &domain.PaymentSession{ID: "order_gw", Amount: amount, Currency: "INR"}, nil
}

func (s *stubPayments) HandleCallback(_ context.Context, cb payment.Callback) (payment.Result, error) {
	s.lastCall = cb
	return s.result, s.err
}

type stubOrders struct {
	result *orderservice.Result
	err    error
	calls  int
	last   orderservice.PlaceInput
	orders []domain.Order
}

func (s *stubOrders) PlaceOrder(_ context.Context, in orderservice.PlaceInput) (*orderservice.Result, error) {
	s.calls++
	s.last = in
	return s.result, s.err
}

func (s *stubOrders) History(_ context.Context, userID string) ([]domain.Order, error) {
	out := []domain.Order{}
	for _, o := range s.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, s.err
}

type testDeps struct {
	users    *stubUsers
	products *stubProducts
	payments *stubPayments
	orders   *stubOrders
}

func newTestDeps() *testDeps {
	return &testDeps{
		users:    &stubUsers{},
		products: &stubProducts{},
		payments: &stubPayments{result: payment.Result{Status: payment.Captured}},
		orders:   &stubOrders{},
	}
}

func (d *testDeps) router(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router, err := buildRouter(logDiscard(), nil, Deps{
		Users:    d.users,
		Products: d.products,
		Payments: d.payments,
		Orders:   d.orders,
	}, Options{})
	if err != nil {
		t.Fatalf("build router: %v", err)
	}
	return router
}

func logDiscard() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func do(router http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func authed() map[string]string {
	return map[string]string{authHeader: validToken}
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
}
