package httpserver

import (
	"net/http"
	"strings"
	"testing"

	"storefront/internal/domain"
)

func TestRegister_ReturnsToken(t *testing.T) {
	router := newTestDeps().router(t)
	body := `{"name":"Alice","email":"alice@example.com","phone":"9876543210","city":"Pune","state":"Maharashtra","district":"Pune","pincode":"411001","address":"12 FC Road","password":"Secret123"}`
	rec := do(router, http.MethodPost, "/api/user", body, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	var resp tokenResponse
	decode(t, rec, &resp)
	if resp.Token != "new-token" {
		t.Fatalf("unexpected token %q", resp.Token)
	}
}

func TestRegister_ValidationAndConflict(t *testing.T) {
	d := newTestDeps()
	verr := domain.NewValidationError("email", "must be a valid email address")
	verr.Add("phone", "must contain only digits")
	d.users.registerErr = verr
	router := d.router(t)

	rec := do(router, http.MethodPost, "/api/user", `{"email":"nope"}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var resp errorResponse
	decode(t, rec, &resp)
	if len(resp.Errors) != 2 || resp.Errors[0].Field != "email" || resp.Errors[1].Field != "phone" {
		t.Fatalf("unexpected field errors: %+v", resp.Errors)
	}

	d.users.registerErr = domain.ErrAlreadyExists
	rec = do(router, http.MethodPost, "/api/user", `{"email":"alice@example.com"}`, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestRegister_MalformedJSON(t *testing.T) {
	router := newTestDeps().router(t)
	rec := do(router, http.MethodPost, "/api/user", `{"email":`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestLogin(t *testing.T) {
	d := newTestDeps()
	router := d.router(t)

	rec := do(router, http.MethodPost, "/api/user/login", `{"email":"alice@example.com","password":"Secret123"}`, nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "login-token") {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}

	d.users.loginErr = domain.ErrInvalidCredentials
	rec = do(router, http.MethodPost, "/api/user/login", `{"email":"alice@example.com","password":"wrong"}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Invalid email or password") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestLogin_MissingFieldNamesJSONField(t *testing.T) {
	d := newTestDeps()
	rec := do(d.router(t), http.MethodPost, "/api/user/login", `{"email":"alice@example.com"}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var resp errorResponse
	decode(t, rec, &resp)
	if len(resp.Errors) != 1 || resp.Errors[0].Field != "password" {
		t.Fatalf("unexpected field errors: %+v", resp.Errors)
	}
	if d.users.lastLogin != "" {
		t.Fatalf("service called with invalid body")
	}
}

func TestUpdateUser_OnlySelf(t *testing.T) {
	d := newTestDeps()
	router := d.router(t)

	rec := do(router, http.MethodPut, "/api/user/"+alice.ID, `{"city":"Mumbai"}`, authed())
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = do(router, http.MethodPut, "/api/user/u-bob", `{"city":"Mumbai"}`, authed())
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if d.users.lastUpdate.actor != alice.ID || d.users.lastUpdate.target != "u-bob" {
		t.Fatalf("unexpected ids: %+v", d.users.lastUpdate)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	d := newTestDeps()
	router := d.router(t)

	rec := do(router, http.MethodPost, "/api/user/forgot-password", `{"email":"ghost@example.com"}`, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	rec = do(router, http.MethodPost, "/api/user/forgot-password", `{"email":"alice@example.com"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	rec = do(router, http.MethodPost, "/api/user/verify-otp", `{"email":"alice@example.com","otp":"000000"}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	rec = do(router, http.MethodPost, "/api/user/verify-otp", `{"email":"alice@example.com","otp":"123456"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	rec = do(router, http.MethodPost, "/api/user/reset-password", `{"email":"alice@example.com","otp":"123456","newPassword":"NewSecret1"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
