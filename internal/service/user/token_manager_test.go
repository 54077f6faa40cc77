package user

import (
	"errors"
	"testing"
	"time"

	"storefront/internal/domain"
)

func TestTokenManager_IssueAndValidate(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)
	token, err := m.Issue("user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	id, err := m.Validate(token)
	if err != nil || id != "user-1" {
		t.Fatalf("validate: id=%q err=%v", id, err)
	}
}

func TestTokenManager_RejectsExpiredAndForeign(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewTokenManager("secret", time.Hour)
	m.now = func() time.Time { return now }
	token, err := m.Issue("user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	now = now.Add(2 * time.Hour)
	if _, err := m.Validate(token); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected expired token to be invalid, got %v", err)
	}

	other := NewTokenManager("other-secret", time.Hour)
	foreign, err := other.Issue("user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := NewTokenManager("secret", time.Hour).Validate(foreign); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected foreign token to be invalid, got %v", err)
	}
	for _, bad := range []string{"", "garbage", "a.b.c"} {
		if _, err := m.Validate(bad); !errors.Is(err, domain.ErrInvalidToken) {
			t.Fatalf("expected %q to be invalid, got %v", bad, err)
		}
	}
}
