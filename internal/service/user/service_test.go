package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"storefront/internal/domain"
	otprepo "storefront/internal/repository/otp"
)

// memoryRepo is a lightweight in-memory user repository for tests.
type memoryRepo struct {
	byID map[string]domain.User
	seq  int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{byID: make(map[string]domain.User)}
}

func (r *memoryRepo) conflicts(u domain.User) bool {
	for id, existing := range r.byID {
		if id == u.ID {
			continue
		}
		if strings.EqualFold(existing.Email, u.Email) || existing.Phone == u.Phone {
			return true
		}
	}
	return false
}

func (r *memoryRepo) Create(_ context.Context, u domain.User) (*domain.User, error) {
	if r.conflicts(u) {
		return nil, domain.ErrAlreadyExists
	}
	r.seq++
	u.ID = fmt.Sprintf("user-%d", r.seq)
	u.CreatedAt = time.Now()
	r.byID[u.ID] = u
	clone := u
	return &clone, nil
}

func (r *memoryRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.byID {
		if strings.EqualFold(u.Email, email) {
			clone := u
			return &clone, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memoryRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

func (r *memoryRepo) Update(_ context.Context, u domain.User) (*domain.User, error) {
	if _, ok := r.byID[u.ID]; !ok {
		return nil, domain.ErrNotFound
	}
	if r.conflicts(u) {
		return nil, domain.ErrAlreadyExists
	}
	r.byID[u.ID] = u
	return &u, nil
}

func (r *memoryRepo) UpdatePassword(_ context.Context, id, hash string) error {
	u, ok := r.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.PasswordHash = hash
	r.byID[id] = u
	return nil
}

type captureNotifier struct {
	codes map[string]string
	err   error
}

func (n *captureNotifier) SendOTP(_ context.Context, email, code string) error {
	if n.err != nil {
		return n.err
	}
	if n.codes == nil {
		n.codes = map[string]string{}
	}
	n.codes[email] = code
	return nil
}

func newTestService() (*Service, *memoryRepo, *captureNotifier) {
	repo := newMemoryRepo()
	notifier := &captureNotifier{}
	svc := New(repo, otprepo.NewMemory(), NewTokenManager("test-secret", time.Hour), Options{Notifier: notifier})
	return svc, repo, notifier
}

func validRegistration() RegisterInput {
	return RegisterInput{
		Name:     "Asha Rao",
		Email:    "Asha@Example.com",
		Phone:    "9876543210",
		City:     "Pune",
		State:    "Maharashtra",
		District: "Pune",
		Pincode:  "411001",
		Address:  "12 FC Road",
		Password: " Abcdefg1 ",
	}
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	u, token, err := svc.Register(ctx, validRegistration())
	if err != nil {
		t.Fatalf("register returned error: %v", err)
	}
	if u.Email != "asha@example.com" || token == "" {
		t.Fatalf("unexpected register result %+v token=%q", u, token)
	}

	got, err := svc.Authenticate(ctx, token)
	if err != nil || got.ID != u.ID {
		t.Fatalf("authenticate: user=%+v err=%v", got, err)
	}

	if _, _, err := svc.Login(ctx, "asha@example.com", "Abcdefg1"); err != nil {
		t.Fatalf("login failed with trimmed password: %v", err)
	}
}

func TestRegisterValidationEnumeratesFields(t *testing.T) {
	svc, _, _ := newTestService()
	in := validRegistration()
	in.Name = "Al"
	in.Phone = "12345"
	in.Pincode = "41100a"
	in.Password = "weak"

	_, _, err := svc.Register(context.Background(), in)
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	fields := map[string]bool{}
	for _, f := range verr.Fields {
		fields[f.Field] = true
	}
	for _, want := range []string{"name", "phone", "pincode", "password"} {
		if !fields[want] {
			t.Fatalf("expected %s in %v", want, verr.Fields)
		}
	}
}

func TestRegisterDuplicate(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	if _, _, err := svc.Register(ctx, validRegistration()); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, _, err := svc.Register(ctx, validRegistration()); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestValidatePassword_FailsOnWeakValues(t *testing.T) {
	cases := []struct {
		name string
		pass string
	}{
		{"too short", "Abc1"},
		{"no upper", "abcdefg1"},
		{"no lower", "ABCDEFG1"},
		{"no digit", "Abcdefgh"},
	}
	for _, tc := range cases {
		if err := validatePassword(tc.pass, 8); err == nil {
			t.Fatalf("expected error for case %s", tc.name)
		}
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	if _, _, err := svc.Register(ctx, validRegistration()); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, _, err := svc.Login(ctx, "asha@example.com", "wrongpass"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := svc.Login(ctx, "missing@example.com", "Abcdefg1"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for missing user, got %v", err)
	}
}

func TestUpdate_SelfOnlyAndHashesPassword(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()
	u, _, err := svc.Register(ctx, validRegistration())
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	city := "Mumbai"
	if _, err := svc.Update(ctx, "someone-else", u.ID, UpdateInput{City: &city}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	pw := "Newpass99"
	updated, err := svc.Update(ctx, u.ID, u.ID, UpdateInput{City: &city, Password: &pw})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.City != "Mumbai" || updated.Name != "Asha Rao" {
		t.Fatalf("unexpected updated user %+v", updated)
	}
	if repo.byID[u.ID].PasswordHash == pw {
		t.Fatalf("password stored in plain text")
	}
	if _, _, err := svc.Login(ctx, "asha@example.com", pw); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	svc, _, notifier := newTestService()
	ctx := context.Background()
	if _, _, err := svc.Register(ctx, validRegistration()); err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := svc.ForgotPassword(ctx, "nobody@example.com"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown email, got %v", err)
	}
	if err := svc.ForgotPassword(ctx, "ASHA@example.com"); err != nil {
		t.Fatalf("forgot password: %v", err)
	}
	code := notifier.codes["asha@example.com"]
	if len(code) != 6 {
		t.Fatalf("expected 6 digit code, got %q", code)
	}

	var verr *domain.ValidationError
	if err := svc.VerifyOTP(ctx, "asha@example.com", "000000x"); !errors.As(err, &verr) {
		t.Fatalf("expected validation error for wrong code, got %v", err)
	}
	if err := svc.VerifyOTP(ctx, "asha@example.com", code); err != nil {
		t.Fatalf("verify otp: %v", err)
	}
	if err := svc.ResetPassword(ctx, "asha@example.com", code, "Changed123"); err != nil {
		t.Fatalf("reset password: %v", err)
	}
	if _, _, err := svc.Login(ctx, "asha@example.com", "Changed123"); err != nil {
		t.Fatalf("login after reset: %v", err)
	}
	if err := svc.ResetPassword(ctx, "asha@example.com", code, "Another123"); !errors.As(err, &verr) {
		t.Fatalf("expected consumed code to be rejected, got %v", err)
	}
}

func TestForgotPassword_NotifierFailure(t *testing.T) {
	svc, _, notifier := newTestService()
	ctx := context.Background()
	if _, _, err := svc.Register(ctx, validRegistration()); err != nil {
		t.Fatalf("register: %v", err)
	}
	notifier.err = errors.New("smtp down")
	if err := svc.ForgotPassword(ctx, "asha@example.com"); !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
}
