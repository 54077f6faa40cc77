package user

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"log"
	"math/big"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"storefront/internal/domain"
	otprepo "storefront/internal/repository/otp"
	userrepo "storefront/internal/repository/user"
	"storefront/internal/validation"
)

// Service handles registration, login, profile and password-reset flows.
type Service struct {
	repo        userrepo.Repository
	otps        otprepo.Repository
	tokens      *TokenManager
	notifier    Notifier
	otpTTL      time.Duration
	passwordMin int
	logger      *log.Logger
}

// Options tunes optional collaborators of Service.
type Options struct {
	OTPTTL   time.Duration
	Notifier Notifier
	Logger   *log.Logger
}

// New creates a Service with sane defaults.
func New(repo userrepo.Repository, otps otprepo.Repository, tokens *TokenManager, opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = NewLogNotifier(logger)
	}
	ttl := opts.OTPTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Service{
		repo:        repo,
		otps:        otps,
		tokens:      tokens,
		notifier:    notifier,
		otpTTL:      ttl,
		passwordMin: 8,
		logger:      logger,
	}
}

// RegisterInput captures fields expected by the registration endpoint.
type RegisterInput struct {
	Name     string `json:"name" validate:"required,min=3"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required,digits,min=10,max=15"`
	Image    string `json:"image"`
	City     string `json:"city" validate:"required,min=3"`
	State    string `json:"state" validate:"required,min=3"`
	District string `json:"district" validate:"required,min=3"`
	Pincode  string `json:"pincode" validate:"required,digits,min=6,max=10"`
	Address  string `json:"address" validate:"required,min=3"`
	Password string `json:"password" validate:"required"`
}

// UpdateInput carries optional profile changes; nil fields are left untouched.
type UpdateInput struct {
	Name     *string `json:"name" validate:"omitempty,min=3"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Phone    *string `json:"phone" validate:"omitempty,digits,min=10,max=15"`
	Image    *string `json:"image"`
	City     *string `json:"city" validate:"omitempty,min=3"`
	State    *string `json:"state" validate:"omitempty,min=3"`
	District *string `json:"district" validate:"omitempty,min=3"`
	Pincode  *string `json:"pincode" validate:"omitempty,digits,min=6,max=10"`
	Address  *string `json:"address" validate:"omitempty,min=3"`
	Password *string `json:"password"`
}

// Register creates a user and returns a bearer token for it.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*domain.User, string, error) {
	in = trimRegister(in)
	verr := validation.Struct(in)
	if in.Password != "" {
		if err := validatePassword(in.Password, s.passwordMin); err != nil {
			verr.Add("password", err.Error())
		}
	}
	if err := verr.OrNil(); err != nil {
		return nil, "", err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}
	u, err := s.repo.Create(ctx, domain.User{
		Name:         in.Name,
		Email:        strings.ToLower(in.Email),
		Phone:        in.Phone,
		Image:        in.Image,
		City:         in.City,
		State:        in.State,
		District:     in.District,
		Pincode:      in.Pincode,
		Address:      in.Address,
		PasswordHash: string(hashed),
	})
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, "", fmt.Errorf("email or phone already registered: %w", err)
		}
		return nil, "", err
	}
	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		return nil, "", err
	}
	s.logger.Printf("user service: registered id=%s", u.ID)
	return u, token, nil
}

// Login validates credentials and returns the user with a fresh token.
// Unknown email and wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	email = strings.TrimSpace(email)
	password = strings.TrimSpace(password)
	if email == "" || password == "" {
		return nil, "", domain.ErrInvalidCredentials
	}
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "", domain.ErrInvalidCredentials
		}
		return nil, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, "", domain.ErrInvalidCredentials
	}
	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// Authenticate resolves a bearer token to its user.
func (s *Service) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	id, err := s.tokens.Validate(token)
	if err != nil {
		return nil, err
	}
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidToken
		}
		return nil, err
	}
	return u, nil
}

// Details returns the profile of userID.
func (s *Service) Details(ctx context.Context, userID string) (*domain.User, error) {
	return s.repo.GetByID(ctx, userID)
}

// Exists reports whether userID references a registered user.
func (s *Service) Exists(ctx context.Context, userID string) (bool, error) {
	_, err := s.repo.GetByID(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Update applies a self-service profile change. actorID must equal targetID.
func (s *Service) Update(ctx context.Context, actorID, targetID string, in UpdateInput) (*domain.User, error) {
	if actorID != targetID {
		return nil, domain.ErrForbidden
	}
	in = trimUpdate(in)
	verr := validation.Struct(in)
	if in.Password != nil {
		if err := validatePassword(*in.Password, s.passwordMin); err != nil {
			verr.Add("password", err.Error())
		}
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	u, err := s.repo.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	apply := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	apply(&u.Name, in.Name)
	apply(&u.Phone, in.Phone)
	apply(&u.Image, in.Image)
	apply(&u.City, in.City)
	apply(&u.State, in.State)
	apply(&u.District, in.District)
	apply(&u.Pincode, in.Pincode)
	apply(&u.Address, in.Address)
	if in.Email != nil {
		u.Email = strings.ToLower(*in.Email)
	}
	if in.Password != nil {
		hashed, err := bcrypt.GenerateFromPassword([]byte(*in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		u.PasswordHash = string(hashed)
	}
	updated, err := s.repo.Update(ctx, *u)
	if err != nil {
		return nil, err
	}
	s.logger.Printf("user service: updated id=%s", updated.ID)
	return updated, nil
}

// ForgotPassword issues a one-time code for email and hands it to the notifier.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return domain.NewValidationError("email", "is required")
	}
	if _, err := s.repo.GetByEmail(ctx, email); err != nil {
		return err
	}
	code, err := generateOTP()
	if err != nil {
		return err
	}
	if err := s.otps.Save(ctx, email, code, s.otpTTL); err != nil {
		return err
	}
	if err := s.notifier.SendOTP(ctx, email, code); err != nil {
		s.logger.Printf("user service: deliver otp email=%s err=%v", email, err)
		return fmt.Errorf("deliver otp: %w", domain.ErrUpstream)
	}
	return nil
}

// VerifyOTP checks a pending code without consuming it.
func (s *Service) VerifyOTP(ctx context.Context, email, code string) error {
	return s.checkOTP(ctx, strings.ToLower(strings.TrimSpace(email)), strings.TrimSpace(code))
}

// ResetPassword replaces the password after a successful code check and consumes the code.
func (s *Service) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	newPassword = strings.TrimSpace(newPassword)
	if err := validatePassword(newPassword, s.passwordMin); err != nil {
		return domain.NewValidationError("newPassword", err.Error())
	}
	if err := s.checkOTP(ctx, email, strings.TrimSpace(code)); err != nil {
		return err
	}
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePassword(ctx, u.ID, string(hashed)); err != nil {
		return err
	}
	if err := s.otps.Delete(ctx, email); err != nil {
		s.logger.Printf("user service: delete otp email=%s err=%v", email, err)
	}
	s.logger.Printf("user service: password reset id=%s", u.ID)
	return nil
}

func (s *Service) checkOTP(ctx context.Context, email, code string) error {
	if email == "" || code == "" {
		verr := &domain.ValidationError{}
		if email == "" {
			verr.Add("email", "is required")
		}
		if code == "" {
			verr.Add("otp", "is required")
		}
		return verr
	}
	stored, err := s.otps.Get(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NewValidationError("otp", "invalid or expired")
		}
		return err
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		return domain.NewValidationError("otp", "invalid or expired")
	}
	return nil
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func trimRegister(in RegisterInput) RegisterInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Image = strings.TrimSpace(in.Image)
	in.City = strings.TrimSpace(in.City)
	in.State = strings.TrimSpace(in.State)
	in.District = strings.TrimSpace(in.District)
	in.Pincode = strings.TrimSpace(in.Pincode)
	in.Address = strings.TrimSpace(in.Address)
	in.Password = strings.TrimSpace(in.Password)
	return in
}

func trimUpdate(in UpdateInput) UpdateInput {
	for _, f := range []**string{&in.Name, &in.Email, &in.Phone, &in.Image, &in.City, &in.State, &in.District, &in.Pincode, &in.Address, &in.Password} {
		if *f != nil {
			v := strings.TrimSpace(**f)
			*f = &v
		}
	}
	return in
}

func validatePassword(p string, min int) error {
	trimmed := strings.TrimSpace(p)
	if len(trimmed) < min {
		return fmt.Errorf("password must be at least %d characters", min)
	}
	hasUpper := false
	hasLower := false
	hasDigit := false
	for _, r := range trimmed {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasDigit = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit {
		return errors.New("password must contain at least 1 uppercase letter, 1 lowercase letter, and 1 number")
	}
	return nil
}
