package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"eshop/internal/models"
	"eshop/internal/repositories"
	"eshop/pkg/password"

	"github.com/sirupsen/logrus"
)

var (
	ErrAccountNotFound = errors.New("user not found")
	ErrInvalidPassword = errors.New("invalid password")
	ErrUsernameTaken   = errors.New("username already exists")
	ErrEmailTaken      = errors.New("email already exists")
	ErrMobileTaken     = errors.New("mobile number already exists")
	ErrAccountCreate   = errors.New("failed to create user")
)

// IdentifierKind names the account column a login identifier is matched against.
type IdentifierKind string

const (
	IdentifierEmail    IdentifierKind = "email"
	IdentifierMobile   IdentifierKind = "mobile"
	IdentifierUsername IdentifierKind = "username"
)

// ClassifyIdentifier picks the lookup column for a login identifier: anything with
// an "@" is an email, a non-empty run of ASCII digits is a mobile number, and
// everything else is a username.
func ClassifyIdentifier(identifier string) IdentifierKind {
	if strings.Contains(identifier, "@") {
		return IdentifierEmail
	}
	if identifier != "" && strings.Trim(identifier, "0123456789") == "" {
		return IdentifierMobile
	}
	return IdentifierUsername
}

// AuthService handles account registration and credential checks.
type AuthService struct {
	userRepo repositories.UserRepository
	params   password.Params
	log      logrus.FieldLogger
}

// NewAuthService creates a new AuthService hashing with password.DefaultParams.
func NewAuthService(userRepo repositories.UserRepository, log logrus.FieldLogger) *AuthService {
	return NewAuthServiceWithParams(userRepo, password.DefaultParams, log)
}

// NewAuthServiceWithParams creates a new AuthService with explicit hashing cost.
func NewAuthServiceWithParams(userRepo repositories.UserRepository, params password.Params, log logrus.FieldLogger) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		params:   params,
		log:      log,
	}
}

// Register creates an account after checking that username, email and mobile are
// all unused, in that order.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	checks := []struct {
		lookup func(context.Context, string) (*models.User, error)
		value  string
		taken  error
	}{
		{s.userRepo.GetByUsername, req.Username, ErrUsernameTaken},
		{s.userRepo.GetByEmail, req.Email, ErrEmailTaken},
		{s.userRepo.GetByMobile, req.Mobile, ErrMobileTaken},
	}
	for _, check := range checks {
		_, err := check.lookup(ctx, check.value)
		if err == nil {
			return nil, check.taken
		}
		if !errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("failed to check existing accounts: %w", err)
		}
	}

	hashed, err := password.HashWithParams(req.Password, s.params)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username: req.Username,
		Email:    req.Email,
		Mobile:   req.Mobile,
		Password: hashed,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAccountCreate, err)
	}

	s.log.WithFields(logrus.Fields{"user_id": user.ID, "username": user.Username}).Info("account registered")
	return user, nil
}

// Authenticate checks identifier and secret against exactly one account and
// returns its public projection.
func (s *AuthService) Authenticate(ctx context.Context, identifier, secret string) (*models.UserView, error) {
	kind := ClassifyIdentifier(identifier)

	var (
		user *models.User
		err  error
	)
	switch kind {
	case IdentifierEmail:
		user, err = s.userRepo.GetByEmail(ctx, identifier)
	case IdentifierMobile:
		user, err = s.userRepo.GetByMobile(ctx, identifier)
	default:
		user, err = s.userRepo.GetByUsername(ctx, identifier)
	}
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up account by %s: %w", kind, err)
	}

	if err := password.Verify(user.Password, secret); err != nil {
		if !errors.Is(err, password.ErrMismatch) {
			s.log.WithField("user_id", user.ID).WithError(err).Error("stored password hash is unusable")
		}
		return nil, ErrInvalidPassword
	}

	s.upgradeHash(ctx, user, secret)

	view := user.View()
	return &view, nil
}

// upgradeHash rewrites legacy or weaker hashes after a successful login.
func (s *AuthService) upgradeHash(ctx context.Context, user *models.User, secret string) {
	if !password.NeedsRehashWithParams(user.Password, s.params) {
		return
	}
	entry := s.log.WithField("user_id", user.ID)
	hashed, err := password.HashWithParams(secret, s.params)
	if err != nil {
		entry.WithError(err).Warn("failed to rehash password")
		return
	}
	if err := s.userRepo.UpdatePassword(ctx, user.ID, hashed); err != nil {
		entry.WithError(err).Warn("failed to store upgraded password hash")
		return
	}
	entry.Info("password hash upgraded")
}
