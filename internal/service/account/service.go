package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"modelgallery/internal/domain"
	tokenrepo "modelgallery/internal/repository/token"
	userrepo "modelgallery/internal/repository/user"
)

var (
	// ErrInvalidCredentials is returned when email/password do not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken indicates the provided token could not be validated.
	ErrInvalidToken = errors.New("invalid token")
	// ErrInvalidSignup wraps email and password policy violations.
	ErrInvalidSignup = errors.New("invalid signup")
)

// Service handles gallery signup, login and bearer token checks.
type Service struct {
	repo        userrepo.Repository
	tokens      *tokenManager
	accessTTL   time.Duration
	passwordMin int
}

// New creates a Service with a 48h access token lifetime.
func New(repo userrepo.Repository, tokens tokenrepo.Repository) *Service {
	return &Service{
		repo:        repo,
		tokens:      newTokenManager(tokens),
		accessTTL:   48 * time.Hour,
		passwordMin: 8,
	}
}

// Signup registers a new account.
func (s *Service) Signup(ctx context.Context, email, password, displayName string) (*domain.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: valid email required", ErrInvalidSignup)
	}
	password = strings.TrimSpace(password)
	if err := validatePassword(password, s.passwordMin); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignup, err)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, domain.User{
		Email:        email,
		PasswordHash: string(hashed),
		DisplayName:  strings.TrimSpace(displayName),
	})
}

// Login validates credentials and returns the user with a fresh access token.
func (s *Service) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	password = strings.TrimSpace(password)
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}
	access, err := s.tokens.Issue(ctx, u.ID, s.accessTTL)
	if err != nil {
		return nil, "", err
	}
	return u, access, nil
}

// Authenticate returns the user bound to a valid access token.
func (s *Service) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	userID, ok := s.tokens.Validate(ctx, token)
	if !ok {
		return nil, ErrInvalidToken
	}
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return u, nil
}

// Logout revokes the token. Unknown tokens are reported as ErrInvalidToken.
func (s *Service) Logout(ctx context.Context, token string) error {
	if err := s.tokens.Revoke(ctx, token); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ErrInvalidToken
		}
		return err
	}
	return nil
}

// AccessTTLSeconds exposes the access token lifetime in seconds.
func (s *Service) AccessTTLSeconds() int {
	return int(s.accessTTL.Seconds())
}

func validatePassword(p string, min int) error {
	if len(p) < min {
		return fmt.Errorf("password must be at least %d characters", min)
	}
	hasUpper := false
	hasLower := false
	hasDigit := false
	for _, r := range p {
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
