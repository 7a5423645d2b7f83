package auth

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/farmcore/farmcore/internal/shared"
)

// RepositoryPort abstracts user lookups.
type RepositoryPort interface {
	GetUserByEmail(ctx context.Context, email string) (User, error)
}

// Service authenticates users and issues tokens.
type Service struct {
	repo   RepositoryPort
	tokens *TokenIssuer
}

// NewService builds Service.
func NewService(repo RepositoryPort, tokens *TokenIssuer) *Service {
	return &Service{repo: repo, tokens: tokens}
}

// Login verifies the credentials and returns a signed token. Credential
// failures are indistinguishable from unknown accounts.
func (s *Service) Login(ctx context.Context, input LoginInput) (LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.Password == "" {
		return LoginResult{}, shared.E(shared.KindValidation, "email and password are required")
	}
	u, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if shared.IsKind(err, shared.KindNotFound) {
			return LoginResult{}, shared.E(shared.KindUnauthorized, "invalid credentials")
		}
		return LoginResult{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(input.Password)) != nil {
		return LoginResult{}, shared.E(shared.KindUnauthorized, "invalid credentials")
	}
	token, expires, err := s.tokens.Issue(u)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{
		Token:     token,
		ExpiresAt: expires,
		UserID:    u.ID,
		FarmID:    u.FarmID,
		Name:      u.Name,
		Role:      u.Role,
	}, nil
}

// HashPassword produces a bcrypt hash for storage.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
