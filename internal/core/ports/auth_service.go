package ports

import (
	"context"

	"github.com/studyhub/materials-portal/internal/core/domain"
)

// RegisterInput carries the fields collected by the registration form.
type RegisterInput struct {
	Name       string
	Email      string
	Password   string
	Department string
	Role       string
}

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (string, *domain.User, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
	Verify(token string) (*domain.Identity, error)
}

// TokenService issues and verifies signed identity tokens.
type TokenService interface {
	Issue(user *domain.User) (string, error)
	Verify(token string) (*domain.Identity, error)
}
