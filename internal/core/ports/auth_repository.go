package ports

import (
	"context"

	"github.com/studyhub/materials-portal/internal/core/domain"
)

// AuthRepository defines the interface for user credential persistence.
type AuthRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// Create persists a new user and returns it with its generated ID.
	// Returns domain.ErrDuplicateEmail when the email is already taken.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	Ping(ctx context.Context) error
}
