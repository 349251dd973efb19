package user

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the user data access contract.
type Repository interface {
	// Create returns ErrUsernameTaken when the (normalized) username exists.
	Create(ctx context.Context, user *User) error

	// FindByID returns ErrUserNotFound when absent.
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)

	// FindByUsername matches case-insensitively. Returns ErrUserNotFound when absent.
	FindByUsername(ctx context.Context, username string) (*User, error)

	ExistsByUsername(ctx context.Context, username string) (bool, error)
}
