package auth

import (
	"context"

	"github.com/google/uuid"

	"library-backend/internal/shared/apperror"
)

var ErrUnauthenticated = apperror.Unauthenticated("AUTH_REQUIRED", "Authentication required")

// Provider resolves the user on whose behalf an operation runs.
type Provider interface {
	CurrentUser(ctx context.Context) (uuid.UUID, error)
}

type userKey struct{}

// WithUser binds the authenticated user id to ctx.
func WithUser(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, userKey{}, userID)
}

// UserFromContext returns the id bound by WithUser.
func UserFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(userKey{}).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

// ContextProvider reads the caller from the request context.
type ContextProvider struct{}

func NewContextProvider() *ContextProvider {
	return &ContextProvider{}
}

func (ContextProvider) CurrentUser(ctx context.Context) (uuid.UUID, error) {
	id, ok := UserFromContext(ctx)
	if !ok {
		return uuid.Nil, ErrUnauthenticated
	}
	return id, nil
}
