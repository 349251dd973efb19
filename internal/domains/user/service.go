package user

import (
	"context"

	"library-backend/pkg/jwt"
)

// Service is the account and authentication contract.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*UserDTO, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*LoginResponse, error)
	// Logout revokes the access token described by claims.
	Logout(ctx context.Context, claims *jwt.Claims) error
	// GetProfile returns the authenticated caller.
	GetProfile(ctx context.Context) (*UserDTO, error)
}
