package user

import "library-backend/internal/shared/apperror"

// Repository-level errors
var (
	ErrUserNotFound      = apperror.NotFound("USER_NOT_FOUND", "user not found")
	ErrUsernameTaken     = apperror.Conflict("USERNAME_TAKEN", "username already exists")
	ErrInvalidCredential = apperror.Unauthenticated("INVALID_CREDENTIALS", "invalid username or password")
)

// Service-level errors
var (
	ErrTooManyAttempts = apperror.RateLimited("TOO_MANY_ATTEMPTS", "too many login attempts, please try again later")
	ErrInvalidToken    = apperror.Unauthenticated("INVALID_TOKEN", "invalid or expired token")
)
