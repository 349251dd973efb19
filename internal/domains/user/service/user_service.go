package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"library-backend/internal/domains/user"
	"library-backend/internal/shared/apperror"
	"library-backend/internal/shared/auth"
	"library-backend/pkg/cache"
	"library-backend/pkg/jwt"
	"library-backend/pkg/logger"
)

// Options tunes hashing cost and login throttling.
type Options struct {
	BcryptCost       int
	MaxLoginAttempts int
	LockoutDuration  time.Duration
}

func (o Options) withDefaults() Options {
	if o.BcryptCost == 0 {
		o.BcryptCost = 12
	}
	if o.MaxLoginAttempts <= 0 {
		o.MaxLoginAttempts = 5
	}
	if o.LockoutDuration <= 0 {
		o.LockoutDuration = 15 * time.Minute
	}
	return o
}

type userService struct {
	repo        user.Repository
	jwtManager  *jwt.Manager
	cache       cache.Cache
	revocations *auth.RevocationStore
	identity    auth.Provider
	opts        Options
}

func NewUserService(
	repo user.Repository,
	jwtManager *jwt.Manager,
	cache cache.Cache,
	identity auth.Provider,
	opts Options,
) user.Service {
	return &userService{
		repo:        repo,
		jwtManager:  jwtManager,
		cache:       cache,
		revocations: auth.NewRevocationStore(cache),
		identity:    identity,
		opts:        opts.withDefaults(),
	}
}

// ========================================
// AUTHENTICATION
// ========================================

func (s *userService) Register(ctx context.Context, req user.RegisterRequest) (*user.UserDTO, error) {
	if err := req.Validate(); err != nil {
		return nil, apperror.Validation(err)
	}

	exists, err := s.repo.ExistsByUsername(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("check username exists: %w", err)
	}
	if exists {
		return nil, user.ErrUsernameTaken
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.opts.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	newUser := &user.User{
		ID:           uuid.New(),
		Username:     strings.TrimSpace(req.Username),
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: string(passwordHash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// the unique index still decides when two registrations race
	if err := s.repo.Create(ctx, newUser); err != nil {
		return nil, err
	}

	dto := newUser.ToDTO()
	return &dto, nil
}

// Login checks credentials and issues tokens.
// MaxLoginAttempts failures within LockoutDuration lock the username.
func (s *userService) Login(ctx context.Context, req user.LoginRequest) (*user.LoginResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, apperror.Validation(err)
	}

	attemptsKey := loginAttemptsKey(req.Username)
	if s.isLocked(ctx, attemptsKey) {
		return nil, s.lockedError(ctx, attemptsKey)
	}

	u, err := s.repo.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			s.recordFailedAttempt(ctx, attemptsKey)
			return nil, user.ErrInvalidCredential
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		s.recordFailedAttempt(ctx, attemptsKey)
		return nil, user.ErrInvalidCredential
	}

	if err := s.cache.Delete(ctx, attemptsKey); err != nil {
		logger.Warn("reset login attempts failed", map[string]interface{}{"error": err.Error()})
	}

	return s.issueTokens(u)
}

func (s *userService) RefreshToken(ctx context.Context, refreshToken string) (*user.LoginResponse, error) {
	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, user.ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, user.ErrInvalidToken
	}

	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, user.ErrInvalidToken
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	// rotate: only the first caller presenting this token gets a new pair
	claimed, err := s.revocations.RevokeOnce(ctx, claims.ID, time.Until(claims.ExpiresAt.Time))
	if err != nil {
		logger.Warn("refresh token rotation failed", map[string]interface{}{"error": err.Error()})
	} else if !claimed {
		return nil, user.ErrInvalidToken
	}

	return s.issueTokens(u)
}

func (s *userService) Logout(ctx context.Context, claims *jwt.Claims) error {
	if _, err := s.identity.CurrentUser(ctx); err != nil {
		return err
	}
	if claims == nil || claims.ExpiresAt == nil {
		return user.ErrInvalidToken
	}
	return s.revocations.Revoke(ctx, claims.ID, time.Until(claims.ExpiresAt.Time))
}

// ========================================
// PROFILE
// ========================================

func (s *userService) GetProfile(ctx context.Context) (*user.UserDTO, error) {
	userID, err := s.identity.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}

	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	dto := u.ToDTO()
	return &dto, nil
}

// ========================================
// HELPERS
// ========================================

func (s *userService) issueTokens(u *user.User) (*user.LoginResponse, error) {
	accessToken, accessClaims, err := s.jwtManager.GenerateAccessToken(u.ID.String(), u.Username)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	refreshToken, _, err := s.jwtManager.GenerateRefreshToken(u.ID.String())
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	return &user.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresAt:    accessClaims.ExpiresAt.Time,
		User:         u.ToDTO(),
	}, nil
}

func loginAttemptsKey(username string) string {
	return "login_attempts:" + user.NormalizeUsername(username)
}

// isLocked fails open: an unreachable cache never blocks logins.
func (s *userService) isLocked(ctx context.Context, key string) bool {
	var attempts int64
	found, err := s.cache.Get(ctx, key, &attempts)
	if err != nil {
		logger.Warn("login attempts lookup failed", map[string]interface{}{"error": err.Error()})
		return false
	}
	return found && attempts >= int64(s.opts.MaxLoginAttempts)
}

// lockedError tells the client how long the lockout has left when the
// cache knows.
func (s *userService) lockedError(ctx context.Context, key string) error {
	ttl, err := s.cache.TTL(ctx, key)
	if err != nil || ttl <= 0 {
		return user.ErrTooManyAttempts
	}
	return user.ErrTooManyAttempts.WithDetails(map[string]int64{
		"retry_after_seconds": int64(ttl.Round(time.Second) / time.Second),
	})
}

func (s *userService) recordFailedAttempt(ctx context.Context, key string) {
	n, err := s.cache.IncrementWithExpiry(ctx, key, s.opts.LockoutDuration)
	if err != nil {
		logger.Warn("record failed login failed", map[string]interface{}{"error": err.Error()})
		return
	}
	if n == int64(s.opts.MaxLoginAttempts) {
		logger.Warn("username locked after failed logins", map[string]interface{}{"key": key, "attempts": n})
	}
}
