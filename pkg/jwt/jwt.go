package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Claims represents JWT claims structure.
// RegisteredClaims.ID carries the token id (jti) used for revocation.
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username,omitempty"`
	Type     string `json:"type"` // "access" or "refresh"
	jwt.RegisteredClaims
}

// Manager handles JWT operations
type Manager struct {
	secret     string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewManager creates new JWT manager
func NewManager(secret string, accessTTL, refreshTTL time.Duration) *Manager {
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 72 * time.Hour
	}
	return &Manager{secret: secret, accessTTL: accessTTL, refreshTTL: refreshTTL}
}

func (m *Manager) AccessTTL() time.Duration {
	return m.accessTTL
}

// GenerateAccessToken signs a short lived access token for the user.
func (m *Manager) GenerateAccessToken(userID, username string) (string, *Claims, error) {
	return m.sign(userID, username, TokenTypeAccess, m.accessTTL)
}

// GenerateRefreshToken signs a refresh token. It carries no username.
func (m *Manager) GenerateRefreshToken(userID string) (string, *Claims, error) {
	return m.sign(userID, "", TokenTypeRefresh, m.refreshTTL)
}

func (m *Manager) sign(userID, username, tokenType string, ttl time.Duration) (string, *Claims, error) {
	now := time.Now()
	claims := &Claims{
		UserID:   userID,
		Username: username,
		Type:     tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(m.secret))
	if err != nil {
		return "", nil, fmt.Errorf("sign %s token: %w", tokenType, err)
	}
	return signed, claims, nil
}

// ValidateToken validates and parses token
func (m *Manager) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(m.secret), nil
	})

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	return claims, nil
}

// ValidateAccessToken validates access token specifically
func (m *Manager) ValidateAccessToken(tokenString string) (*Claims, error) {
	return m.validateType(tokenString, TokenTypeAccess)
}

// ValidateRefreshToken validates refresh token specifically
func (m *Manager) ValidateRefreshToken(tokenString string) (*Claims, error) {
	return m.validateType(tokenString, TokenTypeRefresh)
}

func (m *Manager) validateType(tokenString, want string) (*Claims, error) {
	claims, err := m.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	if claims.Type != want {
		return nil, fmt.Errorf("invalid token type: expected %s, got %s", want, claims.Type)
	}

	return claims, nil
}
