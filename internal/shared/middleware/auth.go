package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"library-backend/internal/shared/auth"
	"library-backend/internal/shared/response"
	"library-backend/pkg/jwt"
	"library-backend/pkg/logger"
)

const (
	ContextUserID = "userID"
	ContextClaims = "claims"
)

// RevocationChecker reports whether a token id was revoked by logout.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// AuthMiddleware validates the bearer access token and binds the caller's id
// to both the gin context and the request context.
// A failing revocation lookup is logged and the token accepted.
func AuthMiddleware(jwtManager *jwt.Manager, revocations RevocationChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
			response.Unauthorized(c, "invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := jwtManager.ValidateAccessToken(strings.TrimSpace(parts[1]))
		if err != nil {
			response.Unauthorized(c, "invalid token")
			c.Abort()
			return
		}

		userID, err := uuid.Parse(claims.UserID)
		if err != nil || userID == uuid.Nil {
			response.Unauthorized(c, "invalid user ID in token")
			c.Abort()
			return
		}

		if revocations != nil {
			revoked, err := revocations.IsRevoked(c.Request.Context(), claims.ID)
			if err != nil {
				logger.Warn("token revocation lookup failed", map[string]interface{}{
					"request_id": c.GetString("request_id"),
					"error":      err.Error(),
				})
			} else if revoked {
				response.Unauthorized(c, "token has been revoked")
				c.Abort()
				return
			}
		}

		c.Set(ContextUserID, userID)
		c.Set(ContextClaims, claims)
		c.Request = c.Request.WithContext(auth.WithUser(c.Request.Context(), userID))

		c.Next()
	}
}

// GetClaims returns the access token claims stored by AuthMiddleware.
func GetClaims(c *gin.Context) (*jwt.Claims, bool) {
	v, ok := c.Get(ContextClaims)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*jwt.Claims)
	return claims, ok
}
