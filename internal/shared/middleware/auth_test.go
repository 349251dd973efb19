package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-backend/internal/shared/auth"
	"library-backend/pkg/jwt"
)

type stubRevocations struct {
	revoked map[string]bool
	err     error
}

func (s stubRevocations) IsRevoked(_ context.Context, jti string) (bool, error) {
	return s.revoked[jti], s.err
}

func newAuthRouter(manager *jwt.Manager, revocations RevocationChecker) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", AuthMiddleware(manager, revocations), func(c *gin.Context) {
		id, err := auth.NewContextProvider().CurrentUser(c.Request.Context())
		if err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, id.String())
	})
	return r
}

func get(r http.Handler, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware_BindsCaller(t *testing.T) {
	manager := jwt.NewManager("secret", time.Minute, time.Hour)
	userID := uuid.New()
	token, _, err := manager.GenerateAccessToken(userID.String(), "alice")
	require.NoError(t, err)

	w := get(newAuthRouter(manager, nil), "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, userID.String(), w.Body.String())
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	manager := jwt.NewManager("secret", time.Minute, time.Hour)
	refresh, _, err := manager.GenerateRefreshToken(uuid.NewString())
	require.NoError(t, err)
	badSubject, _, err := manager.GenerateAccessToken("not-a-uuid", "x")
	require.NoError(t, err)

	r := newAuthRouter(manager, nil)
	for name, header := range map[string]string{
		"missing":       "",
		"wrong scheme":  "Basic abc",
		"empty token":   "Bearer ",
		"garbage":       "Bearer abc.def.ghi",
		"refresh token": "Bearer " + refresh,
		"bad subject":   "Bearer " + badSubject,
	} {
		assert.Equal(t, http.StatusUnauthorized, get(r, header).Code, name)
	}
}

func TestAuthMiddleware_Revoked(t *testing.T) {
	manager := jwt.NewManager("secret", time.Minute, time.Hour)
	token, claims, err := manager.GenerateAccessToken(uuid.NewString(), "alice")
	require.NoError(t, err)

	r := newAuthRouter(manager, stubRevocations{revoked: map[string]bool{claims.ID: true}})
	assert.Equal(t, http.StatusUnauthorized, get(r, "Bearer "+token).Code)
}

func TestAuthMiddleware_RevocationLookupFailsOpen(t *testing.T) {
	manager := jwt.NewManager("secret", time.Minute, time.Hour)
	token, _, err := manager.GenerateAccessToken(uuid.NewString(), "alice")
	require.NoError(t, err)

	r := newAuthRouter(manager, stubRevocations{err: errors.New("redis down")})
	assert.Equal(t, http.StatusOK, get(r, "Bearer "+token).Code)
}
