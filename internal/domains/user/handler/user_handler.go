package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"library-backend/internal/domains/user"
	"library-backend/internal/shared/middleware"
	"library-backend/internal/shared/response"
	"library-backend/internal/shared/utils"
)

// UserHandler serves the auth and profile endpoints
type UserHandler struct {
	service user.Service
}

func NewUserHandler(service user.Service) *UserHandler {
	return &UserHandler{service: service}
}

// ========================================
// AUTHENTICATION ENDPOINTS
// ========================================

// Register handles POST /auth/register
func (h *UserHandler) Register(c *gin.Context) {
	var req user.RegisterRequest
	if err := utils.BindJSON(c, &req); err != nil {
		response.HandleError(c, err)
		return
	}

	userDTO, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	c.Header("Location", "/api/v1/users/me")
	response.Success(c, http.StatusCreated, "User registered successfully", userDTO)
}

// Login handles POST /auth/login
func (h *UserHandler) Login(c *gin.Context) {
	var req user.LoginRequest
	if err := utils.BindJSON(c, &req); err != nil {
		response.HandleError(c, err)
		return
	}

	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Login successful", res)
}

// RefreshToken handles POST /auth/refresh
func (h *UserHandler) RefreshToken(c *gin.Context) {
	var req user.RefreshTokenRequest
	if err := utils.BindJSON(c, &req); err != nil {
		response.HandleError(c, err)
		return
	}
	if err := req.Validate(); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed", err)
		return
	}

	res, err := h.service.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Token refreshed", res)
}

// Logout handles POST /auth/logout (authenticated)
func (h *UserHandler) Logout(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		response.Unauthorized(c, "missing token claims")
		return
	}

	if err := h.service.Logout(c.Request.Context(), claims); err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Logged out", nil)
}

// ========================================
// PROFILE ENDPOINTS
// ========================================

// GetProfile handles GET /users/me
func (h *UserHandler) GetProfile(c *gin.Context) {
	profile, err := h.service.GetProfile(c.Request.Context())
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "", profile)
}
