package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"library-backend/internal/shared/middleware"
	"library-backend/pkg/container"
)

func SetupRouter(c *container.Container) *gin.Engine {
	router := gin.New()

	// Global middlewares
	router.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.CORS(c.Config.App.AllowedOrigins),
	)

	authRequired := middleware.AuthMiddleware(c.JWTManager, c.Revocations)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheckHandler(c))

		setupAuthRoutes(v1, c, authRequired)
		setupUserRoutes(v1, c, authRequired)
		setupBookRoutes(v1, c, authRequired)
		setupLoanRoutes(v1, c, authRequired)
	}

	return router
}

// ========================================
// AUTH ROUTES
// ========================================
func setupAuthRoutes(v1 *gin.RouterGroup, c *container.Container, authRequired gin.HandlerFunc) {
	auth := v1.Group("/auth")
	{
		auth.POST("/register", c.UserHandler.Register)
		auth.POST("/login", c.UserHandler.Login)
		auth.POST("/refresh", c.UserHandler.RefreshToken)
		auth.POST("/logout", authRequired, c.UserHandler.Logout)
	}
}

// ========================================
// USER ROUTES
// ========================================
func setupUserRoutes(v1 *gin.RouterGroup, c *container.Container, authRequired gin.HandlerFunc) {
	users := v1.Group("/users", authRequired)
	{
		users.GET("/me", c.UserHandler.GetProfile)
	}
}

// ========================================
// BOOK ROUTES
// ========================================
func setupBookRoutes(v1 *gin.RouterGroup, c *container.Container, authRequired gin.HandlerFunc) {
	books := v1.Group("/books", authRequired)
	{
		books.GET("", c.BookHandler.List)
		books.GET("/all", c.BookHandler.ListAll)
		books.GET("/statistics", c.BookHandler.Statistics)
		books.GET("/export", c.BookHandler.Export)
		books.GET("/find-by-title", c.BookHandler.FindByTitle)
		books.GET("/find-by-author", c.BookHandler.FindByAuthor)
		books.GET("/find-by-genre", c.BookHandler.FindByGenre)
		books.GET("/find-by-status", c.BookHandler.FindByStatus)
		books.GET("/:id", c.BookHandler.GetByID)
		books.POST("", c.BookHandler.Create)
		books.PUT("", c.BookHandler.Update)
		books.DELETE("/:id", c.BookHandler.Delete)
	}
}

// ========================================
// LOAN ROUTES
// ========================================
func setupLoanRoutes(v1 *gin.RouterGroup, c *container.Container, authRequired gin.HandlerFunc) {
	loans := v1.Group("/loans", authRequired)
	{
		loans.GET("", c.LoanHandler.List)
		loans.GET("/all", c.LoanHandler.ListAll)
		loans.GET("/active", c.LoanHandler.ListActive)
		loans.GET("/:id", c.LoanHandler.GetByID)
		loans.POST("/:bookId", c.LoanHandler.Create)
		loans.PUT("", c.LoanHandler.Update)
		loans.DELETE("/:id", c.LoanHandler.Delete)
	}
}

// ========================================
// HEALTH
// ========================================
func healthCheckHandler(appCtx *container.Container) gin.HandlerFunc {
	return func(c *gin.Context) {
		health := gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
			"version":   appCtx.Config.App.Version,
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		dbStatus := "ok"
		switch {
		case appCtx.MemStore != nil:
			dbStatus = "memory"
		case appCtx.DB == nil || appCtx.DB.Pool == nil:
			dbStatus = "disconnected"
			health["status"] = "degraded"
		default:
			if err := appCtx.DB.HealthCheck(ctx); err != nil {
				dbStatus = fmt.Sprintf("error: %v", err)
				health["status"] = "degraded"
			}
			if stats, err := appCtx.DB.Stats(); err == nil {
				health["pool"] = stats
			}
		}

		cacheStatus := "ok"
		if appCtx.Cache == nil {
			cacheStatus = "disconnected"
			health["status"] = "degraded"
		} else if err := appCtx.Cache.Ping(ctx); err != nil {
			cacheStatus = fmt.Sprintf("error: %v", err)
			health["status"] = "degraded"
		}

		health["services"] = gin.H{
			"database": dbStatus,
			"cache":    cacheStatus,
		}

		status := http.StatusOK
		if health["status"] != "ok" {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, health)
	}
}
