package app

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/irenchen/auth2/internal/auth/handler"
	"github.com/irenchen/auth2/internal/auth/provider"
	"github.com/irenchen/auth2/internal/auth/resolver"
	"github.com/irenchen/auth2/internal/auth/store"
	"github.com/irenchen/auth2/internal/config"
	"github.com/irenchen/auth2/internal/logger"
	"github.com/irenchen/auth2/internal/middleware"
	"github.com/irenchen/auth2/internal/session"
)

func setupHTTP(ctx context.Context, cfg config.Config) (*gin.Engine, func() error, error) {

	infra, err := setupInfra(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	// ----------------------------
	// Dependencies
	// ----------------------------

	sessionStore := session.NewRedisStore(infra.Redis.Client)
	accountStore := store.NewPostgres(infra.DB)
	engine := resolver.NewEngine(accountStore)

	providers, err := buildProviders(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	if len(providers) == 0 {
		logger.Warn("no oauth providers configured, local auth only", nil)
	}

	registry := provider.NewRegistry(providers...)

	authHandler := handler.New(
		registry,
		sessionStore,
		engine,
		accountStore,
	)

	authMiddleware := middleware.NewAuthMiddleware(sessionStore)

	logger.Info("providers registered", map[string]any{
		"providers": registry.Names(),
	})

	// ----------------------------
	// Router
	// ----------------------------

	router := gin.New()
	router.Use(gin.Recovery())

	// ----------------------------
	// Public Routes
	// ----------------------------

	authHandler.RegisterRoutes(router)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ----------------------------
	// Protected Routes
	// ----------------------------

	protected := router.Group("/")
	protected.Use(middleware.GinRequireAuth(authMiddleware))

	authHandler.RegisterProtectedRoutes(protected)

	protected.GET("/me", func(c *gin.Context) {
		accountID, _ := middleware.AccountIDFromContext(c.Request.Context())
		c.JSON(200, gin.H{
			"account_id": accountID,
		})
	})

	// ----------------------------
	// Cleanup
	// ----------------------------

	return router, func() error {
		return infra.DB.Close()
	}, nil
}
