package routes

import (
	"net/http"
	"time"

	"github.com/ArowuTest/marketplace-backend/internal/cache"
	"github.com/ArowuTest/marketplace-backend/internal/handlers"
	"github.com/ArowuTest/marketplace-backend/internal/middleware"
	"github.com/ArowuTest/marketplace-backend/internal/models"
	"github.com/ArowuTest/marketplace-backend/internal/services"
	"github.com/ArowuTest/marketplace-backend/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Dependencies are the services and settings the router is built from
type Dependencies struct {
	Auth           services.AuthService
	Moderation     services.ModerationService
	Catalog        services.CatalogService
	Gate           services.GatingService
	Tokens         middleware.TokenParser
	Revocation     cache.RevocationStore
	RateLimiter    *middleware.RateLimiter
	AllowedOrigins []string
	Logger         logrus.FieldLogger
	// Health reports backing store reachability; nil means always healthy
	Health func() error
}

// SetupRouter sets up the router
func SetupRouter(deps Dependencies) *gin.Engine {
	utils.RegisterValidators()
	if deps.Logger == nil {
		deps.Logger = logrus.StandardLogger()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware(deps.Logger))
	if len(deps.AllowedOrigins) > 0 {
		router.Use(middleware.CORSMiddleware(deps.AllowedOrigins))
	}

	authHandler := handlers.NewAuthHandler(deps.Auth)
	moderationHandler := handlers.NewModerationHandler(deps.Moderation)
	sellerHandler := handlers.NewSellerHandler(deps.Auth, deps.Catalog, deps.Gate)
	storefrontHandler := handlers.NewStorefrontHandler(deps.Catalog)

	authenticated := middleware.JWTAuthMiddleware(deps.Tokens, deps.Revocation, deps.Logger)

	// Public routes
	public := router.Group("/api/v1")
	{
		public.GET("/health", func(c *gin.Context) {
			if deps.Health != nil {
				if err := deps.Health(); err != nil {
					c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
					return
				}
			}
			c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
		})

		auth := public.Group("/auth")
		if deps.RateLimiter != nil {
			auth.Use(deps.RateLimiter.Middleware())
		}
		{
			auth.POST("/admin/login", authHandler.LoginAdmin)
			auth.POST("/seller/login", authHandler.LoginSeller)
			auth.POST("/seller/register", authHandler.RegisterSeller)
			auth.POST("/logout", authenticated, authHandler.Logout)
		}

		storefront := public.Group("/storefront")
		{
			storefront.GET("/products", storefrontHandler.ListProducts)
			storefront.GET("/products/:id", storefrontHandler.GetProduct)
		}
	}

	// Admin routes
	admin := router.Group("/api/v1/admin")
	admin.Use(authenticated, middleware.RequireRole(models.RoleAdmin))
	{
		admin.GET("/sellers/pending", moderationHandler.ListPendingSellers)
		admin.POST("/sellers/:id/approve", moderationHandler.ApproveSeller)
		admin.POST("/sellers/:id/reject", moderationHandler.RejectSeller)

		admin.GET("/products/pending", moderationHandler.ListPendingProducts)
		admin.POST("/products/:id/approve", moderationHandler.ApproveProduct)
		admin.POST("/products/:id/reject", moderationHandler.RejectProduct)

		admin.POST("/blacklist", moderationHandler.BlacklistSeller)
		admin.GET("/blacklist", moderationHandler.ListBlacklist)
		admin.GET("/blacklist/stats", moderationHandler.BlacklistStats)
		admin.DELETE("/blacklist/:sellerId", moderationHandler.UnblacklistSeller)

		admin.GET("/audit", moderationHandler.ListAudit)
	}

	// Seller routes
	seller := router.Group("/api/v1/seller")
	seller.Use(authenticated, middleware.RequireRole(models.RoleSeller))
	{
		seller.GET("/me", sellerHandler.Me)
		seller.GET("/me/blacklist-status", sellerHandler.BlacklistStatus)
		seller.GET("/products", sellerHandler.ListProducts)
		seller.POST("/products", sellerHandler.CreateProduct)
		seller.PUT("/products/:id", sellerHandler.UpdateProduct)
	}

	return router
}
