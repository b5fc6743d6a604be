package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mizan-erp/backend/internal/infrastructure/auth"
	"github.com/mizan-erp/backend/internal/infrastructure/config"
	"github.com/mizan-erp/backend/internal/infrastructure/logger"
	"github.com/mizan-erp/backend/internal/infrastructure/session"
	"github.com/mizan-erp/backend/internal/interfaces/http/handler"
	"github.com/mizan-erp/backend/internal/interfaces/http/middleware"
)

// Dependencies carries everything the router needs to wire the API surface
type Dependencies struct {
	Config       *config.Config
	Logger       *zap.Logger
	JWTService   *auth.JWTService
	SessionStore session.Store
	TenantLookup middleware.TenantLookup

	TenantHandler          *handler.TenantHandler
	BankAccountHandler     *handler.BankAccountHandler
	BankTransactionHandler *handler.BankTransactionHandler
	ReconciliationHandler  *handler.ReconciliationHandler
}

// New builds the gin engine with all middleware and routes
func New(deps Dependencies) *gin.Engine {
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(logger.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(logger.GinMiddleware(deps.Logger))
	r.Use(middleware.Secure())

	corsCfg := middleware.DefaultCORSConfig()
	if len(deps.Config.HTTP.CORSAllowOrigins) > 0 {
		corsCfg.AllowOrigins = deps.Config.HTTP.CORSAllowOrigins
	}
	if len(deps.Config.HTTP.CORSAllowMethods) > 0 {
		corsCfg.AllowMethods = deps.Config.HTTP.CORSAllowMethods
	}
	if len(deps.Config.HTTP.CORSAllowHeaders) > 0 {
		corsCfg.AllowHeaders = deps.Config.HTTP.CORSAllowHeaders
	}
	r.Use(middleware.CORSWithConfig(corsCfg))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	jwtCfg := middleware.JWTMiddlewareConfig{
		SkipPaths: []string{"/health"},
	}

	// Admin surface: authenticated, but not tenant-scoped. Tenant lifecycle
	// operations act across tenants.
	admin := r.Group("/api/v1/admin")
	admin.Use(middleware.JWTAuth(deps.JWTService, jwtCfg))
	{
		tenants := admin.Group("/tenants")
		tenants.POST("", deps.TenantHandler.Provision)
		tenants.GET("", deps.TenantHandler.List)
		tenants.GET("/:id", deps.TenantHandler.Get)
		tenants.POST("/:id/activate", deps.TenantHandler.Activate)
		tenants.POST("/:id/deactivate", deps.TenantHandler.Deactivate)
		tenants.POST("/:id/suspend", deps.TenantHandler.Suspend)
		tenants.POST("/:id/plan", deps.TenantHandler.ChangePlan)
	}

	// Tenant-scoped API: the resolver binds the tenant into the request
	// context before any handler runs, and the persistence layer filters
	// every query by it.
	resolverCfg := middleware.ResolverConfigFromTenant(deps.Config.Tenant)
	api := r.Group("/api/v1")
	api.Use(middleware.JWTAuth(deps.JWTService, jwtCfg))
	api.Use(middleware.TenantResolver(deps.TenantLookup, deps.SessionStore, resolverCfg))
	{
		accounts := api.Group("/bank-accounts")
		accounts.POST("", deps.BankAccountHandler.Open)
		accounts.GET("", deps.BankAccountHandler.List)
		accounts.GET("/:id", deps.BankAccountHandler.Get)
		accounts.POST("/:id/deactivate", deps.BankAccountHandler.Deactivate)
		accounts.GET("/:id/transactions", deps.BankTransactionHandler.ListForAccount)

		transactions := api.Group("/bank-transactions")
		transactions.POST("", deps.BankTransactionHandler.Record)
		transactions.POST("/reverse", deps.BankTransactionHandler.Reverse)

		api.POST("/reconciliation/run", deps.ReconciliationHandler.Run)
	}

	return r
}
