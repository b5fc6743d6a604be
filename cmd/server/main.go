package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	bankingapp "github.com/mizan-erp/backend/internal/application/banking"
	identityapp "github.com/mizan-erp/backend/internal/application/identity"
	"github.com/mizan-erp/backend/internal/infrastructure/auth"
	"github.com/mizan-erp/backend/internal/infrastructure/config"
	"github.com/mizan-erp/backend/internal/infrastructure/logger"
	"github.com/mizan-erp/backend/internal/infrastructure/persistence"
	"github.com/mizan-erp/backend/internal/infrastructure/scheduler"
	"github.com/mizan-erp/backend/internal/infrastructure/session"
	"github.com/mizan-erp/backend/internal/interfaces/http/handler"
	"github.com/mizan-erp/backend/internal/interfaces/http/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()
	zap.ReplaceGlobals(log)

	log.Info("Starting Mizan ERP Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, log, logger.MapGormLogLevel(cfg.Log.Level))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Tenant isolation is enforced on this connection: every query on a
	// tenant-owned table is filtered by the tenant bound to the request
	// context, and creates are stamped with it.
	db.EnableTenantIsolation(cfg.Tenant.Required)

	sessionStore := newSessionStore(cfg, log)
	defer func() {
		_ = sessionStore.Close()
	}()

	jwtService := auth.NewJWTService(cfg.JWT)

	tenantRepo := persistence.NewGormTenantRepository(db.DB)
	tenantService := identityapp.NewTenantService(tenantRepo, cfg.Tenant.TrialDays)

	ledgerService := bankingapp.NewLedgerService(db.DB)
	accountService := bankingapp.NewBankAccountService(db.DB, ledgerService)
	reconciliationService := bankingapp.NewReconciliationService(db.DB)

	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		job := scheduler.NewReconciliationJob(
			scheduler.NewRepositoryTenantProvider(tenantRepo),
			reconciliationService,
			cfg.Scheduler,
			log,
		)
		sched, err = scheduler.NewScheduler(cfg.Scheduler, job, log)
		if err != nil {
			log.Fatal("Failed to create scheduler", zap.Error(err))
		}
		sched.Start()
	}

	engine := router.New(router.Dependencies{
		Config:       cfg,
		Logger:       log,
		JWTService:   jwtService,
		SessionStore: sessionStore,
		TenantLookup: tenantService,

		TenantHandler:          handler.NewTenantHandler(tenantService),
		BankAccountHandler:     handler.NewBankAccountHandler(accountService),
		BankTransactionHandler: handler.NewBankTransactionHandler(ledgerService),
		ReconciliationHandler:  handler.NewReconciliationHandler(reconciliationService),
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()
	log.Info("Server listening", zap.String("addr", srv.Addr))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server")

	if sched != nil {
		sched.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Forced shutdown", zap.Error(err))
	}

	log.Info("Server stopped")
}

// newSessionStore returns the Redis-backed store, falling back to the
// in-process store when Redis is unreachable. The fallback is fine for a
// single instance; multi-instance deployments need Redis so every instance
// sees the same session bindings.
func newSessionStore(cfg *config.Config, log *zap.Logger) session.Store {
	store, err := session.NewRedisStore(cfg.Redis)
	if err != nil {
		log.Warn("Redis unavailable, using in-memory session store", zap.Error(err))
		return session.NewMemoryStore()
	}
	log.Info("Session store connected to Redis", zap.String("addr", cfg.Redis.Addr()))
	return store
}
