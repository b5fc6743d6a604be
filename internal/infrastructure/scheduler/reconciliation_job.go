package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appbanking "github.com/mizan-erp/backend/internal/application/banking"
	"github.com/mizan-erp/backend/internal/infrastructure/config"
	"github.com/mizan-erp/backend/internal/infrastructure/logger"
)

// TenantProvider lists the tenants a periodic job must visit
type TenantProvider interface {
	GetAllActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error)
}

// BalanceReconciler realigns one tenant's mirrored balances
type BalanceReconciler interface {
	Reconcile(ctx context.Context, tenantID uuid.UUID, repair bool) (*appbanking.ReconciliationSummary, error)
}

// ReconciliationJob runs the balance reconciliation for every active tenant.
// Tenants are processed independently: one tenant failing or timing out never
// blocks the rest of the run.
type ReconciliationJob struct {
	tenants    TenantProvider
	reconciler BalanceReconciler
	logger     *zap.Logger
	timeout    time.Duration
	autoRepair bool
}

// NewReconciliationJob creates the nightly reconciliation job
func NewReconciliationJob(
	tenants TenantProvider,
	reconciler BalanceReconciler,
	cfg config.SchedulerConfig,
	log *zap.Logger,
) *ReconciliationJob {
	return &ReconciliationJob{
		tenants:    tenants,
		reconciler: reconciler,
		logger:     log,
		timeout:    cfg.JobTimeout,
		autoRepair: cfg.ReconciliationAutoRepair,
	}
}

// Name returns the job name
func (j *ReconciliationJob) Name() string {
	return "balance_reconciliation"
}

// Run reconciles every active tenant once
func (j *ReconciliationJob) Run(ctx context.Context) {
	tenantIDs, err := j.tenants.GetAllActiveTenantIDs(ctx)
	if err != nil {
		j.logger.Error("failed to list tenants for reconciliation", zap.Error(err))
		return
	}

	var synced, failed int
	for _, tenantID := range tenantIDs {
		if err := j.reconcileTenant(ctx, tenantID); err != nil {
			failed++
			continue
		}
		synced++
	}

	j.logger.Info("reconciliation run finished",
		zap.Int("tenants", len(tenantIDs)),
		zap.Int("succeeded", synced),
		zap.Int("failed", failed),
	)
}

func (j *ReconciliationJob) reconcileTenant(ctx context.Context, tenantID uuid.UUID) error {
	tenantCtx, log := logger.WithTenantID(ctx, j.logger, tenantID.String())
	tenantCtx, cancel := context.WithTimeout(tenantCtx, j.timeout)
	defer cancel()

	summary, err := j.reconciler.Reconcile(tenantCtx, tenantID, j.autoRepair)
	if err != nil {
		log.Error("tenant reconciliation failed", zap.Error(err))
		return err
	}

	if summary.Errors > 0 {
		log.Warn("tenant reconciliation completed with account errors",
			zap.Int("accounts", summary.Total),
			zap.Int("errors", summary.Errors),
		)
	}
	return nil
}
