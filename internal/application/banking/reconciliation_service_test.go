package banking

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mizan-erp/backend/internal/domain/banking"
)

// corruptChartDebit simulates imported or historically broken data by writing
// an arbitrary debit balance directly, bypassing the ledger path.
func corruptChartDebit(t *testing.T, db *gorm.DB, chartID uuid.UUID, debit decimal.Decimal) {
	t.Helper()
	err := db.Model(&banking.ChartAccount{}).
		Where("id = ?", chartID).
		Updates(map[string]interface{}{
			"debit_balance": debit,
			"balance":       debit,
		}).Error
	require.NoError(t, err)
}

func TestReconcile_RepairsDrift(t *testing.T) {
	db := openLedgerTestDB(t)
	tenantID := uuid.New()
	svc := NewReconciliationService(db)
	ctx := context.Background()

	account := openTestAccount(t, db, tenantID, "Main", "SA-300", decimal.NewFromInt(1000))
	corruptChartDebit(t, db, *account.ChartAccountID, decimal.NewFromInt(725))

	summary, err := svc.Reconcile(ctx, tenantID, true)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Total)
	assert.Equal(t, 1, summary.Synced)
	assert.Equal(t, 0, summary.Skipped)
	assert.Equal(t, 0, summary.Errors)

	require.Len(t, summary.Results, 1)
	result := summary.Results[0]
	assert.Equal(t, "synced", result.Status)
	assert.True(t, result.Previous.Equal(decimal.NewFromInt(725)))
	assert.True(t, result.Corrected.Equal(decimal.NewFromInt(1000)))

	chart := loadChart(t, db, tenantID, *account.ChartAccountID)
	assert.True(t, chart.DebitBalance.Equal(decimal.NewFromInt(1000)))
	assert.True(t, chart.Balance.Equal(decimal.NewFromInt(1000)))
}

func TestReconcile_Idempotent(t *testing.T) {
	db := openLedgerTestDB(t)
	tenantID := uuid.New()
	svc := NewReconciliationService(db)
	ctx := context.Background()

	account := openTestAccount(t, db, tenantID, "Main", "SA-301", decimal.NewFromInt(500))
	corruptChartDebit(t, db, *account.ChartAccountID, decimal.NewFromInt(1))

	first, err := svc.Reconcile(ctx, tenantID, true)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Synced)

	// A rerun on consistent data touches nothing
	second, err := svc.Reconcile(ctx, tenantID, true)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Synced)
	assert.Equal(t, 1, second.Skipped)
	assert.Equal(t, "consistent", second.Results[0].Status)
}

func TestReconcile_RepairDisabledReportsOnly(t *testing.T) {
	db := openLedgerTestDB(t)
	tenantID := uuid.New()
	svc := NewReconciliationService(db)
	ctx := context.Background()

	account := openTestAccount(t, db, tenantID, "Main", "SA-302", decimal.NewFromInt(1000))
	corruptChartDebit(t, db, *account.ChartAccountID, decimal.NewFromInt(400))

	summary, err := svc.Reconcile(ctx, tenantID, false)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Synced)
	assert.Equal(t, 1, summary.Errors)
	assert.Equal(t, "drift", summary.Results[0].Status)

	// Nothing was written
	chart := loadChart(t, db, tenantID, *account.ChartAccountID)
	assert.True(t, chart.DebitBalance.Equal(decimal.NewFromInt(400)))
}

func TestReconcile_SkipsInactiveAndUnmirrored(t *testing.T) {
	db := openLedgerTestDB(t)
	tenantID := uuid.New()
	ledger := NewLedgerService(db)
	service := NewBankAccountService(db, ledger)
	svc := NewReconciliationService(db)
	ctx := context.Background()

	inactive := openTestAccount(t, db, tenantID, "Closed", "SA-303", decimal.NewFromInt(100))
	require.NoError(t, service.DeactivateAccount(ctx, tenantID, inactive.ID))

	unmirrored, err := banking.NewBankAccount(tenantID, "Unlinked", "SA-304", banking.BankAccountTypeCurrent, decimal.Zero)
	require.NoError(t, err)
	require.NoError(t, db.Create(unmirrored).Error)

	summary, err := svc.Reconcile(ctx, tenantID, true)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Total)
}

func TestReconcile_PreservesCreditSide(t *testing.T) {
	db := openLedgerTestDB(t)
	tenantID := uuid.New()
	svc := NewReconciliationService(db)
	ctx := context.Background()

	account := openTestAccount(t, db, tenantID, "Main", "SA-305", decimal.NewFromInt(1000))

	// A credit posted outside the ledger path must survive the repair:
	// debit becomes bank balance + credit, displayed balance stays
	// debit - credit = bank balance.
	err := db.Model(&banking.ChartAccount{}).
		Where("id = ?", *account.ChartAccountID).
		Updates(map[string]interface{}{
			"credit_balance": decimal.NewFromInt(200),
			"debit_balance":  decimal.NewFromInt(999),
			"balance":        decimal.NewFromInt(799),
		}).Error
	require.NoError(t, err)

	summary, err := svc.Reconcile(ctx, tenantID, true)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Synced)

	chart := loadChart(t, db, tenantID, *account.ChartAccountID)
	assert.True(t, chart.DebitBalance.Equal(decimal.NewFromInt(1200)))
	assert.True(t, chart.CreditBalance.Equal(decimal.NewFromInt(200)))
	assert.True(t, chart.Balance.Equal(decimal.NewFromInt(1000)))
}

func TestReconcile_TenantScoped(t *testing.T) {
	db := openLedgerTestDB(t)
	svc := NewReconciliationService(db)
	ctx := context.Background()

	tenantA := uuid.New()
	tenantB := uuid.New()

	accountA := openTestAccount(t, db, tenantA, "A Main", "SA-306", decimal.NewFromInt(100))
	accountB := openTestAccount(t, db, tenantB, "B Main", "SA-306", decimal.NewFromInt(100))
	corruptChartDebit(t, db, *accountA.ChartAccountID, decimal.NewFromInt(50))
	corruptChartDebit(t, db, *accountB.ChartAccountID, decimal.NewFromInt(50))

	summary, err := svc.Reconcile(ctx, tenantA, true)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Total)
	assert.Equal(t, 1, summary.Synced)

	// Tenant B's drift is untouched by tenant A's run
	chartB := loadChart(t, db, tenantB, *accountB.ChartAccountID)
	assert.True(t, chartB.DebitBalance.Equal(decimal.NewFromInt(50)))
}
