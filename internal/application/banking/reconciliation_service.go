package banking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mizan-erp/backend/internal/domain/banking"
	"github.com/mizan-erp/backend/internal/infrastructure/logger"
	"github.com/mizan-erp/backend/internal/infrastructure/persistence"
)

// ReconciliationService realigns chart account balances with their bank
// accounts. Drift appears when historic data was imported or when a bug
// let the two sides diverge; the reconciliation is the corrective batch.
type ReconciliationService struct {
	db *gorm.DB
}

// NewReconciliationService creates a new ReconciliationService
func NewReconciliationService(db *gorm.DB) *ReconciliationService {
	return &ReconciliationService{db: db}
}

// AccountResult is the outcome of reconciling one bank account
type AccountResult struct {
	BankAccountID  uuid.UUID       `json:"bank_account_id"`
	AccountName    string          `json:"account_name"`
	ChartAccountID uuid.UUID       `json:"chart_account_id"`
	Previous       decimal.Decimal `json:"previous_balance"`
	Corrected      decimal.Decimal `json:"corrected_balance"`
	Status         string          `json:"status"` // synced, consistent, drift, error
	Error          string          `json:"error,omitempty"`
}

// ReconciliationSummary aggregates one reconciliation run
type ReconciliationSummary struct {
	Total   int             `json:"total"`
	Synced  int             `json:"synced"`
	Skipped int             `json:"skipped"`
	Errors  int             `json:"errors"`
	Results []AccountResult `json:"results"`
}

// Reconcile walks every active mirrored bank account of the tenant and
// realigns its chart account: debit = bank balance + chart credit, displayed
// balance = debit - credit. A failure on one account never stops the others,
// and a rerun on consistent data changes nothing. With repair disabled,
// drift is only reported.
func (s *ReconciliationService) Reconcile(ctx context.Context, tenantID uuid.UUID, repair bool) (*ReconciliationSummary, error) {
	accountRepo := persistence.NewGormBankAccountRepository(s.db)
	accounts, err := accountRepo.FindActiveMirrored(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list mirrored accounts: %w", err)
	}

	summary := &ReconciliationSummary{
		Total:   len(accounts),
		Results: make([]AccountResult, 0, len(accounts)),
	}

	for i := range accounts {
		result := s.reconcileAccount(ctx, tenantID, &accounts[i], repair)
		summary.Results = append(summary.Results, result)

		switch result.Status {
		case "synced":
			summary.Synced++
		case "consistent":
			summary.Skipped++
		default:
			summary.Errors++
		}
	}

	logger.L(ctx).Info("reconciliation finished",
		zap.Int("total", summary.Total),
		zap.Int("synced", summary.Synced),
		zap.Int("skipped", summary.Skipped),
		zap.Int("errors", summary.Errors),
	)
	return summary, nil
}

func (s *ReconciliationService) reconcileAccount(ctx context.Context, tenantID uuid.UUID, account *banking.BankAccount, repair bool) AccountResult {
	result := AccountResult{
		BankAccountID:  account.ID,
		AccountName:    account.AccountName,
		ChartAccountID: *account.ChartAccountID,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		chartRepo := persistence.NewGormChartAccountRepository(tx)
		chart, err := chartRepo.FindByIDForTenant(ctx, tenantID, *account.ChartAccountID)
		if err != nil {
			return err
		}

		result.Previous = chart.Balance

		expectedDebit := account.CurrentBalance.Add(chart.CreditBalance)
		expectedBalance := expectedDebit.Sub(chart.CreditBalance)
		result.Corrected = expectedBalance

		if chart.DebitBalance.Equal(expectedDebit) && chart.Balance.Equal(expectedBalance) {
			result.Status = "consistent"
			return nil
		}

		if !repair {
			result.Status = "drift"
			result.Error = "drift detected (repair disabled)"
			return nil
		}

		chart.SetDebitBalance(expectedDebit)

		res := tx.WithContext(ctx).
			Model(&banking.ChartAccount{}).
			Where("id = ? AND version = ?", chart.ID, chart.Version).
			Updates(map[string]interface{}{
				"debit_balance": chart.DebitBalance,
				"balance":       chart.Balance,
				"version":       chart.Version + 1,
				"updated_at":    time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("chart account was modified concurrently")
		}

		result.Status = "synced"
		return nil
	})
	if err != nil {
		result.Status = "error"
		result.Error = err.Error()
		logger.L(ctx).Error("failed to reconcile account",
			zap.String("bank_account_id", account.ID.String()),
			zap.Error(err),
		)
	}

	return result
}
