package banking

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mizan-erp/backend/internal/domain/banking"
	"github.com/mizan-erp/backend/internal/domain/shared"
	"github.com/mizan-erp/backend/internal/infrastructure/logger"
	"github.com/mizan-erp/backend/internal/infrastructure/persistence"
)

// BankAccountService manages bank accounts and their chart account mirrors
type BankAccountService struct {
	db     *gorm.DB
	ledger *LedgerService
}

// NewBankAccountService creates a new BankAccountService
func NewBankAccountService(db *gorm.DB, ledger *LedgerService) *BankAccountService {
	return &BankAccountService{db: db, ledger: ledger}
}

// OpenAccountRequest describes a new bank account
type OpenAccountRequest struct {
	TenantID         uuid.UUID
	AccountName      string
	AccountNumber    string
	BankName         string
	Branch           string
	IBAN             string
	SwiftCode        string
	Type             banking.BankAccountType
	Currency         string
	OpeningBalance   decimal.Decimal
	ChartAccountCode string // code for the mirrored chart account
	Notes            string
	CreatedBy        *uuid.UUID
}

// OpenAccount creates the bank account together with its mirrored chart
// account, then records the opening balance through the ledger so the trail
// starts with an explicit opening_balance entry.
func (s *BankAccountService) OpenAccount(ctx context.Context, req OpenAccountRequest) (*banking.BankAccount, error) {
	var account *banking.BankAccount

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		accountRepo := persistence.NewGormBankAccountRepository(tx)
		chartRepo := persistence.NewGormChartAccountRepository(tx)

		if req.AccountNumber != "" {
			exists, err := accountRepo.ExistsByAccountNumber(ctx, req.TenantID, req.AccountNumber)
			if err != nil {
				return err
			}
			if exists {
				return shared.NewDomainError("ACCOUNT_NUMBER_TAKEN", "A bank account with this number already exists")
			}
		}

		var err error
		account, err = banking.NewBankAccount(req.TenantID, req.AccountName, req.AccountNumber, req.Type, req.OpeningBalance)
		if err != nil {
			return err
		}
		account.BankName = req.BankName
		account.Branch = req.Branch
		account.IBAN = req.IBAN
		account.SwiftCode = req.SwiftCode
		account.Notes = req.Notes
		if req.Currency != "" {
			account.Currency = req.Currency
		}
		if req.CreatedBy != nil {
			account.SetCreatedBy(*req.CreatedBy)
		}
		// The opening balance reaches CurrentBalance through the ledger entry
		account.CurrentBalance = decimal.Zero

		chartCode := req.ChartAccountCode
		if chartCode == "" {
			suffix := req.AccountNumber
			if suffix == "" {
				// No number to derive the code from; fall back to the
				// account ID so the per-tenant code stays unique
				suffix = account.ID.String()[:8]
			}
			chartCode = fmt.Sprintf("1110-%s", suffix)
		}
		chart, err := banking.NewChartAccount(req.TenantID, chartCode, req.AccountName, banking.ChartAccountTypeAsset)
		if err != nil {
			return err
		}
		if req.CreatedBy != nil {
			chart.SetCreatedBy(*req.CreatedBy)
		}
		if err := chartRepo.Save(ctx, chart); err != nil {
			return err
		}

		account.LinkChartAccount(chart.ID)
		return accountRepo.Save(ctx, account)
	})
	if err != nil {
		return nil, err
	}

	if req.OpeningBalance.IsPositive() {
		if _, err := s.ledger.RecordTransaction(ctx, RecordTransactionRequest{
			TenantID:      req.TenantID,
			BankAccountID: account.ID,
			Type:          banking.TransactionTypeDeposit,
			Amount:        req.OpeningBalance,
			ReferenceType: banking.ReferenceTypeOpeningBalance,
			ReferenceID:   account.ID,
			Description:   fmt.Sprintf("Opening balance for %s", account.AccountName),
			CreatedBy:     req.CreatedBy,
		}); err != nil {
			return nil, fmt.Errorf("account created but opening balance entry failed: %w", err)
		}
		account.CurrentBalance = req.OpeningBalance
	}

	logger.L(ctx).Info("bank account opened",
		zap.String("bank_account_id", account.ID.String()),
		zap.String("account_name", account.AccountName),
		zap.String("opening_balance", req.OpeningBalance.String()),
	)
	return account, nil
}

// GetAccount returns one bank account of the tenant
func (s *BankAccountService) GetAccount(ctx context.Context, tenantID, accountID uuid.UUID) (*banking.BankAccount, error) {
	return persistence.NewGormBankAccountRepository(s.db).FindByIDForTenant(ctx, tenantID, accountID)
}

// ListAccounts returns the tenant's bank accounts
func (s *BankAccountService) ListAccounts(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]banking.BankAccount, error) {
	return persistence.NewGormBankAccountRepository(s.db).FindAllForTenant(ctx, tenantID, filter)
}

// DeactivateAccount marks a bank account inactive. The ledger trail and
// balances stay untouched.
func (s *BankAccountService) DeactivateAccount(ctx context.Context, tenantID, accountID uuid.UUID) error {
	repo := persistence.NewGormBankAccountRepository(s.db)
	account, err := repo.FindByIDForTenant(ctx, tenantID, accountID)
	if err != nil {
		return err
	}
	account.Deactivate()
	return repo.Save(ctx, account)
}
