package banking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mizan-erp/backend/internal/domain/banking"
	"github.com/mizan-erp/backend/internal/domain/shared"
	"github.com/mizan-erp/backend/internal/infrastructure/logger"
	"github.com/mizan-erp/backend/internal/infrastructure/persistence"
)

// maxSequenceRetries bounds the retry loop around transaction number
// collisions and optimistic lock conflicts
const maxSequenceRetries = 3

// LedgerService records bank transactions as an append-only trail and keeps
// the bank account and its mirrored chart account balances consistent.
// Every mutation runs inside a single database transaction.
type LedgerService struct {
	db *gorm.DB
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(db *gorm.DB) *LedgerService {
	return &LedgerService{db: db}
}

// RecordTransactionRequest describes a new ledger entry
type RecordTransactionRequest struct {
	TenantID      uuid.UUID
	BankAccountID uuid.UUID
	Type          banking.TransactionType
	Amount        decimal.Decimal
	ReferenceType banking.ReferenceType
	ReferenceID   uuid.UUID
	Description   string
	Date          time.Time // zero value means today
	CreatedBy     *uuid.UUID
}

// ReverseTransactionRequest identifies the original entry by its source
// document
type ReverseTransactionRequest struct {
	TenantID      uuid.UUID
	ReferenceType banking.ReferenceType
	ReferenceID   uuid.UUID
	Description   string
	CreatedBy     *uuid.UUID
}

// RecordTransaction appends a new entry and applies its amount to the bank
// account and the mirrored chart account. On a transaction number collision
// or a concurrent balance update the whole unit of work is retried with
// fresh state, bounded by maxSequenceRetries.
func (s *LedgerService) RecordTransaction(ctx context.Context, req RecordTransactionRequest) (*banking.BankTransaction, error) {
	if !req.Type.IsValid() {
		return nil, shared.NewDomainError("INVALID_TRANSACTION_TYPE", "Transaction type must be deposit or withdrawal")
	}
	if !req.Amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Transaction amount must be positive")
	}
	if req.ReferenceType == "" {
		return nil, shared.NewDomainError("INVALID_REFERENCE", "Reference type is required")
	}

	date := req.Date
	if date.IsZero() {
		date = time.Now()
	}

	var entry *banking.BankTransaction
	err := s.withRetry(ctx, func(tx *gorm.DB) error {
		var err error
		entry, err = s.applyEntry(ctx, tx, appliedEntry{
			tenantID:      req.TenantID,
			bankAccountID: req.BankAccountID,
			txType:        req.Type,
			amount:        req.Amount,
			refType:       req.ReferenceType,
			refID:         req.ReferenceID,
			description:   req.Description,
			date:          date,
			createdBy:     req.CreatedBy,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.L(ctx).Info("bank transaction recorded",
		zap.String("transaction_number", entry.TransactionNumber),
		zap.String("bank_account_id", req.BankAccountID.String()),
		zap.String("type", string(req.Type)),
		zap.String("amount", req.Amount.String()),
	)
	return entry, nil
}

// ReverseTransaction appends an inverse entry for the original transaction
// recorded against a source document. The original row is never touched:
// the trail stays append-only and the net balance effect becomes zero.
func (s *LedgerService) ReverseTransaction(ctx context.Context, req ReverseTransactionRequest) (*banking.BankTransaction, error) {
	if req.ReferenceType.IsReversal() {
		return nil, shared.NewDomainError("INVALID_REFERENCE", "A reversal entry cannot be reversed")
	}

	var entry *banking.BankTransaction
	err := s.withRetry(ctx, func(tx *gorm.DB) error {
		txRepo := persistence.NewGormBankTransactionRepository(tx)

		original, err := txRepo.FindByReference(ctx, req.TenantID, req.ReferenceType, req.ReferenceID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NewDomainError("ORIGINAL_NOT_FOUND", "No transaction recorded for this reference")
			}
			return err
		}

		// A second reversal would double the correction
		if _, err := txRepo.FindByReference(ctx, req.TenantID, req.ReferenceType.Reversal(), req.ReferenceID); err == nil {
			return shared.NewDomainError("ALREADY_REVERSED", "This reference has already been reversed")
		} else if !errors.Is(err, shared.ErrNotFound) {
			return err
		}

		description := req.Description
		if description == "" {
			description = fmt.Sprintf("Reversal of %s", original.TransactionNumber)
		}

		entry, err = s.applyEntry(ctx, tx, appliedEntry{
			tenantID:      req.TenantID,
			bankAccountID: original.BankAccountID,
			txType:        original.Type.Inverse(),
			amount:        original.Amount,
			refType:       req.ReferenceType.Reversal(),
			refID:         req.ReferenceID,
			description:   description,
			date:          time.Now(),
			createdBy:     req.CreatedBy,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.L(ctx).Info("bank transaction reversed",
		zap.String("transaction_number", entry.TransactionNumber),
		zap.String("reference_type", string(req.ReferenceType)),
		zap.String("reference_id", req.ReferenceID.String()),
	)
	return entry, nil
}

// ListAccountTransactions returns the statement of one bank account
func (s *LedgerService) ListAccountTransactions(ctx context.Context, tenantID, bankAccountID uuid.UUID, filter banking.BankTransactionFilter) ([]banking.BankTransaction, error) {
	accountRepo := persistence.NewGormBankAccountRepository(s.db)
	if _, err := accountRepo.FindByIDForTenant(ctx, tenantID, bankAccountID); err != nil {
		return nil, err
	}
	return persistence.NewGormBankTransactionRepository(s.db).
		FindByAccount(ctx, tenantID, bankAccountID, filter)
}

// withRetry runs the unit of work in a database transaction, retrying on
// number collisions and optimistic lock conflicts
func (s *LedgerService) withRetry(ctx context.Context, work func(tx *gorm.DB) error) error {
	var err error
	for attempt := 0; attempt < maxSequenceRetries; attempt++ {
		err = s.db.WithContext(ctx).Transaction(work)
		if err == nil {
			return nil
		}
		if !errors.Is(err, shared.ErrDuplicateNumber) && !errors.Is(err, shared.ErrConcurrencyConflict) {
			return err
		}
		logger.L(ctx).Warn("ledger write conflict, retrying",
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
	}
	return err
}

// appliedEntry carries the resolved parameters of one ledger append
type appliedEntry struct {
	tenantID      uuid.UUID
	bankAccountID uuid.UUID
	txType        banking.TransactionType
	amount        decimal.Decimal
	refType       banking.ReferenceType
	refID         uuid.UUID
	description   string
	date          time.Time
	createdBy     *uuid.UUID
}

// applyEntry loads the account, applies the signed amount to it and its
// mirrored chart account, and inserts the immutable entry. Must run inside
// a database transaction.
func (s *LedgerService) applyEntry(ctx context.Context, tx *gorm.DB, p appliedEntry) (*banking.BankTransaction, error) {
	var account banking.BankAccount
	if err := tx.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", p.tenantID, p.bankAccountID).
		First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewDomainError("BANK_ACCOUNT_NOT_FOUND", "Bank account not found")
		}
		return nil, err
	}
	if !account.IsActive {
		return nil, shared.NewDomainError("BANK_ACCOUNT_INACTIVE", "Bank account is inactive")
	}

	txRepo := persistence.NewGormBankTransactionRepository(tx)
	number, err := txRepo.NextTransactionNumber(ctx, p.tenantID, p.date)
	if err != nil {
		return nil, err
	}

	newBalance := account.Apply(p.txType, p.amount)

	entry, err := banking.NewBankTransaction(
		p.tenantID, number, account.ID, p.txType, p.amount,
		p.refType, p.refID, p.description, newBalance,
	)
	if err != nil {
		return nil, err
	}
	entry.TransactionDate = p.date
	if p.createdBy != nil {
		entry.SetCreatedBy(*p.createdBy)
	}

	if err := s.saveBankBalance(ctx, tx, &account); err != nil {
		return nil, err
	}

	if account.IsMirrored() {
		if err := s.mirrorToChart(ctx, tx, p.tenantID, *account.ChartAccountID, p.txType, p.amount); err != nil {
			return nil, err
		}
	}

	if err := txRepo.Insert(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// saveBankBalance writes the new balance guarded by the aggregate version.
// Zero rows affected means another writer got there first.
func (s *LedgerService) saveBankBalance(ctx context.Context, tx *gorm.DB, account *banking.BankAccount) error {
	res := tx.WithContext(ctx).
		Model(&banking.BankAccount{}).
		Where("id = ? AND version = ?", account.ID, account.Version).
		Updates(map[string]interface{}{
			"current_balance": account.CurrentBalance,
			"version":         account.Version + 1,
			"updated_at":      time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// mirrorToChart applies the signed amount to the linked chart account's
// debit balance and recomputes its displayed balance
func (s *LedgerService) mirrorToChart(ctx context.Context, tx *gorm.DB, tenantID, chartAccountID uuid.UUID, txType banking.TransactionType, amount decimal.Decimal) error {
	var chart banking.ChartAccount
	if err := tx.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, chartAccountID).
		First(&chart).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return shared.NewDomainError("CHART_ACCOUNT_NOT_FOUND", "Linked chart account not found")
		}
		return err
	}

	signed := amount
	if txType == banking.TransactionTypeWithdrawal {
		signed = amount.Neg()
	}
	chart.ApplyDebit(signed)

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
		return shared.ErrConcurrencyConflict
	}
	return nil
}
