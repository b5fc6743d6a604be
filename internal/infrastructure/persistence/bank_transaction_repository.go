package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mizan-erp/backend/internal/domain/banking"
	"github.com/mizan-erp/backend/internal/domain/shared"
)

// GormBankTransactionRepository implements banking.BankTransactionRepository
// using GORM. The table is append-only: this repository exposes no update or
// delete path.
type GormBankTransactionRepository struct {
	db *gorm.DB
}

// NewGormBankTransactionRepository creates a new GormBankTransactionRepository
func NewGormBankTransactionRepository(db *gorm.DB) *GormBankTransactionRepository {
	return &GormBankTransactionRepository{db: db}
}

// FindByIDForTenant finds a bank transaction by ID within a tenant
func (r *GormBankTransactionRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*banking.BankTransaction, error) {
	var tx banking.BankTransaction
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&tx).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &tx, nil
}

// FindByReference returns the original entry recorded for a source document.
// Reversal entries carry their own reference type and are never matched here.
func (r *GormBankTransactionRepository) FindByReference(ctx context.Context, tenantID uuid.UUID, refType banking.ReferenceType, refID uuid.UUID) (*banking.BankTransaction, error) {
	var tx banking.BankTransaction
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND reference_type = ? AND reference_id = ?", tenantID, refType, refID).
		Order("created_at ASC").
		First(&tx).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &tx, nil
}

// FindByAccount lists entries for one bank account, newest first by default
func (r *GormBankTransactionRepository) FindByAccount(ctx context.Context, tenantID, bankAccountID uuid.UUID, filter banking.BankTransactionFilter) ([]banking.BankTransaction, error) {
	var txs []banking.BankTransaction
	query := r.db.WithContext(ctx).
		Model(&banking.BankTransaction{}).
		Where("tenant_id = ? AND bank_account_id = ?", tenantID, bankAccountID)

	if filter.FromDate != nil {
		query = query.Where("transaction_date >= ?", filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("transaction_date <= ?", filter.ToDate)
	}
	if filter.Search != "" {
		keyword := "%" + filter.Search + "%"
		query = query.Where("transaction_number LIKE ? OR description LIKE ?", keyword, keyword)
	}

	sortField := ValidateSortField(filter.OrderBy, BankTransactionSortFields, "transaction_date")
	sortOrder := ValidateSortOrder(filter.OrderDir)
	query = query.Order(sortField + " " + sortOrder)

	offset := (filter.Page - 1) * filter.PageSize
	if offset < 0 {
		offset = 0
	}
	limit := filter.PageSize
	if limit <= 0 {
		limit = 20
	}

	if err := query.Offset(offset).Limit(limit).Find(&txs).Error; err != nil {
		return nil, err
	}
	return txs, nil
}

// Insert persists a new ledger entry. A collision on the per-tenant
// transaction number unique index surfaces as shared.ErrDuplicateNumber so
// the caller can regenerate and retry.
func (r *GormBankTransactionRepository) Insert(ctx context.Context, tx *banking.BankTransaction) error {
	if err := r.db.WithContext(ctx).Create(tx).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.ErrDuplicateNumber
		}
		return err
	}
	return nil
}

// NextTransactionNumber computes the next number in the tenant's daily
// sequence. The read is deliberately unlocked: two concurrent callers may
// compute the same number, and the unique index turns the loser's insert
// into shared.ErrDuplicateNumber for a retry with a fresh number.
func (r *GormBankTransactionRepository) NextTransactionNumber(ctx context.Context, tenantID uuid.UUID, date time.Time) (string, error) {
	prefix := banking.TransactionNumberPrefix(date)

	var latest []string
	err := r.db.WithContext(ctx).
		Model(&banking.BankTransaction{}).
		Where("tenant_id = ? AND transaction_number LIKE ?", tenantID, prefix+"%").
		Order("transaction_number DESC").
		Limit(1).
		Pluck("transaction_number", &latest).Error
	if err != nil {
		return "", err
	}

	seq := 1
	if len(latest) > 0 {
		seq = banking.SequenceSuffix(latest[0]) + 1
	}
	return banking.FormatTransactionNumber(prefix, seq), nil
}
