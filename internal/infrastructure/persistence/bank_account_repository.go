package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mizan-erp/backend/internal/domain/banking"
	"github.com/mizan-erp/backend/internal/domain/shared"
)

// GormBankAccountRepository implements banking.BankAccountRepository using GORM
type GormBankAccountRepository struct {
	db *gorm.DB
}

// NewGormBankAccountRepository creates a new GormBankAccountRepository
func NewGormBankAccountRepository(db *gorm.DB) *GormBankAccountRepository {
	return &GormBankAccountRepository{db: db}
}

// FindByIDForTenant finds a bank account by ID within a tenant
func (r *GormBankAccountRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*banking.BankAccount, error) {
	var account banking.BankAccount
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &account, nil
}

// FindAllForTenant lists a tenant's bank accounts
func (r *GormBankAccountRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]banking.BankAccount, error) {
	var accounts []banking.BankAccount
	query := r.db.WithContext(ctx).
		Model(&banking.BankAccount{}).
		Where("tenant_id = ?", tenantID)

	if filter.Search != "" {
		keyword := "%" + filter.Search + "%"
		query = query.Where("account_name LIKE ? OR account_number LIKE ? OR bank_name LIKE ?", keyword, keyword, keyword)
	}

	sortField := ValidateSortField(filter.OrderBy, BankAccountSortFields, "created_at")
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

	if err := query.Offset(offset).Limit(limit).Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

// FindActiveMirrored returns the tenant's active accounts linked to a chart
// account. The reconciliation job walks exactly this set.
func (r *GormBankAccountRepository) FindActiveMirrored(ctx context.Context, tenantID uuid.UUID) ([]banking.BankAccount, error) {
	var accounts []banking.BankAccount
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND is_active = ? AND chart_account_id IS NOT NULL", tenantID, true).
		Order("account_name ASC").
		Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

// Save persists a bank account, creating it when new
func (r *GormBankAccountRepository) Save(ctx context.Context, account *banking.BankAccount) error {
	if err := r.db.WithContext(ctx).Save(account).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// ExistsByAccountNumber reports whether the tenant already has an account
// with the given number
func (r *GormBankAccountRepository) ExistsByAccountNumber(ctx context.Context, tenantID uuid.UUID, accountNumber string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&banking.BankAccount{}).
		Where("tenant_id = ? AND account_number = ?", tenantID, accountNumber).
		Count(&count).Error
	return count > 0, err
}
