package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mizan-erp/backend/internal/domain/banking"
	"github.com/mizan-erp/backend/internal/domain/shared"
)

// GormChartAccountRepository implements banking.ChartAccountRepository using GORM
type GormChartAccountRepository struct {
	db *gorm.DB
}

// NewGormChartAccountRepository creates a new GormChartAccountRepository
func NewGormChartAccountRepository(db *gorm.DB) *GormChartAccountRepository {
	return &GormChartAccountRepository{db: db}
}

// FindByIDForTenant finds a chart account by ID within a tenant
func (r *GormChartAccountRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*banking.ChartAccount, error) {
	var account banking.ChartAccount
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

// FindByCodeForTenant finds a chart account by its code within a tenant
func (r *GormChartAccountRepository) FindByCodeForTenant(ctx context.Context, tenantID uuid.UUID, code string) (*banking.ChartAccount, error) {
	var account banking.ChartAccount
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND code = ?", tenantID, code).
		First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &account, nil
}

// FindAllForTenant lists a tenant's chart accounts
func (r *GormChartAccountRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]banking.ChartAccount, error) {
	var accounts []banking.ChartAccount
	query := r.db.WithContext(ctx).
		Model(&banking.ChartAccount{}).
		Where("tenant_id = ?", tenantID)

	if filter.Search != "" {
		keyword := "%" + filter.Search + "%"
		query = query.Where("code LIKE ? OR name LIKE ?", keyword, keyword)
	}

	sortField := ValidateSortField(filter.OrderBy, ChartAccountSortFields, "code")
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

// Save persists a chart account, creating it when new
func (r *GormChartAccountRepository) Save(ctx context.Context, account *banking.ChartAccount) error {
	if err := r.db.WithContext(ctx).Save(account).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}
