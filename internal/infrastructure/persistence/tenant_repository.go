package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mizan-erp/backend/internal/domain/identity"
	"github.com/mizan-erp/backend/internal/domain/shared"
)

// GormTenantRepository implements identity.TenantRepository using GORM.
// The tenants table is exempt from tenant scoping: resolution has to read it
// before any tenant is bound to the context.
type GormTenantRepository struct {
	db *gorm.DB
}

// NewGormTenantRepository creates a new GormTenantRepository
func NewGormTenantRepository(db *gorm.DB) *GormTenantRepository {
	return &GormTenantRepository{db: db}
}

// FindByID finds a tenant by its ID
func (r *GormTenantRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Tenant, error) {
	var t identity.Tenant
	if err := r.db.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// FindByCode finds a tenant by its unique code
func (r *GormTenantRepository) FindByCode(ctx context.Context, code string) (*identity.Tenant, error) {
	var t identity.Tenant
	if err := r.db.WithContext(ctx).
		Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).
		First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// FindBySubdomain finds a tenant by its subdomain label
func (r *GormTenantRepository) FindBySubdomain(ctx context.Context, subdomain string) (*identity.Tenant, error) {
	if subdomain == "" {
		return nil, shared.ErrNotFound
	}
	var t identity.Tenant
	if err := r.db.WithContext(ctx).
		Where("subdomain = ?", strings.ToLower(strings.TrimSpace(subdomain))).
		First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// FindAll returns every registered tenant, newest first
func (r *GormTenantRepository) FindAll(ctx context.Context) ([]identity.Tenant, error) {
	var tenants []identity.Tenant
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&tenants).Error; err != nil {
		return nil, err
	}
	return tenants, nil
}

// Save persists a tenant, creating it when new
func (r *GormTenantRepository) Save(ctx context.Context, tenant *identity.Tenant) error {
	if err := r.db.WithContext(ctx).Save(tenant).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// ExistsByCode reports whether a tenant with the given code exists
func (r *GormTenantRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&identity.Tenant{}).
		Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).
		Count(&count).Error
	return count > 0, err
}

// ExistsBySubdomain reports whether a tenant with the given subdomain exists
func (r *GormTenantRepository) ExistsBySubdomain(ctx context.Context, subdomain string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&identity.Tenant{}).
		Where("subdomain = ?", strings.ToLower(strings.TrimSpace(subdomain))).
		Count(&count).Error
	return count > 0, err
}
