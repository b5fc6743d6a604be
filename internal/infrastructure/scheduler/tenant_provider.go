package scheduler

import (
	"context"

	"github.com/google/uuid"

	"github.com/mizan-erp/backend/internal/domain/identity"
)

// RepositoryTenantProvider adapts the tenant repository to the TenantProvider
// interface, yielding only tenants that may serve requests
type RepositoryTenantProvider struct {
	repo identity.TenantRepository
}

// NewRepositoryTenantProvider creates a TenantProvider backed by the tenant
// repository
func NewRepositoryTenantProvider(repo identity.TenantRepository) *RepositoryTenantProvider {
	return &RepositoryTenantProvider{repo: repo}
}

// GetAllActiveTenantIDs returns the IDs of all active and trial tenants
func (p *RepositoryTenantProvider) GetAllActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error) {
	tenants, err := p.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(tenants))
	for i := range tenants {
		if tenants[i].IsActive() {
			ids = append(ids, tenants[i].ID)
		}
	}
	return ids, nil
}
