package identity

import (
	"context"

	"github.com/google/uuid"
)

// TenantRepository defines persistence operations for the Tenant aggregate.
// Implementations must bypass tenant query filtering: the tenants table is
// the one table the isolation layer never scopes, and these lookups run
// before any tenant is bound to the request.
type TenantRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Tenant, error)
	FindByCode(ctx context.Context, code string) (*Tenant, error)
	FindBySubdomain(ctx context.Context, subdomain string) (*Tenant, error)
	FindAll(ctx context.Context) ([]Tenant, error)
	Save(ctx context.Context, tenant *Tenant) error
	ExistsByCode(ctx context.Context, code string) (bool, error)
	ExistsBySubdomain(ctx context.Context, subdomain string) (bool, error)
}
