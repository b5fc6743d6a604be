package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mizan-erp/backend/internal/domain/identity"
	"github.com/mizan-erp/backend/internal/domain/shared"
	"github.com/mizan-erp/backend/internal/infrastructure/logger"
)

// maxSubdomainAttempts bounds the uniqueness loop when deriving a subdomain
// from the company name
const maxSubdomainAttempts = 10

// TenantService handles tenant provisioning and lifecycle operations. All of
// its reads and writes go through the unscoped tenants table; it is the only
// service that runs before a tenant is bound to the request.
type TenantService struct {
	tenantRepo identity.TenantRepository
	trialDays  int
}

// NewTenantService creates a new tenant service
func NewTenantService(tenantRepo identity.TenantRepository, trialDays int) *TenantService {
	return &TenantService{
		tenantRepo: tenantRepo,
		trialDays:  trialDays,
	}
}

// ProvisionTenantInput contains input for provisioning a tenant
type ProvisionTenantInput struct {
	Code         string
	Name         string
	Subdomain    string // optional; derived from Name when empty
	ContactEmail string
	ContactPhone string
	Address      string
	Notes        string
	Trial        bool // start in trial status instead of active
}

// ProvisionTenant creates a new tenant with a unique code and subdomain.
// When no subdomain is given, one is derived from the company name and
// suffixed with a counter until it is free.
func (s *TenantService) ProvisionTenant(ctx context.Context, input ProvisionTenantInput) (*identity.Tenant, error) {
	exists, err := s.tenantRepo.ExistsByCode(ctx, input.Code)
	if err != nil {
		return nil, fmt.Errorf("failed to check tenant code: %w", err)
	}
	if exists {
		return nil, shared.NewDomainError("CODE_EXISTS", "Tenant code already exists")
	}

	subdomain := input.Subdomain
	if subdomain == "" {
		subdomain, err = s.freeSubdomain(ctx, identity.GenerateSubdomain(input.Name))
		if err != nil {
			return nil, err
		}
	} else {
		taken, err := s.tenantRepo.ExistsBySubdomain(ctx, subdomain)
		if err != nil {
			return nil, fmt.Errorf("failed to check subdomain: %w", err)
		}
		if taken {
			return nil, shared.NewDomainError("SUBDOMAIN_EXISTS", "Subdomain already exists")
		}
	}

	var tenant *identity.Tenant
	if input.Trial {
		tenant, err = identity.NewTrialTenant(input.Code, subdomain, input.Name, s.trialDays)
	} else {
		tenant, err = identity.NewTenant(input.Code, subdomain, input.Name)
	}
	if err != nil {
		return nil, err
	}

	if input.ContactEmail != "" || input.ContactPhone != "" {
		if err := tenant.SetContact(input.ContactEmail, input.ContactPhone); err != nil {
			return nil, err
		}
	}
	tenant.Address = input.Address
	tenant.Notes = input.Notes

	if err := s.tenantRepo.Save(ctx, tenant); err != nil {
		// A concurrent provision may have claimed the code or subdomain
		// between the existence check and the insert
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, shared.NewDomainError("CODE_EXISTS", "Tenant code or subdomain already exists")
		}
		return nil, fmt.Errorf("failed to save tenant: %w", err)
	}

	logger.L(ctx).Info("tenant provisioned",
		zap.String("tenant_id", tenant.ID.String()),
		zap.String("code", tenant.Code),
		zap.String("subdomain", tenant.Subdomain),
		zap.String("status", string(tenant.Status)),
	)
	return tenant, nil
}

// freeSubdomain finds an unused subdomain starting from the candidate,
// appending a numeric suffix on collision
func (s *TenantService) freeSubdomain(ctx context.Context, base string) (string, error) {
	if err := identity.ValidateSubdomain(base); err != nil {
		return "", err
	}

	candidate := base
	for attempt := 1; attempt <= maxSubdomainAttempts; attempt++ {
		taken, err := s.tenantRepo.ExistsBySubdomain(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("failed to check subdomain: %w", err)
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s%d", base, attempt)
	}
	return "", shared.NewDomainError("SUBDOMAIN_EXHAUSTED", "Could not find a free subdomain, provide one explicitly")
}

// GetByID retrieves a tenant by ID
func (s *TenantService) GetByID(ctx context.Context, id uuid.UUID) (*identity.Tenant, error) {
	return s.tenantRepo.FindByID(ctx, id)
}

// GetByCode retrieves a tenant by code
func (s *TenantService) GetByCode(ctx context.Context, code string) (*identity.Tenant, error) {
	return s.tenantRepo.FindByCode(ctx, code)
}

// GetBySubdomain retrieves a tenant by subdomain. Used by the request
// resolver; a reserved label never reaches this point.
func (s *TenantService) GetBySubdomain(ctx context.Context, subdomain string) (*identity.Tenant, error) {
	return s.tenantRepo.FindBySubdomain(ctx, subdomain)
}

// List returns all tenants, newest first
func (s *TenantService) List(ctx context.Context) ([]identity.Tenant, error) {
	return s.tenantRepo.FindAll(ctx)
}

// Activate transitions a tenant to active status
func (s *TenantService) Activate(ctx context.Context, id uuid.UUID) (*identity.Tenant, error) {
	return s.transition(ctx, id, "tenant activated", (*identity.Tenant).Activate)
}

// Deactivate soft-deletes a tenant. Its data is retained but requests are
// rejected at resolution time.
func (s *TenantService) Deactivate(ctx context.Context, id uuid.UUID) (*identity.Tenant, error) {
	return s.transition(ctx, id, "tenant deactivated", (*identity.Tenant).Deactivate)
}

// Suspend suspends a tenant for payment or policy reasons
func (s *TenantService) Suspend(ctx context.Context, id uuid.UUID) (*identity.Tenant, error) {
	return s.transition(ctx, id, "tenant suspended", (*identity.Tenant).Suspend)
}

func (s *TenantService) transition(ctx context.Context, id uuid.UUID, msg string, apply func(*identity.Tenant)) (*identity.Tenant, error) {
	tenant, err := s.tenantRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	apply(tenant)

	if err := s.tenantRepo.Save(ctx, tenant); err != nil {
		return nil, fmt.Errorf("failed to save tenant: %w", err)
	}

	logger.L(ctx).Info(msg, zap.String("tenant_id", id.String()))
	return tenant, nil
}

// ChangePlanInput contains input for a plan change
type ChangePlanInput struct {
	TenantID  uuid.UUID
	Plan      identity.TenantPlan
	Limits    *identity.TenantLimits // nil keeps the defaults for the plan
	ExpiresAt *time.Time
}

// ChangePlan moves a tenant to a new subscription plan. A trial tenant
// becomes active in the process.
func (s *TenantService) ChangePlan(ctx context.Context, input ChangePlanInput) (*identity.Tenant, error) {
	tenant, err := s.tenantRepo.FindByID(ctx, input.TenantID)
	if err != nil {
		return nil, err
	}

	limits := identity.DefaultTenantLimits()
	if input.Limits != nil {
		limits = *input.Limits
	}

	if err := tenant.ChangePlan(input.Plan, limits, input.ExpiresAt); err != nil {
		return nil, err
	}

	if err := s.tenantRepo.Save(ctx, tenant); err != nil {
		return nil, fmt.Errorf("failed to save tenant: %w", err)
	}

	logger.L(ctx).Info("tenant plan changed",
		zap.String("tenant_id", input.TenantID.String()),
		zap.String("plan", string(input.Plan)),
	)
	return tenant, nil
}
