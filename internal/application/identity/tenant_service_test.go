package identity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mizan-erp/backend/internal/domain/identity"
	"github.com/mizan-erp/backend/internal/domain/shared"
	"github.com/mizan-erp/backend/internal/infrastructure/persistence"
)

func newTenantTestService(t *testing.T) *TenantService {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&identity.Tenant{}))

	return NewTenantService(persistence.NewGormTenantRepository(db), 14)
}

func TestProvisionTenant(t *testing.T) {
	svc := newTenantTestService(t)
	ctx := context.Background()

	tenant, err := svc.ProvisionTenant(ctx, ProvisionTenantInput{
		Code:         "acme",
		Name:         "Acme Trading Co",
		ContactEmail: "owner@acme.example",
	})
	require.NoError(t, err)

	assert.Equal(t, "ACME", tenant.Code)
	assert.Equal(t, "acmetradingco", tenant.Subdomain)
	assert.Equal(t, identity.TenantStatusActive, tenant.Status)
	assert.Equal(t, identity.TenantPlanFree, tenant.Plan)
	assert.Equal(t, "owner@acme.example", tenant.ContactEmail)
	assert.Equal(t, identity.DefaultTenantLimits(), tenant.Limits)
}

func TestProvisionTenant_Trial(t *testing.T) {
	svc := newTenantTestService(t)

	tenant, err := svc.ProvisionTenant(context.Background(), ProvisionTenantInput{
		Code:  "TRIAL1",
		Name:  "Trial Company",
		Trial: true,
	})
	require.NoError(t, err)

	assert.Equal(t, identity.TenantStatusTrial, tenant.Status)
	require.NotNil(t, tenant.TrialEndsAt)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 14), *tenant.TrialEndsAt, time.Minute)
	assert.True(t, tenant.SubscriptionActive(time.Now()))
}

func TestProvisionTenant_DuplicateCode(t *testing.T) {
	svc := newTenantTestService(t)
	ctx := context.Background()

	_, err := svc.ProvisionTenant(ctx, ProvisionTenantInput{Code: "ACME", Name: "First"})
	require.NoError(t, err)

	_, err = svc.ProvisionTenant(ctx, ProvisionTenantInput{Code: "acme", Name: "Second"})
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "CODE_EXISTS", domainErr.Code)
}

func TestProvisionTenant_SubdomainCollisionGetsSuffix(t *testing.T) {
	svc := newTenantTestService(t)
	ctx := context.Background()

	first, err := svc.ProvisionTenant(ctx, ProvisionTenantInput{Code: "A1", Name: "Acme"})
	require.NoError(t, err)
	assert.Equal(t, "acme", first.Subdomain)

	second, err := svc.ProvisionTenant(ctx, ProvisionTenantInput{Code: "A2", Name: "Acme"})
	require.NoError(t, err)
	assert.Equal(t, "acme1", second.Subdomain)
}

func TestProvisionTenant_ExplicitSubdomainTaken(t *testing.T) {
	svc := newTenantTestService(t)
	ctx := context.Background()

	_, err := svc.ProvisionTenant(ctx, ProvisionTenantInput{Code: "A1", Name: "First", Subdomain: "shared"})
	require.NoError(t, err)

	_, err = svc.ProvisionTenant(ctx, ProvisionTenantInput{Code: "A2", Name: "Second", Subdomain: "shared"})
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "SUBDOMAIN_EXISTS", domainErr.Code)
}

func TestProvisionTenant_ReservedName(t *testing.T) {
	svc := newTenantTestService(t)

	// "Admin" collapses to the reserved label "admin"
	_, err := svc.ProvisionTenant(context.Background(), ProvisionTenantInput{Code: "A1", Name: "Admin"})
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_SUBDOMAIN", domainErr.Code)
}

func TestTenantLifecycle(t *testing.T) {
	svc := newTenantTestService(t)
	ctx := context.Background()

	tenant, err := svc.ProvisionTenant(ctx, ProvisionTenantInput{Code: "LIFE", Name: "Lifecycle Co"})
	require.NoError(t, err)

	suspended, err := svc.Suspend(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, identity.TenantStatusSuspended, suspended.Status)
	assert.False(t, suspended.IsActive())

	activated, err := svc.Activate(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, identity.TenantStatusActive, activated.Status)

	deactivated, err := svc.Deactivate(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, identity.TenantStatusInactive, deactivated.Status)

	// The row survives deactivation
	found, err := svc.GetByID(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, identity.TenantStatusInactive, found.Status)
}

func TestChangePlan_EndsTrial(t *testing.T) {
	svc := newTenantTestService(t)
	ctx := context.Background()

	tenant, err := svc.ProvisionTenant(ctx, ProvisionTenantInput{Code: "UP", Name: "Upgrader", Trial: true})
	require.NoError(t, err)

	expires := time.Now().AddDate(1, 0, 0)
	upgraded, err := svc.ChangePlan(ctx, ChangePlanInput{
		TenantID: tenant.ID,
		Plan:     identity.TenantPlanPro,
		Limits:   &identity.TenantLimits{MaxUsers: 50, MaxBranches: 5, MaxProducts: 10000, MaxInvoicesPerMonth: 5000},
		ExpiresAt: &expires,
	})
	require.NoError(t, err)

	assert.Equal(t, identity.TenantPlanPro, upgraded.Plan)
	assert.Equal(t, identity.TenantStatusActive, upgraded.Status)
	assert.Nil(t, upgraded.TrialEndsAt)
	assert.Equal(t, 50, upgraded.Limits.MaxUsers)
}

func TestChangePlan_InvalidPlan(t *testing.T) {
	svc := newTenantTestService(t)
	ctx := context.Background()

	tenant, err := svc.ProvisionTenant(ctx, ProvisionTenantInput{Code: "BAD", Name: "Bad Plan Co"})
	require.NoError(t, err)

	_, err = svc.ChangePlan(ctx, ChangePlanInput{TenantID: tenant.ID, Plan: "platinum"})
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_PLAN", domainErr.Code)
}

func TestGetBySubdomain(t *testing.T) {
	svc := newTenantTestService(t)
	ctx := context.Background()

	tenant, err := svc.ProvisionTenant(ctx, ProvisionTenantInput{Code: "SUB", Name: "Subdomain Co", Subdomain: "subco"})
	require.NoError(t, err)

	found, err := svc.GetBySubdomain(ctx, "SubCo")
	require.NoError(t, err)
	assert.Equal(t, tenant.ID, found.ID)

	_, err = svc.GetBySubdomain(ctx, "unknown")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
