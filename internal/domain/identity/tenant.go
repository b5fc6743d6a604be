package identity

import (
	"regexp"
	"strings"
	"time"

	"github.com/mizan-erp/backend/internal/domain/shared"
)

// TenantStatus represents the status of a tenant
type TenantStatus string

const (
	TenantStatusActive    TenantStatus = "active"
	TenantStatusInactive  TenantStatus = "inactive"
	TenantStatusSuspended TenantStatus = "suspended" // Suspended due to payment/violation issues
	TenantStatusTrial     TenantStatus = "trial"     // Trial period
)

// TenantPlan represents the subscription plan of a tenant
type TenantPlan string

const (
	TenantPlanFree       TenantPlan = "free"
	TenantPlanBasic      TenantPlan = "basic"
	TenantPlanPro        TenantPlan = "pro"
	TenantPlanEnterprise TenantPlan = "enterprise"
)

// TenantLimits holds the plan limits for a tenant
type TenantLimits struct {
	MaxUsers            int `json:"max_users"`
	MaxBranches         int `json:"max_branches"`
	MaxProducts         int `json:"max_products"`
	MaxInvoicesPerMonth int `json:"max_invoices_per_month"`
}

// DefaultTenantLimits returns the limits applied to a new tenant
func DefaultTenantLimits() TenantLimits {
	return TenantLimits{
		MaxUsers:            5,
		MaxBranches:         1,
		MaxProducts:         100,
		MaxInvoicesPerMonth: 50,
	}
}

// TenantSettings holds per-tenant localization settings
type TenantSettings struct {
	Currency string `json:"currency"`
	Timezone string `json:"timezone"`
	Locale   string `json:"locale"`
}

// DefaultTenantSettings returns settings applied to a new tenant
func DefaultTenantSettings() TenantSettings {
	return TenantSettings{
		Currency: "SAR",
		Timezone: "Asia/Riyadh",
		Locale:   "ar",
	}
}

// Tenant represents an isolated customer organization sharing the database
// schema with other tenants. It is the aggregate root for tenant lifecycle
// operations. Tenants are never hard-deleted; deactivation is a status change.
type Tenant struct {
	shared.BaseAggregateRoot
	Code         string       `gorm:"type:varchar(50);not null;uniqueIndex"`
	Subdomain    string       `gorm:"type:varchar(63);not null;uniqueIndex"`
	Name         string       `gorm:"type:varchar(200);not null"`
	Status       TenantStatus `gorm:"type:varchar(20);not null;default:'active'"`
	Plan         TenantPlan   `gorm:"type:varchar(20);not null;default:'free'"`
	ContactEmail string       `gorm:"type:varchar(200)"`
	ContactPhone string       `gorm:"type:varchar(50)"`
	Address      string       `gorm:"type:text"`
	TrialEndsAt  *time.Time
	ExpiresAt    *time.Time     `gorm:"index"` // Subscription expiry date
	Limits       TenantLimits   `gorm:"embedded;embeddedPrefix:limit_"`
	Settings     TenantSettings `gorm:"embedded;embeddedPrefix:setting_"`
	Notes        string         `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (Tenant) TableName() string {
	return "tenants"
}

var subdomainPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)

// NewTenant creates a new active tenant with required fields
func NewTenant(code, subdomain, name string) (*Tenant, error) {
	if err := validateTenantCode(code); err != nil {
		return nil, err
	}
	if err := ValidateSubdomain(subdomain); err != nil {
		return nil, err
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Tenant name is required")
	}

	tenant := &Tenant{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              strings.ToUpper(code),
		Subdomain:         strings.ToLower(subdomain),
		Name:              name,
		Status:            TenantStatusActive,
		Plan:              TenantPlanFree,
		Limits:            DefaultTenantLimits(),
		Settings:          DefaultTenantSettings(),
	}

	tenant.AddDomainEvent(NewTenantCreatedEvent(tenant))

	return tenant, nil
}

// NewTrialTenant creates a new tenant in trial status
func NewTrialTenant(code, subdomain, name string, trialDays int) (*Tenant, error) {
	if trialDays <= 0 {
		return nil, shared.NewDomainError("INVALID_TRIAL_DAYS", "Trial days must be positive")
	}

	tenant, err := NewTenant(code, subdomain, name)
	if err != nil {
		return nil, err
	}

	tenant.Status = TenantStatusTrial
	trialEnds := time.Now().AddDate(0, 0, trialDays)
	tenant.TrialEndsAt = &trialEnds

	return tenant, nil
}

// IsActive reports whether the tenant may serve requests at all.
// Suspended and inactive tenants are rejected outright.
func (t *Tenant) IsActive() bool {
	return t.Status == TenantStatusActive || t.Status == TenantStatusTrial
}

// SubscriptionActive reports whether the tenant's trial or paid subscription
// is still valid at the given time. Inactive tenants are never active.
func (t *Tenant) SubscriptionActive(now time.Time) bool {
	if !t.IsActive() {
		return false
	}
	if t.Status == TenantStatusTrial {
		return t.TrialEndsAt == nil || now.Before(*t.TrialEndsAt)
	}
	return t.ExpiresAt == nil || now.Before(*t.ExpiresAt)
}

// Activate transitions the tenant to active status
func (t *Tenant) Activate() {
	t.Status = TenantStatusActive
	t.UpdatedAt = time.Now()
	t.IncrementVersion()
	t.AddDomainEvent(NewTenantStatusChangedEvent(t))
}

// Deactivate soft-deletes the tenant. The row is retained; only the status
// changes so historical data stays attributable.
func (t *Tenant) Deactivate() {
	t.Status = TenantStatusInactive
	t.UpdatedAt = time.Now()
	t.IncrementVersion()
	t.AddDomainEvent(NewTenantStatusChangedEvent(t))
}

// Suspend suspends the tenant (payment or policy issues)
func (t *Tenant) Suspend() {
	t.Status = TenantStatusSuspended
	t.UpdatedAt = time.Now()
	t.IncrementVersion()
	t.AddDomainEvent(NewTenantStatusChangedEvent(t))
}

// ChangePlan updates the subscription plan and its limits
func (t *Tenant) ChangePlan(plan TenantPlan, limits TenantLimits, expiresAt *time.Time) error {
	switch plan {
	case TenantPlanFree, TenantPlanBasic, TenantPlanPro, TenantPlanEnterprise:
	default:
		return shared.NewDomainError("INVALID_PLAN", "Unknown tenant plan")
	}

	t.Plan = plan
	t.Limits = limits
	t.ExpiresAt = expiresAt
	if t.Status == TenantStatusTrial {
		t.Status = TenantStatusActive
		t.TrialEndsAt = nil
	}
	t.UpdatedAt = time.Now()
	t.IncrementVersion()

	return nil
}

// SetContact sets the tenant's contact information
func (t *Tenant) SetContact(email, phone string) error {
	if email != "" && len(email) > 200 {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot exceed 200 characters")
	}
	if phone != "" && len(phone) > 50 {
		return shared.NewDomainError("INVALID_PHONE", "Phone cannot exceed 50 characters")
	}

	t.ContactEmail = email
	t.ContactPhone = phone
	t.UpdatedAt = time.Now()
	t.IncrementVersion()

	return nil
}

// CanAddUser reports whether the tenant may add another user given the
// current active-user count
func (t *Tenant) CanAddUser(currentUsers int) bool {
	return currentUsers < t.Limits.MaxUsers
}

// CanAddBranch reports whether the tenant may add another branch
func (t *Tenant) CanAddBranch(currentBranches int) bool {
	return currentBranches < t.Limits.MaxBranches
}

// CanAddProduct reports whether the tenant may add another product
func (t *Tenant) CanAddProduct(currentProducts int) bool {
	return currentProducts < t.Limits.MaxProducts
}

// ValidateSubdomain checks that a subdomain is a usable DNS label
func ValidateSubdomain(subdomain string) error {
	subdomain = strings.ToLower(subdomain)
	if len(subdomain) == 0 || len(subdomain) > 63 {
		return shared.NewDomainError("INVALID_SUBDOMAIN", "Subdomain must be 1-63 characters")
	}
	if !subdomainPattern.MatchString(subdomain) {
		return shared.NewDomainError("INVALID_SUBDOMAIN", "Subdomain may only contain lowercase letters, digits and hyphens")
	}
	if IsReservedSubdomain(subdomain) {
		return shared.NewDomainError("INVALID_SUBDOMAIN", "Subdomain is reserved")
	}
	return nil
}

// GenerateSubdomain derives a subdomain candidate from a company name
func GenerateSubdomain(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	s := b.String()
	if len(s) > 63 {
		s = s[:63]
	}
	return s
}

func validateTenantCode(code string) error {
	code = strings.TrimSpace(code)
	if len(code) == 0 || len(code) > 50 {
		return shared.NewDomainError("INVALID_CODE", "Tenant code must be 1-50 characters")
	}
	return nil
}
