package dto

import (
	"time"

	"github.com/mizan-erp/backend/internal/domain/identity"
)

// ProvisionTenantRequest is the payload for creating a tenant
type ProvisionTenantRequest struct {
	Code         string `json:"code" binding:"required,min=2,max=50"`
	Name         string `json:"name" binding:"required,min=2,max=200"`
	Subdomain    string `json:"subdomain" binding:"omitempty,max=63"`
	ContactEmail string `json:"contact_email" binding:"omitempty,email"`
	ContactPhone string `json:"contact_phone" binding:"omitempty,max=50"`
	Address      string `json:"address"`
	Notes        string `json:"notes"`
	Trial        bool   `json:"trial"`
}

// ChangePlanRequest is the payload for changing a tenant's subscription plan
type ChangePlanRequest struct {
	Plan      string               `json:"plan" binding:"required,oneof=free basic pro enterprise"`
	Limits    *TenantLimitsPayload `json:"limits"`
	ExpiresAt *time.Time           `json:"expires_at"`
}

// TenantLimitsPayload mirrors the plan limits in requests and responses
type TenantLimitsPayload struct {
	MaxUsers            int `json:"max_users"`
	MaxBranches         int `json:"max_branches"`
	MaxProducts         int `json:"max_products"`
	MaxInvoicesPerMonth int `json:"max_invoices_per_month"`
}

// TenantResponse is the API representation of a tenant
type TenantResponse struct {
	ID           string                  `json:"id"`
	Code         string                  `json:"code"`
	Subdomain    string                  `json:"subdomain"`
	Name         string                  `json:"name"`
	Status       string                  `json:"status"`
	Plan         string                  `json:"plan"`
	ContactEmail string                  `json:"contact_email,omitempty"`
	ContactPhone string                  `json:"contact_phone,omitempty"`
	Address      string                  `json:"address,omitempty"`
	TrialEndsAt  *time.Time              `json:"trial_ends_at,omitempty"`
	ExpiresAt    *time.Time              `json:"expires_at,omitempty"`
	Limits       TenantLimitsPayload     `json:"limits"`
	Settings     identity.TenantSettings `json:"settings"`
	CreatedAt    time.Time               `json:"created_at"`
	UpdatedAt    time.Time               `json:"updated_at"`
}

// NewTenantResponse maps a tenant aggregate to its API representation
func NewTenantResponse(t *identity.Tenant) TenantResponse {
	return TenantResponse{
		ID:           t.ID.String(),
		Code:         t.Code,
		Subdomain:    t.Subdomain,
		Name:         t.Name,
		Status:       string(t.Status),
		Plan:         string(t.Plan),
		ContactEmail: t.ContactEmail,
		ContactPhone: t.ContactPhone,
		Address:      t.Address,
		TrialEndsAt:  t.TrialEndsAt,
		ExpiresAt:    t.ExpiresAt,
		Limits: TenantLimitsPayload{
			MaxUsers:            t.Limits.MaxUsers,
			MaxBranches:         t.Limits.MaxBranches,
			MaxProducts:         t.Limits.MaxProducts,
			MaxInvoicesPerMonth: t.Limits.MaxInvoicesPerMonth,
		},
		Settings:  t.Settings,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

// NewTenantListResponse maps a slice of tenants
func NewTenantListResponse(tenants []identity.Tenant) []TenantResponse {
	out := make([]TenantResponse, 0, len(tenants))
	for i := range tenants {
		out = append(out, NewTenantResponse(&tenants[i]))
	}
	return out
}
