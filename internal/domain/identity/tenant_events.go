package identity

import (
	"github.com/mizan-erp/backend/internal/domain/shared"
)

// Event types for the Tenant aggregate
const (
	EventTypeTenantCreated       = "tenant.created"
	EventTypeTenantStatusChanged = "tenant.status_changed"
)

// TenantCreatedEvent is published when a new tenant is provisioned
type TenantCreatedEvent struct {
	shared.BaseDomainEvent
	Code      string `json:"code"`
	Subdomain string `json:"subdomain"`
	Name      string `json:"name"`
}

// NewTenantCreatedEvent creates a new TenantCreatedEvent
func NewTenantCreatedEvent(t *Tenant) *TenantCreatedEvent {
	return &TenantCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTenantCreated, "Tenant", t.ID, t.ID),
		Code:            t.Code,
		Subdomain:       t.Subdomain,
		Name:            t.Name,
	}
}

// TenantStatusChangedEvent is published when a tenant's status changes
type TenantStatusChangedEvent struct {
	shared.BaseDomainEvent
	Status TenantStatus `json:"status"`
}

// NewTenantStatusChangedEvent creates a new TenantStatusChangedEvent
func NewTenantStatusChangedEvent(t *Tenant) *TenantStatusChangedEvent {
	return &TenantStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTenantStatusChanged, "Tenant", t.ID, t.ID),
		Status:          t.Status,
	}
}
