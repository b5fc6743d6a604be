package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appidentity "github.com/mizan-erp/backend/internal/application/identity"
	"github.com/mizan-erp/backend/internal/domain/identity"
	"github.com/mizan-erp/backend/internal/interfaces/http/dto"
)

// TenantHandler exposes the tenant administration surface. These endpoints
// operate across tenants and are mounted outside the tenant-scoped API.
type TenantHandler struct {
	BaseHandler
	tenantService *appidentity.TenantService
}

// NewTenantHandler creates a new tenant handler
func NewTenantHandler(tenantService *appidentity.TenantService) *TenantHandler {
	return &TenantHandler{tenantService: tenantService}
}

// Provision handles POST /admin/tenants
func (h *TenantHandler) Provision(c *gin.Context) {
	var req dto.ProvisionTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	tenant, err := h.tenantService.ProvisionTenant(c.Request.Context(), appidentity.ProvisionTenantInput{
		Code:         req.Code,
		Name:         req.Name,
		Subdomain:    req.Subdomain,
		ContactEmail: req.ContactEmail,
		ContactPhone: req.ContactPhone,
		Address:      req.Address,
		Notes:        req.Notes,
		Trial:        req.Trial,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, dto.NewTenantResponse(tenant))
}

// List handles GET /admin/tenants
func (h *TenantHandler) List(c *gin.Context) {
	tenants, err := h.tenantService.List(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.NewTenantListResponse(tenants))
}

// Get handles GET /admin/tenants/:id
func (h *TenantHandler) Get(c *gin.Context) {
	id, ok := h.tenantID(c)
	if !ok {
		return
	}

	tenant, err := h.tenantService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.NewTenantResponse(tenant))
}

// Activate handles POST /admin/tenants/:id/activate
func (h *TenantHandler) Activate(c *gin.Context) {
	h.transition(c, h.tenantService.Activate)
}

// Deactivate handles POST /admin/tenants/:id/deactivate
func (h *TenantHandler) Deactivate(c *gin.Context) {
	h.transition(c, h.tenantService.Deactivate)
}

// Suspend handles POST /admin/tenants/:id/suspend
func (h *TenantHandler) Suspend(c *gin.Context) {
	h.transition(c, h.tenantService.Suspend)
}

// ChangePlan handles POST /admin/tenants/:id/plan
func (h *TenantHandler) ChangePlan(c *gin.Context) {
	id, ok := h.tenantID(c)
	if !ok {
		return
	}

	var req dto.ChangePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	input := appidentity.ChangePlanInput{
		TenantID:  id,
		Plan:      identity.TenantPlan(req.Plan),
		ExpiresAt: req.ExpiresAt,
	}
	if req.Limits != nil {
		input.Limits = &identity.TenantLimits{
			MaxUsers:            req.Limits.MaxUsers,
			MaxBranches:         req.Limits.MaxBranches,
			MaxProducts:         req.Limits.MaxProducts,
			MaxInvoicesPerMonth: req.Limits.MaxInvoicesPerMonth,
		}
	}

	tenant, err := h.tenantService.ChangePlan(c.Request.Context(), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.NewTenantResponse(tenant))
}

func (h *TenantHandler) transition(c *gin.Context, apply func(ctx context.Context, id uuid.UUID) (*identity.Tenant, error)) {
	id, ok := h.tenantID(c)
	if !ok {
		return
	}

	tenant, err := apply(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.NewTenantResponse(tenant))
}

func (h *TenantHandler) tenantID(c *gin.Context) (uuid.UUID, bool) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, "invalid tenant id")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		h.BadRequest(c, "invalid tenant id")
		return uuid.Nil, false
	}
	return id, true
}
