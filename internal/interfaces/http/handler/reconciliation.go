package handler

import (
	"github.com/gin-gonic/gin"

	appbanking "github.com/mizan-erp/backend/internal/application/banking"
	"github.com/mizan-erp/backend/internal/interfaces/http/middleware"
)

// ReconciliationHandler triggers an on-demand balance reconciliation for the
// resolved tenant, in addition to the scheduled nightly run
type ReconciliationHandler struct {
	BaseHandler
	reconciliationService *appbanking.ReconciliationService
}

// NewReconciliationHandler creates a new reconciliation handler
func NewReconciliationHandler(reconciliationService *appbanking.ReconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{reconciliationService: reconciliationService}
}

// ReconcileRequest controls a manual reconciliation run
type ReconcileRequest struct {
	// Repair rewrites drifted chart balances; false reports drift only
	Repair bool `json:"repair"`
}

// Run handles POST /reconciliation/run
func (h *ReconciliationHandler) Run(c *gin.Context) {
	tenantID, ok := middleware.MustGetTenantUUID(c)
	if !ok {
		return
	}

	var req ReconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		h.BadRequest(c, err.Error())
		return
	}

	summary, err := h.reconciliationService.Reconcile(c.Request.Context(), tenantID, req.Repair)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, summary)
}
