package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appbanking "github.com/mizan-erp/backend/internal/application/banking"
	"github.com/mizan-erp/backend/internal/domain/banking"
	"github.com/mizan-erp/backend/internal/domain/shared"
	"github.com/mizan-erp/backend/internal/interfaces/http/dto"
	"github.com/mizan-erp/backend/internal/interfaces/http/middleware"
)

// BankAccountHandler exposes bank account operations within the resolved
// tenant's scope
type BankAccountHandler struct {
	BaseHandler
	accountService *appbanking.BankAccountService
}

// NewBankAccountHandler creates a new bank account handler
func NewBankAccountHandler(accountService *appbanking.BankAccountService) *BankAccountHandler {
	return &BankAccountHandler{accountService: accountService}
}

// Open handles POST /bank-accounts
func (h *BankAccountHandler) Open(c *gin.Context) {
	tenantID, ok := middleware.MustGetTenantUUID(c)
	if !ok {
		return
	}

	var req dto.OpenBankAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	openingBalance, err := toDecimal(req.OpeningBalance)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	input := appbanking.OpenAccountRequest{
		TenantID:         tenantID,
		AccountName:      req.AccountName,
		AccountNumber:    req.AccountNumber,
		BankName:         req.BankName,
		Branch:           req.Branch,
		IBAN:             req.IBAN,
		SwiftCode:        req.SwiftCode,
		Type:             banking.BankAccountType(req.Type),
		Currency:         req.Currency,
		OpeningBalance:   openingBalance,
		ChartAccountCode: req.ChartAccountCode,
		Notes:            req.Notes,
	}
	if userID := c.GetString(middleware.ContextKeyJWTUserID); userID != "" {
		if id, err := uuid.Parse(userID); err == nil {
			input.CreatedBy = &id
		}
	}

	account, err := h.accountService.OpenAccount(c.Request.Context(), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, dto.NewBankAccountResponse(account))
}

// List handles GET /bank-accounts
func (h *BankAccountHandler) List(c *gin.Context) {
	tenantID, ok := middleware.MustGetTenantUUID(c)
	if !ok {
		return
	}

	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter := shared.DefaultFilter()
	if req.Page > 0 {
		filter.Page = req.Page
	}
	if req.PageSize > 0 {
		filter.PageSize = req.PageSize
	}
	filter.OrderBy = req.OrderBy
	filter.OrderDir = req.OrderDir
	filter.Search = req.Search

	accounts, err := h.accountService.ListAccounts(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, dto.NewBankAccountListResponse(accounts), filter.Page, filter.PageSize, len(accounts))
}

// Get handles GET /bank-accounts/:id
func (h *BankAccountHandler) Get(c *gin.Context) {
	tenantID, ok := middleware.MustGetTenantUUID(c)
	if !ok {
		return
	}

	accountID, ok := h.accountID(c)
	if !ok {
		return
	}

	account, err := h.accountService.GetAccount(c.Request.Context(), tenantID, accountID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.NewBankAccountResponse(account))
}

// Deactivate handles POST /bank-accounts/:id/deactivate
func (h *BankAccountHandler) Deactivate(c *gin.Context) {
	tenantID, ok := middleware.MustGetTenantUUID(c)
	if !ok {
		return
	}

	accountID, ok := h.accountID(c)
	if !ok {
		return
	}

	if err := h.accountService.DeactivateAccount(c.Request.Context(), tenantID, accountID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

func (h *BankAccountHandler) accountID(c *gin.Context) (uuid.UUID, bool) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, "invalid account id")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		h.BadRequest(c, "invalid account id")
		return uuid.Nil, false
	}
	return id, true
}
