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

// BankTransactionHandler exposes the append-only ledger operations: record,
// reverse and statement listing. There is no update or delete endpoint.
type BankTransactionHandler struct {
	BaseHandler
	ledgerService *appbanking.LedgerService
}

// NewBankTransactionHandler creates a new bank transaction handler
func NewBankTransactionHandler(ledgerService *appbanking.LedgerService) *BankTransactionHandler {
	return &BankTransactionHandler{ledgerService: ledgerService}
}

// Record handles POST /bank-transactions
func (h *BankTransactionHandler) Record(c *gin.Context) {
	tenantID, ok := middleware.MustGetTenantUUID(c)
	if !ok {
		return
	}

	var req dto.RecordTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	amount, err := toDecimal(req.Amount)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	bankAccountID, err := uuid.Parse(req.BankAccountID)
	if err != nil {
		h.BadRequest(c, "invalid bank account id")
		return
	}
	referenceID, err := uuid.Parse(req.ReferenceID)
	if err != nil {
		h.BadRequest(c, "invalid reference id")
		return
	}

	input := appbanking.RecordTransactionRequest{
		TenantID:      tenantID,
		BankAccountID: bankAccountID,
		Type:          banking.TransactionType(req.Type),
		Amount:        amount,
		ReferenceType: banking.ReferenceType(req.ReferenceType),
		ReferenceID:   referenceID,
		Description:   req.Description,
	}
	if req.Date != nil {
		input.Date = *req.Date
	}
	if userID := c.GetString(middleware.ContextKeyJWTUserID); userID != "" {
		if id, err := uuid.Parse(userID); err == nil {
			input.CreatedBy = &id
		}
	}

	tx, err := h.ledgerService.RecordTransaction(c.Request.Context(), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, dto.NewBankTransactionResponse(tx))
}

// Reverse handles POST /bank-transactions/reverse
func (h *BankTransactionHandler) Reverse(c *gin.Context) {
	tenantID, ok := middleware.MustGetTenantUUID(c)
	if !ok {
		return
	}

	var req dto.ReverseTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	referenceID, err := uuid.Parse(req.ReferenceID)
	if err != nil {
		h.BadRequest(c, "invalid reference id")
		return
	}

	input := appbanking.ReverseTransactionRequest{
		TenantID:      tenantID,
		ReferenceType: banking.ReferenceType(req.ReferenceType),
		ReferenceID:   referenceID,
		Description:   req.Description,
	}
	if userID := c.GetString(middleware.ContextKeyJWTUserID); userID != "" {
		if id, err := uuid.Parse(userID); err == nil {
			input.CreatedBy = &id
		}
	}

	tx, err := h.ledgerService.ReverseTransaction(c.Request.Context(), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, dto.NewBankTransactionResponse(tx))
}

// ListForAccount handles GET /bank-accounts/:id/transactions
func (h *BankTransactionHandler) ListForAccount(c *gin.Context) {
	tenantID, ok := middleware.MustGetTenantUUID(c)
	if !ok {
		return
	}

	var idReq dto.IDRequest
	if err := c.ShouldBindUri(&idReq); err != nil {
		h.BadRequest(c, "invalid account id")
		return
	}
	accountID, err := uuid.Parse(idReq.ID)
	if err != nil {
		h.BadRequest(c, "invalid account id")
		return
	}

	var req dto.TransactionListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter := banking.BankTransactionFilter{
		Filter:   shared.DefaultFilter(),
		FromDate: req.FromDate,
		ToDate:   req.ToDate,
	}
	if req.Page > 0 {
		filter.Page = req.Page
	}
	if req.PageSize > 0 {
		filter.PageSize = req.PageSize
	}

	txs, err := h.ledgerService.ListAccountTransactions(c.Request.Context(), tenantID, accountID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, dto.NewBankTransactionListResponse(txs), filter.Page, filter.PageSize, len(txs))
}
