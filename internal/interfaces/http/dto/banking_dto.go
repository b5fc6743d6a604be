package dto

import (
	"time"

	"github.com/mizan-erp/backend/internal/domain/banking"
)

// OpenBankAccountRequest is the payload for opening a bank account
type OpenBankAccountRequest struct {
	AccountName      string `json:"account_name" binding:"required,min=2,max=200"`
	AccountNumber    string `json:"account_number" binding:"required,max=64"`
	BankName         string `json:"bank_name" binding:"omitempty,max=200"`
	Branch           string `json:"branch" binding:"omitempty,max=200"`
	IBAN             string `json:"iban" binding:"omitempty,max=64"`
	SwiftCode        string `json:"swift_code" binding:"omitempty,max=20"`
	Type             string `json:"type" binding:"required,oneof=current savings investment"`
	Currency         string `json:"currency" binding:"omitempty,len=3"`
	OpeningBalance   string `json:"opening_balance" binding:"omitempty"`
	ChartAccountCode string `json:"chart_account_code" binding:"omitempty,max=50"`
	Notes            string `json:"notes"`
}

// RecordTransactionRequest is the payload for appending a ledger entry
type RecordTransactionRequest struct {
	BankAccountID string     `json:"bank_account_id" binding:"required,uuid"`
	Type          string     `json:"type" binding:"required,oneof=deposit withdrawal"`
	Amount        string     `json:"amount" binding:"required"`
	ReferenceType string     `json:"reference_type" binding:"required"`
	ReferenceID   string     `json:"reference_id" binding:"required,uuid"`
	Description   string     `json:"description"`
	Date          *time.Time `json:"date"`
}

// ReverseTransactionRequest identifies the entry to reverse by its source
// document
type ReverseTransactionRequest struct {
	ReferenceType string `json:"reference_type" binding:"required"`
	ReferenceID   string `json:"reference_id" binding:"required,uuid"`
	Description   string `json:"description"`
}

// TransactionListRequest filters a bank account statement
type TransactionListRequest struct {
	ListRequest
	FromDate *time.Time `form:"from_date" time_format:"2006-01-02"`
	ToDate   *time.Time `form:"to_date" time_format:"2006-01-02"`
}

// BankAccountResponse is the API representation of a bank account
type BankAccountResponse struct {
	ID             string    `json:"id"`
	AccountName    string    `json:"account_name"`
	AccountNumber  string    `json:"account_number"`
	BankName       string    `json:"bank_name,omitempty"`
	Branch         string    `json:"branch,omitempty"`
	IBAN           string    `json:"iban,omitempty"`
	SwiftCode      string    `json:"swift_code,omitempty"`
	Type           string    `json:"type"`
	Currency       string    `json:"currency"`
	OpeningBalance string    `json:"opening_balance"`
	CurrentBalance string    `json:"current_balance"`
	ChartAccountID *string   `json:"chart_account_id,omitempty"`
	IsActive       bool      `json:"is_active"`
	Notes          string    `json:"notes,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewBankAccountResponse maps a bank account aggregate to its API shape
func NewBankAccountResponse(a *banking.BankAccount) BankAccountResponse {
	resp := BankAccountResponse{
		ID:             a.ID.String(),
		AccountName:    a.AccountName,
		AccountNumber:  a.AccountNumber,
		BankName:       a.BankName,
		Branch:         a.Branch,
		IBAN:           a.IBAN,
		SwiftCode:      a.SwiftCode,
		Type:           string(a.Type),
		Currency:       a.Currency,
		OpeningBalance: a.OpeningBalance.String(),
		CurrentBalance: a.CurrentBalance.String(),
		IsActive:       a.IsActive,
		Notes:          a.Notes,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
	if a.ChartAccountID != nil {
		id := a.ChartAccountID.String()
		resp.ChartAccountID = &id
	}
	return resp
}

// NewBankAccountListResponse maps a slice of bank accounts
func NewBankAccountListResponse(accounts []banking.BankAccount) []BankAccountResponse {
	out := make([]BankAccountResponse, 0, len(accounts))
	for i := range accounts {
		out = append(out, NewBankAccountResponse(&accounts[i]))
	}
	return out
}

// BankTransactionResponse is the API representation of a ledger entry
type BankTransactionResponse struct {
	ID                string    `json:"id"`
	TransactionNumber string    `json:"transaction_number"`
	TransactionDate   time.Time `json:"transaction_date"`
	BankAccountID     string    `json:"bank_account_id"`
	Type              string    `json:"type"`
	Amount            string    `json:"amount"`
	ReferenceType     string    `json:"reference_type"`
	ReferenceID       string    `json:"reference_id"`
	Description       string    `json:"description,omitempty"`
	BalanceAfter      string    `json:"balance_after"`
	CreatedAt         time.Time `json:"created_at"`
}

// NewBankTransactionResponse maps a ledger entry to its API shape
func NewBankTransactionResponse(tx *banking.BankTransaction) BankTransactionResponse {
	return BankTransactionResponse{
		ID:                tx.ID.String(),
		TransactionNumber: tx.TransactionNumber,
		TransactionDate:   tx.TransactionDate,
		BankAccountID:     tx.BankAccountID.String(),
		Type:              string(tx.Type),
		Amount:            tx.Amount.String(),
		ReferenceType:     string(tx.ReferenceType),
		ReferenceID:       tx.ReferenceID.String(),
		Description:       tx.Description,
		BalanceAfter:      tx.BalanceAfter.String(),
		CreatedAt:         tx.CreatedAt,
	}
}

// NewBankTransactionListResponse maps a slice of ledger entries
func NewBankTransactionListResponse(txs []banking.BankTransaction) []BankTransactionResponse {
	out := make([]BankTransactionResponse, 0, len(txs))
	for i := range txs {
		out = append(out, NewBankTransactionResponse(&txs[i]))
	}
	return out
}
