package banking

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mizan-erp/backend/internal/domain/shared"
)

// BankAccountType classifies the kind of external bank account
type BankAccountType string

const (
	BankAccountTypeCurrent    BankAccountType = "current"
	BankAccountTypeSavings    BankAccountType = "savings"
	BankAccountTypeInvestment BankAccountType = "investment"
)

// IsValid checks if the type is a valid BankAccountType
func (t BankAccountType) IsValid() bool {
	switch t {
	case BankAccountTypeCurrent, BankAccountTypeSavings, BankAccountTypeInvestment:
		return true
	}
	return false
}

// BankAccount is an external account whose running balance is maintained by
// the ledger engine. It may be linked 1:1 to a ChartAccount; when linked,
// every balance change is mirrored onto the chart account's debit balance.
//
// Withdrawals may drive CurrentBalance negative: overdraft tracking is
// permitted, there is no floor check.
type BankAccount struct {
	shared.TenantAggregateRoot
	AccountName    string          `gorm:"type:varchar(200);not null"`
	AccountNumber  string          `gorm:"type:varchar(64);index"` // unique per tenant via idx_bank_accounts_tenant_number (migrations)
	BankName       string          `gorm:"type:varchar(200)"`
	Branch         string          `gorm:"type:varchar(200)"`
	IBAN           string          `gorm:"type:varchar(64)"`
	SwiftCode      string          `gorm:"type:varchar(20)"`
	Type           BankAccountType `gorm:"type:varchar(20);not null;default:'current'"`
	Currency       string          `gorm:"type:varchar(3);not null;default:'SAR'"`
	OpeningBalance decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	CurrentBalance decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ChartAccountID *uuid.UUID      `gorm:"type:uuid;index"`
	IsActive       bool            `gorm:"not null;default:true"`
	Notes          string          `gorm:"type:text"`
}

// NewBankAccount creates a new bank account. The opening balance becomes the
// starting current balance; recording the matching opening-balance ledger
// entry is the application layer's job.
func NewBankAccount(tenantID uuid.UUID, accountName, accountNumber string, accountType BankAccountType, openingBalance decimal.Decimal) (*BankAccount, error) {
	if strings.TrimSpace(accountName) == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Bank account name is required")
	}
	if !accountType.IsValid() {
		return nil, shared.NewDomainError("INVALID_ACCOUNT_TYPE", "Unknown bank account type")
	}

	return &BankAccount{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		AccountName:         accountName,
		AccountNumber:       accountNumber,
		Type:                accountType,
		Currency:            "SAR",
		OpeningBalance:      openingBalance,
		CurrentBalance:      openingBalance,
		IsActive:            true,
	}, nil
}

// Apply moves the current balance by the given transaction: deposits add,
// withdrawals subtract. Returns the resulting balance.
func (a *BankAccount) Apply(txType TransactionType, amount decimal.Decimal) decimal.Decimal {
	if txType == TransactionTypeDeposit {
		a.CurrentBalance = a.CurrentBalance.Add(amount)
	} else {
		a.CurrentBalance = a.CurrentBalance.Sub(amount)
	}
	a.UpdatedAt = time.Now()
	return a.CurrentBalance
}

// LinkChartAccount links the bank account to its mirrored chart account
func (a *BankAccount) LinkChartAccount(chartAccountID uuid.UUID) {
	a.ChartAccountID = &chartAccountID
	a.UpdatedAt = time.Now()
	a.IncrementVersion()
}

// UnlinkChartAccount removes the mirror link
func (a *BankAccount) UnlinkChartAccount() {
	a.ChartAccountID = nil
	a.UpdatedAt = time.Now()
	a.IncrementVersion()
}

// IsMirrored reports whether the account mirrors a chart account
func (a *BankAccount) IsMirrored() bool {
	return a.ChartAccountID != nil
}

// Deactivate marks the account as inactive. Transactions remain; the
// reconciliation job skips inactive accounts.
func (a *BankAccount) Deactivate() {
	a.IsActive = false
	a.UpdatedAt = time.Now()
	a.IncrementVersion()
}
