package banking

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mizan-erp/backend/internal/domain/shared"
)

// ChartAccountType classifies a ledger account in the chart of accounts
type ChartAccountType string

const (
	ChartAccountTypeAsset     ChartAccountType = "asset"
	ChartAccountTypeLiability ChartAccountType = "liability"
	ChartAccountTypeEquity    ChartAccountType = "equity"
	ChartAccountTypeRevenue   ChartAccountType = "revenue"
	ChartAccountTypeExpense   ChartAccountType = "expense"
)

// IsValid checks if the type is a valid ChartAccountType
func (t ChartAccountType) IsValid() bool {
	switch t {
	case ChartAccountTypeAsset, ChartAccountTypeLiability, ChartAccountTypeEquity,
		ChartAccountTypeRevenue, ChartAccountTypeExpense:
		return true
	}
	return false
}

// String returns the string representation of ChartAccountType
func (t ChartAccountType) String() string {
	return string(t)
}

// ChartAccount is a ledger account in the chart of accounts. Its displayed
// Balance is always DebitBalance - CreditBalance; only the ledger engine and
// the reconciliation job may mutate the balances.
type ChartAccount struct {
	shared.TenantAggregateRoot
	Code          string           `gorm:"type:varchar(20);not null;index"` // unique per tenant via idx_chart_accounts_tenant_code (migrations)
	Name          string           `gorm:"type:varchar(200);not null"`
	Type          ChartAccountType `gorm:"type:varchar(20);not null;index"`
	DebitBalance  decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	CreditBalance decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	Balance       decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	IsActive      bool             `gorm:"not null;default:true"`
	Description   string           `gorm:"type:text"`
}

// NewChartAccount creates a new chart account with zero balances
func NewChartAccount(tenantID uuid.UUID, code, name string, accountType ChartAccountType) (*ChartAccount, error) {
	if strings.TrimSpace(code) == "" {
		return nil, shared.NewDomainError("INVALID_CODE", "Chart account code is required")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Chart account name is required")
	}
	if !accountType.IsValid() {
		return nil, shared.NewDomainError("INVALID_ACCOUNT_TYPE", "Unknown chart account type")
	}

	return &ChartAccount{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Code:                code,
		Name:                name,
		Type:                accountType,
		DebitBalance:        decimal.Zero,
		CreditBalance:       decimal.Zero,
		Balance:             decimal.Zero,
		IsActive:            true,
	}, nil
}

// ApplyDebit adds a signed amount to the debit balance and recomputes the
// displayed balance. Deposits into a mirrored bank account pass a positive
// amount, withdrawals a negative one.
func (a *ChartAccount) ApplyDebit(amount decimal.Decimal) {
	a.DebitBalance = a.DebitBalance.Add(amount)
	a.RecalculateBalance()
}

// SetDebitBalance overwrites the debit balance and recomputes the displayed
// balance. Used by the reconciliation job only.
func (a *ChartAccount) SetDebitBalance(debit decimal.Decimal) {
	a.DebitBalance = debit
	a.RecalculateBalance()
}

// RecalculateBalance re-derives the displayed balance as debit - credit
func (a *ChartAccount) RecalculateBalance() {
	a.Balance = a.DebitBalance.Sub(a.CreditBalance)
	a.UpdatedAt = time.Now()
}

// Deactivate marks the account as inactive
func (a *ChartAccount) Deactivate() {
	a.IsActive = false
	a.UpdatedAt = time.Now()
	a.IncrementVersion()
}
