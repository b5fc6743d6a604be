package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// CommonSortFields contains fields common to most entities
var CommonSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
}

// TenantSortFields contains allowed sort fields for tenants
var TenantSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"code":       true,
	"subdomain":  true,
	"name":       true,
	"status":     true,
	"plan":       true,
	"expires_at": true,
}

// BankAccountSortFields contains allowed sort fields for bank accounts
var BankAccountSortFields = map[string]bool{
	"id":              true,
	"created_at":      true,
	"updated_at":      true,
	"account_name":    true,
	"account_number":  true,
	"bank_name":       true,
	"current_balance": true,
}

// ChartAccountSortFields contains allowed sort fields for chart accounts
var ChartAccountSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"code":       true,
	"name":       true,
	"type":       true,
	"balance":    true,
}

// BankTransactionSortFields contains allowed sort fields for bank transactions
var BankTransactionSortFields = map[string]bool{
	"id":                 true,
	"created_at":         true,
	"transaction_number": true,
	"transaction_date":   true,
	"amount":             true,
}
