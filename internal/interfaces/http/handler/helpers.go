package handler

import (
	"github.com/shopspring/decimal"

	"github.com/mizan-erp/backend/internal/domain/shared"
)

// toDecimal parses a decimal amount from its string form. An empty string
// yields zero.
func toDecimal(value string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, shared.NewDomainError("INVALID_AMOUNT", "Amount is not a valid decimal")
	}
	return d, nil
}
