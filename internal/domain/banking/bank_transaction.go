package banking

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mizan-erp/backend/internal/domain/shared"
)

// TransactionType is the direction of a bank transaction
type TransactionType string

const (
	TransactionTypeDeposit    TransactionType = "deposit"
	TransactionTypeWithdrawal TransactionType = "withdrawal"
)

// IsValid checks if the type is a valid TransactionType
func (t TransactionType) IsValid() bool {
	return t == TransactionTypeDeposit || t == TransactionTypeWithdrawal
}

// Inverse returns the opposite direction, used when reversing an entry
func (t TransactionType) Inverse() TransactionType {
	if t == TransactionTypeDeposit {
		return TransactionTypeWithdrawal
	}
	return TransactionTypeDeposit
}

// ReferenceType identifies the source document of a bank transaction
type ReferenceType string

const (
	ReferenceTypeSalesInvoice    ReferenceType = "sales_invoice"
	ReferenceTypePurchaseInvoice ReferenceType = "purchase_invoice"
	ReferenceTypeExpense         ReferenceType = "expense"
	ReferenceTypePayment         ReferenceType = "payment"
	ReferenceTypeManual          ReferenceType = "manual"
	ReferenceTypeOpeningBalance  ReferenceType = "opening_balance"
)

// reversalSuffix tags entries that cancel an earlier entry
const reversalSuffix = "_reversal"

// Reversal returns the reference type used for the inverse entry that
// cancels an entry of this type
func (r ReferenceType) Reversal() ReferenceType {
	return ReferenceType(string(r) + reversalSuffix)
}

// IsReversal reports whether the reference type tags a reversal entry
func (r ReferenceType) IsReversal() bool {
	return strings.HasSuffix(string(r), reversalSuffix)
}

// TransactionNumberPrefix returns the (tenant, day) sequence prefix for
// transaction numbers, e.g. "BT20260901"
func TransactionNumberPrefix(date time.Time) string {
	return fmt.Sprintf("BT%04d%02d%02d", date.Year(), date.Month(), date.Day())
}

// FormatTransactionNumber builds a full transaction number from a day prefix
// and a sequence, e.g. "BT202609010001"
func FormatTransactionNumber(prefix string, seq int) string {
	return fmt.Sprintf("%s%04d", prefix, seq)
}

// BankTransaction is an immutable, append-only ledger entry. Rows are never
// updated or deleted once persisted; cancelling a source document produces a
// new inverse entry instead. The struct therefore has no mutating methods.
type BankTransaction struct {
	shared.TenantAggregateRoot
	TransactionNumber string          `gorm:"type:varchar(64);not null;index"` // unique per tenant via idx_bank_transactions_tenant_number (migrations)
	TransactionDate   time.Time       `gorm:"type:date;not null;index"`
	BankAccountID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	Type              TransactionType `gorm:"type:varchar(20);not null"`
	Amount            decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ReferenceType     ReferenceType   `gorm:"type:varchar(50);not null;index:idx_bank_tx_reference"`
	ReferenceID       uuid.UUID       `gorm:"type:uuid;index:idx_bank_tx_reference"`
	Description       string          `gorm:"type:text"`
	BalanceAfter      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// NewBankTransaction creates a new ledger entry. BalanceAfter must be the
// bank account's balance after the amount has been applied.
func NewBankTransaction(
	tenantID uuid.UUID,
	transactionNumber string,
	bankAccountID uuid.UUID,
	txType TransactionType,
	amount decimal.Decimal,
	refType ReferenceType,
	refID uuid.UUID,
	description string,
	balanceAfter decimal.Decimal,
) (*BankTransaction, error) {
	if transactionNumber == "" {
		return nil, shared.NewDomainError("INVALID_NUMBER", "Transaction number is required")
	}
	if !txType.IsValid() {
		return nil, shared.NewDomainError("INVALID_TRANSACTION_TYPE", "Transaction type must be deposit or withdrawal")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Transaction amount must be positive")
	}

	return &BankTransaction{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		TransactionNumber:   transactionNumber,
		TransactionDate:     time.Now(),
		BankAccountID:       bankAccountID,
		Type:                txType,
		Amount:              amount,
		ReferenceType:       refType,
		ReferenceID:         refID,
		Description:         description,
		BalanceAfter:        balanceAfter,
	}, nil
}

// SequenceSuffix parses the 4-digit counter at the end of a transaction
// number. Returns 0 when the number does not carry a parsable suffix.
func SequenceSuffix(transactionNumber string) int {
	if len(transactionNumber) < 4 {
		return 0
	}
	var seq int
	if _, err := fmt.Sscanf(transactionNumber[len(transactionNumber)-4:], "%04d", &seq); err != nil {
		return 0
	}
	return seq
}
