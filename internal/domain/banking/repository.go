package banking

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mizan-erp/backend/internal/domain/shared"
)

// Every read method takes an explicit tenant ID even though the persistence
// layer also filters by the context tenant: the double scoping keeps the
// isolation guarantee visible at every call site.

// BankAccountRepository defines persistence operations for bank accounts
type BankAccountRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*BankAccount, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]BankAccount, error)
	FindActiveMirrored(ctx context.Context, tenantID uuid.UUID) ([]BankAccount, error)
	Save(ctx context.Context, account *BankAccount) error
	ExistsByAccountNumber(ctx context.Context, tenantID uuid.UUID, accountNumber string) (bool, error)
}

// ChartAccountRepository defines persistence operations for chart accounts
type ChartAccountRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ChartAccount, error)
	FindByCodeForTenant(ctx context.Context, tenantID uuid.UUID, code string) (*ChartAccount, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]ChartAccount, error)
	Save(ctx context.Context, account *ChartAccount) error
}

// BankTransactionFilter narrows bank statement queries
type BankTransactionFilter struct {
	shared.Filter
	FromDate *time.Time
	ToDate   *time.Time
}

// BankTransactionRepository defines persistence operations for the
// append-only transaction trail. There is deliberately no update or delete:
// entries are only ever inserted.
type BankTransactionRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*BankTransaction, error)
	// FindByReference returns the original (non-reversal) entry recorded for
	// a source document, or shared.ErrNotFound
	FindByReference(ctx context.Context, tenantID uuid.UUID, refType ReferenceType, refID uuid.UUID) (*BankTransaction, error)
	FindByAccount(ctx context.Context, tenantID, bankAccountID uuid.UUID, filter BankTransactionFilter) ([]BankTransaction, error)
	// Insert persists a new entry. A collision on the (tenant_id,
	// transaction_number) unique index surfaces as shared.ErrDuplicateNumber
	// so the caller can regenerate the number and retry.
	Insert(ctx context.Context, tx *BankTransaction) error
	// NextTransactionNumber computes prefix + (highest existing suffix + 1)
	// for the tenant and day, starting at 0001. The read is not locked; the
	// unique index plus the caller's retry loop make the result safe under
	// concurrency.
	NextTransactionNumber(ctx context.Context, tenantID uuid.UUID, date time.Time) (string, error)
}
