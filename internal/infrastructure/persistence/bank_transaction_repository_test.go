package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/mizan-erp/backend/internal/domain/banking"
	"github.com/mizan-erp/backend/internal/domain/shared"
)

func newMockBankTransactionRepository(t *testing.T) (*GormBankTransactionRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormBankTransactionRepository(gormDB), mock, mockDB
}

func TestGormBankTransactionRepository_NextTransactionNumber(t *testing.T) {
	date := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

	t.Run("starts at 0001 when the day has no entries", func(t *testing.T) {
		repo, mock, mockDB := newMockBankTransactionRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()
		mock.ExpectQuery(`SELECT "transaction_number" FROM "bank_transactions" WHERE tenant_id = \$1 AND transaction_number LIKE \$2 ORDER BY transaction_number DESC LIMIT \$3`).
			WithArgs(tenantID, "BT20260901%", 1).
			WillReturnRows(sqlmock.NewRows([]string{"transaction_number"}))

		number, err := repo.NextTransactionNumber(context.Background(), tenantID, date)
		require.NoError(t, err)
		assert.Equal(t, "BT202609010001", number)
	})

	t.Run("increments the highest existing suffix", func(t *testing.T) {
		repo, mock, mockDB := newMockBankTransactionRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()
		mock.ExpectQuery(`SELECT "transaction_number" FROM "bank_transactions"`).
			WithArgs(tenantID, "BT20260901%", 1).
			WillReturnRows(sqlmock.NewRows([]string{"transaction_number"}).AddRow("BT202609010041"))

		number, err := repo.NextTransactionNumber(context.Background(), tenantID, date)
		require.NoError(t, err)
		assert.Equal(t, "BT202609010042", number)
	})
}

func TestGormBankTransactionRepository_Insert(t *testing.T) {
	t.Run("maps unique violations to ErrDuplicateNumber", func(t *testing.T) {
		repo, mock, mockDB := newMockBankTransactionRepository(t)
		defer mockDB.Close()

		mock.ExpectExec(`INSERT INTO "bank_transactions"`).
			WillReturnError(&testUniqueError{})

		tx := &banking.BankTransaction{
			TransactionNumber: "BT202609010001",
			TransactionDate:   time.Now(),
		}
		err := repo.Insert(context.Background(), tx)
		assert.ErrorIs(t, err, shared.ErrDuplicateNumber)
	})
}

func TestGormBankTransactionRepository_FindByReference(t *testing.T) {
	t.Run("returns ErrNotFound when no entry exists", func(t *testing.T) {
		repo, mock, mockDB := newMockBankTransactionRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()
		refID := uuid.New()
		mock.ExpectQuery(`SELECT \* FROM "bank_transactions" WHERE tenant_id = \$1 AND reference_type = \$2 AND reference_id = \$3`).
			WithArgs(tenantID, banking.ReferenceTypeSalesInvoice, refID, 1).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := repo.FindByReference(context.Background(), tenantID, banking.ReferenceTypeSalesInvoice, refID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

// testUniqueError mimics a driver-level unique constraint failure
type testUniqueError struct{}

func (e *testUniqueError) Error() string {
	return `pq: duplicate key value violates unique constraint "idx_bank_transactions_tenant_number"`
}
