package banking

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mizan-erp/backend/internal/domain/banking"
	"github.com/mizan-erp/backend/internal/domain/shared"
	"github.com/mizan-erp/backend/internal/infrastructure/persistence"
)

func openLedgerTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&banking.BankAccount{},
		&banking.ChartAccount{},
		&banking.BankTransaction{},
	))

	// Same composite unique indexes the SQL migrations create
	for _, stmt := range []string{
		"CREATE UNIQUE INDEX idx_bank_transactions_tenant_number ON bank_transactions(tenant_id, transaction_number)",
		"CREATE UNIQUE INDEX idx_bank_accounts_tenant_number ON bank_accounts(tenant_id, account_number)",
		"CREATE UNIQUE INDEX idx_chart_accounts_tenant_code ON chart_accounts(tenant_id, code)",
	} {
		require.NoError(t, db.Exec(stmt).Error)
	}

	return db
}

func openTestAccount(t *testing.T, db *gorm.DB, tenantID uuid.UUID, name, number string, opening decimal.Decimal) *banking.BankAccount {
	t.Helper()

	ledger := NewLedgerService(db)
	service := NewBankAccountService(db, ledger)

	account, err := service.OpenAccount(context.Background(), OpenAccountRequest{
		TenantID:       tenantID,
		AccountName:    name,
		AccountNumber:  number,
		Type:           banking.BankAccountTypeCurrent,
		OpeningBalance: opening,
	})
	require.NoError(t, err)
	return account
}

func loadAccount(t *testing.T, db *gorm.DB, tenantID, id uuid.UUID) *banking.BankAccount {
	t.Helper()
	account, err := persistence.NewGormBankAccountRepository(db).FindByIDForTenant(context.Background(), tenantID, id)
	require.NoError(t, err)
	return account
}

func loadChart(t *testing.T, db *gorm.DB, tenantID, id uuid.UUID) *banking.ChartAccount {
	t.Helper()
	chart, err := persistence.NewGormChartAccountRepository(db).FindByIDForTenant(context.Background(), tenantID, id)
	require.NoError(t, err)
	return chart
}

func TestOpenAccount_RecordsOpeningBalance(t *testing.T) {
	db := openLedgerTestDB(t)
	tenantID := uuid.New()

	account := openTestAccount(t, db, tenantID, "Main Operating", "SA-001", decimal.NewFromInt(1000))

	stored := loadAccount(t, db, tenantID, account.ID)
	assert.True(t, stored.CurrentBalance.Equal(decimal.NewFromInt(1000)))
	require.NotNil(t, stored.ChartAccountID)

	chart := loadChart(t, db, tenantID, *stored.ChartAccountID)
	assert.True(t, chart.DebitBalance.Equal(decimal.NewFromInt(1000)))
	assert.True(t, chart.Balance.Equal(decimal.NewFromInt(1000)))

	// The trail starts with an explicit opening_balance entry
	entry, err := persistence.NewGormBankTransactionRepository(db).
		FindByReference(context.Background(), tenantID, banking.ReferenceTypeOpeningBalance, account.ID)
	require.NoError(t, err)
	assert.Equal(t, banking.TransactionTypeDeposit, entry.Type)
	assert.True(t, entry.BalanceAfter.Equal(decimal.NewFromInt(1000)))
}

func TestOpenAccount_ZeroOpeningBalanceSkipsEntry(t *testing.T) {
	db := openLedgerTestDB(t)
	tenantID := uuid.New()

	account := openTestAccount(t, db, tenantID, "Empty Account", "SA-002", decimal.Zero)

	_, err := persistence.NewGormBankTransactionRepository(db).
		FindByReference(context.Background(), tenantID, banking.ReferenceTypeOpeningBalance, account.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestOpenAccount_DuplicateAccountNumber(t *testing.T) {
	db := openLedgerTestDB(t)
	tenantID := uuid.New()
	ledger := NewLedgerService(db)
	service := NewBankAccountService(db, ledger)

	openTestAccount(t, db, tenantID, "First", "SA-010", decimal.Zero)

	_, err := service.OpenAccount(context.Background(), OpenAccountRequest{
		TenantID:      tenantID,
		AccountName:   "Second",
		AccountNumber: "SA-010",
		Type:          banking.BankAccountTypeCurrent,
	})
	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "ACCOUNT_NUMBER_TAKEN", domainErr.Code)
}

func TestOpenAccount_WithoutAccountNumber(t *testing.T) {
	db := openLedgerTestDB(t)
	tenantID := uuid.New()
	ledger := NewLedgerService(db)
	service := NewBankAccountService(db, ledger)
	ctx := context.Background()

	// Cash drawers and petty cash accounts carry no bank account number.
	// Each still needs its own chart mirror, so a second numberless account
	// must not collide on the derived chart code.
	var chartCodes []string
	for _, name := range []string{"Cash Drawer", "Petty Cash"} {
		account, err := service.OpenAccount(ctx, OpenAccountRequest{
			TenantID:    tenantID,
			AccountName: name,
			Type:        banking.BankAccountTypeCurrent,
		})
		require.NoError(t, err)
		require.NotNil(t, account.ChartAccountID)

		chart := loadChart(t, db, tenantID, *account.ChartAccountID)
		chartCodes = append(chartCodes, chart.Code)
	}

	assert.NotEqual(t, chartCodes[0], chartCodes[1])
}

func TestRecordTransaction_BalanceConservation(t *testing.T) {
	db := openLedgerTestDB(t)
	tenantID := uuid.New()
	ledger := NewLedgerService(db)
	ctx := context.Background()

	account := openTestAccount(t, db, tenantID, "Main", "SA-100", decimal.NewFromInt(1000))
	invoiceID := uuid.New()

	entry, err := ledger.RecordTransaction(ctx, RecordTransactionRequest{
		TenantID:      tenantID,
		BankAccountID: account.ID,
		Type:          banking.TransactionTypeDeposit,
		Amount:        decimal.NewFromInt(250),
		ReferenceType: banking.ReferenceTypeSalesInvoice,
		ReferenceID:   invoiceID,
		Description:   "Invoice payment",
	})
	require.NoError(t, err)
	assert.True(t, entry.BalanceAfter.Equal(decimal.NewFromInt(1250)))

	stored := loadAccount(t, db, tenantID, account.ID)
	assert.True(t, stored.CurrentBalance.Equal(decimal.NewFromInt(1250)))

	chart := loadChart(t, db, tenantID, *stored.ChartAccountID)
	assert.True(t, chart.Balance.Equal(decimal.NewFromInt(1250)))

	// Reversing the invoice restores the original balances on both sides
	reversal, err := ledger.ReverseTransaction(ctx, ReverseTransactionRequest{
		TenantID:      tenantID,
		ReferenceType: banking.ReferenceTypeSalesInvoice,
		ReferenceID:   invoiceID,
	})
	require.NoError(t, err)
	assert.Equal(t, banking.TransactionTypeWithdrawal, reversal.Type)
	assert.Equal(t, banking.ReferenceType("sales_invoice_reversal"), reversal.ReferenceType)
	assert.True(t, reversal.BalanceAfter.Equal(decimal.NewFromInt(1000)))

	stored = loadAccount(t, db, tenantID, account.ID)
	assert.True(t, stored.CurrentBalance.Equal(decimal.NewFromInt(1000)))

	chart = loadChart(t, db, tenantID, *stored.ChartAccountID)
	assert.True(t, chart.Balance.Equal(decimal.NewFromInt(1000)))

	// The original entry is untouched
	original, err := persistence.NewGormBankTransactionRepository(db).FindByIDForTenant(ctx, tenantID, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, banking.TransactionTypeDeposit, original.Type)
	assert.True(t, original.Amount.Equal(decimal.NewFromInt(250)))
}

func TestRecordTransaction_OverdraftPermitted(t *testing.T) {
	db := openLedgerTestDB(t)
	tenantID := uuid.New()
	ledger := NewLedgerService(db)

	account := openTestAccount(t, db, tenantID, "Main", "SA-101", decimal.NewFromInt(100))

	entry, err := ledger.RecordTransaction(context.Background(), RecordTransactionRequest{
		TenantID:      tenantID,
		BankAccountID: account.ID,
		Type:          banking.TransactionTypeWithdrawal,
		Amount:        decimal.NewFromInt(300),
		ReferenceType: banking.ReferenceTypeExpense,
		ReferenceID:   uuid.New(),
	})
	require.NoError(t, err)
	assert.True(t, entry.BalanceAfter.Equal(decimal.NewFromInt(-200)))
}

func TestRecordTransaction_SequentialNumbers(t *testing.T) {
	db := openLedgerTestDB(t)
	tenantID := uuid.New()
	ledger := NewLedgerService(db)
	ctx := context.Background()

	account := openTestAccount(t, db, tenantID, "Main", "SA-102", decimal.Zero)

	var numbers []string
	for i := 0; i < 3; i++ {
		entry, err := ledger.RecordTransaction(ctx, RecordTransactionRequest{
			TenantID:      tenantID,
			BankAccountID: account.ID,
			Type:          banking.TransactionTypeDeposit,
			Amount:        decimal.NewFromInt(10),
			ReferenceType: banking.ReferenceTypeManual,
			ReferenceID:   uuid.New(),
		})
		require.NoError(t, err)
		numbers = append(numbers, entry.TransactionNumber)
	}

	assert.Equal(t, 1, banking.SequenceSuffix(numbers[0]))
	assert.Equal(t, 2, banking.SequenceSuffix(numbers[1]))
	assert.Equal(t, 3, banking.SequenceSuffix(numbers[2]))
}

func TestRecordTransaction_ConcurrentWritersGetDistinctNumbers(t *testing.T) {
	db := openLedgerTestDB(t)

	// Pin the pool to one connection so every writer shares the same
	// in-memory database. The writers still race at the service layer and
	// must come out with distinct numbers for the same day.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	tenantID := uuid.New()
	ledger := NewLedgerService(db)
	ctx := context.Background()

	account := openTestAccount(t, db, tenantID, "Main", "SA-106", decimal.Zero)

	const writers = 4
	var wg sync.WaitGroup
	numbers := make([]string, writers)
	errs := make([]error, writers)

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			entry, err := ledger.RecordTransaction(ctx, RecordTransactionRequest{
				TenantID:      tenantID,
				BankAccountID: account.ID,
				Type:          banking.TransactionTypeDeposit,
				Amount:        decimal.NewFromInt(10),
				ReferenceType: banking.ReferenceTypeManual,
				ReferenceID:   uuid.New(),
			})
			if err != nil {
				errs[i] = err
				return
			}
			numbers[i] = entry.TransactionNumber
		}(i)
	}
	wg.Wait()

	seen := make(map[string]struct{}, writers)
	for i := 0; i < writers; i++ {
		require.NoError(t, errs[i])
		_, dup := seen[numbers[i]]
		assert.False(t, dup, "transaction number %s handed out twice", numbers[i])
		seen[numbers[i]] = struct{}{}
	}

	// Every write landed: one entry per writer, balances included
	txs, err := ledger.ListAccountTransactions(ctx, tenantID, account.ID, banking.BankTransactionFilter{})
	require.NoError(t, err)
	assert.Len(t, txs, writers)

	stored := loadAccount(t, db, tenantID, account.ID)
	assert.True(t, stored.CurrentBalance.Equal(decimal.NewFromInt(10*writers)))
}

func TestRecordTransaction_Validation(t *testing.T) {
	db := openLedgerTestDB(t)
	ledger := NewLedgerService(db)
	ctx := context.Background()

	tests := []struct {
		name string
		req  RecordTransactionRequest
		code string
	}{
		{
			name: "invalid type",
			req: RecordTransactionRequest{
				TenantID: uuid.New(), BankAccountID: uuid.New(),
				Type: "transfer", Amount: decimal.NewFromInt(10),
				ReferenceType: banking.ReferenceTypeManual, ReferenceID: uuid.New(),
			},
			code: "INVALID_TRANSACTION_TYPE",
		},
		{
			name: "zero amount",
			req: RecordTransactionRequest{
				TenantID: uuid.New(), BankAccountID: uuid.New(),
				Type: banking.TransactionTypeDeposit, Amount: decimal.Zero,
				ReferenceType: banking.ReferenceTypeManual, ReferenceID: uuid.New(),
			},
			code: "INVALID_AMOUNT",
		},
		{
			name: "negative amount",
			req: RecordTransactionRequest{
				TenantID: uuid.New(), BankAccountID: uuid.New(),
				Type: banking.TransactionTypeWithdrawal, Amount: decimal.NewFromInt(-5),
				ReferenceType: banking.ReferenceTypeManual, ReferenceID: uuid.New(),
			},
			code: "INVALID_AMOUNT",
		},
		{
			name: "missing reference type",
			req: RecordTransactionRequest{
				TenantID: uuid.New(), BankAccountID: uuid.New(),
				Type: banking.TransactionTypeDeposit, Amount: decimal.NewFromInt(10),
				ReferenceID: uuid.New(),
			},
			code: "INVALID_REFERENCE",
		},
		{
			name: "unknown account",
			req: RecordTransactionRequest{
				TenantID: uuid.New(), BankAccountID: uuid.New(),
				Type: banking.TransactionTypeDeposit, Amount: decimal.NewFromInt(10),
				ReferenceType: banking.ReferenceTypeManual, ReferenceID: uuid.New(),
			},
			code: "BANK_ACCOUNT_NOT_FOUND",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ledger.RecordTransaction(ctx, tt.req)
			require.Error(t, err)
			var domainErr *shared.DomainError
			require.ErrorAs(t, err, &domainErr)
			assert.Equal(t, tt.code, domainErr.Code)
		})
	}
}

func TestRecordTransaction_InactiveAccount(t *testing.T) {
	db := openLedgerTestDB(t)
	tenantID := uuid.New()
	ledger := NewLedgerService(db)
	service := NewBankAccountService(db, ledger)
	ctx := context.Background()

	account := openTestAccount(t, db, tenantID, "Main", "SA-103", decimal.Zero)
	require.NoError(t, service.DeactivateAccount(ctx, tenantID, account.ID))

	_, err := ledger.RecordTransaction(ctx, RecordTransactionRequest{
		TenantID:      tenantID,
		BankAccountID: account.ID,
		Type:          banking.TransactionTypeDeposit,
		Amount:        decimal.NewFromInt(10),
		ReferenceType: banking.ReferenceTypeManual,
		ReferenceID:   uuid.New(),
	})
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "BANK_ACCOUNT_INACTIVE", domainErr.Code)
}

func TestReverseTransaction_OriginalNotFound(t *testing.T) {
	db := openLedgerTestDB(t)
	ledger := NewLedgerService(db)

	_, err := ledger.ReverseTransaction(context.Background(), ReverseTransactionRequest{
		TenantID:      uuid.New(),
		ReferenceType: banking.ReferenceTypeSalesInvoice,
		ReferenceID:   uuid.New(),
	})
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "ORIGINAL_NOT_FOUND", domainErr.Code)
}

func TestReverseTransaction_AlreadyReversed(t *testing.T) {
	db := openLedgerTestDB(t)
	tenantID := uuid.New()
	ledger := NewLedgerService(db)
	ctx := context.Background()

	account := openTestAccount(t, db, tenantID, "Main", "SA-104", decimal.NewFromInt(500))
	invoiceID := uuid.New()

	_, err := ledger.RecordTransaction(ctx, RecordTransactionRequest{
		TenantID:      tenantID,
		BankAccountID: account.ID,
		Type:          banking.TransactionTypeDeposit,
		Amount:        decimal.NewFromInt(100),
		ReferenceType: banking.ReferenceTypeSalesInvoice,
		ReferenceID:   invoiceID,
	})
	require.NoError(t, err)

	_, err = ledger.ReverseTransaction(ctx, ReverseTransactionRequest{
		TenantID:      tenantID,
		ReferenceType: banking.ReferenceTypeSalesInvoice,
		ReferenceID:   invoiceID,
	})
	require.NoError(t, err)

	_, err = ledger.ReverseTransaction(ctx, ReverseTransactionRequest{
		TenantID:      tenantID,
		ReferenceType: banking.ReferenceTypeSalesInvoice,
		ReferenceID:   invoiceID,
	})
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "ALREADY_REVERSED", domainErr.Code)

	// The double reversal changed nothing
	stored := loadAccount(t, db, tenantID, account.ID)
	assert.True(t, stored.CurrentBalance.Equal(decimal.NewFromInt(500)))
}

func TestReverseTransaction_ReversalOfReversalRejected(t *testing.T) {
	db := openLedgerTestDB(t)
	ledger := NewLedgerService(db)

	_, err := ledger.ReverseTransaction(context.Background(), ReverseTransactionRequest{
		TenantID:      uuid.New(),
		ReferenceType: banking.ReferenceTypeSalesInvoice.Reversal(),
		ReferenceID:   uuid.New(),
	})
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_REFERENCE", domainErr.Code)
}

func TestLedger_TenantIsolation(t *testing.T) {
	db := openLedgerTestDB(t)
	ledger := NewLedgerService(db)
	ctx := context.Background()

	tenantA := uuid.New()
	tenantB := uuid.New()

	accountA := openTestAccount(t, db, tenantA, "Tenant A Main", "SA-200", decimal.NewFromInt(1000))
	openTestAccount(t, db, tenantB, "Tenant B Main", "SA-200", decimal.NewFromInt(9999))

	// Tenant B cannot post into tenant A's account
	_, err := ledger.RecordTransaction(ctx, RecordTransactionRequest{
		TenantID:      tenantB,
		BankAccountID: accountA.ID,
		Type:          banking.TransactionTypeWithdrawal,
		Amount:        decimal.NewFromInt(100),
		ReferenceType: banking.ReferenceTypeManual,
		ReferenceID:   uuid.New(),
	})
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "BANK_ACCOUNT_NOT_FOUND", domainErr.Code)

	// Daily sequences are per tenant: both opening entries got suffix 0001
	txRepo := persistence.NewGormBankTransactionRepository(db)
	entryA, err := txRepo.FindByReference(ctx, tenantA, banking.ReferenceTypeOpeningBalance, accountA.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, banking.SequenceSuffix(entryA.TransactionNumber))

	// Tenant B's statement listing never sees tenant A's account
	_, err = ledger.ListAccountTransactions(ctx, tenantB, accountA.ID, banking.BankTransactionFilter{})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestListAccountTransactions(t *testing.T) {
	db := openLedgerTestDB(t)
	tenantID := uuid.New()
	ledger := NewLedgerService(db)
	ctx := context.Background()

	account := openTestAccount(t, db, tenantID, "Main", "SA-105", decimal.NewFromInt(100))

	for i := 0; i < 2; i++ {
		_, err := ledger.RecordTransaction(ctx, RecordTransactionRequest{
			TenantID:      tenantID,
			BankAccountID: account.ID,
			Type:          banking.TransactionTypeDeposit,
			Amount:        decimal.NewFromInt(50),
			ReferenceType: banking.ReferenceTypeManual,
			ReferenceID:   uuid.New(),
		})
		require.NoError(t, err)
	}

	txs, err := ledger.ListAccountTransactions(ctx, tenantID, account.ID, banking.BankTransactionFilter{})
	require.NoError(t, err)
	assert.Len(t, txs, 3) // opening balance + two deposits
}
