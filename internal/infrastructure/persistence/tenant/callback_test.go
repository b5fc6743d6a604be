package tenant

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/mizan-erp/backend/internal/domain/shared"
	"github.com/mizan-erp/backend/internal/infrastructure/logger"
)

// TestModel is a tenant-owned table
type TestModel struct {
	ID       string    `gorm:"primaryKey"`
	TenantID uuid.UUID `gorm:"type:uuid"`
	Name     string
}

// SystemModel carries no tenant column and is therefore system-owned
type SystemModel struct {
	ID   string `gorm:"primaryKey"`
	Name string
}

func setupCallbackMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
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

	return gormDB, mock, mockDB
}

func createCallbackTestContext(tenantID string) context.Context {
	ctx, _ := logger.WithTenantID(context.Background(), zap.NewNop(), tenantID)
	return ctx
}

func TestTenantCallback_RegisterCallbacks(t *testing.T) {
	db, _, mockDB := setupCallbackMockDB(t)
	defer mockDB.Close()

	tc := NewTenantCallback("tenant_id", true)

	// Should not panic
	tc.RegisterCallbacks(db)
}

func TestNewTenantCallback_DefaultColumn(t *testing.T) {
	// Empty column should default to "tenant_id"
	tc := NewTenantCallback("", true)
	assert.Equal(t, "tenant_id", tc.tenantColumn)
	assert.True(t, tc.required)
}

func TestTenantCallback_RequiredEnforcement(t *testing.T) {
	t.Run("errors when tenant required but missing in context", func(t *testing.T) {
		db, _, mockDB := setupCallbackMockDB(t)
		defer mockDB.Close()

		EnableAutoTenantFilter(db, true)

		ctx := context.Background() // No tenant ID
		var results []TestModel

		err := db.WithContext(ctx).Find(&results).Error

		assert.ErrorIs(t, err, ErrTenantIDRequired)
	})
}

func TestTenantCallback_InvalidUUID(t *testing.T) {
	db, _, mockDB := setupCallbackMockDB(t)
	defer mockDB.Close()

	EnableAutoTenantFilter(db, true)

	ctx := createCallbackTestContext("not-a-valid-uuid")
	var results []TestModel

	err := db.WithContext(ctx).Find(&results).Error

	assert.ErrorIs(t, err, ErrInvalidTenantID)
}

func TestTenantCallback_FilterApplied(t *testing.T) {
	db, mock, mockDB := setupCallbackMockDB(t)
	defer mockDB.Close()

	EnableAutoTenantFilter(db, true)

	tenantID := uuid.New().String()
	mock.ExpectQuery(`SELECT \* FROM "test_models" WHERE "test_models"\."tenant_id" = \$1`).
		WithArgs(tenantID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "name"}))

	ctx := createCallbackTestContext(tenantID)
	var results []TestModel

	err := db.WithContext(ctx).Find(&results).Error
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTenantCallback_NotRequired(t *testing.T) {
	db, mock, mockDB := setupCallbackMockDB(t)
	defer mockDB.Close()

	EnableAutoTenantFilter(db, false)

	mock.ExpectQuery(`SELECT \* FROM "test_models"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "name"}))

	ctx := context.Background() // No tenant ID
	var results []TestModel

	err := db.WithContext(ctx).Find(&results).Error
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTenantCallback_SystemModelExempt(t *testing.T) {
	db, mock, mockDB := setupCallbackMockDB(t)
	defer mockDB.Close()

	EnableAutoTenantFilter(db, true)

	// No tenant in context, required=true, but the model has no tenant
	// column: the query must pass through unfiltered.
	mock.ExpectQuery(`SELECT \* FROM "system_models"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))

	var results []SystemModel
	err := db.WithContext(context.Background()).Find(&results).Error
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTenantCallback_BypassContext(t *testing.T) {
	db, mock, mockDB := setupCallbackMockDB(t)
	defer mockDB.Close()

	EnableAutoTenantFilter(db, true)

	mock.ExpectQuery(`SELECT \* FROM "test_models"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "name"}))

	ctx := WithoutTenancy(context.Background())
	var results []TestModel

	err := db.WithContext(ctx).Find(&results).Error
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTenantCallback_CreateStampsTenant(t *testing.T) {
	db, mock, mockDB := setupCallbackMockDB(t)
	defer mockDB.Close()

	EnableAutoTenantFilter(db, true)

	tenantID := uuid.New()
	mock.ExpectExec(`INSERT INTO "test_models"`).
		WithArgs("m-1", tenantID, "Main").
		WillReturnResult(sqlmock.NewResult(1, 1))

	ctx := createCallbackTestContext(tenantID.String())
	model := &TestModel{ID: "m-1", Name: "Main"}

	err := db.WithContext(ctx).Create(model).Error
	require.NoError(t, err)
	assert.Equal(t, tenantID, model.TenantID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTenantCallback_CreateRejectsForeignTenant(t *testing.T) {
	db, _, mockDB := setupCallbackMockDB(t)
	defer mockDB.Close()

	EnableAutoTenantFilter(db, true)

	ctx := createCallbackTestContext(uuid.New().String())
	model := &TestModel{ID: "m-1", TenantID: uuid.New(), Name: "Smuggled"}

	err := db.WithContext(ctx).Create(model).Error
	assert.ErrorIs(t, err, ErrTenantMismatch)
}

func TestTenantCallback_UpdateRejectsTenantMutation(t *testing.T) {
	t.Run("map update with foreign tenant", func(t *testing.T) {
		db, _, mockDB := setupCallbackMockDB(t)
		defer mockDB.Close()

		EnableAutoTenantFilter(db, true)

		ctx := createCallbackTestContext(uuid.New().String())
		err := db.WithContext(ctx).
			Model(&TestModel{}).
			Where("id = ?", "m-1").
			Updates(map[string]interface{}{"tenant_id": uuid.New().String()}).Error

		assert.ErrorIs(t, err, shared.ErrTenantMutation)
	})

	t.Run("struct save with foreign tenant", func(t *testing.T) {
		db, _, mockDB := setupCallbackMockDB(t)
		defer mockDB.Close()

		EnableAutoTenantFilter(db, true)

		ctx := createCallbackTestContext(uuid.New().String())
		model := &TestModel{ID: "m-1", TenantID: uuid.New(), Name: "Moved"}

		err := db.WithContext(ctx).Save(model).Error
		assert.ErrorIs(t, err, shared.ErrTenantMutation)
	})

	t.Run("struct save without a bound tenant is checked against the stored row", func(t *testing.T) {
		db, mock, mockDB := setupCallbackMockDB(t)
		defer mockDB.Close()

		// Soft-fail mode: no tenant in context, filtering disabled. Moving a
		// row that is stored under another tenant must still fail, and no
		// UPDATE may reach the database.
		EnableAutoTenantFilter(db, false)

		storedTenant := uuid.New()
		mock.ExpectQuery(`SELECT "tenant_id" FROM "test_models" WHERE id = \$1`).
			WillReturnRows(sqlmock.NewRows([]string{"tenant_id"}).AddRow(storedTenant.String()))

		model := &TestModel{ID: "m-1", TenantID: uuid.New(), Name: "Moved"}

		err := db.WithContext(context.Background()).Save(model).Error
		assert.ErrorIs(t, err, shared.ErrTenantMutation)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("struct save matching the stored row passes without a bound tenant", func(t *testing.T) {
		db, mock, mockDB := setupCallbackMockDB(t)
		defer mockDB.Close()

		EnableAutoTenantFilter(db, false)

		tenantID := uuid.New()
		mock.ExpectQuery(`SELECT "tenant_id" FROM "test_models" WHERE id = \$1`).
			WillReturnRows(sqlmock.NewRows([]string{"tenant_id"}).AddRow(tenantID.String()))
		mock.ExpectExec(`UPDATE "test_models" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		model := &TestModel{ID: "m-1", TenantID: tenantID, Name: "Renamed"}

		err := db.WithContext(context.Background()).Save(model).Error
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("map update with own tenant passes the guard", func(t *testing.T) {
		db, mock, mockDB := setupCallbackMockDB(t)
		defer mockDB.Close()

		EnableAutoTenantFilter(db, true)

		tenantID := uuid.New().String()
		mock.ExpectExec(`UPDATE "test_models" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		ctx := createCallbackTestContext(tenantID)
		err := db.WithContext(ctx).
			Model(&TestModel{}).
			Where("id = ?", "m-1").
			Updates(map[string]interface{}{"tenant_id": tenantID, "name": "Renamed"}).Error

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDisableAutoTenantFilter(t *testing.T) {
	db, _, mockDB := setupCallbackMockDB(t)
	defer mockDB.Close()

	EnableAutoTenantFilter(db, true)

	// Should not panic when removing callbacks
	DisableAutoTenantFilter(db)
}
