package tenant

import (
	"fmt"
	"reflect"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"github.com/mizan-erp/backend/internal/domain/shared"
	"github.com/mizan-erp/backend/internal/infrastructure/logger"
)

// beforeCreate stamps the context tenant onto new rows. Rows that already
// carry a different tenant_id are rejected: an insert can never smuggle data
// into another tenant.
func (tc *TenantCallback) beforeCreate(db *gorm.DB) {
	if tc.skipped(db) || db.Statement.Schema == nil {
		return
	}

	field := db.Statement.Schema.LookUpField(tc.tenantColumn)
	if field == nil {
		return
	}

	tenantID := logger.GetTenantID(db.Statement.Context)
	if tenantID == "" {
		// No tenant bound: leave the row as the caller built it. Read-side
		// enforcement still applies when required is set.
		return
	}

	tid, err := uuid.Parse(tenantID)
	if err != nil {
		_ = db.AddError(ErrInvalidTenantID)
		return
	}

	switch db.Statement.ReflectValue.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < db.Statement.ReflectValue.Len(); i++ {
			tc.stampRow(db, field, db.Statement.ReflectValue.Index(i), tid)
			if db.Error != nil {
				return
			}
		}
	case reflect.Struct:
		tc.stampRow(db, field, db.Statement.ReflectValue, tid)
	}
}

func (tc *TenantCallback) stampRow(db *gorm.DB, field *schema.Field, rv reflect.Value, tenantID uuid.UUID) {
	rv = reflect.Indirect(rv)
	if !rv.IsValid() || rv.Kind() != reflect.Struct {
		return
	}

	value, isZero := field.ValueOf(db.Statement.Context, rv)
	if isZero {
		_ = db.AddError(field.Set(db.Statement.Context, rv, tenantID))
		return
	}
	if fmt.Sprint(value) != tenantID.String() {
		_ = db.AddError(ErrTenantMismatch)
	}
}

// guardTenantMutation rejects UPDATE statements that try to move a record to
// a different tenant. The tenant column is written once, at insert, and is
// immutable afterwards.
func (tc *TenantCallback) guardTenantMutation(db *gorm.DB) {
	if tc.skipped(db) {
		return
	}

	tenantID := logger.GetTenantID(db.Statement.Context)

	switch dest := db.Statement.Dest.(type) {
	case map[string]interface{}:
		tc.checkMapTenant(db, dest, tenantID)
	case *map[string]interface{}:
		if dest != nil {
			tc.checkMapTenant(db, *dest, tenantID)
		}
	default:
		if db.Statement.Schema == nil {
			return
		}
		field := db.Statement.Schema.LookUpField(tc.tenantColumn)
		if field == nil {
			return
		}
		rv := reflect.Indirect(reflect.ValueOf(db.Statement.Dest))
		if !rv.IsValid() || rv.Kind() != reflect.Struct {
			return
		}
		value, isZero := field.ValueOf(db.Statement.Context, rv)
		if isZero {
			return
		}
		// Saving a full struct with its own tenant is fine; pointing it at
		// another tenant is not.
		if tenantID != "" {
			if fmt.Sprint(value) != tenantID {
				_ = db.AddError(shared.ErrTenantMutation)
			}
			return
		}
		// No tenant bound in context. The update is not filtered, so the
		// written value must match the stored row.
		tc.checkStoredTenant(db, rv, fmt.Sprint(value))
	}
}

// checkStoredTenant loads the persisted tenant_id for the row the statement
// targets and rejects the write when it differs from the value being saved.
// When the row cannot be located by primary key the write is rejected
// outright, matching the map path.
func (tc *TenantCallback) checkStoredTenant(db *gorm.DB, rv reflect.Value, value string) {
	pk := db.Statement.Schema.PrioritizedPrimaryField
	if pk == nil {
		_ = db.AddError(shared.ErrTenantMutation)
		return
	}
	pkValue, isZero := pk.ValueOf(db.Statement.Context, rv)
	if isZero {
		_ = db.AddError(shared.ErrTenantMutation)
		return
	}

	table := db.Statement.Table
	if table == "" {
		table = db.Statement.Schema.Table
	}

	var stored []string
	err := db.Session(&gorm.Session{NewDB: true}).
		WithContext(WithoutTenancy(db.Statement.Context)).
		Table(table).
		Where(fmt.Sprintf("%s = ?", pk.DBName), pkValue).
		Limit(1).
		Pluck(tc.tenantColumn, &stored).Error
	if err != nil {
		_ = db.AddError(err)
		return
	}
	if len(stored) > 0 && stored[0] != value {
		_ = db.AddError(shared.ErrTenantMutation)
	}
}

func (tc *TenantCallback) checkMapTenant(db *gorm.DB, dest map[string]interface{}, tenantID string) {
	for _, key := range []string{tc.tenantColumn, "TenantID"} {
		v, ok := dest[key]
		if !ok {
			continue
		}
		if tenantID == "" || fmt.Sprint(v) != tenantID {
			_ = db.AddError(shared.ErrTenantMutation)
		}
		return
	}
}
