// Package audit records an append-only activity log around entity writes.
//
// Write paths opt in by calling Create, Update or Delete instead of the bare gorm
// method. Each call performs the write and inserts exactly one ActivityLog row on the
// same *gorm.DB, so inside a transaction both commit or roll back together.
package audit

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/diewo77/go-ppat/auth"
	"github.com/diewo77/go-ppat/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Subject is implemented by every audited model.
type Subject interface {
	AuditSubjectType() string
	AuditSubjectID() uint
	AuditDescription(event string) string
}

// columns never written to the log
var excluded = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"deleted_at": true,
	"password":   true,
}

// Create inserts v and logs its full attribute set.
func Create[T Subject](ctx context.Context, tx *gorm.DB, v T) error {
	if err := tx.WithContext(ctx).Omit(clause.Associations).Create(v).Error; err != nil {
		return err
	}
	attrs, err := Snapshot(tx, v)
	if err != nil {
		return err
	}
	return record(ctx, tx, v, models.EventCreated, attrs, nil)
}

// Update saves after and logs only the columns that differ from before.
// Nothing is logged when no tracked column changed.
func Update[T Subject](ctx context.Context, tx *gorm.DB, before, after T) error {
	old, err := Snapshot(tx, before)
	if err != nil {
		return err
	}
	if err := tx.WithContext(ctx).Omit(clause.Associations).Save(after).Error; err != nil {
		return err
	}
	cur, err := Snapshot(tx, after)
	if err != nil {
		return err
	}
	attrs, prev := Diff(old, cur)
	if len(attrs) == 0 {
		return nil
	}
	return record(ctx, tx, after, models.EventUpdated, attrs, prev)
}

// Delete removes v (soft delete when the model supports it) and logs its last state.
func Delete[T Subject](ctx context.Context, tx *gorm.DB, v T) error {
	old, err := Snapshot(tx, v)
	if err != nil {
		return err
	}
	res := tx.WithContext(ctx).Delete(v)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return record(ctx, tx, v, models.EventDeleted, nil, old)
}

func record(ctx context.Context, tx *gorm.DB, s Subject, event string, attrs, old map[string]any) error {
	entry := models.ActivityLog{
		Event:       event,
		SubjectType: s.AuditSubjectType(),
		SubjectID:   s.AuditSubjectID(),
		Description: s.AuditDescription(event),
	}
	if uid, ok := auth.UserIDFromContext(ctx); ok && uid != 0 {
		entry.CauserID = &uid
	}
	if attrs != nil {
		entry.Attributes = datatypes.JSONMap(attrs)
	}
	if old != nil {
		entry.Old = datatypes.JSONMap(old)
	}
	if err := tx.WithContext(ctx).Create(&entry).Error; err != nil {
		return fmt.Errorf("write activity log: %w", err)
	}
	return nil
}

// Snapshot returns the column values of a model keyed by column name.
// Values are normalized so that snapshots of the same row compare equal.
func Snapshot(db *gorm.DB, v any) (map[string]any, error) {
	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(v); err != nil {
		return nil, fmt.Errorf("parse audit subject: %w", err)
	}
	rv := reflect.Indirect(reflect.ValueOf(v))
	out := make(map[string]any, len(stmt.Schema.DBNames))
	for _, name := range stmt.Schema.DBNames {
		if excluded[name] {
			continue
		}
		field := stmt.Schema.FieldsByDBName[name]
		val, _ := field.ValueOf(context.Background(), rv)
		out[name] = normalize(val)
	}
	return out, nil
}

// Diff returns the changed columns with their new and old values.
func Diff(before, after map[string]any) (attrs, old map[string]any) {
	attrs = map[string]any{}
	old = map[string]any{}
	for k, v := range after {
		if pv, ok := before[k]; !ok || !reflect.DeepEqual(pv, v) {
			attrs[k] = v
			old[k] = before[k]
		}
	}
	return attrs, old
}

func normalize(v any) any {
	if v == nil {
		return nil
	}
	switch t := v.(type) {
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano)
	case *time.Time:
		if t == nil {
			return nil
		}
		return t.UTC().Format(time.RFC3339Nano)
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		return normalize(rv.Elem().Interface())
	}
	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.Bool:
		return rv.Bool()
	}
	return fmt.Sprint(v)
}
