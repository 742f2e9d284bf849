package persistence

import (
	"context"

	"gorm.io/gorm"
)

// updateVersioned writes every column of model, guarded by the version the
// aggregate was loaded with. The aggregate has already incremented its version,
// so the stored row must still carry version-1. Columns listed in omit are
// left untouched.
func updateVersioned(ctx context.Context, db *gorm.DB, model any, version int, kind string, omit ...string) error {
	result := db.WithContext(ctx).
		Model(model).
		Where("version = ?", version-1).
		Select("*").
		Omit(append([]string{"id", "created_at"}, omit...)...).
		Updates(model)
	if result.Error != nil {
		return translateError(result.Error, kind)
	}
	if result.RowsAffected == 0 {
		return conflictError(kind)
	}
	return nil
}
