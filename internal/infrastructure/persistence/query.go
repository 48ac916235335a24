package persistence

import (
	"errors"
	"fmt"

	"github.com/cotiza/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// first loads the first row matching conds into dest. A missing row becomes
// the not-found error of resource, identified by key.
func first(db *gorm.DB, dest any, resource string, key any, conds ...any) error {
	err := db.First(dest, conds...).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.NewNotFoundError(resource, key)
	}
	return err
}

// updateVersioned writes updates to the row of model with id while its
// version is still version, and bumps the version. Zero affected rows is
// resolved into not-found or ErrConcurrencyConflict.
func updateVersioned(db *gorm.DB, model any, resource string, id uuid.UUID, version int, updates map[string]any) error {
	updates["version"] = version + 1
	result := db.Model(model).Where("id = ? AND version = ?", id, version).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := db.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("check %s: %w", resource, err)
	}
	if count == 0 {
		return shared.NewNotFoundError(resource, id)
	}
	return shared.ErrConcurrencyConflict
}

// deleteByID removes the row of model with id, reporting not-found when
// nothing was deleted
func deleteByID(db *gorm.DB, model any, resource string, id uuid.UUID) error {
	result := db.Where("id = ?", id).Delete(model)
	if result.Error != nil {
		return fmt.Errorf("delete %s: %w", resource, result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError(resource, id)
	}
	return nil
}
