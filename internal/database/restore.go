package database

import (
	"errors"
	"time"

	"grc-backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Per-entity restore methods for soft-deleted rows. Deliberately explicit
// and typed, one per entity, instead of a reflective recycle-bin walker.

func restoreRow(db *gorm.DB, model interface{}, id uint) error {
	res := db.Unscoped().Model(model).
		Where("id = ? AND deleted_at IS NOT NULL", id).
		Updates(map[string]interface{}{"deleted_at": nil, "deleted_by": ""})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}

func RestoreControl(db *gorm.DB, id uint) error {
	return restoreRow(db, &models.Control{}, id)
}

func RestoreScenario(db *gorm.DB, id uint) error {
	return restoreRow(db, &models.Scenario{}, id)
}

func RestoreToDo(db *gorm.DB, id uint) error {
	return restoreRow(db, &models.ToDo{}, id)
}

// SoftDeleteControl records who deleted the row before the gorm soft
// delete hides it.
func SoftDeleteControl(db *gorm.DB, id uint, deletedBy string) error {
	var control models.Control
	if err := db.First(&control, id).Error; err != nil {
		return err
	}
	if deletedBy != "" {
		if err := db.Model(&control).Update("deleted_by", deletedBy).Error; err != nil {
			return err
		}
	}
	return db.Delete(&control).Error
}

// SaveControlVersioned persists a control guarded by its optimistic
// version token. A stale token means somebody else changed the row since
// it was read; the caller reloads and retries.
func SaveControlVersioned(db *gorm.DB, c *models.Control) error {
	current := c.Version
	c.Version = current + 1
	res := db.Model(&models.Control{}).
		Where("id = ? AND version = ?", c.ID, current).
		Select("*").Omit("id", "created_at", "deleted_at", clause.Associations).
		Updates(c)
	if res.Error != nil {
		c.Version = current
		return res.Error
	}
	if res.RowsAffected == 0 {
		c.Version = current
		return models.ErrStaleVersion
	}
	return nil
}

// EvidenceRepo implements models.EvidenceLookup against the store.
type EvidenceRepo struct {
	DB *gorm.DB
}

func (r EvidenceRepo) EvidenceValidUntil(id uint) (*time.Time, bool, error) {
	var ev models.Evidence
	err := r.DB.First(&ev, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return ev.ValidUntil, true, nil
}
