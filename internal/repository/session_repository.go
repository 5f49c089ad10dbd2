package repository

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"studyrag/internal/model"
)

// SessionRepository is the durable registry of sessions. Listing orders
// by last_used descending so the most recently touched workspace comes
// first.
type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Migrate creates or evolves the registry schema. Registries created
// before last_used existed get it backfilled from created_at; the
// backfill matches nothing on later runs, so it is safe on every startup.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.Session{}, &model.Document{}, &model.Chunk{}); err != nil {
		return fmt.Errorf("auto migrate registry failed: %w", err)
	}
	err := db.Model(&model.Session{}).
		Where("last_used IS NULL OR last_used < created_at").
		Update("last_used", gorm.Expr("created_at")).Error
	if err != nil {
		return fmt.Errorf("backfill last_used failed: %w", err)
	}
	return nil
}

func (r *SessionRepository) Create(session *model.Session) error {
	if err := r.db.Create(session).Error; err != nil {
		return fmt.Errorf("create session failed: %w", err)
	}
	return nil
}

func (r *SessionRepository) GetByID(id string) (*model.Session, error) {
	var session model.Session
	if err := r.db.Where("id = ?", id).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get session failed: %w", err)
	}
	return &session, nil
}

func (r *SessionRepository) List() ([]model.Session, error) {
	var sessions []model.Session
	if err := r.db.Order("last_used DESC, created_at DESC").Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("list sessions failed: %w", err)
	}
	return sessions, nil
}

func (r *SessionRepository) ListByCategory(category model.Category) ([]model.Session, error) {
	var sessions []model.Session
	if err := r.db.Where("category = ?", category).
		Order("last_used DESC, created_at DESC").Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("list sessions by category failed: %w", err)
	}
	return sessions, nil
}

// Touch advances last_used. The guard keeps it monotonic even if the
// wall clock steps backwards between calls.
func (r *SessionRepository) Touch(id string, now time.Time) error {
	err := r.db.Model(&model.Session{}).
		Where("id = ? AND last_used <= ?", id, now).
		Update("last_used", now).Error
	if err != nil {
		return fmt.Errorf("touch session failed: %w", err)
	}
	return nil
}

// Update renames and/or recategorizes. Nil fields are left untouched;
// created_at is immutable.
func (r *SessionRepository) Update(id string, name *string, category *model.Category) error {
	updates := map[string]any{}
	if name != nil {
		updates["name"] = *name
	}
	if category != nil {
		updates["category"] = *category
	}
	if len(updates) == 0 {
		return nil
	}
	if err := r.db.Model(&model.Session{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return fmt.Errorf("update session failed: %w", err)
	}
	return nil
}

// DeleteCascade removes the session row and every owned document and
// chunk row in one transaction.
func (r *SessionRepository) DeleteCascade(id string) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", id).Delete(&model.Chunk{}).Error; err != nil {
			return err
		}
		if err := tx.Where("session_id = ?", id).Delete(&model.Document{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&model.Session{}).Error
	})
	if err != nil {
		return fmt.Errorf("delete session cascade failed: %w", err)
	}
	return nil
}
