package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"studyrag/internal/model"
)

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// CreateWithChunks stores a document and its chunks in one transaction,
// both-or-neither.
func (r *DocumentRepository) CreateWithChunks(doc *model.Document, chunks []model.Chunk) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(doc).Error; err != nil {
			return err
		}
		if len(chunks) == 0 {
			return nil
		}
		return tx.Create(&chunks).Error
	})
	if err != nil {
		return fmt.Errorf("create document with chunks failed: %w", err)
	}
	return nil
}

// DeleteWithChunks removes a document and its chunks, compensating for a
// failed ingestion or serving a document delete.
func (r *DocumentRepository) DeleteWithChunks(documentID string) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_id = ?", documentID).Delete(&model.Chunk{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", documentID).Delete(&model.Document{}).Error
	})
	if err != nil {
		return fmt.Errorf("delete document with chunks failed: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetByID(id string) (*model.Document, error) {
	var doc model.Document
	if err := r.db.Where("id = ?", id).First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get document failed: %w", err)
	}
	return &doc, nil
}

func (r *DocumentRepository) ListBySessionID(sessionID string) ([]model.Document, error) {
	var docs []model.Document
	if err := r.db.Where("session_id = ?", sessionID).
		Order("created_at ASC").Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("list documents failed: %w", err)
	}
	return docs, nil
}
