package repository

import (
	"fmt"

	"gorm.io/gorm"

	"studyrag/internal/model"
)

type ChunkRepository struct {
	db *gorm.DB
}

func NewChunkRepository(db *gorm.DB) *ChunkRepository {
	return &ChunkRepository{db: db}
}

// ListByDocumentID returns a document's chunks in their original order.
func (r *ChunkRepository) ListByDocumentID(documentID string) ([]model.Chunk, error) {
	var chunks []model.Chunk
	if err := r.db.Where("document_id = ?", documentID).
		Order("position ASC").Find(&chunks).Error; err != nil {
		return nil, fmt.Errorf("list chunks failed: %w", err)
	}
	return chunks, nil
}

func (r *ChunkRepository) CountBySessionID(sessionID string) (int64, error) {
	var count int64
	if err := r.db.Model(&model.Chunk{}).
		Where("session_id = ?", sessionID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count chunks failed: %w", err)
	}
	return count, nil
}
