package model

import "time"

// Document records one successful ingestion into a session. Immutable
// after creation except ChunkCount, which is set once chunks are stored.
type Document struct {
	ID         string    `gorm:"primaryKey;size:64" json:"id"`
	SessionID  string    `gorm:"size:64;not null;index" json:"session_id"`
	Filename   string    `gorm:"size:256;not null" json:"filename"`
	Category   Category  `gorm:"size:32;not null" json:"category"`
	ChunkCount int       `json:"chunk_count"`
	CreatedAt  time.Time `json:"created_at"`
}
