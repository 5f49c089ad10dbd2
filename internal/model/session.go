package model

import "time"

// Session is an isolated study workspace. It owns the documents, chunks,
// vector index, and chat history stored under its ID.
type Session struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	Name      string    `gorm:"size:200;not null" json:"name"`
	Category  Category  `gorm:"size:32;not null;index" json:"category"`
	CreatedAt time.Time `json:"created_at"`
	LastUsed  time.Time `gorm:"index" json:"last_used"`
}
