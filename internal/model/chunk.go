package model

import "time"

// Chunk is one token window of a document's extracted text. Never mutated;
// removed only when its document or session is deleted.
//
// IDs are "<document_id>:<position>" so they are unique within a session
// and sort in document order, which the vector store relies on for
// deterministic tie-breaking.
type Chunk struct {
	ID         string    `gorm:"primaryKey;size:80" json:"id"`
	SessionID  string    `gorm:"size:64;not null;index" json:"session_id"`
	DocumentID string    `gorm:"size:64;not null;index" json:"document_id"`
	Text       string    `gorm:"type:text;not null" json:"text"`
	TokenCount int       `json:"token_count"`
	Position   int       `json:"position"`
	CreatedAt  time.Time `json:"created_at"`
}
