package model

import "time"

// SourceRef points at a chunk that grounded an assistant reply.
type SourceRef struct {
	ChunkID    string   `json:"chunk_id"`
	DocumentID string   `json:"document_id"`
	Filename   string   `json:"filename"`
	Category   Category `json:"category"`
	Score      float32  `json:"score"`
}

// Message is one entry in a session's chat transcript. Messages are
// append-only; their order in the history log is their semantic order,
// and timestamps are non-decreasing within a session.
type Message struct {
	SessionID string      `json:"session_id"`
	Role      Role        `json:"role"`
	Content   string      `json:"content"`
	Timestamp time.Time   `json:"timestamp"`
	Sources   []SourceRef `json:"sources,omitempty"`
}
