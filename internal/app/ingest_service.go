package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"studyrag/internal/chunker"
	"studyrag/internal/model"
	"studyrag/internal/repository"
	"studyrag/internal/vectorstore"
)

// embeddingBatchSize bounds one embedding request. Large documents are
// embedded in several calls so a single oversized payload cannot stall
// the whole upload.
const embeddingBatchSize = 10

// IngestInput is one document upload: text already extracted by the caller.
type IngestInput struct {
	SessionID string
	Filename  string
	Category  model.Category
	Text      string
}

type IngestResult struct {
	Document   model.Document
	ChunkCount int
}

// IngestService turns an uploaded document into persisted chunks and
// indexed vectors. The registry rows commit first, then the vector index;
// a vector failure rolls the rows back so the two stores never disagree
// about which documents a session holds.
type IngestService struct {
	sessions        *repository.SessionRepository
	docs            *repository.DocumentRepository
	vectors         *vectorstore.Registry
	embedder        EmbeddingGateway
	locks           *Locks
	log             zerolog.Logger
	maxTokens       int
	overlapFraction float64
}

func NewIngestService(
	sessions *repository.SessionRepository,
	docs *repository.DocumentRepository,
	vectors *vectorstore.Registry,
	embedder EmbeddingGateway,
	locks *Locks,
	log zerolog.Logger,
	maxTokens int,
	overlapFraction float64,
) *IngestService {
	return &IngestService{
		sessions:        sessions,
		docs:            docs,
		vectors:         vectors,
		embedder:        embedder,
		locks:           locks,
		log:             log,
		maxTokens:       maxTokens,
		overlapFraction: overlapFraction,
	}
}

func (s *IngestService) Ingest(ctx context.Context, input IngestInput) (*IngestResult, error) {
	if strings.TrimSpace(input.Filename) == "" {
		return nil, fmt.Errorf("%w: filename is required", ErrInvalidInput)
	}
	pieces, err := chunker.Split(input.Text, s.maxTokens, s.overlapFraction)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if len(pieces) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyDocument, input.Filename)
	}

	unlock := s.locks.Acquire(input.SessionID)
	defer unlock()

	// The existence check lives under the session lock: a delete that
	// finished before we got here must fail the upload instead of leaving
	// rows and artifacts behind for a session that is gone.
	session, err := s.sessions.GetByID(input.SessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, input.SessionID)
	}
	category := input.Category
	if category == "" {
		category = session.Category
	}
	if category, err = model.ParseCategory(string(category)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	texts := make([]string, len(pieces))
	for i, p := range pieces {
		texts[i] = p.Text
	}
	embeddings, err := s.embedBatched(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed document %s: %w", input.Filename, err)
	}

	now := time.Now()
	doc := model.Document{
		ID:         "doc-" + uuid.NewString(),
		SessionID:  input.SessionID,
		Filename:   input.Filename,
		Category:   category,
		ChunkCount: len(pieces),
		CreatedAt:  now,
	}
	chunks := make([]model.Chunk, len(pieces))
	entries := make([]vectorstore.Entry, len(pieces))
	for i, p := range pieces {
		id := fmt.Sprintf("%s:%04d", doc.ID, p.Position)
		chunks[i] = model.Chunk{
			ID:         id,
			SessionID:  input.SessionID,
			DocumentID: doc.ID,
			Text:       p.Text,
			TokenCount: p.TokenCount,
			Position:   p.Position,
			CreatedAt:  now,
		}
		entries[i] = vectorstore.Entry{
			ChunkID:   id,
			Embedding: embeddings[i],
			Metadata: vectorstore.Metadata{
				DocumentID: doc.ID,
				Filename:   input.Filename,
				Category:   string(category),
				Text:       p.Text,
			},
		}
	}

	if err := s.docs.CreateWithChunks(&doc, chunks); err != nil {
		return nil, err
	}
	if err := s.vectors.Add(input.SessionID, entries); err != nil {
		if rbErr := s.docs.DeleteWithChunks(doc.ID); rbErr != nil {
			s.log.Error().Err(rbErr).Str("document_id", doc.ID).Msg("failed to roll back document after index error")
		}
		return nil, fmt.Errorf("index document %s: %w", input.Filename, err)
	}

	s.log.Info().
		Str("session_id", input.SessionID).
		Str("document_id", doc.ID).
		Str("filename", input.Filename).
		Int("chunks", len(pieces)).
		Msg("document ingested")
	return &IngestResult{Document: doc, ChunkCount: len(pieces)}, nil
}

func (s *IngestService) embedBatched(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += embeddingBatchSize {
		end := start + embeddingBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := s.embedder.EmbedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, batch...)
	}
	return out, nil
}
