package app

import (
	"context"
	"fmt"

	"studyrag/internal/vectorstore"
)

// EmbeddingGateway produces embedding vectors for texts. One call per text
// for queries, batched for document ingestion.
type EmbeddingGateway interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Retriever answers similarity queries scoped to one session's index.
type Retriever struct {
	embedder EmbeddingGateway
	vectors  *vectorstore.Registry
}

func NewRetriever(embedder EmbeddingGateway, vectors *vectorstore.Registry) *Retriever {
	return &Retriever{embedder: embedder, vectors: vectors}
}

// Retrieve embeds the message and returns the session's chunks ranked by
// cosine similarity. A session with no indexed chunks yields an empty result
// without calling the embedding service.
func (r *Retriever) Retrieve(ctx context.Context, sessionID, message string, k vectorstore.TopK) ([]vectorstore.Result, error) {
	if r.vectors.Count(sessionID) == 0 {
		return nil, nil
	}
	query, err := r.embedder.Embed(ctx, message)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	results, err := r.vectors.Query(sessionID, query, k)
	if err != nil {
		return nil, fmt.Errorf("query session %s: %w", sessionID, err)
	}
	return results, nil
}
