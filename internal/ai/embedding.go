package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// EmbeddingConfig holds API settings for text embedding (OpenAI-compatible).
type EmbeddingConfig struct {
	BaseURL string
	APIKey  string
	Model   string
}

// Embed returns the embedding vector for the given text.
func (c *OpenAICompatibleClient) Embed(ctx context.Context, cfg EmbeddingConfig, text string) ([]float32, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: embedding input is empty", ErrUpstreamRejected)
	}

	vectors, err := c.embed(ctx, cfg, text)
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, fmt.Errorf("%w: empty embedding in response", ErrUpstreamUnavailable)
	}
	return vectors[0], nil
}

// EmbedBatch returns embeddings for multiple texts, same length and order
// as the input.
func (c *OpenAICompatibleClient) EmbedBatch(ctx context.Context, cfg EmbeddingConfig, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	for _, t := range texts {
		if strings.TrimSpace(t) == "" {
			return nil, fmt.Errorf("%w: embedding input is empty", ErrUpstreamRejected)
		}
	}

	vectors, err := c.embed(ctx, cfg, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: embedding count mismatch: sent %d got %d",
			ErrUpstreamUnavailable, len(texts), len(vectors))
	}
	return vectors, nil
}

func (c *OpenAICompatibleClient) embed(ctx context.Context, cfg EmbeddingConfig, input any) ([][]float32, error) {
	reqBody := map[string]interface{}{
		"model": cfg.Model,
		"input": input,
	}

	raw, err := c.post(ctx, cfg.BaseURL, cfg.APIKey, "/embeddings", reqBody)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("%w: parse embedding json failed: %v", ErrUpstreamUnavailable, err)
	}

	vectors := make([][]float32, len(parsed.Data))
	for i := range parsed.Data {
		vectors[i] = parsed.Data[i].Embedding
	}
	return vectors, nil
}

// Gateway binds the client to one embedding endpoint so callers can hold
// a single dependency.
type Gateway struct {
	client *OpenAICompatibleClient
	cfg    EmbeddingConfig
}

func NewGateway(client *OpenAICompatibleClient, cfg EmbeddingConfig) *Gateway {
	return &Gateway{client: client, cfg: cfg}
}

func (g *Gateway) Embed(ctx context.Context, text string) ([]float32, error) {
	return g.client.Embed(ctx, g.cfg, text)
}

func (g *Gateway) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return g.client.EmbedBatch(ctx, g.cfg, texts)
}
