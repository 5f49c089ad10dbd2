package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedBatch_OrderPreserved(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"embedding":[1,0]},{"embedding":[0,1]}]}`))
	}))
	defer srv.Close()

	client := NewOpenAICompatibleClient()
	cfg := EmbeddingConfig{BaseURL: srv.URL, Model: "test-embed"}

	vectors, err := client.EmbedBatch(context.Background(), cfg, []string{"first", "second"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, []float32{1, 0}, vectors[0])
	assert.Equal(t, []float32{0, 1}, vectors[1])
}

func TestEmbedBatch_CountMismatchIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"embedding":[1,0]}]}`))
	}))
	defer srv.Close()

	client := NewOpenAICompatibleClient()
	_, err := client.EmbedBatch(context.Background(), EmbeddingConfig{BaseURL: srv.URL}, []string{"a", "b"})
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
}

func TestEmbed_ServerErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewOpenAICompatibleClient()
	_, err := client.Embed(context.Background(), EmbeddingConfig{BaseURL: srv.URL}, "text")
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
}

func TestEmbed_BadRequestIsRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "input too large", http.StatusBadRequest)
	}))
	defer srv.Close()

	client := NewOpenAICompatibleClient()
	_, err := client.Embed(context.Background(), EmbeddingConfig{BaseURL: srv.URL}, "text")
	assert.ErrorIs(t, err, ErrUpstreamRejected)
}

func TestEmbed_ThrottlingIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewOpenAICompatibleClient()
	_, err := client.Embed(context.Background(), EmbeddingConfig{BaseURL: srv.URL}, "text")
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
}

func TestEmbed_EmptyInputRejectedBeforeIO(t *testing.T) {
	client := NewOpenAICompatibleClient()
	_, err := client.Embed(context.Background(), EmbeddingConfig{BaseURL: "http://127.0.0.1:1"}, "   ")
	assert.ErrorIs(t, err, ErrUpstreamRejected)
}

func TestComplete_ReturnsReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"a derivative measures change"}}]}`))
	}))
	defer srv.Close()

	client := NewOpenAICompatibleClient()
	reply, err := client.Complete(context.Background(), ChatConfig{BaseURL: srv.URL, Model: "test"}, []ChatMessage{
		{Role: "user", Content: "what is a derivative?"},
	})
	require.NoError(t, err)
	assert.Equal(t, "a derivative measures change", reply)
}

func TestComplete_ConnectionRefusedIsUnavailable(t *testing.T) {
	client := NewOpenAICompatibleClient()
	_, err := client.Complete(context.Background(), ChatConfig{BaseURL: "http://127.0.0.1:1"}, []ChatMessage{
		{Role: "user", Content: "hello"},
	})
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
}
