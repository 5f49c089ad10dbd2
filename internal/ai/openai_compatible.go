package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// The embedding and language models are opaque upstream services. All
// failures are classified into two buckets so callers can decide whether
// a retry makes sense.
var (
	// ErrUpstreamUnavailable covers transport failures, timeouts,
	// throttling, and 5xx responses. Retryable.
	ErrUpstreamUnavailable = errors.New("upstream service unavailable")
	// ErrUpstreamRejected covers 4xx responses such as oversized input.
	// Not retryable.
	ErrUpstreamRejected = errors.New("upstream service rejected request")
)

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatConfig struct {
	BaseURL string
	APIKey  string
	Model   string
}

type OpenAICompatibleClient struct {
	httpClient *http.Client
}

func NewOpenAICompatibleClient() *OpenAICompatibleClient {
	return &OpenAICompatibleClient{
		httpClient: &http.Client{Timeout: 90 * time.Second},
	}
}

// Complete sends a chat completion request and returns the reply text.
func (c *OpenAICompatibleClient) Complete(ctx context.Context, cfg ChatConfig, messages []ChatMessage) (string, error) {
	reqBody := map[string]interface{}{
		"model":    cfg.Model,
		"messages": messages,
		"stream":   false,
	}

	raw, err := c.post(ctx, cfg.BaseURL, cfg.APIKey, "/chat/completions", reqBody)
	if err != nil {
		return "", err
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("%w: parse completion json failed: %v", ErrUpstreamUnavailable, err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%w: empty completion response", ErrUpstreamUnavailable)
	}
	return parsed.Choices[0].Message.Content, nil
}

func (c *OpenAICompatibleClient) post(ctx context.Context, baseURL, apiKey, path string, body any) ([]byte, error) {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal upstream request failed: %w", err)
	}

	url := strings.TrimRight(baseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("build upstream request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response failed: %v", ErrUpstreamUnavailable, err)
	}
	if err := classifyStatus(resp.StatusCode, raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// classifyStatus maps an upstream HTTP status onto the error taxonomy.
// 429 counts as unavailable because the request may succeed on retry.
func classifyStatus(status int, body []byte) error {
	switch {
	case status < 300:
		return nil
	case status == http.StatusTooManyRequests || status >= 500:
		return fmt.Errorf("%w: status %d: %s", ErrUpstreamUnavailable, status, truncate(body))
	default:
		return fmt.Errorf("%w: status %d: %s", ErrUpstreamRejected, status, truncate(body))
	}
}

func truncate(body []byte) string {
	const max = 512
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}

// LLM binds the client to one chat model endpoint.
type LLM struct {
	client *OpenAICompatibleClient
	cfg    ChatConfig
}

func NewLLM(client *OpenAICompatibleClient, cfg ChatConfig) *LLM {
	return &LLM{client: client, cfg: cfg}
}

func (l *LLM) Complete(ctx context.Context, messages []ChatMessage) (string, error) {
	return l.client.Complete(ctx, l.cfg, messages)
}
