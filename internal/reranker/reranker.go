// Package reranker scores query/passage pairs with a cross-encoder
// served over HTTP. It speaks the rerank wire format used by hosted
// cross-encoder APIs and by self-hosted TEI rerank endpoints, so the
// base URL decides which one is in play.
package reranker

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

// Defaults
const (
	DefaultModel = "jina-reranker-v2-base-multilingual"

	// Retry configuration
	maxRetries       = 2
	initialBackoffMs = 100
)

// Common errors
var (
	ErrNotConfigured = errors.New("reranker not configured")
	ErrRerankFailed  = errors.New("rerank request failed")
)

// Config holds reranker configuration
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// HTTPReranker calls a cross-encoder rerank endpoint. It implements
// hybrid.Reranker.
type HTTPReranker struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// New creates a reranker from config. BaseURL is required.
func New(cfg Config) (*HTTPReranker, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: base url not set", ErrNotConfigured)
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &HTTPReranker{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// Model returns the cross-encoder model name
func (r *HTTPReranker) Model() string {
	return r.model
}

// ScoreBatch returns one relevance score per text, aligned with the
// input order. A short or misaligned response is an error; callers
// treat any error as "serve unreranked", never partially reranked.
func (r *HTTPReranker) ScoreBatch(ctx context.Context, query string, texts []string) ([]float64, error) {
	if len(texts) == 0 {
		return []float64{}, nil
	}

	var lastErr error
	backoff := initialBackoffMs * time.Millisecond

	for attempt := 0; attempt <= maxRetries; attempt++ {
		scores, err := r.callAPI(ctx, query, texts)
		if err == nil {
			return scores, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if attempt < maxRetries {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
				backoff *= 2
			}
		}
	}

	return nil, fmt.Errorf("%w: %v", ErrRerankFailed, lastErr)
}

func (r *HTTPReranker) callAPI(ctx context.Context, query string, texts []string) ([]float64, error) {
	reqBody := map[string]interface{}{
		"model":            r.model,
		"query":            query,
		"documents":        texts,
		"top_n":            len(texts),
		"return_documents": false,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", r.baseURL+"/rerank", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api call: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("api error %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var apiResp struct {
		Results []struct {
			Index          int     `json:"index"`
			RelevanceScore float64 `json:"relevance_score"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if len(apiResp.Results) != len(texts) {
		return nil, fmt.Errorf("expected %d scores, got %d", len(texts), len(apiResp.Results))
	}

	scores := make([]float64, len(texts))
	seen := make([]bool, len(texts))
	for _, result := range apiResp.Results {
		if result.Index < 0 || result.Index >= len(texts) || seen[result.Index] {
			return nil, fmt.Errorf("invalid result index %d", result.Index)
		}
		scores[result.Index] = result.RelevanceScore
		seen[result.Index] = true
	}

	return scores, nil
}

// Close releases idle connections
func (r *HTTPReranker) Close() error {
	r.httpClient.CloseIdleConnections()
	return nil
}
