package embedder

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEmbeddingServer(t *testing.T, dimension int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		type item struct {
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		}
		data := make([]item, len(req.Input))
		for i := range req.Input {
			vec := make([]float32, dimension)
			vec[0] = float32(i + 1)
			data[i] = item{Embedding: vec, Index: i}
		}

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data":  data,
			"model": req.Model,
		})
	}))
}

func TestOpenAIProviderBatch(t *testing.T) {
	server := newEmbeddingServer(t, 8)
	defer server.Close()

	provider, err := NewOpenAIProvider(server.URL, "test-key", "test-model", 8, nil)
	require.NoError(t, err)
	defer func() { _ = provider.Close() }()

	vectors, err := provider.EmbedBatch(context.Background(), []string{"first", "second"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, float32(1), vectors[0][0])
	assert.Equal(t, float32(2), vectors[1][0])
}

func TestOpenAIProviderCaches(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{
				{"embedding": []float32{1, 2}, "index": 0},
			},
			"model": "m",
		})
	}))
	defer server.Close()

	provider, err := NewOpenAIProvider(server.URL, "test-key", "m", 2, NewCache(10))
	require.NoError(t, err)

	_, err = provider.EmbedText(context.Background(), "same text")
	require.NoError(t, err)
	_, err = provider.EmbedText(context.Background(), "same text")
	require.NoError(t, err)

	assert.Equal(t, int32(1), calls.Load())
}

func TestOpenAIProviderRetriesTransientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{
				{"embedding": []float32{0.5}, "index": 0},
			},
			"model": "m",
		})
	}))
	defer server.Close()

	provider, err := NewOpenAIProvider(server.URL, "test-key", "m", 1, nil)
	require.NoError(t, err)

	vectors, err := provider.EmbedBatch(context.Background(), []string{"flaky"})
	require.NoError(t, err)
	require.Len(t, vectors, 1)
	assert.Equal(t, int32(3), calls.Load())
}

func TestOpenAIProviderExhaustsRetries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	provider, err := NewOpenAIProvider(server.URL, "test-key", "m", 1, nil)
	require.NoError(t, err)

	_, err = provider.EmbedBatch(context.Background(), []string{"doomed"})
	assert.ErrorIs(t, err, ErrProviderFailed)
}

func TestOpenAIProviderRespectsCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	provider, err := NewOpenAIProvider(server.URL, "test-key", "m", 1, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err = provider.EmbedBatch(ctx, []string{"slow"})
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestOpenAIProviderBatchTooLarge(t *testing.T) {
	provider, err := NewOpenAIProvider("http://unused", "test-key", "m", 1, nil)
	require.NoError(t, err)

	texts := make([]string, MaxBatchSize+1)
	for i := range texts {
		texts[i] = "x"
	}
	_, err = provider.EmbedBatch(context.Background(), texts)
	assert.ErrorIs(t, err, ErrBatchTooLarge)
}

func TestOpenAIProviderRequiresKey(t *testing.T) {
	_, err := NewOpenAIProvider("", "", "", 0, nil)
	assert.ErrorIs(t, err, ErrNoProviderEnabled)
}

func TestOpenAIProviderDefaults(t *testing.T) {
	provider, err := NewOpenAIProvider("", "key", "", 0, nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultOpenAIModel, provider.Model())
	assert.Equal(t, OpenAIDimension, provider.Dimension())
	assert.Equal(t, ProviderOpenAI, provider.Provider())
}
