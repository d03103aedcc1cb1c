package embedder

import (
	"fmt"
	"os"
	"strings"
)

// Environment variables recognized by NewFromEnv
const (
	EnvProvider = "FPGA_RAG_EMBEDDING_PROVIDER"
	EnvBaseURL  = "FPGA_RAG_EMBEDDING_BASE_URL"
	EnvAPIKey   = "FPGA_RAG_EMBEDDING_API_KEY"
	EnvModel    = "FPGA_RAG_EMBEDDING_MODEL"
)

// Config holds embedder configuration
type Config struct {
	Provider  string
	BaseURL   string
	APIKey    string
	Model     string
	Dimension int
	CacheSize int
}

// New creates an embedder with explicit configuration
func New(cfg Config) (Embedder, error) {
	cache := NewCache(cfg.CacheSize)

	switch strings.ToLower(cfg.Provider) {
	case ProviderOpenAI:
		return NewOpenAIProvider(cfg.BaseURL, cfg.APIKey, cfg.Model, cfg.Dimension, cache)
	case ProviderLocal, "":
		return NewLocalProvider(cache)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, cfg.Provider)
	}
}

// NewFromEnv creates an embedder based on environment variables.
// An explicit provider wins; otherwise a set API key selects the
// OpenAI-compatible provider, and the local provider is the fallback.
func NewFromEnv() (Embedder, error) {
	cfg := Config{
		Provider: os.Getenv(EnvProvider),
		BaseURL:  os.Getenv(EnvBaseURL),
		APIKey:   os.Getenv(EnvAPIKey),
		Model:    os.Getenv(EnvModel),
	}
	if cfg.Provider == "" && cfg.APIKey != "" {
		cfg.Provider = ProviderOpenAI
	}
	return New(cfg)
}

// DetectProvider returns the provider NewFromEnv would select
func DetectProvider() string {
	if provider := os.Getenv(EnvProvider); provider != "" {
		return strings.ToLower(provider)
	}
	if os.Getenv(EnvAPIKey) != "" {
		return ProviderOpenAI
	}
	return ProviderLocal
}
