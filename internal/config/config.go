// Package config provides configuration loading for the retrieval
// server. Settings come from a YAML file with FPGA_RAG_ environment
// variables layered on top, so containerized deployments can override
// paths and credentials without editing the file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for all environment overrides
const EnvPrefix = "FPGA_RAG_"

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Reranker  RerankerConfig  `yaml:"reranker"`
	Search    SearchConfig    `yaml:"search"`
	Ingest    IngestConfig    `yaml:"ingest"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds paths for the database and keyword index.
type StorageConfig struct {
	DatabasePath     string `yaml:"database_path"`
	KeywordIndexPath string `yaml:"keyword_index_path"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider  string `yaml:"provider"`
	BaseURL   string `yaml:"base_url"`
	APIKey    string `yaml:"api_key"`
	Model     string `yaml:"model"`
	Dimension int    `yaml:"dimension"`
	CacheSize int    `yaml:"cache_size"`
}

// RerankerConfig holds cross-encoder settings. Reranking is optional;
// an empty base URL disables it.
type RerankerConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
}

// Enabled reports whether a reranker endpoint is configured.
func (r *RerankerConfig) Enabled() bool {
	return r.BaseURL != ""
}

// SearchConfig holds retrieval and fusion settings.
type SearchConfig struct {
	RRFConstant        float64 `yaml:"rrf_constant"`
	CandidatePool      int     `yaml:"candidate_pool"`
	DefaultTopK        int     `yaml:"default_top_k"`
	MaxTopK            int     `yaml:"max_top_k"`
	RerankK            int     `yaml:"rerank_k"`
	RetrievalTimeoutMs int     `yaml:"retrieval_timeout_ms"`
	RerankTimeoutMs    int     `yaml:"rerank_timeout_ms"`
}

// IngestConfig holds ingest pipeline settings.
type IngestConfig struct {
	IncomingDir string `yaml:"incoming_dir"`
	Workers     int    `yaml:"workers"`
}

// Load reads and parses the config file at path, applies defaults,
// expands relative paths against the config directory, and layers
// environment overrides on top.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)
	applyEnv(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.KeywordIndexPath = expandPath(cfg.Storage.KeywordIndexPath, configDir)
	if cfg.Ingest.IncomingDir != "" {
		cfg.Ingest.IncomingDir = expandPath(cfg.Ingest.IncomingDir, configDir)
	}

	return &cfg, nil
}

// Default returns a config built from defaults and environment
// overrides only, for running without a config file.
func Default() *Config {
	var cfg Config
	ApplyDefaults(&cfg)
	applyEnv(&cfg)
	return &cfg
}

// applyEnv overlays FPGA_RAG_ environment variables onto cfg.
func applyEnv(cfg *Config) {
	envString(&cfg.Storage.DatabasePath, "DB_PATH")
	envString(&cfg.Storage.KeywordIndexPath, "KEYWORD_INDEX_PATH")
	envString(&cfg.Ingest.IncomingDir, "INCOMING_DIR")
	envInt(&cfg.Ingest.Workers, "INGEST_WORKERS")

	envString(&cfg.Server.Host, "HTTP_HOST")
	envInt(&cfg.Server.Port, "HTTP_PORT")

	envString(&cfg.Embedding.Provider, "EMBEDDING_PROVIDER")
	envString(&cfg.Embedding.BaseURL, "EMBEDDING_BASE_URL")
	envString(&cfg.Embedding.APIKey, "EMBEDDING_API_KEY")
	envString(&cfg.Embedding.Model, "EMBEDDING_MODEL")
	envInt(&cfg.Embedding.Dimension, "EMBEDDING_DIMENSION")

	envString(&cfg.Reranker.BaseURL, "RERANKER_BASE_URL")
	envString(&cfg.Reranker.APIKey, "RERANKER_API_KEY")
	envString(&cfg.Reranker.Model, "RERANKER_MODEL")

	if v := os.Getenv(EnvPrefix + "DEBUG"); v != "" {
		cfg.Debug = v == "1" || strings.EqualFold(v, "true")
	}
}

func envString(dst *string, key string) {
	if v := os.Getenv(EnvPrefix + key); v != "" {
		*dst = v
	}
}

func envInt(dst *int, key string) {
	if v := os.Getenv(EnvPrefix + key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

// expandPath converts a path to absolute. Relative paths are resolved
// against the config directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(configDir, path)
}
