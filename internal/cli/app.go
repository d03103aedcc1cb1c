package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jonzo97/mchp-fpga-mcp/internal/config"
	"github.com/jonzo97/mchp-fpga-mcp/internal/embedder"
	"github.com/jonzo97/mchp-fpga-mcp/internal/hybrid"
	"github.com/jonzo97/mchp-fpga-mcp/internal/keyword"
	"github.com/jonzo97/mchp-fpga-mcp/internal/reranker"
	"github.com/jonzo97/mchp-fpga-mcp/internal/storage"
)

// app bundles the wired application services. Close releases them in
// reverse construction order.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	store    *storage.SQLiteStore
	index    *keyword.Index
	embedder embedder.Embedder
	reranker *reranker.HTTPReranker
	search   *hybrid.Service
}

// newApp loads configuration and constructs the full service stack.
func newApp() (*app, error) {
	var cfg *config.Config
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}

	logger, err := newLogger(cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Storage.DatabasePath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	store, err := storage.NewSQLiteStore(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, err
	}

	index, err := keyword.Open(cfg.Storage.KeywordIndexPath)
	if err != nil {
		store.Close()
		return nil, err
	}

	emb, err := embedder.New(embedder.Config{
		Provider:  cfg.Embedding.Provider,
		BaseURL:   cfg.Embedding.BaseURL,
		APIKey:    cfg.Embedding.APIKey,
		Model:     cfg.Embedding.Model,
		Dimension: cfg.Embedding.Dimension,
		CacheSize: cfg.Embedding.CacheSize,
	})
	if err != nil {
		index.Close()
		store.Close()
		return nil, err
	}

	var rrk *reranker.HTTPReranker
	var rerankerIface hybrid.Reranker
	if cfg.Reranker.Enabled() {
		rrk, err = reranker.New(reranker.Config{
			BaseURL: cfg.Reranker.BaseURL,
			APIKey:  cfg.Reranker.APIKey,
			Model:   cfg.Reranker.Model,
			Timeout: time.Duration(cfg.Search.RerankTimeoutMs) * time.Millisecond,
		})
		if err != nil {
			emb.Close()
			index.Close()
			store.Close()
			return nil, err
		}
		rerankerIface = rrk
	}

	search := hybrid.NewService(index, store, store, rerankerIface, hybrid.Options{
		RRFConstant:      cfg.Search.RRFConstant,
		CandidatePool:    cfg.Search.CandidatePool,
		RerankK:          cfg.Search.RerankK,
		RetrievalTimeout: time.Duration(cfg.Search.RetrievalTimeoutMs) * time.Millisecond,
		RerankTimeout:    time.Duration(cfg.Search.RerankTimeoutMs) * time.Millisecond,
		Logger:           logger,
	})

	return &app{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		index:    index,
		embedder: emb,
		reranker: rrk,
		search:   search,
	}, nil
}

func (a *app) Close() {
	if a.reranker != nil {
		a.reranker.Close()
	}
	a.embedder.Close()
	a.index.Close()
	a.store.Close()
	_ = a.logger.Sync()
}

// newLogger builds a zap logger writing to stderr. Stdout stays clean
// for the MCP stdio transport and command output.
func newLogger(debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return cfg.Build()
}
