package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "data/corpus.db"
	}
	if cfg.Storage.KeywordIndexPath == "" {
		cfg.Storage.KeywordIndexPath = "data/keyword.bleve"
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "local"
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Search.RRFConstant == 0 {
		cfg.Search.RRFConstant = 60
	}
	if cfg.Search.CandidatePool == 0 {
		cfg.Search.CandidatePool = 100
	}
	if cfg.Search.DefaultTopK == 0 {
		cfg.Search.DefaultTopK = 10
	}
	if cfg.Search.MaxTopK == 0 {
		cfg.Search.MaxTopK = 100
	}
	if cfg.Search.RerankK == 0 {
		cfg.Search.RerankK = 50
	}
	if cfg.Search.RetrievalTimeoutMs == 0 {
		cfg.Search.RetrievalTimeoutMs = 2000
	}
	if cfg.Search.RerankTimeoutMs == 0 {
		cfg.Search.RerankTimeoutMs = 5000
	}
	if cfg.Ingest.IncomingDir == "" {
		cfg.Ingest.IncomingDir = "data/incoming"
	}
}
