package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Catalog.RecordsPath == "" {
		cfg.Catalog.RecordsPath = "/usr/local/var/osusume/data/catalog.json"
	}
	if cfg.Catalog.VectorsPath == "" {
		cfg.Catalog.VectorsPath = "/usr/local/var/osusume/data/catalog.vec"
	}
	if cfg.Embedding.BaseURL == "" {
		cfg.Embedding.BaseURL = "http://localhost:11434/v1"
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "nomic-embed-text"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 768
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.LLM.APIKeyEnv == "" {
		cfg.LLM.APIKeyEnv = "GEMINI_API_KEY"
	}
	if cfg.LLM.InterpretModel == "" {
		cfg.LLM.InterpretModel = "gemini-2.0-flash"
	}
	if cfg.LLM.RerankModel == "" {
		cfg.LLM.RerankModel = "gemini-2.0-flash"
	}
	if cfg.LLM.TimeoutSeconds == 0 {
		cfg.LLM.TimeoutSeconds = 30
	}
	if cfg.LLM.CachePath == "" {
		cfg.LLM.CachePath = "/usr/local/var/osusume/data/rerank.db"
	}
	if cfg.Retrieval.TopKCandidates == 0 {
		cfg.Retrieval.TopKCandidates = 40
	}
	if cfg.Retrieval.DefaultTopK == 0 {
		cfg.Retrieval.DefaultTopK = 10
	}
	if cfg.Retrieval.MaxTopK == 0 {
		cfg.Retrieval.MaxTopK = 50
	}
	if cfg.Retrieval.VectorWeight == 0 && cfg.Retrieval.LexicalWeight == 0 {
		cfg.Retrieval.VectorWeight = 0.75
		cfg.Retrieval.LexicalWeight = 0.25
	}
	if cfg.Retrieval.DurationBoost == 0 {
		cfg.Retrieval.DurationBoost = 0.12
	}
	if cfg.Retrieval.JobLevelBoost == 0 {
		cfg.Retrieval.JobLevelBoost = 0.08
	}
	if cfg.Retrieval.LanguageBoost == 0 {
		cfg.Retrieval.LanguageBoost = 0.05
	}
	if cfg.Retrieval.TestTypeBoost == 0 {
		cfg.Retrieval.TestTypeBoost = 0.06
	}
	if cfg.Retrieval.MaxFeatures == 0 {
		cfg.Retrieval.MaxFeatures = 20000
	}
}
