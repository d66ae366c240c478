// Package config provides configuration loading and structs for the Osusume server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	LLM       LLMConfig       `yaml:"llm"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// CatalogConfig holds paths to the catalog dataset artifacts.
type CatalogConfig struct {
	RecordsPath string `yaml:"records_path"`
	VectorsPath string `yaml:"vectors_path"`
	Watch       bool   `yaml:"watch"`
}

// EmbeddingConfig holds settings for the embedding service client.
type EmbeddingConfig struct {
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
	CacheSize  int    `yaml:"cache_size"`
}

// LLMConfig holds settings for the language-model clients used by query
// interpretation and relevance scoring.
type LLMConfig struct {
	APIKeyEnv      string `yaml:"api_key_env"`
	InterpretModel string `yaml:"interpret_model"`
	RerankModel    string `yaml:"rerank_model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	CachePath      string `yaml:"cache_path"`
}

// RetrievalConfig holds the scoring weights, soft-boost values, and result
// limits of the retrieval pipeline.
type RetrievalConfig struct {
	TopKCandidates int     `yaml:"top_k_candidates"`
	DefaultTopK    int     `yaml:"default_top_k"`
	MaxTopK        int     `yaml:"max_top_k"`
	VectorWeight   float64 `yaml:"vector_weight"`
	LexicalWeight  float64 `yaml:"lexical_weight"`
	DurationBoost  float64 `yaml:"duration_boost"`
	JobLevelBoost  float64 `yaml:"job_level_boost"`
	LanguageBoost  float64 `yaml:"language_boost"`
	TestTypeBoost  float64 `yaml:"test_type_boost"`
	MaxFeatures    int     `yaml:"max_features"`
}

// Load reads and parses the config file at path, applies defaults, and
// expands relative paths. Returns an error if the file cannot be read or
// parsed.
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

	configDir := filepath.Dir(path)
	cfg.Catalog.RecordsPath = expandPath(cfg.Catalog.RecordsPath, configDir)
	cfg.Catalog.VectorsPath = expandPath(cfg.Catalog.VectorsPath, configDir)
	cfg.LLM.CachePath = expandPath(cfg.LLM.CachePath, configDir)

	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
