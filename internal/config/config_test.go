package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
catalog:
  records_path: "./catalog.json"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Catalog.RecordsPath != filepath.Join(dir, "catalog.json") {
		t.Errorf("records_path should be expanded relative to config dir, got %q", cfg.Catalog.RecordsPath)
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
}

func TestLoad_missingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	ApplyDefaults(&cfg)

	if cfg.Server.Port != 8080 {
		t.Errorf("port default = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Retrieval.TopKCandidates != 40 {
		t.Errorf("top_k_candidates default = %d, want 40", cfg.Retrieval.TopKCandidates)
	}
	if cfg.Retrieval.DefaultTopK != 10 || cfg.Retrieval.MaxTopK != 50 {
		t.Errorf("unexpected top_k limits: %+v", cfg.Retrieval)
	}
	if cfg.Retrieval.VectorWeight != 0.75 || cfg.Retrieval.LexicalWeight != 0.25 {
		t.Errorf("unexpected fusion weights: %+v", cfg.Retrieval)
	}
	if cfg.Retrieval.DurationBoost != 0.12 || cfg.Retrieval.JobLevelBoost != 0.08 ||
		cfg.Retrieval.LanguageBoost != 0.05 || cfg.Retrieval.TestTypeBoost != 0.06 {
		t.Errorf("unexpected boost defaults: %+v", cfg.Retrieval)
	}
	if cfg.LLM.TimeoutSeconds != 30 {
		t.Errorf("llm timeout default = %d, want 30", cfg.LLM.TimeoutSeconds)
	}
	if cfg.LLM.APIKeyEnv != "GEMINI_API_KEY" {
		t.Errorf("api_key_env default = %q", cfg.LLM.APIKeyEnv)
	}
}

func TestApplyDefaults_explicitWeightsKept(t *testing.T) {
	cfg := Config{}
	cfg.Retrieval.VectorWeight = 0.5
	cfg.Retrieval.LexicalWeight = 0.5
	ApplyDefaults(&cfg)
	if cfg.Retrieval.VectorWeight != 0.5 || cfg.Retrieval.LexicalWeight != 0.5 {
		t.Errorf("explicit weights overwritten: %+v", cfg.Retrieval)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	var cfg Config
	ApplyDefaults(&cfg)
	cfg.Catalog.RecordsPath = "/data/catalog.json"
	if err := Save(path, &cfg); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Catalog.RecordsPath != "/data/catalog.json" {
		t.Errorf("records_path = %q after round trip", loaded.Catalog.RecordsPath)
	}
	if loaded.Retrieval.TopKCandidates != cfg.Retrieval.TopKCandidates {
		t.Errorf("retrieval config did not survive round trip")
	}
}

func TestExpandPathAbsoluteUnchanged(t *testing.T) {
	got := expandPath("/abs/path.json", "/etc/osusume")
	if got != "/abs/path.json" {
		t.Errorf("absolute path changed: %q", got)
	}
	rel := expandPath("data/catalog.json", "/etc/osusume")
	if strings.HasPrefix(rel, "/etc/osusume") {
		t.Errorf("bare relative path should resolve against home, got %q", rel)
	}
}
