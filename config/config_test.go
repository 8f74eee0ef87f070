package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig(writeConfig(t, "general:\n  debug: false\n"))

	if cfg.Chunking.TargetTokens != 512 || cfg.Chunking.OverlapTokens != 50 {
		t.Fatalf("unexpected chunking defaults: %+v", cfg.Chunking)
	}
	if cfg.Chunking.Encoding != "cl100k_base" {
		t.Fatalf("unexpected encoding default: %s", cfg.Chunking.Encoding)
	}
	if cfg.Retrieval.TopK != 5 {
		t.Fatalf("unexpected top_k default: %d", cfg.Retrieval.TopK)
	}
	if cfg.LLM.Provider != "openai" {
		t.Fatalf("unexpected provider default: %s", cfg.LLM.Provider)
	}
	if cfg.Server.SessionBackend != "memory" {
		t.Fatalf("unexpected session backend default: %s", cfg.Server.SessionBackend)
	}
	if len(cfg.Regulations) != 3 {
		t.Fatalf("unexpected regulations default: %v", cfg.Regulations)
	}
}

func TestLoadConfigFileOverride(t *testing.T) {
	cfg := LoadConfig(writeConfig(t, `
chunking:
  target_tokens: 256
  overlap_tokens: 32
retrieval:
  top_k: 10
llm:
  provider: ollama
`))

	if cfg.Chunking.TargetTokens != 256 || cfg.Chunking.OverlapTokens != 32 {
		t.Fatalf("file override not applied: %+v", cfg.Chunking)
	}
	if cfg.Retrieval.TopK != 10 {
		t.Fatalf("file override not applied: top_k=%d", cfg.Retrieval.TopK)
	}
	if cfg.LLM.Provider != "ollama" {
		t.Fatalf("file override not applied: provider=%s", cfg.LLM.Provider)
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("COMPLIANCEGPT_RETRIEVAL_TOP_K", "9")

	cfg := LoadConfig(writeConfig(t, "general:\n  debug: false\n"))
	if cfg.Retrieval.TopK != 9 {
		t.Fatalf("env override not applied: top_k=%d", cfg.Retrieval.TopK)
	}
}

func TestLoadConfigRejectsOverlapAtTarget(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for overlap >= target")
		}
	}()
	LoadConfig(writeConfig(t, `
chunking:
  target_tokens: 100
  overlap_tokens: 100
`))
}

func TestPostgresValidate(t *testing.T) {
	if err := (PostgresConfig{URL: "postgres://u:p@localhost/db"}).Validate(); err != nil {
		t.Fatalf("url-only config should validate: %v", err)
	}
	if err := (PostgresConfig{Host: "localhost"}).Validate(); err == nil {
		t.Fatal("missing dbname should fail validation")
	}
}
