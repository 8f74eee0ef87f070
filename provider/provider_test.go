package provider

import (
	"context"
	"errors"
	"testing"

	"github.com/regulatech/compliancegpt/config"
)

func TestNewProviderUnsupported(t *testing.T) {
	_, err := NewProvider(context.Background(), config.LLMConfig{Provider: "watson"})
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
	if cfgErr.Provider != "watson" {
		t.Errorf("error names provider %q", cfgErr.Provider)
	}
}

func TestNewProviderMissingKey(t *testing.T) {
	for _, name := range []string{"openai", "groq", "gemini"} {
		_, err := NewProvider(context.Background(), config.LLMConfig{Provider: name})
		var cfgErr *ConfigurationError
		if !errors.As(err, &cfgErr) {
			t.Errorf("%s without key: expected ConfigurationError, got %v", name, err)
		}
	}
}

func TestNewProviderOpenAI(t *testing.T) {
	cfg := config.LLMConfig{Provider: "openai"}
	cfg.OpenAI.APIKey = "sk-test"
	cfg.OpenAI.Model = "gpt-4o"

	p, err := NewProvider(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}
	if p.Name() != "openai" || p.Model() != "gpt-4o" {
		t.Errorf("provider identity %s/%s", p.Name(), p.Model())
	}
	if _, ok := p.(Embedder); !ok {
		t.Error("openai provider should support embeddings")
	}
}

func TestNewProviderOllamaNeedsNoKey(t *testing.T) {
	cfg := config.LLMConfig{Provider: "ollama"}
	cfg.Ollama.Host = "http://127.0.0.1:11434"

	p, err := NewProvider(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}
	if p.Name() != "ollama" {
		t.Errorf("provider name %s", p.Name())
	}
}
