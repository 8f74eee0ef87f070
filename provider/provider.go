package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/regulatech/compliancegpt/config"
	gemini_provider "github.com/regulatech/compliancegpt/provider/gemini"
	groq_provider "github.com/regulatech/compliancegpt/provider/groq"
	ollama_provider "github.com/regulatech/compliancegpt/provider/ollama"
	openai_provider "github.com/regulatech/compliancegpt/provider/openai"
)

// Client represents different LLM providers
type Client string

const (
	OpenAI Client = "openai"
	Groq   Client = "groq"
	Gemini Client = "gemini"
	Ollama Client = "ollama"
)

// Provider is the interface every LLM backend must satisfy.
type Provider interface {
	Name() string
	Model() string
	Generate(ctx context.Context, system, user string) (string, error)
}

// Embedder is implemented by providers that can embed text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// ConfigurationError reports a provider that is selected but not usable
// with the supplied configuration.
type ConfigurationError struct {
	Provider string
	Reason   string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("provider %s: %s", e.Provider, e.Reason)
}

// NewProvider builds the configured LLM backend.
func NewProvider(ctx context.Context, cfg config.LLMConfig) (Provider, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	switch Client(cfg.Provider) {
	case OpenAI:
		if cfg.OpenAI.APIKey == "" {
			return nil, &ConfigurationError{Provider: "openai", Reason: "api_key not set"}
		}
		return openai_provider.New(
			cfg.OpenAI.APIKey,
			cfg.OpenAI.Model,
			cfg.OpenAI.EmbeddingModel,
			cfg.OpenAI.Temperature,
			cfg.OpenAI.MaxTokens,
			timeout,
		), nil
	case Groq:
		if cfg.Groq.APIKey == "" {
			return nil, &ConfigurationError{Provider: "groq", Reason: "api_key not set"}
		}
		return groq_provider.New(
			cfg.Groq.APIKey,
			cfg.Groq.Model,
			cfg.Groq.Temperature,
			cfg.Groq.MaxTokens,
			timeout,
		), nil
	case Gemini:
		if cfg.Gemini.APIKey == "" {
			return nil, &ConfigurationError{Provider: "gemini", Reason: "api_key not set"}
		}
		return gemini_provider.New(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Gemini.MaxTokens)
	case Ollama:
		return ollama_provider.New(cfg.Ollama.Host, cfg.Ollama.Model)
	default:
		return nil, &ConfigurationError{Provider: cfg.Provider, Reason: "unsupported provider"}
	}
}
