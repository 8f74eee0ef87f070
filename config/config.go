package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the compliance Q&A system. It is built
// once at process start and threaded through constructors; the core packages
// never read ambient global state.
type Config struct {
	General     GeneralConfig   `mapstructure:"general"`
	Server      ServerConfig    `mapstructure:"server"`
	Chunking    ChunkingConfig  `mapstructure:"chunking"`
	Retrieval   RetrievalConfig `mapstructure:"retrieval"`
	LLM         LLMConfig       `mapstructure:"llm"`
	Storage     StorageConfig   `mapstructure:"storage"`
	WebSearch   WebSearchConfig `mapstructure:"web_search"`
	Telemetry   TelemetryConfig `mapstructure:"telemetry"`
	Regulations []string        `mapstructure:"regulations"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Debug          bool          `mapstructure:"debug"`
	LogLevel       string        `mapstructure:"log_level"`
	DefaultTimeout time.Duration `mapstructure:"default_timeout"`
}

// ServerConfig contains HTTP server and auth settings
type ServerConfig struct {
	Address        string `mapstructure:"address"`
	JWTSecret      string `mapstructure:"jwt_secret"`
	SessionBackend string `mapstructure:"session_backend"` // postgres, redis or memory
}

// ChunkingConfig controls the token-bounded chunker.
type ChunkingConfig struct {
	TargetTokens  int    `mapstructure:"target_tokens"`
	OverlapTokens int    `mapstructure:"overlap_tokens"`
	Encoding      string `mapstructure:"encoding"`
}

// RetrievalConfig controls hybrid search behaviour.
type RetrievalConfig struct {
	TopK  int     `mapstructure:"top_k"`
	Alpha float64 `mapstructure:"alpha"` // 0 = pure keyword, 1 = pure vector
}

// LLMConfig selects and configures the generation provider.
type LLMConfig struct {
	Provider string        `mapstructure:"provider"` // openai, groq, gemini, ollama
	Timeout  time.Duration `mapstructure:"timeout"`
	OpenAI   OpenAIConfig  `mapstructure:"openai"`
	Groq     GroqConfig    `mapstructure:"groq"`
	Gemini   GeminiConfig  `mapstructure:"gemini"`
	Ollama   OllamaConfig  `mapstructure:"ollama"`
}

// OpenAIConfig configures the OpenAI chat-completions provider.
type OpenAIConfig struct {
	APIKey         string  `mapstructure:"api_key"`
	Model          string  `mapstructure:"model"`
	EmbeddingModel string  `mapstructure:"embedding_model"`
	Temperature    float64 `mapstructure:"temperature"`
	MaxTokens      int     `mapstructure:"max_tokens"`
}

// GroqConfig configures the Groq provider (OpenAI-compatible API).
type GroqConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

// GeminiConfig configures the Google Gemini provider.
type GeminiConfig struct {
	APIKey    string `mapstructure:"api_key"`
	Model     string `mapstructure:"model"`
	MaxTokens int    `mapstructure:"max_tokens"`
}

// OllamaConfig configures a local Ollama provider.
type OllamaConfig struct {
	Host  string `mapstructure:"host"`
	Model string `mapstructure:"model"`
}

// StorageConfig contains the document index, chunk-set directories, and the
// session database backends.
type StorageConfig struct {
	Index    IndexConfig    `mapstructure:"index"`
	ChunkDir string         `mapstructure:"chunk_dir"`
	DocDir   string         `mapstructure:"doc_dir"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// IndexConfig configures the bleve document index.
type IndexConfig struct {
	Path     string `mapstructure:"path"`
	InMemory bool   `mapstructure:"in_memory"`
}

// PostgresConfig contains Postgres connection settings
type PostgresConfig struct {
	URL      string        `mapstructure:"url"`
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	User     string        `mapstructure:"user"`
	Password string        `mapstructure:"password"`
	DBName   string        `mapstructure:"dbname"`
	SSLMode  string        `mapstructure:"sslmode"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func (p PostgresConfig) Validate() error {
	if strings.TrimSpace(p.URL) != "" {
		return nil
	}
	if strings.TrimSpace(p.Host) == "" {
		return fmt.Errorf("storage.postgres.host required when url is not provided")
	}
	if strings.TrimSpace(p.DBName) == "" {
		return fmt.Errorf("storage.postgres.dbname required when url is not provided")
	}
	return nil
}

// DSN builds a postgres connection string from the configured fields.
func (p PostgresConfig) DSN() string {
	if p.URL != "" {
		return p.URL
	}
	port := p.Port
	if port == "" {
		port = "5432"
	}
	ssl := p.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", p.User, p.Password, p.Host, port, p.DBName, ssl)
}

// RedisConfig contains Redis connection settings
type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// Addr returns host:port for the redis client.
func (r RedisConfig) Addr() string {
	port := r.Port
	if port == "" {
		port = "6379"
	}
	return r.Host + ":" + port
}

// WebSearchConfig controls the optional answer-enrichment hook.
type WebSearchConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Endpoint   string `mapstructure:"endpoint"`
	APIKey     string `mapstructure:"api_key"`
	MaxResults int    `mapstructure:"max_results"`
}

// TelemetryConfig controls metric collection.
type TelemetryConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// LoadConfig loads config from file
func LoadConfig(path string) *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetDefault("general.log_level", "info")
	viper.SetDefault("general.default_timeout", "60s")
	viper.SetDefault("server.address", ":8080")
	viper.SetDefault("server.session_backend", "memory")
	viper.SetDefault("chunking.target_tokens", 512)
	viper.SetDefault("chunking.overlap_tokens", 50)
	viper.SetDefault("chunking.encoding", "cl100k_base")
	viper.SetDefault("retrieval.top_k", 5)
	viper.SetDefault("retrieval.alpha", 0.0)
	viper.SetDefault("llm.provider", "openai")
	viper.SetDefault("llm.timeout", "30s")
	viper.SetDefault("llm.openai.model", "gpt-4o-mini")
	viper.SetDefault("llm.openai.embedding_model", "text-embedding-3-large")
	viper.SetDefault("llm.openai.temperature", 0.1)
	viper.SetDefault("llm.openai.max_tokens", 1500)
	viper.SetDefault("llm.groq.model", "llama-3.3-70b-versatile")
	viper.SetDefault("llm.groq.temperature", 0.1)
	viper.SetDefault("llm.groq.max_tokens", 1500)
	viper.SetDefault("llm.gemini.model", "gemini-1.5-flash")
	viper.SetDefault("llm.gemini.max_tokens", 1500)
	viper.SetDefault("llm.ollama.model", "llama3.1")
	viper.SetDefault("storage.index.path", "data/index.bleve")
	viper.SetDefault("storage.chunk_dir", "data/chunks")
	viper.SetDefault("storage.doc_dir", "data/docs")
	viper.SetDefault("web_search.max_results", 3)
	viper.SetDefault("telemetry.enabled", true)
	viper.SetDefault("regulations", []string{"GDPR", "CCPA", "PCI-DSS"})

	if path == "" {
		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")
		exe, _ := os.Executable()
		exeDir := filepath.Dir(exe)
		viper.AddConfigPath(exeDir)
		viper.AddConfigPath(filepath.Join(exeDir, ".."))
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("COMPLIANCEGPT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// the config file is optional: defaults plus env cover the common case
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			panic(fmt.Errorf("fatal error config file: %w", err))
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}
	if config.Chunking.OverlapTokens >= config.Chunking.TargetTokens {
		panic(fmt.Errorf("chunking.overlap_tokens must be smaller than chunking.target_tokens"))
	}
	return &config
}
