package model

import (
	"os"
	"path/filepath"
)

// Config is the full noesis configuration tree.
type Config struct {
	LLM       LLMConfig       `yaml:"llm" mapstructure:"llm"`
	Embedding EmbeddingConfig `yaml:"embedding" mapstructure:"embedding"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Registry  RegistryConfig  `yaml:"registry" mapstructure:"registry"`
	Retrieval RetrievalConfig `yaml:"retrieval" mapstructure:"retrieval"`
	Ingest    IngestConfig    `yaml:"ingest" mapstructure:"ingest"`
	Cache     CacheConfig     `yaml:"cache" mapstructure:"cache"`
	Logging   LoggingConfig   `yaml:"logging" mapstructure:"logging"`
}

// LLMConfig holds chat-model provider settings.
type LLMConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"` // openai, ollama
	Model     string `yaml:"model" mapstructure:"model"`
	APIKey    string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL   string `yaml:"base_url" mapstructure:"base_url"`
	Timeout   int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`

	// Proxy settings
	HTTPProxy  string `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy string `yaml:"https_proxy" mapstructure:"https_proxy"`
	NoProxy    string `yaml:"no_proxy" mapstructure:"no_proxy"`
}

// EmbeddingConfig holds embedding-client settings.
type EmbeddingConfig struct {
	APIKey     string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL    string `yaml:"base_url" mapstructure:"base_url"`
	Model      string `yaml:"model" mapstructure:"model"`
	Dimensions int    `yaml:"dimensions" mapstructure:"dimensions"`
}

// StoreConfig holds vector store settings.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"` // SQLite file path
}

// RegistryConfig holds entity registry persistence settings.
type RegistryConfig struct {
	Path string `yaml:"path" mapstructure:"path"` // Snapshot document path
}

// RetrievalConfig bounds the strategy loop and the searches it issues.
type RetrievalConfig struct {
	TopK            int     `yaml:"top_k" mapstructure:"top_k"`
	MinResults      int     `yaml:"min_results" mapstructure:"min_results"`
	MaxRetries      int     `yaml:"max_retries" mapstructure:"max_retries"`
	SimilarityFloor float64 `yaml:"similarity_floor" mapstructure:"similarity_floor"`
	RerankTopK      int     `yaml:"rerank_top_k" mapstructure:"rerank_top_k"`
}

// IngestConfig holds document ingestion settings.
type IngestConfig struct {
	UserAgent    string  `yaml:"user_agent" mapstructure:"user_agent"`
	Timeout      int     `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxBodyBytes int64   `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	ChunkSize    int     `yaml:"chunk_size" mapstructure:"chunk_size"` // runes per chunk
	ChunkOverlap int     `yaml:"chunk_overlap" mapstructure:"chunk_overlap"`
	Workers      int     `yaml:"workers" mapstructure:"workers"`
	RatePerHost  float64 `yaml:"rate_per_host" mapstructure:"rate_per_host"` // req/s
	RespectRobots bool   `yaml:"respect_robots" mapstructure:"respect_robots"`
}

// CacheConfig holds cache tier settings.
type CacheConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Dir     string `yaml:"dir" mapstructure:"dir"`
	TTL     int    `yaml:"ttl" mapstructure:"ttl"` // seconds
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Env   string `yaml:"env" mapstructure:"env"`     // local, prod
	Level string `yaml:"level" mapstructure:"level"` // debug, info, warn, error
}

// DefaultConfig returns the built-in defaults. Everything can be overridden
// via config file, NOESIS_* env vars, or flags.
func DefaultConfig() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	base := filepath.Join(home, ".noesis")

	return &Config{
		LLM: LLMConfig{
			Provider:  "ollama",
			Model:     "qwen2.5:7b",
			BaseURL:   "",
			Timeout:   60,
			MaxTokens: 1024,
		},
		Embedding: EmbeddingConfig{
			Model:      "text-embedding-3-small",
			Dimensions: 1536,
		},
		Store: StoreConfig{
			Path: filepath.Join(base, "vectors.db"),
		},
		Registry: RegistryConfig{
			Path: filepath.Join(base, "registry.json"),
		},
		Retrieval: RetrievalConfig{
			TopK:            10,
			MinResults:      1,
			MaxRetries:      3,
			SimilarityFloor: 0.3,
			RerankTopK:      5,
		},
		Ingest: IngestConfig{
			UserAgent:     "Noesis/0.1 (+https://github.com/noesis-ai/noesis)",
			Timeout:       30,
			MaxBodyBytes:  2_000_000,
			ChunkSize:     800,
			ChunkOverlap:  80,
			Workers:       4,
			RatePerHost:   1.0,
			RespectRobots: true,
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     filepath.Join(base, "cache"),
			TTL:     86400,
		},
		Logging: LoggingConfig{
			Env:   "local",
			Level: "info",
		},
	}
}
