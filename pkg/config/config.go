// Package config holds the service configuration. Configuration is read
// from an optional YAML file with ${ENV_VAR} expansion, then passed
// through the SetDefaults/Validate pipeline. API keys and Neo4j
// credentials fall back to environment variables so a bare `.env` file
// is enough to run.
package config

import (
	"fmt"
	"os"
)

const (
	// DefaultEmbeddingDimension matches text-embedding-ada-002 and the
	// movieEmbeddingIndex vector index.
	DefaultEmbeddingDimension = 1536

	// DefaultVectorTopK is the similarity result count. The vector
	// search tool always uses this value, even when the router supplies
	// its own top_k.
	DefaultVectorTopK = 5

	// DefaultVectorIndex is the Neo4j vector index over Movie
	// embeddings.
	DefaultVectorIndex = "movieEmbeddingIndex"
)

// Config is the root configuration.
type Config struct {
	Server      ServerConfig   `yaml:"server"`
	Neo4j       Neo4jConfig    `yaml:"neo4j"`
	Router      LLMConfig      `yaml:"router"`
	Synthesizer LLMConfig      `yaml:"synthesizer"`
	Embedder    EmbedderConfig `yaml:"embedder"`
	Search      SearchConfig   `yaml:"search"`
	Logging     LoggingConfig  `yaml:"logging"`
}

// LLMProvider identifies the LLM provider type.
type LLMProvider string

const (
	LLMProviderOpenAI LLMProvider = "openai"
	LLMProviderGemini LLMProvider = "gemini"
)

// LLMConfig configures one LLM provider.
type LLMConfig struct {
	Provider    LLMProvider `yaml:"provider,omitempty"`
	Model       string      `yaml:"model,omitempty"`
	APIKey      string      `yaml:"api_key,omitempty"`
	BaseURL     string      `yaml:"base_url,omitempty"`
	Temperature *float64    `yaml:"temperature,omitempty"`
	MaxTokens   int         `yaml:"max_tokens,omitempty"`
	Timeout     int         `yaml:"timeout,omitempty"`
	MaxRetries  int         `yaml:"max_retries,omitempty"`
	RetryDelay  int         `yaml:"retry_delay,omitempty"`
}

// Neo4jConfig configures the knowledge store connection.
type Neo4jConfig struct {
	URI      string `yaml:"uri,omitempty"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	Database string `yaml:"database,omitempty"`
	Timeout  int    `yaml:"timeout,omitempty"`
}

// EmbedderConfig configures the embedding client.
type EmbedderConfig struct {
	Model      string `yaml:"model,omitempty"`
	APIKey     string `yaml:"api_key,omitempty"`
	BaseURL    string `yaml:"base_url,omitempty"`
	Dimension  int    `yaml:"dimension,omitempty"`
	Timeout    int    `yaml:"timeout,omitempty"`
	MaxRetries int    `yaml:"max_retries,omitempty"`
}

// SearchConfig configures similarity search.
type SearchConfig struct {
	Index string `yaml:"index,omitempty"`
	TopK  int    `yaml:"top_k,omitempty"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host          string `yaml:"host,omitempty"`
	Port          int    `yaml:"port,omitempty"`
	StreamDelayMS int    `yaml:"stream_delay_ms,omitempty"`
	AllowedOrigin string `yaml:"allowed_origin,omitempty"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
	File   string `yaml:"file,omitempty"`
}

// SetDefaults applies default values and environment fallbacks.
func (c *Config) SetDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "127.0.0.1"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.StreamDelayMS == 0 {
		c.Server.StreamDelayMS = 50
	}
	if c.Server.AllowedOrigin == "" {
		c.Server.AllowedOrigin = "*"
	}

	if c.Neo4j.URI == "" {
		c.Neo4j.URI = envOr("NEO4J_URI", "bolt://localhost:7687")
	}
	if c.Neo4j.Username == "" {
		c.Neo4j.Username = envOr("NEO4J_USER", "neo4j")
	}
	if c.Neo4j.Password == "" {
		c.Neo4j.Password = os.Getenv("NEO4J_PASSWORD")
	}
	if c.Neo4j.Timeout == 0 {
		c.Neo4j.Timeout = 30
	}

	c.Router.setDefaults(LLMProviderGemini, "gemini-2.5-flash")
	if c.Router.Temperature == nil {
		// Low temperature keeps routing decisions stable.
		temp := 0.2
		c.Router.Temperature = &temp
	}
	c.Synthesizer.setDefaults(LLMProviderOpenAI, "gpt-4")

	if c.Embedder.Model == "" {
		c.Embedder.Model = "text-embedding-ada-002"
	}
	if c.Embedder.APIKey == "" {
		c.Embedder.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.Embedder.BaseURL == "" {
		c.Embedder.BaseURL = "https://api.openai.com/v1"
	}
	if c.Embedder.Dimension == 0 {
		c.Embedder.Dimension = DefaultEmbeddingDimension
	}
	if c.Embedder.Timeout == 0 {
		c.Embedder.Timeout = 30
	}
	if c.Embedder.MaxRetries == 0 {
		c.Embedder.MaxRetries = 3
	}

	if c.Search.Index == "" {
		c.Search.Index = DefaultVectorIndex
	}
	if c.Search.TopK == 0 {
		c.Search.TopK = DefaultVectorTopK
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

func (l *LLMConfig) setDefaults(provider LLMProvider, model string) {
	if l.Provider == "" {
		l.Provider = provider
	}
	if l.Model == "" {
		l.Model = model
	}
	if l.APIKey == "" {
		l.APIKey = apiKeyFromEnv(l.Provider)
	}
	if l.BaseURL == "" {
		switch l.Provider {
		case LLMProviderOpenAI:
			l.BaseURL = "https://api.openai.com/v1"
		case LLMProviderGemini:
			l.BaseURL = "https://generativelanguage.googleapis.com"
		}
	}
	if l.MaxTokens == 0 {
		l.MaxTokens = 1000
	}
	if l.Timeout == 0 {
		l.Timeout = 60
	}
	if l.MaxRetries == 0 {
		l.MaxRetries = 3
	}
	if l.RetryDelay == 0 {
		l.RetryDelay = 2
	}
}

func apiKeyFromEnv(provider LLMProvider) string {
	switch provider {
	case LLMProviderOpenAI:
		return os.Getenv("OPENAI_API_KEY")
	case LLMProviderGemini:
		if key := os.Getenv("GEMINI_API_KEY"); key != "" {
			return key
		}
		return os.Getenv("GOOGLE_API_KEY")
	}
	return ""
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Validate reports unrecoverable configuration errors. These are the
// only process-fatal failures; everything downstream degrades to
// failure values.
func (c *Config) Validate() error {
	if c.Neo4j.URI == "" {
		return fmt.Errorf("neo4j: uri is required")
	}
	if c.Router.APIKey == "" {
		return fmt.Errorf("router: api key is required (set GEMINI_API_KEY)")
	}
	if c.Synthesizer.APIKey == "" {
		return fmt.Errorf("synthesizer: api key is required (set OPENAI_API_KEY)")
	}
	if c.Embedder.APIKey == "" {
		return fmt.Errorf("embedder: api key is required (set OPENAI_API_KEY)")
	}
	if c.Embedder.Dimension <= 0 {
		return fmt.Errorf("embedder: dimension must be positive")
	}
	if c.Search.TopK <= 0 {
		return fmt.Errorf("search: top_k must be positive")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server: invalid port %d", c.Server.Port)
	}
	return nil
}
