package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the ReportPipe server.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Storage  StorageConfig
	AI       AIConfig
	Renderer RendererConfig
}

type ServerConfig struct {
	Port int
	Env  string
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL string
}

// StorageConfig selects and parameterizes the artifact store backend.
type StorageConfig struct {
	Backend         string // "gcs" or "local"
	Bucket          string
	Prefix          string
	LocalRoot       string
	DualWrite       bool
	CredentialsJSON string
}

type AIConfig struct {
	Provider         string
	SynthesisTimeout time.Duration
	OpenAI           OpenAIConfig
	Anthropic        AnthropicConfig
	Ollama           OllamaConfig
}

type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

type AnthropicConfig struct {
	APIKey string
	Model  string
}

type OllamaConfig struct {
	BaseURL string
	Model   string
}

type RendererConfig struct {
	Command string
	Timeout time.Duration
}

var validProviders = map[string]bool{
	"openai":    true,
	"anthropic": true,
	"ollama":    true,
}

var validBackends = map[string]bool{
	"gcs":   true,
	"local": true,
}

// Load reads configuration from environment variables and returns a validated Config.
// Returns an error with a descriptive message if any required value is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("REPORTPIPE_PORT", 8080),
			Env:  envString("REPORTPIPE_ENV", "development"),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		Storage: StorageConfig{
			Backend:         envString("STORAGE_BACKEND", "local"),
			Bucket:          os.Getenv("GCS_BUCKET"),
			Prefix:          os.Getenv("STORAGE_PREFIX"),
			LocalRoot:       envString("STORAGE_LOCAL_ROOT", "./output_reports"),
			DualWrite:       envBool("STORAGE_DUAL_WRITE", false),
			CredentialsJSON: os.Getenv("GCS_CREDENTIALS_JSON"),
		},
		AI: AIConfig{
			Provider:         os.Getenv("AI_PROVIDER"),
			SynthesisTimeout: envDurationSecs("AI_SYNTHESIS_TIMEOUT_SECS", 120*time.Second),
			OpenAI: OpenAIConfig{
				APIKey:  os.Getenv("OPENAI_API_KEY"),
				BaseURL: envString("OPENAI_BASE_URL", "https://api.openai.com/v1"),
				Model:   envString("OPENAI_MODEL", "gpt-4o-mini"),
			},
			Anthropic: AnthropicConfig{
				APIKey: os.Getenv("ANTHROPIC_API_KEY"),
				Model:  envString("ANTHROPIC_MODEL", "claude-sonnet-4-5-20250929"),
			},
			Ollama: OllamaConfig{
				BaseURL: envString("OLLAMA_BASE_URL", "http://localhost:11434"),
				Model:   envString("OLLAMA_MODEL", "llama3"),
			},
		},
		Renderer: RendererConfig{
			Command: envString("RENDERER_COMMAND", "pdflatex"),
			Timeout: envDurationSecs("RENDERER_TIMEOUT_SECS", 90*time.Second),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if !validBackends[c.Storage.Backend] {
		return fmt.Errorf("STORAGE_BACKEND must be one of gcs, local; got %q", c.Storage.Backend)
	}
	if c.Storage.Backend == "gcs" && c.Storage.Bucket == "" {
		return fmt.Errorf("GCS_BUCKET is required when STORAGE_BACKEND is gcs")
	}
	if c.Storage.Backend == "local" && c.Storage.LocalRoot == "" {
		return fmt.Errorf("STORAGE_LOCAL_ROOT is required when STORAGE_BACKEND is local")
	}

	if c.AI.Provider == "" {
		return fmt.Errorf("AI_PROVIDER is required")
	}
	if !validProviders[c.AI.Provider] {
		return fmt.Errorf("AI_PROVIDER must be one of openai, anthropic, ollama; got %q", c.AI.Provider)
	}

	if c.AI.Provider == "openai" && c.AI.OpenAI.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required when AI_PROVIDER is openai")
	}
	if c.AI.Provider == "anthropic" && c.AI.Anthropic.APIKey == "" {
		return fmt.Errorf("ANTHROPIC_API_KEY is required when AI_PROVIDER is anthropic")
	}

	if c.Renderer.Command == "" {
		return fmt.Errorf("RENDERER_COMMAND must not be empty")
	}

	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func envDurationSecs(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return time.Duration(secs) * time.Second
}
