// Package config provides application configuration with multi-source
// priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (DEVDOCS_* plus GEMINI_API_KEY, REDIS_URL, DATABASE_URL)
//  2. Config file (config.yaml in the working directory or ~/.devdocs/)
//  3. Default values
//
// Error handling uses sentinel errors so callers can match with
// errors.Is().
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

const (
	// DefaultEmbedderModel is the Gemini embedding model.
	// gemini-embedding-001 outputs 3072 dimensions by default, but supports
	// truncation to 768 via OutputDimensionality (Matryoshka Representation
	// Learning). The pgvector schema uses 768.
	DefaultEmbedderModel = "gemini-embedding-001"

	// DefaultCompletionModel is the Gemini model used for answers.
	DefaultCompletionModel = "gemini-2.5-flash"

	// DefaultEmbedderDimension matches the chunks.embedding column.
	DefaultEmbedderDimension = 768
)

// Config stores application configuration.
type Config struct {
	// PostgreSQL connection
	PostgresHost     string `mapstructure:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password"`
	PostgresDBName   string `mapstructure:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode"`

	// Redis queue
	RedisURL string `mapstructure:"redis_url"`

	// Blob storage base URL (any scheme viant/afs understands).
	BlobBaseURL string `mapstructure:"blob_base_url"`

	// Gemini
	GeminiAPIKey    string `mapstructure:"gemini_api_key"`
	CompletionModel string `mapstructure:"completion_model"`
	EmbedderModel   string `mapstructure:"embedder_model"`
	EmbedderDim     int    `mapstructure:"embedder_dimension"`

	// Chunking
	ChunkMaxLen  int `mapstructure:"chunk_max_len"`
	ChunkOverlap int `mapstructure:"chunk_overlap"`

	// Retrieval
	TopK                int     `mapstructure:"top_k"`
	SimilarityThreshold float64 `mapstructure:"similarity_threshold"`

	// Ingestion
	ClaimStaleMinutes int `mapstructure:"claim_stale_minutes"`

	// Logging
	LogLevel string `mapstructure:"log_level"`
	LogJSON  bool   `mapstructure:"log_json"`
}

// ClaimStaleAfter is how long a processing claim may go untouched
// before another attempt may take it over.
func (c *Config) ClaimStaleAfter() time.Duration {
	return time.Duration(c.ClaimStaleMinutes) * time.Minute
}

// Load reads configuration from defaults, an optional config file and
// the environment, then validates it.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("DEVDOCS")
	v.AutomaticEnv()
	bindEnvVariables(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".devdocs"))
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	if err := cfg.parseDatabaseURL(); err != nil {
		return nil, fmt.Errorf("parsing DATABASE_URL: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("postgres_host", "localhost")
	v.SetDefault("postgres_port", 5432)
	v.SetDefault("postgres_user", "devdocs")
	v.SetDefault("postgres_password", "devdocs_dev_password")
	v.SetDefault("postgres_db_name", "devdocs")
	v.SetDefault("postgres_ssl_mode", "disable")

	v.SetDefault("redis_url", "redis://localhost:6379")

	v.SetDefault("blob_base_url", "file:///var/lib/devdocs/blobs")

	v.SetDefault("completion_model", DefaultCompletionModel)
	v.SetDefault("embedder_model", DefaultEmbedderModel)
	v.SetDefault("embedder_dimension", DefaultEmbedderDimension)

	v.SetDefault("chunk_max_len", 800)
	v.SetDefault("chunk_overlap", 100)

	v.SetDefault("top_k", 5)
	v.SetDefault("similarity_threshold", 0.78)

	v.SetDefault("claim_stale_minutes", 10)

	v.SetDefault("log_level", "info")
	v.SetDefault("log_json", false)
}

// bindEnvVariables binds the variables that don't follow the
// DEVDOCS_* convention.
func bindEnvVariables(v *viper.Viper) {
	mustBind := func(key string, envVars ...string) {
		if err := v.BindEnv(append([]string{key}, envVars...)...); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q: %v", key, err))
		}
	}
	mustBind("gemini_api_key", "GEMINI_API_KEY")
	mustBind("redis_url", "REDIS_URL")
}
