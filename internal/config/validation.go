package config

import (
	"errors"
	"fmt"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrMissingAPIKey indicates the Gemini API key is missing.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidPostgresHost indicates the PostgreSQL host is empty.
	ErrInvalidPostgresHost = errors.New("invalid PostgreSQL host")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")

	// ErrInvalidPostgresDBName indicates the PostgreSQL database name is empty.
	ErrInvalidPostgresDBName = errors.New("invalid PostgreSQL database name")

	// ErrInvalidRedisURL indicates the Redis URL is empty.
	ErrInvalidRedisURL = errors.New("invalid Redis URL")

	// ErrInvalidChunking indicates chunk size or overlap is out of range.
	ErrInvalidChunking = errors.New("invalid chunking configuration")

	// ErrInvalidEmbedderDimension indicates the embedder dimension does not
	// match the database schema.
	ErrInvalidEmbedderDimension = errors.New("incompatible embedder dimension")

	// ErrInvalidTopK indicates top_k is not positive.
	ErrInvalidTopK = errors.New("invalid top_k")

	// ErrInvalidThreshold indicates the similarity threshold is out of [0, 1).
	ErrInvalidThreshold = errors.New("invalid similarity threshold")

	// ErrInvalidClaimStaleness indicates the claim staleness window is not positive.
	ErrInvalidClaimStaleness = errors.New("invalid claim staleness")
)

// Validate fails fast on configuration that could not possibly work.
// The API key is required: both the embedder and the completer need it.
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	if c.GeminiAPIKey == "" {
		return fmt.Errorf("%w: set GEMINI_API_KEY", ErrMissingAPIKey)
	}

	if c.PostgresHost == "" {
		return ErrInvalidPostgresHost
	}
	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPostgresPort, c.PostgresPort)
	}
	if c.PostgresDBName == "" {
		return ErrInvalidPostgresDBName
	}

	if c.RedisURL == "" {
		return ErrInvalidRedisURL
	}

	if c.ChunkMaxLen < 1 {
		return fmt.Errorf("%w: chunk_max_len %d", ErrInvalidChunking, c.ChunkMaxLen)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkMaxLen {
		return fmt.Errorf("%w: chunk_overlap %d with chunk_max_len %d", ErrInvalidChunking, c.ChunkOverlap, c.ChunkMaxLen)
	}

	if c.EmbedderDim != DefaultEmbedderDimension {
		return fmt.Errorf("%w: %d, schema uses %d", ErrInvalidEmbedderDimension, c.EmbedderDim, DefaultEmbedderDimension)
	}

	if c.TopK < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidTopK, c.TopK)
	}
	if c.SimilarityThreshold < 0 || c.SimilarityThreshold >= 1 {
		return fmt.Errorf("%w: %f", ErrInvalidThreshold, c.SimilarityThreshold)
	}

	if c.ClaimStaleMinutes < 1 {
		return fmt.Errorf("%w: %d minutes", ErrInvalidClaimStaleness, c.ClaimStaleMinutes)
	}
	return nil
}
