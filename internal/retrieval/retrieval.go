// Package retrieval embeds questions and finds the chunks most
// relevant to them.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/devdocsai/devdocs/internal/log"
	"github.com/devdocsai/devdocs/internal/vectorstore"
)

const (
	// DefaultTopK caps results per question.
	DefaultTopK = 5

	// DefaultThreshold is the minimum cosine similarity a chunk must
	// strictly exceed to count as relevant.
	DefaultThreshold = 0.78
)

// Embedder produces the question vector. Must be the same embedder
// (model and dimension) the ingestion pipeline indexed with.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Searcher runs similarity search over stored chunks.
type Searcher interface {
	Search(ctx context.Context, query []float32, threshold float64, limit int, opts vectorstore.SearchOpts) ([]vectorstore.Match, error)
}

// Options narrows and tunes a retrieval. Zero values fall back to
// defaults; an explicit zero threshold is expressed by a small
// negative value.
type Options struct {
	// DocumentID restricts retrieval to one document when set.
	DocumentID uuid.UUID

	// OwnerID restricts retrieval to one owner's documents when set.
	OwnerID string

	// TopK caps the result count. Defaults to DefaultTopK.
	TopK int

	// Threshold overrides DefaultThreshold when non-zero.
	Threshold float64
}

// Engine answers "which chunks matter for this question".
type Engine struct {
	embedder Embedder
	searcher Searcher
	logger   log.Logger
}

// New creates an Engine.
func New(embedder Embedder, searcher Searcher, logger log.Logger) (*Engine, error) {
	if embedder == nil {
		return nil, errors.New("embedder is required")
	}
	if searcher == nil {
		return nil, errors.New("searcher is required")
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Engine{embedder: embedder, searcher: searcher, logger: logger}, nil
}

// Retrieve returns the chunks most relevant to the question, best
// first. An empty result is a normal outcome, not an error: nothing
// cleared the threshold.
func (e *Engine) Retrieve(ctx context.Context, question string, opts Options) ([]vectorstore.Match, error) {
	if strings.TrimSpace(question) == "" {
		return nil, errors.New("question is empty")
	}

	topK := opts.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}
	threshold := opts.Threshold
	if threshold == 0 {
		threshold = DefaultThreshold
	} else if threshold < 0 {
		threshold = 0
	}

	vec, err := e.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embedding question: %w", err)
	}

	matches, err := e.searcher.Search(ctx, vec, threshold, topK, vectorstore.SearchOpts{
		DocumentID: opts.DocumentID,
		OwnerID:    opts.OwnerID,
	})
	if err != nil {
		return nil, fmt.Errorf("searching chunks: %w", err)
	}

	e.logger.Debug("retrieval complete",
		"matches", len(matches), "top_k", topK, "threshold", threshold)
	return matches, nil
}
