// Package embed produces vector embeddings for document chunks and
// questions.
package embed

import "context"

// Embedder turns text into fixed-dimension vectors.
//
// Implementations must be safe for concurrent use.
type Embedder interface {
	// Embed returns the embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns one embedding per input text, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension reports the vector dimension this embedder produces.
	Dimension() int
}

// Error wraps an embedding failure. Retryable marks transient
// conditions (rate limits, server errors, network failures) that the
// caller may retry; auth and validation errors are not retryable.
type Error struct {
	Retryable bool
	Err       error
}

func (e *Error) Error() string {
	if e.Retryable {
		return "embed (retryable): " + e.Err.Error()
	}
	return "embed: " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }
