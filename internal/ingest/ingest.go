// Package ingest runs the document processing pipeline: claim,
// fetch, extract, chunk, embed, persist. Every attempt ends in
// exactly one of three states: the document is ready, the document is
// failed with a recorded message, or the attempt was cancelled and
// the claim released for a later retry.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/devdocsai/devdocs/internal/chunker"
	"github.com/devdocsai/devdocs/internal/document"
	"github.com/devdocsai/devdocs/internal/extract"
	"github.com/devdocsai/devdocs/internal/log"
	"github.com/devdocsai/devdocs/internal/vectorstore"
)

// DefaultStaleAfter is how long a claim may sit untouched before
// another attempt may take it over.
const DefaultStaleAfter = 10 * time.Minute

// defaultBatchSize bounds how many chunks go into one embedding call.
const defaultBatchSize = 64

// DocumentStore is the slice of the document store the pipeline needs.
type DocumentStore interface {
	Get(ctx context.Context, id uuid.UUID) (*document.Document, error)
	TryClaim(ctx context.Context, id uuid.UUID, staleAfter time.Duration) (bool, error)
	ReleaseClaim(ctx context.Context, id uuid.UUID) error
	MarkReady(ctx context.Context, id uuid.UUID, chunkCount int) error
	MarkFailed(ctx context.Context, id uuid.UUID, message string) error
}

// BlobStore fetches raw document bytes.
type BlobStore interface {
	Get(ctx context.Context, locator string) ([]byte, error)
}

// ChunkWriter persists embedded chunks.
type ChunkWriter interface {
	Replace(ctx context.Context, docID uuid.UUID, chunks []vectorstore.Chunk) error
}

// Embedder produces one vector per text, in input order.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Config assembles a Pipeline.
type Config struct {
	Documents DocumentStore
	Blobs     BlobStore
	Chunks    ChunkWriter
	Embedder  Embedder
	Splitter  *chunker.Splitter
	Logger    log.Logger

	// StaleAfter overrides DefaultStaleAfter when positive.
	StaleAfter time.Duration

	// BatchSize overrides the embedding batch size when positive.
	BatchSize int
}

// Pipeline processes documents. Safe for concurrent use; concurrent
// attempts on the same document are serialized by the durable claim.
type Pipeline struct {
	docs       DocumentStore
	blobs      BlobStore
	chunks     ChunkWriter
	embedder   Embedder
	splitter   *chunker.Splitter
	staleAfter time.Duration
	batchSize  int
	logger     log.Logger
}

// New creates a Pipeline.
func New(cfg Config) (*Pipeline, error) {
	switch {
	case cfg.Documents == nil:
		return nil, errors.New("document store is required")
	case cfg.Blobs == nil:
		return nil, errors.New("blob store is required")
	case cfg.Chunks == nil:
		return nil, errors.New("chunk writer is required")
	case cfg.Embedder == nil:
		return nil, errors.New("embedder is required")
	}
	if cfg.Splitter == nil {
		cfg.Splitter = chunker.New()
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = DefaultStaleAfter
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.Logger == nil {
		cfg.Logger = log.NewNop()
	}
	return &Pipeline{
		docs:       cfg.Documents,
		blobs:      cfg.Blobs,
		chunks:     cfg.Chunks,
		embedder:   cfg.Embedder,
		splitter:   cfg.Splitter,
		staleAfter: cfg.StaleAfter,
		batchSize:  cfg.BatchSize,
		logger:     cfg.Logger,
	}, nil
}

// Process runs one processing attempt for a document.
//
// When another attempt holds the claim, or the document is already
// ready or was deleted, Process returns nil without doing work: the
// trigger was redundant, not wrong. A processing failure marks the
// document failed and returns the cause. Cancellation releases the
// claim and leaves the document in processing so a later attempt can
// pick it up.
func (p *Pipeline) Process(ctx context.Context, docID uuid.UUID) error {
	logger := p.logger.With("document_id", docID)

	claimed, err := p.docs.TryClaim(ctx, docID, p.staleAfter)
	if errors.Is(err, document.ErrNotFound) {
		logger.Info("document deleted before processing")
		return nil
	}
	if err != nil {
		return fmt.Errorf("claiming document: %w", err)
	}
	if !claimed {
		logger.Debug("claim unavailable, dropping trigger")
		return nil
	}

	chunks, err := p.build(ctx, docID, logger)
	if err != nil {
		return p.settle(ctx, docID, logger, err)
	}

	if err := p.docs.MarkReady(ctx, docID, len(chunks)); err != nil {
		return p.settle(ctx, docID, logger, fmt.Errorf("marking ready: %w", err))
	}
	logger.Info("document processed", "chunks", len(chunks))
	return nil
}

// build runs the fallible middle of the pipeline: fetch, extract,
// chunk, embed, persist.
func (p *Pipeline) build(ctx context.Context, docID uuid.UUID, logger log.Logger) ([]vectorstore.Chunk, error) {
	doc, err := p.docs.Get(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("fetching document record: %w", err)
	}

	data, err := p.blobs.Get(ctx, doc.Locator)
	if err != nil {
		return nil, fmt.Errorf("fetching document content: %w", err)
	}

	sections, err := extract.Extract(data, doc.Type)
	if err != nil {
		return nil, err
	}

	var chunks []vectorstore.Chunk
	for _, section := range sections {
		for seg := range p.splitter.Split(section.Text, section.Meta) {
			chunks = append(chunks, vectorstore.Chunk{
				DocumentID: docID,
				Index:      len(chunks),
				Content:    seg.Text,
				Meta:       seg.Meta,
			})
		}
	}
	if len(chunks) == 0 {
		return nil, errors.New("no extractable content")
	}

	if err := p.embedChunks(ctx, chunks); err != nil {
		return nil, err
	}

	if err := p.chunks.Replace(ctx, docID, chunks); err != nil {
		return nil, fmt.Errorf("persisting chunks: %w", err)
	}
	logger.Debug("chunks persisted", "count", len(chunks))
	return chunks, nil
}

// embedChunks fills in embeddings batch by batch.
func (p *Pipeline) embedChunks(ctx context.Context, chunks []vectorstore.Chunk) error {
	for start := 0; start < len(chunks); start += p.batchSize {
		end := min(start+p.batchSize, len(chunks))

		texts := make([]string, 0, end-start)
		for _, c := range chunks[start:end] {
			texts = append(texts, c.Content)
		}
		vecs, err := p.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("embedding chunks %d-%d: %w", start, end-1, err)
		}
		if len(vecs) != len(texts) {
			return fmt.Errorf("embedder returned %d vectors for %d texts", len(vecs), len(texts))
		}
		for i, vec := range vecs {
			chunks[start+i].Embedding = vec
		}
	}
	return nil
}

// settle records the outcome of a failed or cancelled attempt. The
// writes use a context detached from the (possibly cancelled) request
// context so the outcome always lands.
func (p *Pipeline) settle(ctx context.Context, docID uuid.UUID, logger log.Logger, cause error) error {
	cleanupCtx := context.WithoutCancel(ctx)

	if ctx.Err() != nil || errors.Is(cause, context.Canceled) || errors.Is(cause, context.DeadlineExceeded) {
		if err := p.docs.ReleaseClaim(cleanupCtx, docID); err != nil {
			logger.Error("failed to release claim after cancellation", "error", err)
		}
		logger.Info("attempt cancelled, claim released")
		return cause
	}

	if err := p.docs.MarkFailed(cleanupCtx, docID, cause.Error()); err != nil {
		logger.Error("failed to record processing failure", "error", err)
	}
	logger.Warn("document processing failed", "error", cause)
	return cause
}
