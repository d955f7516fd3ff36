// Package vectorstore persists document chunks and their embeddings
// in PostgreSQL with pgvector, and serves similarity search over them.
package vectorstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/devdocsai/devdocs/internal/log"
)

// Chunk is one stored piece of a document with its embedding.
type Chunk struct {
	ID         uuid.UUID
	DocumentID uuid.UUID
	Index      int
	Content    string
	Meta       map[string]string
	Embedding  []float32
}

// Match is a chunk returned by similarity search with its score.
// Score is cosine similarity in [-1, 1]; higher is closer.
type Match struct {
	Chunk
	Score float64
}

// Store manages chunk persistence backed by PostgreSQL + pgvector.
//
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	pool   *pgxpool.Pool
	logger log.Logger
}

// NewStore creates a chunk Store.
func NewStore(pool *pgxpool.Pool, logger log.Logger) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &Store{pool: pool, logger: logger}, nil
}

// Replace atomically swaps a document's chunks: any existing rows for
// the document are deleted and the given chunks inserted in one
// transaction. Re-processing a document can therefore never leave a
// mix of old and new chunks behind.
func (s *Store) Replace(ctx context.Context, docID uuid.UUID, chunks []Chunk) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM chunks WHERE document_id = $1`, docID); err != nil {
		return fmt.Errorf("deleting existing chunks: %w", err)
	}
	for _, c := range chunks {
		_, err := tx.Exec(ctx, `INSERT INTO chunks (document_id, chunk_index, content, meta, embedding)
			VALUES ($1, $2, $3, $4, $5)`,
			docID, c.Index, c.Content, c.Meta, pgvector.NewVector(c.Embedding))
		if err != nil {
			return fmt.Errorf("inserting chunk %d: %w", c.Index, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing chunks: %w", err)
	}
	s.logger.Debug("replaced document chunks", "document_id", docID, "count", len(chunks))
	return nil
}

// Delete removes all chunks for a document. Deleting a document with
// no chunks is a no-op.
func (s *Store) Delete(ctx context.Context, docID uuid.UUID) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM chunks WHERE document_id = $1`, docID); err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}
	return nil
}

// Count reports the number of stored chunks for a document.
func (s *Store) Count(ctx context.Context, docID uuid.UUID) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT count(*) FROM chunks WHERE document_id = $1`, docID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return n, nil
}

// SearchOpts narrows a similarity search.
type SearchOpts struct {
	// DocumentID restricts the search to a single document when set.
	DocumentID uuid.UUID

	// OwnerID restricts the search to documents of one owner when set.
	OwnerID string
}

// Search returns up to limit chunks whose cosine similarity to the
// query vector strictly exceeds threshold, ordered by descending
// score. Ties are broken by ascending chunk index so results are
// deterministic.
func (s *Store) Search(ctx context.Context, query []float32, threshold float64, limit int, opts SearchOpts) ([]Match, error) {
	if limit <= 0 {
		return nil, nil
	}

	sql := `SELECT c.id, c.document_id, c.chunk_index, c.content, c.meta,
		1 - (c.embedding <=> $1) AS similarity
		FROM chunks c`
	args := []any{pgvector.NewVector(query)}

	if opts.OwnerID != "" {
		sql += ` JOIN documents d ON d.id = c.document_id`
	}
	sql += ` WHERE 1 - (c.embedding <=> $1) > $2`
	args = append(args, threshold)

	if opts.DocumentID != uuid.Nil {
		args = append(args, opts.DocumentID)
		sql += fmt.Sprintf(` AND c.document_id = $%d`, len(args))
	}
	if opts.OwnerID != "" {
		args = append(args, opts.OwnerID)
		sql += fmt.Sprintf(` AND d.owner_id = $%d`, len(args))
	}

	args = append(args, limit)
	sql += fmt.Sprintf(` ORDER BY similarity DESC, c.chunk_index ASC LIMIT $%d`, len(args))

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("searching chunks: %w", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.ID, &m.DocumentID, &m.Index, &m.Content, &m.Meta, &m.Score); err != nil {
			return nil, fmt.Errorf("scanning match: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading matches: %w", err)
	}
	return matches, nil
}
