package document

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// documentCols is the standard SELECT column list for scanDocument.
const documentCols = `id, name, version, doc_type, locator, owner_id,
	status, error, chunk_count, processed_at, claimed_at, created_at`

// Store persists documents in PostgreSQL.
//
// Store is safe for concurrent use by multiple goroutines and, because every
// claim operation is a single conditional UPDATE, safe across processes too.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewStore creates a document Store.
func NewStore(pool *pgxpool.Pool, logger *slog.Logger) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, logger: logger}, nil
}

// Create inserts a new document row with status=uploaded.
func (s *Store) Create(ctx context.Context, doc *Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO documents (id, name, version, doc_type, locator, owner_id, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		doc.ID, doc.Name, doc.Version, doc.Type, doc.Locator, doc.OwnerID, StatusUploaded,
	)
	if err != nil {
		return fmt.Errorf("inserting document %s: %w", doc.ID, err)
	}

	s.logger.Debug("document created", "id", doc.ID, "type", doc.Type)
	return nil
}

// Get fetches a document by ID. Returns ErrNotFound when no row exists.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*Document, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+documentCols+` FROM documents WHERE id = $1`, id)

	doc, err := scanDocument(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching document %s: %w", id, err)
	}
	return doc, nil
}

// ListByOwner returns the documents owned by a user, newest first.
func (s *Store) ListByOwner(ctx context.Context, ownerID string) ([]*Document, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+documentCols+` FROM documents
		 WHERE owner_id = $1
		 ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing documents for %q: %w", ownerID, err)
	}
	defer rows.Close()

	var docs []*Document
	for rows.Next() {
		doc, scanErr := scanDocument(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scanning document: %w", scanErr)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return docs, nil
}

// TryClaim attempts to acquire the processing claim for a document.
//
// The claim is a durable compare-and-set on the document row: it succeeds only
// when no other attempt currently holds it (claimed_at IS NULL, or the holder
// is stale, judged abandoned after staleAfter) and the document is not
// already ready. On success the row moves to status=processing with error
// cleared.
//
// Returns (false, nil) when another attempt holds the claim or the document
// is ready; the caller should drop the request, not fail it. Returns
// ErrNotFound when the document was deleted.
func (s *Store) TryClaim(ctx context.Context, id uuid.UUID, staleAfter time.Duration) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE documents
		 SET status = $2, claimed_at = now(), error = NULL
		 WHERE id = $1
		   AND chunk_count = 0
		   AND status <> $3
		   AND (claimed_at IS NULL OR claimed_at < now() - make_interval(secs => $4))`,
		id, StatusProcessing, StatusReady, staleAfter.Seconds(),
	)
	if err != nil {
		return false, fmt.Errorf("claiming document %s: %w", id, err)
	}
	if tag.RowsAffected() > 0 {
		return true, nil
	}

	// Distinguish contention from deletion so the orchestrator can abort
	// cleanly when the document vanished mid-flight.
	var exists bool
	if err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM documents WHERE id = $1)`, id,
	).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking document %s: %w", id, err)
	}
	if !exists {
		return false, ErrNotFound
	}
	return false, nil
}

// ReleaseClaim clears the claim without touching status. Used on cancellation,
// where the document must stay in processing for a later retry.
func (s *Store) ReleaseClaim(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE documents SET claimed_at = NULL WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("releasing claim on %s: %w", id, err)
	}
	return nil
}

// MarkReady records a successful processing attempt and releases the claim.
func (s *Store) MarkReady(ctx context.Context, id uuid.UUID, chunkCount int) error {
	if chunkCount <= 0 {
		return fmt.Errorf("chunk count must be positive, got %d", chunkCount)
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE documents
		 SET status = $2, chunk_count = $3, processed_at = now(),
		     error = NULL, claimed_at = NULL
		 WHERE id = $1`,
		id, StatusReady, chunkCount,
	)
	if err != nil {
		return fmt.Errorf("marking document %s ready: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkFailed records a failed processing attempt and releases the claim.
// The message is what a human retrying the document will read; it must not
// be empty.
func (s *Store) MarkFailed(ctx context.Context, id uuid.UUID, message string) error {
	if message == "" {
		message = "processing failed"
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE documents
		 SET status = $2, error = $3, chunk_count = 0, claimed_at = NULL
		 WHERE id = $1`,
		id, StatusFailed, message,
	)
	if err != nil {
		return fmt.Errorf("marking document %s failed: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a document. Chunks are removed by the ON DELETE CASCADE
// constraint on the chunks table.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting document %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	s.logger.Debug("document deleted", "id", id)
	return nil
}

// scanDocument reads one Document from a pgx row.
func scanDocument(row pgx.Row) (*Document, error) {
	d := &Document{}
	var version, errMsg *string
	if err := row.Scan(
		&d.ID, &d.Name, &version, &d.Type, &d.Locator, &d.OwnerID,
		&d.Status, &errMsg, &d.ChunkCount, &d.ProcessedAt, &d.ClaimedAt, &d.CreatedAt,
	); err != nil {
		return nil, err
	}
	if version != nil {
		d.Version = *version
	}
	if errMsg != nil {
		d.Error = *errMsg
	}
	return d, nil
}
