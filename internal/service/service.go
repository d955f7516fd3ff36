// Package service is the application facade: it ties storage, the
// ingestion pipeline, the queue and the answer engine into the
// operations an outer transport (HTTP, CLI) would call.
package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/devdocsai/devdocs/internal/answer"
	"github.com/devdocsai/devdocs/internal/document"
	"github.com/devdocsai/devdocs/internal/log"
	"github.com/devdocsai/devdocs/internal/queue"
	"github.com/devdocsai/devdocs/internal/retrieval"
	"github.com/devdocsai/devdocs/internal/vectorstore"
)

// DocumentStore is the slice of the document store the service needs.
type DocumentStore interface {
	Create(ctx context.Context, doc *document.Document) error
	Get(ctx context.Context, id uuid.UUID) (*document.Document, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*document.Document, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// BlobStore persists raw document bytes.
type BlobStore interface {
	Put(ctx context.Context, locator string, data []byte) error
	Delete(ctx context.Context, locator string) error
}

// Processor runs one synchronous processing attempt.
type Processor interface {
	Process(ctx context.Context, docID uuid.UUID) error
}

// Publisher enqueues asynchronous processing events.
type Publisher interface {
	Publish(ctx context.Context, event queue.Event) error
}

// Retriever finds the chunks relevant to a question.
type Retriever interface {
	Retrieve(ctx context.Context, question string, opts retrieval.Options) ([]vectorstore.Match, error)
}

// Answerer builds an answer from retrieved chunks.
type Answerer interface {
	Generate(ctx context.Context, question string, matches []vectorstore.Match) (*answer.Answer, error)
}

// Config assembles a Service.
type Config struct {
	Documents DocumentStore
	Blobs     BlobStore
	Processor Processor
	Publisher Publisher
	Retriever Retriever
	Answerer  Answerer
	Logger    log.Logger

	// BlobBaseURL prefixes every stored document locator,
	// e.g. "file:///var/lib/devdocs/blobs" or "mem://localhost/devdocs".
	BlobBaseURL string

	// TopK and Threshold tune retrieval. Zero values fall back to the
	// retrieval package defaults.
	TopK      int
	Threshold float64
}

// Service exposes the core operations.
type Service struct {
	docs      DocumentStore
	blobs     BlobStore
	processor Processor
	publisher Publisher
	retriever Retriever
	answerer  Answerer
	baseURL   string
	topK      int
	threshold float64
	logger    log.Logger
}

// New creates a Service.
func New(cfg Config) (*Service, error) {
	switch {
	case cfg.Documents == nil:
		return nil, errors.New("document store is required")
	case cfg.Blobs == nil:
		return nil, errors.New("blob store is required")
	case cfg.Processor == nil:
		return nil, errors.New("processor is required")
	case cfg.Publisher == nil:
		return nil, errors.New("publisher is required")
	case cfg.Retriever == nil:
		return nil, errors.New("retriever is required")
	case cfg.Answerer == nil:
		return nil, errors.New("answerer is required")
	case cfg.BlobBaseURL == "":
		return nil, errors.New("blob base URL is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = log.NewNop()
	}
	return &Service{
		docs:      cfg.Documents,
		blobs:     cfg.Blobs,
		processor: cfg.Processor,
		publisher: cfg.Publisher,
		retriever: cfg.Retriever,
		answerer:  cfg.Answerer,
		baseURL:   strings.TrimRight(cfg.BlobBaseURL, "/"),
		topK:      cfg.TopK,
		threshold: cfg.Threshold,
		logger:    cfg.Logger,
	}, nil
}

// UploadRequest describes a document to ingest.
type UploadRequest struct {
	Name    string
	Version string
	OwnerID string
	Data    []byte
}

// Upload stores the document bytes, registers the document and
// enqueues asynchronous processing. The document type is inferred
// from the filename extension.
//
// A queue failure does not fail the upload: the document stays in
// uploaded and can still be processed through IngestSync.
func (s *Service) Upload(ctx context.Context, req UploadRequest) (*document.Document, error) {
	typ, err := document.TypeForFilename(req.Name)
	if err != nil {
		return nil, err
	}
	if len(req.Data) == 0 {
		return nil, errors.New("document is empty")
	}

	id := uuid.New()
	doc := &document.Document{
		ID:      id,
		Name:    req.Name,
		Version: req.Version,
		Type:    typ,
		Locator: fmt.Sprintf("%s/%s/%s_%s", s.baseURL, req.OwnerID, id, path.Base(req.Name)),
		OwnerID: req.OwnerID,
	}

	if err := s.blobs.Put(ctx, doc.Locator, req.Data); err != nil {
		return nil, fmt.Errorf("storing document content: %w", err)
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		// The blob is orphaned; remove it best-effort.
		if delErr := s.blobs.Delete(ctx, doc.Locator); delErr != nil {
			s.logger.Warn("failed to remove orphaned blob", "locator", doc.Locator, "error", delErr)
		}
		return nil, err
	}

	event := queue.Event{DocumentID: doc.ID, Locator: doc.Locator, Type: doc.Type}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to enqueue processing, document stays uploaded",
			"document_id", doc.ID, "error", err)
	}

	s.logger.Info("document uploaded", "document_id", doc.ID, "type", doc.Type, "owner_id", req.OwnerID)
	return doc, nil
}

// IngestSync processes a document in the calling goroutine. Safe to
// call concurrently with the queue worker: the durable claim makes
// one of them a no-op.
func (s *Service) IngestSync(ctx context.Context, docID uuid.UUID) error {
	return s.processor.Process(ctx, docID)
}

// Status reports the effective processing state of a document.
type Status struct {
	Status     document.Status
	ChunkCount int
	Error      string
}

// Status resolves a document's effective status.
func (s *Service) Status(ctx context.Context, docID uuid.UUID) (*Status, error) {
	doc, err := s.docs.Get(ctx, docID)
	if err != nil {
		return nil, err
	}
	return &Status{
		Status:     doc.EffectiveStatus(),
		ChunkCount: doc.ChunkCount,
		Error:      doc.Error,
	}, nil
}

// List returns an owner's documents, newest first.
func (s *Service) List(ctx context.Context, ownerID string) ([]*document.Document, error) {
	return s.docs.ListByOwner(ctx, ownerID)
}

// Delete removes a document, its chunks and its stored bytes.
func (s *Service) Delete(ctx context.Context, docID uuid.UUID) error {
	doc, err := s.docs.Get(ctx, docID)
	if err != nil {
		return err
	}
	if err := s.docs.Delete(ctx, docID); err != nil {
		return err
	}
	if err := s.blobs.Delete(ctx, doc.Locator); err != nil {
		s.logger.Warn("failed to remove blob for deleted document",
			"document_id", docID, "locator", doc.Locator, "error", err)
	}
	return nil
}

// AskRequest is one question against the indexed documentation.
type AskRequest struct {
	Question string

	// DocumentID narrows the question to one document when set.
	DocumentID uuid.UUID

	// OwnerID narrows the question to one owner's documents when set.
	OwnerID string

	// TopK caps retrieved chunks; zero uses the default.
	TopK int
}

// Ask retrieves relevant chunks and generates an answer.
func (s *Service) Ask(ctx context.Context, req AskRequest) (*answer.Answer, error) {
	topK := req.TopK
	if topK <= 0 {
		topK = s.topK
	}
	matches, err := s.retriever.Retrieve(ctx, req.Question, retrieval.Options{
		DocumentID: req.DocumentID,
		OwnerID:    req.OwnerID,
		TopK:       topK,
		Threshold:  s.threshold,
	})
	if err != nil {
		return nil, fmt.Errorf("retrieving context: %w", err)
	}
	return s.answerer.Generate(ctx, req.Question, matches)
}
