// Package document defines the document model and its PostgreSQL store.
//
// A document's lifecycle is uploaded → processing → ready|failed, driven
// exclusively by the ingestion orchestrator. chunk_count is the authoritative
// readiness signal: a document with indexed chunks is ready no matter what the
// stored status says (the status column is a cached hint that can lag behind).
package document

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Type identifies how a document's raw bytes are turned into text.
type Type string

// Supported document types.
const (
	TypeOpenAPI  Type = "openapi"  // OpenAPI specification, YAML or JSON
	TypeMarkdown Type = "markdown" // Markdown / plain prose
	TypePDF      Type = "pdf"      // portable document format
)

// Valid reports whether t is one of the supported document types.
func (t Type) Valid() bool {
	switch t {
	case TypeOpenAPI, TypeMarkdown, TypePDF:
		return true
	}
	return false
}

// Status is the document lifecycle state.
type Status string

// Lifecycle states.
const (
	StatusUploaded   Status = "uploaded"
	StatusProcessing Status = "processing"
	StatusReady      Status = "ready"
	StatusFailed     Status = "failed"
)

// Sentinel errors for the document store.
var (
	// ErrNotFound indicates the document does not exist (or was deleted
	// while an operation was in flight).
	ErrNotFound = errors.New("document not found")

	// ErrInvalidType indicates an unsupported document type.
	ErrInvalidType = errors.New("invalid document type")
)

// Document is the metadata record for one uploaded document.
type Document struct {
	ID      uuid.UUID
	Name    string
	Version string
	Type    Type
	Locator string // storage locator for the raw bytes
	OwnerID string

	Status      Status
	Error       string // set only when Status == StatusFailed
	ChunkCount  int
	ProcessedAt *time.Time
	ClaimedAt   *time.Time // non-nil while a processing attempt holds the claim
	CreatedAt   time.Time
}

// EffectiveStatus resolves the readiness priority rule: any document with
// indexed chunks reads as ready, even if the stored status field is stale.
func (d *Document) EffectiveStatus() Status {
	if d.ChunkCount > 0 {
		return StatusReady
	}
	if d.Status == StatusReady {
		// Ready with zero chunks is a contradiction; surface the stronger
		// signal and treat the row as failed rather than lying to callers.
		return StatusFailed
	}
	return d.Status
}

// Validate checks the fields required before a document can be persisted.
func (d *Document) Validate() error {
	if d.ID == uuid.Nil {
		return fmt.Errorf("document ID is required")
	}
	if d.Name == "" {
		return fmt.Errorf("document name is required")
	}
	if !d.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, d.Type)
	}
	if d.Locator == "" {
		return fmt.Errorf("storage locator is required")
	}
	return nil
}

// TypeForFilename maps a file extension to a document type, mirroring the
// upload surface's closed set of accepted formats.
func TypeForFilename(name string) (Type, error) {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".yaml", ".yml", ".json":
		return TypeOpenAPI, nil
	case ".md", ".markdown", ".txt":
		return TypeMarkdown, nil
	case ".pdf":
		return TypePDF, nil
	}
	return "", fmt.Errorf("%w: unsupported file extension %q", ErrInvalidType, ext)
}
