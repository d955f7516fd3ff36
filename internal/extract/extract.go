// Package extract turns raw document bytes into plain text sections
// ready for chunking. Each document type has its own extractor; the
// dispatcher picks one by type.
package extract

import (
	"fmt"

	"github.com/devdocsai/devdocs/internal/document"
)

// Section is a self-contained piece of extracted text. Metadata
// describes where in the source document it came from.
type Section struct {
	Text string
	Meta map[string]string
}

// Error reports a failed extraction with the document type attached.
type Error struct {
	Type document.Type
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Type, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Extract dispatches to the extractor for the given document type.
// An empty result means the document contained no usable text; the
// caller decides how to treat that.
func Extract(data []byte, typ document.Type) ([]Section, error) {
	switch typ {
	case document.TypeOpenAPI:
		return OpenAPI(data)
	case document.TypeMarkdown:
		return Markdown(data)
	case document.TypePDF:
		return PDF(data)
	default:
		return nil, &Error{Type: typ, Err: document.ErrInvalidType}
	}
}
