package extract

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/devdocsai/devdocs/internal/document"
)

var errInvalidUTF8 = errors.New("content is not valid UTF-8")

// PDF extracts plain text from a PDF document, one section per page.
// Pages without any text are skipped.
func PDF(data []byte) (sections []Section, err error) {
	// ledongthuc/pdf panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			sections = nil
			err = &Error{Type: document.TypePDF, Err: fmt.Errorf("parse pdf: %v", r)}
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &Error{Type: document.TypePDF, Err: err}
	}

	fonts := make(map[string]*pdf.Font)
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(fonts)
		if err != nil {
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		sections = append(sections, Section{
			Text: text,
			Meta: map[string]string{"section": "page", "page": fmt.Sprintf("%d", i)},
		})
	}
	return sections, nil
}
