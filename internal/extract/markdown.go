package extract

import (
	"strings"
	"unicode/utf8"

	"github.com/devdocsai/devdocs/internal/document"
)

// Markdown loads a markdown or plain text document as a single
// section. Formatting is left intact so retrieved chunks keep their
// headings and code fences.
func Markdown(data []byte) ([]Section, error) {
	text := string(data)
	if !utf8.ValidString(text) {
		return nil, &Error{Type: document.TypeMarkdown, Err: errInvalidUTF8}
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	meta := map[string]string{"section": "body"}
	if title := markdownTitle(text); title != "" {
		meta["title"] = title
	}
	return []Section{{Text: text, Meta: meta}}, nil
}

// markdownTitle returns the first H1 heading, if any.
func markdownTitle(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if after, ok := strings.CutPrefix(line, "# "); ok {
			return strings.TrimSpace(after)
		}
	}
	return ""
}
