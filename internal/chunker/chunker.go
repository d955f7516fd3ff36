// Package chunker splits extracted document text into bounded, overlapping
// segments for embedding and retrieval.
//
// Splitting prefers natural boundaries (paragraph breaks first, then line
// breaks, then sentence ends, then whitespace) and only falls back to a hard
// length cut when a window contains none. Consecutive segments share a
// configurable overlap so context spanning a boundary stays retrievable.
package chunker

import (
	"iter"
	"maps"
	"strings"
	"unicode/utf8"
)

// Default splitting parameters.
const (
	DefaultMaxLen  = 800 // maximum characters per segment
	DefaultOverlap = 100 // characters shared between consecutive segments
)

// Segment is one chunk of document text plus inherited metadata.
type Segment struct {
	Text string
	Meta map[string]string
}

// Splitter produces segment sequences. The zero value is not usable; call New.
type Splitter struct {
	maxLen  int
	overlap int
}

// Option configures a Splitter.
type Option func(*Splitter)

// WithMaxLen sets the maximum segment length in bytes.
func WithMaxLen(n int) Option {
	return func(s *Splitter) {
		if n > 0 {
			s.maxLen = n
		}
	}
}

// WithOverlap sets the overlap between consecutive segments.
func WithOverlap(n int) Option {
	return func(s *Splitter) {
		if n >= 0 {
			s.overlap = n
		}
	}
}

// New creates a Splitter. An overlap at or above the segment length is
// clamped to a quarter of it so the walk always advances.
func New(opts ...Option) *Splitter {
	s := &Splitter{maxLen: DefaultMaxLen, overlap: DefaultOverlap}
	for _, opt := range opts {
		opt(s)
	}
	if s.overlap >= s.maxLen {
		s.overlap = s.maxLen / 4
	}
	return s
}

// Split returns a lazy, finite, restartable sequence of segments. Ranging
// over the result twice yields identical segments. Empty or whitespace-only
// input yields an empty sequence; the caller decides whether that is an
// error.
//
// Each segment carries a copy of meta so downstream mutation of one
// segment's metadata cannot leak into another's.
func (s *Splitter) Split(text string, meta map[string]string) iter.Seq[Segment] {
	return func(yield func(Segment) bool) {
		if strings.TrimSpace(text) == "" {
			return
		}

		start := 0
		for start < len(text) {
			end := s.cutPoint(text, start)

			segment := strings.TrimSpace(text[start:end])
			if segment != "" {
				if !yield(Segment{Text: segment, Meta: cloneMeta(meta)}) {
					return
				}
			}

			if end >= len(text) {
				return
			}

			next := end - s.overlap
			if next <= start {
				next = end // overlap would stall the walk; skip it
			}
			for next < len(text) && !utf8.RuneStart(text[next]) {
				next++
			}
			start = next
		}
	}
}

// Collect materializes the sequence. Convenience for callers that need the
// count up front.
func (s *Splitter) Collect(text string, meta map[string]string) []Segment {
	var segments []Segment
	for seg := range s.Split(text, meta) {
		segments = append(segments, seg)
	}
	return segments
}

// cutPoint finds the end of the segment starting at start, preferring natural
// boundaries inside the window. A boundary is only taken from the second half
// of the window so segments don't degenerate into slivers.
func (s *Splitter) cutPoint(text string, start int) int {
	limit := start + s.maxLen
	if limit >= len(text) {
		return len(text)
	}

	window := text[start:limit]
	half := len(window) / 2

	// Paragraph break, then line break, then sentence end, then space.
	if i := strings.LastIndex(window, "\n\n"); i >= half {
		return start + i + 2
	}
	if i := strings.LastIndexByte(window, '\n'); i >= half {
		return start + i + 1
	}
	if i := lastSentenceEnd(window); i >= half {
		return start + i
	}
	if i := strings.LastIndexByte(window, ' '); i >= half {
		return start + i + 1
	}

	// Hard cut: back off to a rune boundary so we never split mid-character.
	cut := limit
	for cut > start && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return cut
}

// lastSentenceEnd returns the index just past the last sentence terminator
// followed by whitespace, or -1.
func lastSentenceEnd(window string) int {
	for i := len(window) - 1; i > 0; i-- {
		if window[i] != ' ' && window[i] != '\n' {
			continue
		}
		switch window[i-1] {
		case '.', '!', '?':
			return i + 1
		}
	}
	return -1
}

func cloneMeta(meta map[string]string) map[string]string {
	if meta == nil {
		return nil
	}
	return maps.Clone(meta)
}
