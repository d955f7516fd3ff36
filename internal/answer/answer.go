// Package answer turns retrieved chunks into a response. The primary
// path asks a generative model; when that fails the extractive
// summarizer takes over, so a question never errors out just because
// the model is down.
package answer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/devdocsai/devdocs/internal/log"
	"github.com/devdocsai/devdocs/internal/vectorstore"
)

// InsufficientContext is returned verbatim when retrieval found
// nothing relevant. It is a normal answer, not a degraded one.
const InsufficientContext = "I couldn't find any relevant information in the documentation to answer your question. Please try rephrasing your question or ensure the document contains relevant content."

const promptTemplate = `Based on the following documentation context, please answer the user's question clearly and accurately.

Documentation Context:
%s

User Question: %s

Answer:`

// Completer generates a free-form answer from a prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Answer is the response to one question.
type Answer struct {
	// Text is the answer body.
	Text string

	// Degraded is true when the generative model failed and the
	// extractive summarizer produced Text instead.
	Degraded bool

	// Sources are the chunks the answer was built from, best first.
	Sources []vectorstore.Match
}

// Generator builds answers from retrieved chunks.
//
// A nil Completer is allowed: every answer then comes from the
// summarizer and is marked degraded.
type Generator struct {
	completer  Completer
	summarizer *Summarizer
	logger     log.Logger
}

// NewGenerator creates a Generator.
func NewGenerator(completer Completer, logger log.Logger) *Generator {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Generator{
		completer:  completer,
		summarizer: NewSummarizer(),
		logger:     logger,
	}
}

// Generate answers a question from its retrieved chunks.
//
// Generate never fails on model errors; it degrades to the extractive
// summarizer instead. The only error conditions are invalid input and
// context cancellation.
func (g *Generator) Generate(ctx context.Context, question string, matches []vectorstore.Match) (*Answer, error) {
	if strings.TrimSpace(question) == "" {
		return nil, errors.New("question is empty")
	}
	if len(matches) == 0 {
		return &Answer{Text: InsufficientContext}, nil
	}

	contents := make([]string, len(matches))
	for i, m := range matches {
		contents[i] = m.Content
	}
	docContext := strings.Join(contents, "\n\n")

	if g.completer != nil {
		prompt := fmt.Sprintf(promptTemplate, docContext, question)
		text, err := g.completer.Complete(ctx, prompt)
		if err == nil && strings.TrimSpace(text) != "" {
			return &Answer{Text: text, Sources: matches}, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		g.logger.Warn("generation failed, falling back to summarizer", "error", err)
	}

	text := g.summarizer.Summarize(docContext, question, matches)
	return &Answer{Text: text, Degraded: true, Sources: matches}, nil
}
