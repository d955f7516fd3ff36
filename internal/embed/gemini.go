package embed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/devdocsai/devdocs/internal/log"
)

const (
	// DefaultModel is the Gemini embedding model.
	DefaultModel = "gemini-embedding-001"

	// DefaultDimension truncates embeddings to 768 via
	// OutputDimensionality (Matryoshka Representation Learning).
	DefaultDimension = 768

	maxAttempts = 3
	baseBackoff = 500 * time.Millisecond
)

// contentEmbedder is the slice of the genai Models API the Gemini
// embedder needs. Tests substitute a fake.
type contentEmbedder interface {
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

// Gemini embeds text through the Gemini API with proactive rate
// limiting and bounded retry on transient failures.
type Gemini struct {
	client  contentEmbedder
	model   string
	dim     int32
	limiter *rate.Limiter
	logger  log.Logger
}

// GeminiOption configures a Gemini embedder.
type GeminiOption func(*Gemini)

// WithModel overrides the embedding model.
func WithModel(model string) GeminiOption {
	return func(g *Gemini) { g.model = model }
}

// WithDimension overrides the output dimension.
func WithDimension(dim int) GeminiOption {
	return func(g *Gemini) { g.dim = int32(dim) }
}

// WithRateLimit overrides the requests-per-second limit.
func WithRateLimit(rps float64, burst int) GeminiOption {
	return func(g *Gemini) { g.limiter = rate.NewLimiter(rate.Limit(rps), burst) }
}

// NewGemini creates a Gemini embedder from an API key.
func NewGemini(ctx context.Context, apiKey string, logger log.Logger, opts ...GeminiOption) (*Gemini, error) {
	if apiKey == "" {
		return nil, errors.New("api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	return newGemini(client.Models, logger, opts...), nil
}

func newGemini(client contentEmbedder, logger log.Logger, opts ...GeminiOption) *Gemini {
	g := &Gemini{
		client:  client,
		model:   DefaultModel,
		dim:     DefaultDimension,
		limiter: rate.NewLimiter(10, 30),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Dimension reports the configured output dimension.
func (g *Gemini) Dimension() int { return int(g.dim) }

// Embed returns the embedding for a single text.
func (g *Gemini) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := g.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch embeds all texts in one API call, preserving input order.
func (g *Gemini) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	var resp *genai.EmbedContentResponse
	for attempt := 1; ; attempt++ {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, &Error{Err: err}
		}

		var err error
		resp, err = g.client.EmbedContent(ctx, g.model, contents, &genai.EmbedContentConfig{
			OutputDimensionality: &g.dim,
		})
		if err == nil {
			break
		}

		embedErr := classify(err)
		if !embedErr.Retryable || attempt >= maxAttempts {
			return nil, embedErr
		}

		backoff := baseBackoff << (attempt - 1)
		g.logger.Warn("embedding request failed, retrying",
			"attempt", attempt, "backoff", backoff, "error", err)
		select {
		case <-ctx.Done():
			return nil, &Error{Err: ctx.Err()}
		case <-time.After(backoff):
		}
	}

	if len(resp.Embeddings) != len(texts) {
		return nil, &Error{Err: fmt.Errorf("got %d embeddings for %d texts", len(resp.Embeddings), len(texts))}
	}
	vecs := make([][]float32, len(resp.Embeddings))
	for i, emb := range resp.Embeddings {
		if emb == nil || len(emb.Values) == 0 {
			return nil, &Error{Err: fmt.Errorf("empty embedding at index %d", i)}
		}
		vecs[i] = emb.Values
	}
	return vecs, nil
}

// classify decides whether an API failure is worth retrying.
func classify(err error) *Error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &Error{Err: err}
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		retryable := apiErr.Code == 429 || apiErr.Code >= 500
		return &Error{Retryable: retryable, Err: err}
	}
	// Transport-level failures have no status code; assume transient.
	return &Error{Retryable: true, Err: err}
}
