package embed

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"google.golang.org/genai"

	"github.com/devdocsai/devdocs/internal/log"
)

// fakeEmbedClient scripts one response per call, in order.
type fakeEmbedClient struct {
	responses []embedResult
	calls     int
	models    []string
	dims      []int32
	batches   [][]string
}

type embedResult struct {
	resp *genai.EmbedContentResponse
	err  error
}

func (f *fakeEmbedClient) EmbedContent(_ context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error) {
	f.models = append(f.models, model)
	if config != nil && config.OutputDimensionality != nil {
		f.dims = append(f.dims, *config.OutputDimensionality)
	}
	batch := make([]string, len(contents))
	for i, c := range contents {
		for _, part := range c.Parts {
			batch[i] += part.Text
		}
	}
	f.batches = append(f.batches, batch)

	if f.calls >= len(f.responses) {
		return nil, errors.New("unexpected call")
	}
	r := f.responses[f.calls]
	f.calls++
	return r.resp, r.err
}

func embeddingsOf(vecs ...[]float32) *genai.EmbedContentResponse {
	resp := &genai.EmbedContentResponse{}
	for _, v := range vecs {
		resp.Embeddings = append(resp.Embeddings, &genai.ContentEmbedding{Values: v})
	}
	return resp
}

func TestEmbedBatchPreservesOrder(t *testing.T) {
	client := &fakeEmbedClient{responses: []embedResult{
		{resp: embeddingsOf([]float32{1, 0}, []float32{0, 1})},
	}}
	g := newGemini(client, log.NewNop())

	vecs, err := g.EmbedBatch(context.Background(), []string{"first", "second"})
	if err != nil {
		t.Fatalf("EmbedBatch: %v", err)
	}
	if len(vecs) != 2 {
		t.Fatalf("got %d vectors, want 2", len(vecs))
	}
	if vecs[0][0] != 1 || vecs[1][1] != 1 {
		t.Errorf("vectors out of order: %v", vecs)
	}
	if got := client.batches[0]; got[0] != "first" || got[1] != "second" {
		t.Errorf("batch = %v", got)
	}
}

func TestEmbedBatchEmptyInput(t *testing.T) {
	g := newGemini(&fakeEmbedClient{}, log.NewNop())
	vecs, err := g.EmbedBatch(context.Background(), nil)
	if err != nil {
		t.Fatalf("EmbedBatch: %v", err)
	}
	if vecs != nil {
		t.Errorf("got %v, want nil", vecs)
	}
}

func TestEmbedUsesConfiguredModelAndDimension(t *testing.T) {
	client := &fakeEmbedClient{responses: []embedResult{
		{resp: embeddingsOf([]float32{1})},
	}}
	g := newGemini(client, log.NewNop(), WithModel("custom-model"), WithDimension(256))

	if _, err := g.Embed(context.Background(), "text"); err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if client.models[0] != "custom-model" {
		t.Errorf("model = %q", client.models[0])
	}
	if client.dims[0] != 256 {
		t.Errorf("dimension = %d", client.dims[0])
	}
	if g.Dimension() != 256 {
		t.Errorf("Dimension() = %d", g.Dimension())
	}
}

func TestEmbedBatchRetriesRateLimit(t *testing.T) {
	client := &fakeEmbedClient{responses: []embedResult{
		{err: genai.APIError{Code: 429, Message: "quota exceeded"}},
		{resp: embeddingsOf([]float32{1})},
	}}
	g := newGemini(client, log.NewNop())

	vecs, err := g.EmbedBatch(context.Background(), []string{"text"})
	if err != nil {
		t.Fatalf("EmbedBatch: %v", err)
	}
	if client.calls != 2 {
		t.Errorf("calls = %d, want 2", client.calls)
	}
	if len(vecs) != 1 {
		t.Errorf("got %d vectors, want 1", len(vecs))
	}
}

func TestEmbedBatchRetriesServerError(t *testing.T) {
	client := &fakeEmbedClient{responses: []embedResult{
		{err: genai.APIError{Code: 503, Message: "overloaded"}},
		{err: genai.APIError{Code: 503, Message: "overloaded"}},
		{resp: embeddingsOf([]float32{1})},
	}}
	g := newGemini(client, log.NewNop())

	if _, err := g.EmbedBatch(context.Background(), []string{"text"}); err != nil {
		t.Fatalf("EmbedBatch: %v", err)
	}
	if client.calls != 3 {
		t.Errorf("calls = %d, want 3", client.calls)
	}
}

func TestEmbedBatchGivesUpAfterMaxAttempts(t *testing.T) {
	var responses []embedResult
	for range maxAttempts {
		responses = append(responses, embedResult{err: genai.APIError{Code: 500}})
	}
	client := &fakeEmbedClient{responses: responses}
	g := newGemini(client, log.NewNop())

	_, err := g.EmbedBatch(context.Background(), []string{"text"})
	if err == nil {
		t.Fatal("expected error")
	}
	var embedErr *Error
	if !errors.As(err, &embedErr) || !embedErr.Retryable {
		t.Errorf("error = %v, want retryable *Error", err)
	}
	if client.calls != maxAttempts {
		t.Errorf("calls = %d, want %d", client.calls, maxAttempts)
	}
}

func TestEmbedBatchDoesNotRetryClientError(t *testing.T) {
	client := &fakeEmbedClient{responses: []embedResult{
		{err: genai.APIError{Code: 401, Message: "invalid api key"}},
	}}
	g := newGemini(client, log.NewNop())

	_, err := g.EmbedBatch(context.Background(), []string{"text"})
	var embedErr *Error
	if !errors.As(err, &embedErr) {
		t.Fatalf("error = %v, want *Error", err)
	}
	if embedErr.Retryable {
		t.Error("401 should not be retryable")
	}
	if client.calls != 1 {
		t.Errorf("calls = %d, want 1", client.calls)
	}
}

func TestEmbedBatchCountMismatch(t *testing.T) {
	client := &fakeEmbedClient{responses: []embedResult{
		{resp: embeddingsOf([]float32{1})},
	}}
	g := newGemini(client, log.NewNop())

	if _, err := g.EmbedBatch(context.Background(), []string{"a", "b"}); err == nil {
		t.Fatal("expected error on count mismatch")
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"rate limit", genai.APIError{Code: 429}, true},
		{"server error", genai.APIError{Code: 502}, true},
		{"bad request", genai.APIError{Code: 400}, false},
		{"canceled", context.Canceled, false},
		{"deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), false},
		{"transport", errors.New("connection reset"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classify(tt.err); got.Retryable != tt.retryable {
				t.Errorf("Retryable = %v, want %v", got.Retryable, tt.retryable)
			}
		})
	}
}
