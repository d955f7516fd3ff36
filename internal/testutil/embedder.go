package testutil

import (
	"context"
	"hash/fnv"
	"math"
	"sync"
)

// FakeEmbedder is a deterministic in-memory embedder for tests. The
// same text always produces the same unit vector, so similarity
// comparisons behave consistently across runs.
type FakeEmbedder struct {
	// Dim is the vector dimension. Defaults to 8 when zero.
	Dim int

	// Err, when set, is returned by every call.
	Err error

	mu    sync.Mutex
	calls [][]string
}

func (f *FakeEmbedder) dim() int {
	if f.Dim <= 0 {
		return 8
	}
	return f.Dim
}

// Dimension reports the configured dimension.
func (f *FakeEmbedder) Dimension() int { return f.dim() }

// Embed returns a deterministic unit vector derived from text.
func (f *FakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := f.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch embeds each text independently, preserving order.
func (f *FakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	f.calls = append(f.calls, append([]string(nil), texts...))
	f.mu.Unlock()

	if f.Err != nil {
		return nil, f.Err
	}
	vecs := make([][]float32, len(texts))
	for i, text := range texts {
		vecs[i] = f.vector(text)
	}
	return vecs, nil
}

// Calls returns a copy of every batch passed to EmbedBatch.
func (f *FakeEmbedder) Calls() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]string, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *FakeEmbedder) vector(text string) []float32 {
	dim := f.dim()
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	seed := h.Sum64()

	vec := make([]float32, dim)
	var norm float64
	for i := range vec {
		seed = seed*6364136223846793005 + 1442695040888963407
		v := float64(int64(seed>>16)%1000) / 1000
		vec[i] = float32(v)
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		vec[0] = 1
		return vec
	}
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}
