package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/devdocsai/devdocs/internal/log"
	"github.com/devdocsai/devdocs/internal/testutil"
	"github.com/devdocsai/devdocs/internal/vectorstore"
)

type fakeSearcher struct {
	matches []vectorstore.Match
	err     error

	gotThreshold float64
	gotLimit     int
	gotOpts      vectorstore.SearchOpts
}

func (f *fakeSearcher) Search(_ context.Context, _ []float32, threshold float64, limit int, opts vectorstore.SearchOpts) ([]vectorstore.Match, error) {
	f.gotThreshold = threshold
	f.gotLimit = limit
	f.gotOpts = opts
	return f.matches, f.err
}

func TestRetrieveDefaults(t *testing.T) {
	searcher := &fakeSearcher{matches: []vectorstore.Match{
		{Chunk: vectorstore.Chunk{Content: "bearer tokens"}, Score: 0.91},
	}}
	engine, err := New(&testutil.FakeEmbedder{}, searcher, log.NewNop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	matches, err := engine.Retrieve(context.Background(), "how do I authenticate?", Options{})
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("got %d matches, want 1", len(matches))
	}
	if searcher.gotLimit != DefaultTopK {
		t.Errorf("limit = %d, want %d", searcher.gotLimit, DefaultTopK)
	}
	if searcher.gotThreshold != DefaultThreshold {
		t.Errorf("threshold = %f, want %f", searcher.gotThreshold, DefaultThreshold)
	}
}

func TestRetrieveOverrides(t *testing.T) {
	searcher := &fakeSearcher{}
	engine, err := New(&testutil.FakeEmbedder{}, searcher, log.NewNop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	docID := uuid.New()
	_, err = engine.Retrieve(context.Background(), "what are the rate limits?", Options{
		DocumentID: docID,
		OwnerID:    "owner-1",
		TopK:       3,
		Threshold:  0.5,
	})
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if searcher.gotLimit != 3 {
		t.Errorf("limit = %d, want 3", searcher.gotLimit)
	}
	if searcher.gotThreshold != 0.5 {
		t.Errorf("threshold = %f, want 0.5", searcher.gotThreshold)
	}
	if searcher.gotOpts.DocumentID != docID || searcher.gotOpts.OwnerID != "owner-1" {
		t.Errorf("search opts = %+v", searcher.gotOpts)
	}
}

func TestRetrieveEmptyResultIsNotError(t *testing.T) {
	engine, err := New(&testutil.FakeEmbedder{}, &fakeSearcher{}, log.NewNop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	matches, err := engine.Retrieve(context.Background(), "completely unrelated question", Options{})
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(matches) != 0 {
		t.Fatalf("got %d matches, want 0", len(matches))
	}
}

func TestRetrieveEmptyQuestion(t *testing.T) {
	engine, err := New(&testutil.FakeEmbedder{}, &fakeSearcher{}, log.NewNop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := engine.Retrieve(context.Background(), "   ", Options{}); err == nil {
		t.Fatal("expected error for empty question")
	}
}

func TestRetrieveEmbedderFailure(t *testing.T) {
	embedder := &testutil.FakeEmbedder{Err: errors.New("quota exhausted")}
	engine, err := New(embedder, &fakeSearcher{}, log.NewNop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := engine.Retrieve(context.Background(), "anything", Options{}); err == nil {
		t.Fatal("expected error when embedding fails")
	}
}

func TestRetrieveSearcherFailure(t *testing.T) {
	searcher := &fakeSearcher{err: errors.New("connection lost")}
	engine, err := New(&testutil.FakeEmbedder{}, searcher, log.NewNop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := engine.Retrieve(context.Background(), "anything", Options{}); err == nil {
		t.Fatal("expected error when search fails")
	}
}
