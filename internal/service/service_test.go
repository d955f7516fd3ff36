package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/devdocsai/devdocs/internal/answer"
	"github.com/devdocsai/devdocs/internal/document"
	"github.com/devdocsai/devdocs/internal/log"
	"github.com/devdocsai/devdocs/internal/queue"
	"github.com/devdocsai/devdocs/internal/retrieval"
	"github.com/devdocsai/devdocs/internal/vectorstore"
)

type fakeDocs struct {
	created map[uuid.UUID]*document.Document

	createErr error
}

func newFakeDocs() *fakeDocs {
	return &fakeDocs{created: make(map[uuid.UUID]*document.Document)}
}

func (f *fakeDocs) Create(_ context.Context, doc *document.Document) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created[doc.ID] = doc
	return nil
}

func (f *fakeDocs) Get(_ context.Context, id uuid.UUID) (*document.Document, error) {
	doc, ok := f.created[id]
	if !ok {
		return nil, document.ErrNotFound
	}
	return doc, nil
}

func (f *fakeDocs) ListByOwner(_ context.Context, ownerID string) ([]*document.Document, error) {
	var docs []*document.Document
	for _, d := range f.created {
		if d.OwnerID == ownerID {
			docs = append(docs, d)
		}
	}
	return docs, nil
}

func (f *fakeDocs) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.created[id]; !ok {
		return document.ErrNotFound
	}
	delete(f.created, id)
	return nil
}

type fakeBlobs struct {
	stored  map[string][]byte
	deleted []string
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{stored: make(map[string][]byte)}
}

func (f *fakeBlobs) Put(_ context.Context, locator string, data []byte) error {
	f.stored[locator] = data
	return nil
}

func (f *fakeBlobs) Delete(_ context.Context, locator string) error {
	f.deleted = append(f.deleted, locator)
	delete(f.stored, locator)
	return nil
}

type fakeProcessor struct {
	processed []uuid.UUID
	err       error
}

func (f *fakeProcessor) Process(_ context.Context, id uuid.UUID) error {
	f.processed = append(f.processed, id)
	return f.err
}

type fakePublisher struct {
	events []queue.Event
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, event queue.Event) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

type fakeRetriever struct {
	matches []vectorstore.Match
	err     error
	gotOpts retrieval.Options
}

func (f *fakeRetriever) Retrieve(_ context.Context, _ string, opts retrieval.Options) ([]vectorstore.Match, error) {
	f.gotOpts = opts
	return f.matches, f.err
}

type fakeAnswerer struct {
	answer *answer.Answer
	err    error
}

func (f *fakeAnswerer) Generate(_ context.Context, _ string, matches []vectorstore.Match) (*answer.Answer, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.answer != nil {
		return f.answer, nil
	}
	if len(matches) == 0 {
		return &answer.Answer{Text: answer.InsufficientContext}, nil
	}
	return &answer.Answer{Text: "generated", Sources: matches}, nil
}

type fixture struct {
	svc       *Service
	docs      *fakeDocs
	blobs     *fakeBlobs
	processor *fakeProcessor
	publisher *fakePublisher
	retriever *fakeRetriever
	answerer  *fakeAnswerer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		docs:      newFakeDocs(),
		blobs:     newFakeBlobs(),
		processor: &fakeProcessor{},
		publisher: &fakePublisher{},
		retriever: &fakeRetriever{},
		answerer:  &fakeAnswerer{},
	}
	svc, err := New(Config{
		Documents:   f.docs,
		Blobs:       f.blobs,
		Processor:   f.processor,
		Publisher:   f.publisher,
		Retriever:   f.retriever,
		Answerer:    f.answerer,
		Logger:      log.NewNop(),
		BlobBaseURL: "mem://localhost/devdocs",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	f.svc = svc
	return f
}

func TestUpload(t *testing.T) {
	f := newFixture(t)

	doc, err := f.svc.Upload(context.Background(), UploadRequest{
		Name:    "petstore.yaml",
		Version: "1.2",
		OwnerID: "owner-1",
		Data:    []byte("openapi: 3.0.0"),
	})
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	if doc.Type != document.TypeOpenAPI {
		t.Errorf("inferred type = %s, want openapi", doc.Type)
	}
	if _, ok := f.blobs.stored[doc.Locator]; !ok {
		t.Error("blob not stored under the document locator")
	}
	if _, ok := f.docs.created[doc.ID]; !ok {
		t.Error("document row not created")
	}

	if len(f.publisher.events) != 1 {
		t.Fatalf("published %d events, want 1", len(f.publisher.events))
	}
	event := f.publisher.events[0]
	if event.DocumentID != doc.ID || event.Locator != doc.Locator || event.Type != doc.Type {
		t.Errorf("event = %+v, does not match document %+v", event, doc)
	}
}

func TestUploadUnsupportedExtension(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Upload(context.Background(), UploadRequest{
		Name:    "slides.pptx",
		OwnerID: "owner-1",
		Data:    []byte("x"),
	})
	if !errors.Is(err, document.ErrInvalidType) {
		t.Fatalf("Upload() error = %v, want ErrInvalidType", err)
	}
	if len(f.blobs.stored) != 0 {
		t.Error("blob stored for rejected upload")
	}
}

func TestUploadEmptyData(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Upload(context.Background(), UploadRequest{
		Name:    "guide.md",
		OwnerID: "owner-1",
	})
	if err == nil {
		t.Fatal("expected error for empty upload")
	}
}

func TestUploadSurvivesQueueFailure(t *testing.T) {
	f := newFixture(t)
	f.publisher.err = errors.New("redis down")

	doc, err := f.svc.Upload(context.Background(), UploadRequest{
		Name:    "guide.md",
		OwnerID: "owner-1",
		Data:    []byte("# Guide"),
	})
	if err != nil {
		t.Fatalf("Upload() with queue failure error = %v, want nil", err)
	}
	if _, ok := f.docs.created[doc.ID]; !ok {
		t.Error("document lost on queue failure")
	}
}

func TestUploadCleansUpBlobOnCreateFailure(t *testing.T) {
	f := newFixture(t)
	f.docs.createErr = errors.New("unique violation")

	_, err := f.svc.Upload(context.Background(), UploadRequest{
		Name:    "guide.md",
		OwnerID: "owner-1",
		Data:    []byte("# Guide"),
	})
	if err == nil {
		t.Fatal("expected error when create fails")
	}
	if len(f.blobs.stored) != 0 {
		t.Error("orphaned blob left behind")
	}
}

func TestIngestSync(t *testing.T) {
	f := newFixture(t)
	id := uuid.New()

	if err := f.svc.IngestSync(context.Background(), id); err != nil {
		t.Fatalf("IngestSync() error = %v", err)
	}
	if len(f.processor.processed) != 1 || f.processor.processed[0] != id {
		t.Errorf("processed = %v, want [%s]", f.processor.processed, id)
	}
}

func TestStatusUsesEffectiveStatus(t *testing.T) {
	f := newFixture(t)
	doc := &document.Document{
		ID:      uuid.New(),
		Name:    "guide.md",
		Type:    document.TypeMarkdown,
		Locator: "mem://localhost/devdocs/guide.md",
		OwnerID: "owner-1",
		// Stale status with chunks present: chunk count wins.
		Status:     document.StatusProcessing,
		ChunkCount: 12,
	}
	f.docs.created[doc.ID] = doc

	status, err := f.svc.Status(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if status.Status != document.StatusReady {
		t.Errorf("Status = %s, want ready (chunks exist)", status.Status)
	}
	if status.ChunkCount != 12 {
		t.Errorf("ChunkCount = %d, want 12", status.ChunkCount)
	}
}

func TestStatusMissingDocument(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.Status(context.Background(), uuid.New()); !errors.Is(err, document.ErrNotFound) {
		t.Fatalf("Status() error = %v, want ErrNotFound", err)
	}
}

func TestDeleteRemovesBlob(t *testing.T) {
	f := newFixture(t)

	doc, err := f.svc.Upload(context.Background(), UploadRequest{
		Name:    "guide.md",
		OwnerID: "owner-1",
		Data:    []byte("# Guide"),
	})
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	if err := f.svc.Delete(context.Background(), doc.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, ok := f.docs.created[doc.ID]; ok {
		t.Error("document row survived delete")
	}
	if len(f.blobs.stored) != 0 {
		t.Error("blob survived delete")
	}
}

func TestAsk(t *testing.T) {
	f := newFixture(t)
	f.retriever.matches = []vectorstore.Match{
		{Chunk: vectorstore.Chunk{Content: "tokens expire hourly"}, Score: 0.9},
	}

	docID := uuid.New()
	ans, err := f.svc.Ask(context.Background(), AskRequest{
		Question:   "when do tokens expire?",
		DocumentID: docID,
		OwnerID:    "owner-1",
		TopK:       3,
	})
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if ans.Text != "generated" {
		t.Errorf("Text = %q", ans.Text)
	}
	if f.retriever.gotOpts.DocumentID != docID || f.retriever.gotOpts.TopK != 3 || f.retriever.gotOpts.OwnerID != "owner-1" {
		t.Errorf("retrieval options = %+v", f.retriever.gotOpts)
	}
}

func TestAskNoContext(t *testing.T) {
	f := newFixture(t)

	ans, err := f.svc.Ask(context.Background(), AskRequest{Question: "anything?"})
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if ans.Text != answer.InsufficientContext {
		t.Errorf("Text = %q, want insufficient context response", ans.Text)
	}
	if ans.Degraded {
		t.Error("empty retrieval must not be degraded")
	}
}

func TestAskRetrievalFailure(t *testing.T) {
	f := newFixture(t)
	f.retriever.err = errors.New("search unavailable")

	if _, err := f.svc.Ask(context.Background(), AskRequest{Question: "anything?"}); err == nil {
		t.Fatal("expected error when retrieval fails")
	}
}
