package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/kirillkom/invoice-insight/internal/core/domain"
)

func newReextractFixture(extractor *extractorFake) (*ReextractInvoiceUseCase, *docRepoFake, *fieldRepoFake, *artifactStoreFake, *queueFake) {
	repo := newDocRepoFake()
	fields := newFieldRepoFake()
	store := newArtifactStoreFake()
	queue := &queueFake{}
	pipeline := NewExtractInvoiceUseCase(repo, fields, &loaderFake{pages: []string{"page"}}, extractor, &gateFake{})
	return NewReextractInvoiceUseCase(repo, store, queue, pipeline), repo, fields, store, queue
}

func TestReextractCreatesFreshDocument(t *testing.T) {
	extractor := &extractorFake{candidates: []domain.Candidate{
		{Field: domain.FieldVendor, Value: "Acme Corp", Score: 0.88, Extractor: "llm"},
	}}
	uc, repo, fields, store, _ := newReextractFixture(extractor)
	src := seedDocument(repo, store, "doc-1", "original bytes")

	fresh, err := uc.ReextractByID(context.Background(), src.ID)
	if err != nil {
		t.Fatalf("ReextractByID() error = %v", err)
	}
	if fresh.ID == src.ID {
		t.Fatalf("re-extraction must mint a new document id")
	}
	if fresh.Status != domain.StatusExtracted {
		t.Fatalf("expected status extracted, got %s", fresh.Status)
	}
	if fresh.Locator.Path == src.Locator.Path {
		t.Fatalf("new document must own its artifact copy, got shared key %s", fresh.Locator.Path)
	}
	if store.count() != 2 {
		t.Fatalf("expected source and copy artifacts, got %d", store.count())
	}
	// Source document and its field set are untouched.
	if repo.statusOf(src.ID) != domain.StatusUploaded {
		t.Fatalf("source status changed to %s", repo.statusOf(src.ID))
	}
	if _, ok := fields.field(fresh.ID, domain.FieldVendor); !ok {
		t.Fatalf("expected vendor field on the new document")
	}
}

func TestReextractExtractionFailureStillReturnsDocument(t *testing.T) {
	extractor := &extractorFake{err: domain.WrapError(domain.ErrExtractionFailed, "extract", errors.New("model down"))}
	uc, repo, _, store, _ := newReextractFixture(extractor)
	src := seedDocument(repo, store, "doc-1", "original bytes")

	fresh, err := uc.ReextractByID(context.Background(), src.ID)
	if !domain.IsKind(err, domain.ErrExtractionFailed) {
		t.Fatalf("expected extraction failed error, got %v", err)
	}
	if fresh == nil {
		t.Fatalf("expected failed document handle")
	}
	if repo.statusOf(fresh.ID) != domain.StatusFailed {
		t.Fatalf("expected new document failed, got %s", repo.statusOf(fresh.ID))
	}
}

func TestReextractMissingArtifact(t *testing.T) {
	uc, repo, _, store, _ := newReextractFixture(&extractorFake{})
	src := seedDocument(repo, store, "doc-1", "original bytes")
	store.Delete(context.Background(), src.Locator)

	if _, err := uc.ReextractByID(context.Background(), src.ID); !domain.IsKind(err, domain.ErrArtifactNotFound) {
		t.Fatalf("expected artifact not found error, got %v", err)
	}
}

func TestEnqueueVerifiesDocument(t *testing.T) {
	uc, repo, _, store, queue := newReextractFixture(&extractorFake{})
	src := seedDocument(repo, store, "doc-1", "bytes")

	if err := uc.Enqueue(context.Background(), src.ID); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}
	if len(queue.published) != 1 || queue.published[0] != src.ID {
		t.Fatalf("expected published job for %s, got %v", src.ID, queue.published)
	}
	if err := uc.Enqueue(context.Background(), "missing"); !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected document not found error, got %v", err)
	}
}
