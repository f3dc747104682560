package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/invoice-insight/internal/core/domain"
)

func seedDocument(repo *docRepoFake, store *artifactStoreFake, id, body string) *domain.Document {
	locator, _ := store.Put(context.Background(), id+"_invoice.pdf", strings.NewReader(body))
	doc := &domain.Document{
		ID:         id,
		Filename:   "invoice.pdf",
		MimeType:   "application/pdf",
		ByteSize:   int64(len(body)),
		Locator:    locator,
		Status:     domain.StatusUploaded,
		UploadedAt: time.Now().UTC(),
	}
	repo.Create(context.Background(), doc)
	return doc
}

func TestExtractRunPersistsClassifiedFields(t *testing.T) {
	repo := newDocRepoFake()
	fields := newFieldRepoFake()
	store := newArtifactStoreFake()
	gate := &gateFake{}
	extractor := &extractorFake{candidates: []domain.Candidate{
		{Field: domain.FieldVendor, Value: "Acme Corp", Score: 0.92, Extractor: "llm"},
		{Field: domain.FieldInvoiceNumber, Value: "INV-42", Score: 0.75, Extractor: "pattern"},
		{Field: domain.FieldTotal, Value: "10.00", Score: 0.31, Extractor: "pattern"},
	}}
	uc := NewExtractInvoiceUseCase(repo, fields, &loaderFake{pages: []string{"page"}}, extractor, gate)
	doc := seedDocument(repo, store, "doc-1", "raw bytes")

	got, err := uc.Run(context.Background(), doc, []byte("raw bytes"))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	want := []struct {
		tier     domain.ConfidenceTier
		selected bool
	}{
		{domain.TierHigh, true},
		{domain.TierMedium, true},
		{domain.TierLow, false},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d fields, got %d", len(want), len(got))
	}
	for i, w := range want {
		if got[i].Tier != w.tier || got[i].Selected != w.selected {
			t.Fatalf("field %d: expected tier=%s selected=%v, got %+v", i, w.tier, w.selected, got[i])
		}
	}
	if repo.statusLog[0] != domain.StatusExtracting || repo.statusLog[len(repo.statusLog)-1] != domain.StatusExtracted {
		t.Fatalf("unexpected status transitions %v", repo.statusLog)
	}
	if doc.ProcessedAt == nil {
		t.Fatalf("expected processed timestamp")
	}
	if persisted, _ := fields.ListByDocument(context.Background(), doc.ID); len(persisted) != 3 {
		t.Fatalf("expected 3 persisted fields, got %d", len(persisted))
	}
	if gate.acquired != 1 || gate.released != 1 {
		t.Fatalf("expected gate acquired and released once, got %d/%d", gate.acquired, gate.released)
	}
}

func TestExtractRunLoaderFailureMarksFailed(t *testing.T) {
	repo := newDocRepoFake()
	store := newArtifactStoreFake()
	loader := &loaderFake{err: domain.WrapError(domain.ErrCorruptDocument, "parse pdf", errors.New("bad xref"))}
	uc := NewExtractInvoiceUseCase(repo, newFieldRepoFake(), loader, &extractorFake{}, &gateFake{})
	doc := seedDocument(repo, store, "doc-1", "raw")

	_, err := uc.Run(context.Background(), doc, []byte("raw"))
	if !domain.IsKind(err, domain.ErrCorruptDocument) {
		t.Fatalf("expected corrupt document error, got %v", err)
	}
	if repo.statusOf(doc.ID) != domain.StatusFailed {
		t.Fatalf("expected status failed, got %s", repo.statusOf(doc.ID))
	}
	fresh, _ := repo.GetByID(context.Background(), doc.ID)
	if fresh.Error == "" {
		t.Fatalf("expected failure message recorded")
	}
}

func TestExtractRunExtractorFailureReleasesGate(t *testing.T) {
	repo := newDocRepoFake()
	store := newArtifactStoreFake()
	gate := &gateFake{}
	extractor := &extractorFake{err: domain.WrapError(domain.ErrExtractionFailed, "extract", errors.New("all sources failed"))}
	uc := NewExtractInvoiceUseCase(repo, newFieldRepoFake(), &loaderFake{pages: []string{"page"}}, extractor, gate)
	doc := seedDocument(repo, store, "doc-1", "raw")

	_, err := uc.Run(context.Background(), doc, []byte("raw"))
	if !domain.IsKind(err, domain.ErrExtractionFailed) {
		t.Fatalf("expected extraction failed error, got %v", err)
	}
	if repo.statusOf(doc.ID) != domain.StatusFailed {
		t.Fatalf("expected status failed, got %s", repo.statusOf(doc.ID))
	}
	if gate.released != gate.acquired {
		t.Fatalf("gate leak: acquired %d released %d", gate.acquired, gate.released)
	}
}

func TestExtractRunRejectsOutOfRangeScore(t *testing.T) {
	repo := newDocRepoFake()
	store := newArtifactStoreFake()
	extractor := &extractorFake{candidates: []domain.Candidate{
		{Field: domain.FieldTotal, Value: "10.00", Score: 1.5, Extractor: "llm"},
	}}
	uc := NewExtractInvoiceUseCase(repo, newFieldRepoFake(), &loaderFake{pages: []string{"page"}}, extractor, &gateFake{})
	doc := seedDocument(repo, store, "doc-1", "raw")

	_, err := uc.Run(context.Background(), doc, []byte("raw"))
	if !domain.IsKind(err, domain.ErrInvalidScore) {
		t.Fatalf("expected invalid score error, got %v", err)
	}
	if repo.statusOf(doc.ID) != domain.StatusFailed {
		t.Fatalf("expected status failed, got %s", repo.statusOf(doc.ID))
	}
}

func TestExtractRunPersistFailureMarksFailed(t *testing.T) {
	repo := newDocRepoFake()
	store := newArtifactStoreFake()
	fields := newFieldRepoFake()
	fields.replaceErr = errors.New("db down")
	extractor := &extractorFake{candidates: []domain.Candidate{
		{Field: domain.FieldVendor, Value: "Acme", Score: 0.9, Extractor: "llm"},
	}}
	uc := NewExtractInvoiceUseCase(repo, fields, &loaderFake{pages: []string{"page"}}, extractor, &gateFake{})
	doc := seedDocument(repo, store, "doc-1", "raw")

	_, err := uc.Run(context.Background(), doc, []byte("raw"))
	if err == nil || !strings.Contains(err.Error(), "persist field set") {
		t.Fatalf("expected persist error, got %v", err)
	}
	if repo.statusOf(doc.ID) != domain.StatusFailed {
		t.Fatalf("expected status failed, got %s", repo.statusOf(doc.ID))
	}
}
