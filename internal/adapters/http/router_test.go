package httpadapter

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/kirillkom/invoice-insight/internal/config"
	"github.com/kirillkom/invoice-insight/internal/core/domain"
)

func testDocument(id string) *domain.Document {
	return &domain.Document{
		ID:       id,
		Filename: "invoice.pdf",
		MimeType: "application/pdf",
		ByteSize: 512,
		Locator: domain.StorageLocator{
			Backend: domain.BackendLocal,
			Path:    "/data/storage/" + id + "_invoice.pdf",
		},
		Status:     domain.StatusExtracted,
		UploadedAt: time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
	}
}

type ingestFake struct {
	doc    *domain.Document
	fields []domain.ExtractedField
	err    error
}

func (f ingestFake) Upload(_ context.Context, _, _ string, body io.Reader) (*domain.Document, []domain.ExtractedField, error) {
	if _, err := io.Copy(io.Discard, body); err != nil {
		return nil, nil, err
	}
	if f.err != nil {
		return f.doc, nil, f.err
	}
	return f.doc, f.fields, nil
}

type readerFake struct {
	doc    *domain.Document
	fields []domain.ExtractedField
	err    error
}

func (f readerFake) GetByID(context.Context, string) (*domain.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.doc, nil
}

func (f readerFake) List(context.Context, domain.DocumentStatus, int, int) ([]domain.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.doc == nil {
		return nil, nil
	}
	return []domain.Document{*f.doc}, nil
}

func (f readerFake) Fields(context.Context, string) ([]domain.ExtractedField, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.fields, nil
}

type purgerFake struct {
	err error
}

func (f purgerFake) Purge(context.Context, string) error { return f.err }

type correctionsFake struct {
	field   *domain.ExtractedField
	history []domain.Correction
	err     error
}

func (f correctionsFake) Record(context.Context, string, domain.FieldName, string) (*domain.ExtractedField, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.field, nil
}

func (f correctionsFake) Select(context.Context, string, domain.FieldName, bool) error {
	return f.err
}

func (f correctionsFake) History(context.Context, domain.FieldName, int, int) ([]domain.Correction, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.history, nil
}

type reextractFake struct {
	err error
}

func (f reextractFake) Enqueue(context.Context, string) error { return f.err }

func (f reextractFake) ReextractByID(context.Context, string) (*domain.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	return testDocument("doc-2"), nil
}

type exporterFake struct {
	export *domain.Export
	err    error
}

func (f exporterFake) Export(context.Context, string, []domain.FieldName, domain.ExportFormat) (*domain.Export, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.export, nil
}

type extractorStatusFake struct{}

func (extractorStatusFake) ExtractFields(context.Context, []string) ([]domain.Candidate, error) {
	return nil, nil
}

func (extractorStatusFake) Status() domain.ExtractorStatus {
	return domain.ExtractorStatus{
		Extractors: []domain.ExtractorInfo{
			{Name: "llm", Methods: []string{"generate"}, Device: "remote", Loaded: true},
			{Name: "pattern", Methods: []string{"regex"}, Device: "cpu", Loaded: true},
		},
	}
}

type fieldRepoStatsFake struct {
	stats []domain.FieldStats
	err   error
}

func (f fieldRepoStatsFake) ReplaceFields(context.Context, string, []domain.ExtractedField) error {
	return nil
}

func (f fieldRepoStatsFake) ListByDocument(context.Context, string) ([]domain.ExtractedField, error) {
	return nil, nil
}

func (f fieldRepoStatsFake) GetField(context.Context, string, domain.FieldName) (*domain.ExtractedField, error) {
	return nil, nil
}

func (f fieldRepoStatsFake) UpsertField(context.Context, string, domain.ExtractedField) error {
	return nil
}

func (f fieldRepoStatsFake) SetSelected(context.Context, string, domain.FieldName, bool) error {
	return nil
}

func (f fieldRepoStatsFake) DeleteByDocument(context.Context, string) error { return nil }

func (f fieldRepoStatsFake) Stats(context.Context) ([]domain.FieldStats, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.stats, nil
}

type exportRepoFake struct {
	exports []domain.Export
	err     error
}

func (f exportRepoFake) Create(context.Context, *domain.Export) error { return f.err }

func (f exportRepoFake) ListByDocument(context.Context, string) ([]domain.Export, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.exports, nil
}

type routerFakes struct {
	ingest      ingestFake
	reader      readerFake
	purger      purgerFake
	corrections correctionsFake
	reextract   reextractFake
	exporter    exporterFake
	fields      fieldRepoStatsFake
	exports     exportRepoFake
}

func newTestHandler(cfg config.Config, fakes routerFakes) http.Handler {
	if cfg.MaxUploadBytes == 0 {
		cfg.MaxUploadBytes = 1 << 20
	}
	return NewRouter(
		cfg,
		fakes.ingest,
		fakes.reader,
		fakes.purger,
		fakes.corrections,
		fakes.reextract,
		fakes.exporter,
		extractorStatusFake{},
		fakes.fields,
		fakes.exports,
		nil,
	).Handler()
}
