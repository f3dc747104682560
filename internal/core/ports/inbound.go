package ports

import (
	"context"
	"io"

	"github.com/kirillkom/invoice-insight/internal/core/domain"
)

// InvoiceIngestor is the inbound contract for the upload boundary: persist
// the bytes, run the extraction pipeline, return the scored field set.
type InvoiceIngestor interface {
	Upload(ctx context.Context, filename, mimeType string, body io.Reader) (*domain.Document, []domain.ExtractedField, error)
}

// InvoiceReader is the inbound read model for documents and their fields.
type InvoiceReader interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	List(ctx context.Context, status domain.DocumentStatus, limit, offset int) ([]domain.Document, error)
	Fields(ctx context.Context, id string) ([]domain.ExtractedField, error)
}

// InvoicePurger removes a document, its field set, and its stored artifact.
// Corrections remain: the ledger is a durable audit trail.
type InvoicePurger interface {
	Purge(ctx context.Context, id string) error
}

// CorrectionRecorder is the inbound contract for the correction boundary.
type CorrectionRecorder interface {
	Record(ctx context.Context, documentID string, name domain.FieldName, correctedValue string) (*domain.ExtractedField, error)
	Select(ctx context.Context, documentID string, name domain.FieldName, selected bool) error
	History(ctx context.Context, name domain.FieldName, limit, offset int) ([]domain.Correction, error)
}

// Reextractor re-runs extraction against stored bytes as a new document.
type Reextractor interface {
	Enqueue(ctx context.Context, documentID string) error
	ReextractByID(ctx context.Context, documentID string) (*domain.Document, error)
}

// InvoiceExporter snapshots selected fields of a document.
type InvoiceExporter interface {
	Export(ctx context.Context, documentID string, names []domain.FieldName, format domain.ExportFormat) (*domain.Export, error)
}
