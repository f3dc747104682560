package ports

import (
	"context"
	"io"
	"time"

	"github.com/kirillkom/invoice-insight/internal/core/domain"
)

// DocumentRepository persists and reads document state.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	List(ctx context.Context, status domain.DocumentStatus, limit, offset int) ([]domain.Document, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
	Delete(ctx context.Context, id string) error
}

// FieldRepository persists a document's resolved field set.
type FieldRepository interface {
	ReplaceFields(ctx context.Context, documentID string, fields []domain.ExtractedField) error
	ListByDocument(ctx context.Context, documentID string) ([]domain.ExtractedField, error)
	GetField(ctx context.Context, documentID string, name domain.FieldName) (*domain.ExtractedField, error)
	UpsertField(ctx context.Context, documentID string, field domain.ExtractedField) error
	SetSelected(ctx context.Context, documentID string, name domain.FieldName, selected bool) error
	DeleteByDocument(ctx context.Context, documentID string) error
	Stats(ctx context.Context) ([]domain.FieldStats, error)
}

// CorrectionLedger is the append-only audit trail of human corrections.
// There is deliberately no delete operation.
type CorrectionLedger interface {
	Append(ctx context.Context, correction *domain.Correction) error
	HistoryForField(ctx context.Context, name domain.FieldName, limit, offset int) ([]domain.Correction, error)
}

// ExportRepository persists export snapshots.
type ExportRepository interface {
	Create(ctx context.Context, export *domain.Export) error
	ListByDocument(ctx context.Context, documentID string) ([]domain.Export, error)
}

// ArtifactStore stores source documents as named blobs. Put is atomic from
// the reader's perspective: a locator resolves to the complete bytes or to
// domain.ErrArtifactNotFound, never partial content.
type ArtifactStore interface {
	Put(ctx context.Context, key string, data io.Reader) (domain.StorageLocator, error)
	Get(ctx context.Context, locator domain.StorageLocator) (io.ReadCloser, error)
	Delete(ctx context.Context, locator domain.StorageLocator) error
}

// DocumentLoader turns uploaded bytes into normalized page text.
type DocumentLoader interface {
	Load(ctx context.Context, data []byte, contentType string) ([]string, error)
}

// FieldExtractor produces the resolved candidate set, at most one candidate
// per field name. A missing field is absent, never a placeholder.
type FieldExtractor interface {
	ExtractFields(ctx context.Context, pages []string) ([]domain.Candidate, error)
	Status() domain.ExtractorStatus
}

// ExtractionGate bounds concurrent model invocations to available capacity.
type ExtractionGate interface {
	Acquire(ctx context.Context) error
	Release()
}

// MessageQueue publishes/consumes re-extraction jobs. The handler receives
// the publish time so consumers can observe queue lag.
type MessageQueue interface {
	PublishReextract(ctx context.Context, documentID string) error
	SubscribeReextract(ctx context.Context, handler func(ctx context.Context, documentID string, publishedAt time.Time) error) error
}
