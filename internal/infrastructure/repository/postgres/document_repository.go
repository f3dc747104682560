package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kirillkom/invoice-insight/internal/core/domain"
)

type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	if err := doc.Locator.Validate(); err != nil {
		return domain.WrapError(domain.ErrInvalidInput, "insert document", err)
	}

	_, err := r.db.ExecContext(ctx, `
INSERT INTO documents (
	id, filename, mime_type, byte_size, storage_backend, storage_path, storage_bucket, storage_key, status, error_message, uploaded_at, processed_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
`,
		doc.ID, doc.Filename, doc.MimeType, doc.ByteSize,
		string(doc.Locator.Backend), doc.Locator.Path, doc.Locator.Bucket, doc.Locator.Key,
		string(doc.Status), doc.Error, doc.UploadedAt, doc.ProcessedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

const documentColumns = `id, filename, mime_type, byte_size, storage_backend, storage_path, storage_bucket, storage_key, status, error_message, uploaded_at, processed_at`

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+documentColumns+`
FROM documents
WHERE id = $1
`, id)

	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", fmt.Errorf("id %s", id))
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}
	return doc, nil
}

func (r *DocumentRepository) List(ctx context.Context, status domain.DocumentStatus, limit, offset int) ([]domain.Document, error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	query := `
SELECT ` + documentColumns + `
FROM documents
`
	args := []any{}
	if status != "" {
		query += `WHERE status = $1
ORDER BY uploaded_at DESC
LIMIT $2 OFFSET $3`
		args = append(args, string(status), limit, offset)
	} else {
		query += `ORDER BY uploaded_at DESC
LIMIT $1 OFFSET $2`
		args = append(args, limit, offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document row: %w", err)
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

func (r *DocumentRepository) UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error {
	var processedAt any
	if status == domain.StatusExtracted || status == domain.StatusFailed {
		processedAt = time.Now().UTC()
	}

	res, err := r.db.ExecContext(ctx, `
UPDATE documents
SET status = $2, error_message = $3, processed_at = COALESCE($4, processed_at)
WHERE id = $1
`, id, string(status), errMessage, processedAt)
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	return requireRow(res, domain.ErrDocumentNotFound, "update document status", id)
}

func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return requireRow(res, domain.ErrDocumentNotFound, "delete document", id)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*domain.Document, error) {
	var doc domain.Document
	var backend, status string
	var processedAt sql.NullTime

	err := row.Scan(
		&doc.ID, &doc.Filename, &doc.MimeType, &doc.ByteSize,
		&backend, &doc.Locator.Path, &doc.Locator.Bucket, &doc.Locator.Key,
		&status, &doc.Error, &doc.UploadedAt, &processedAt,
	)
	if err != nil {
		return nil, err
	}
	doc.Locator.Backend = domain.StorageBackend(backend)
	doc.Status = domain.DocumentStatus(status)
	if processedAt.Valid {
		t := processedAt.Time
		doc.ProcessedAt = &t
	}
	return &doc, nil
}

func requireRow(res sql.Result, kind error, operation, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", operation, err)
	}
	if affected == 0 {
		return domain.WrapError(kind, operation, fmt.Errorf("id %s", id))
	}
	return nil
}
