package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kirillkom/invoice-insight/internal/core/domain"
)

type ExportRepository struct {
	db *sql.DB
}

func NewExportRepository(db *sql.DB) *ExportRepository {
	return &ExportRepository{db: db}
}

func (r *ExportRepository) Create(ctx context.Context, export *domain.Export) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO exports (id, document_id, format, payload, created_at)
VALUES ($1,$2,$3,$4,$5)
`, export.ID, export.DocumentID, string(export.Format), export.Payload, export.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert export: %w", err)
	}
	return nil
}

func (r *ExportRepository) ListByDocument(ctx context.Context, documentID string) ([]domain.Export, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, document_id, format, payload, created_at
FROM exports
WHERE document_id = $1
ORDER BY created_at DESC
`, documentID)
	if err != nil {
		return nil, fmt.Errorf("list exports: %w", err)
	}
	defer rows.Close()

	var exports []domain.Export
	for rows.Next() {
		var e domain.Export
		var format string
		if err := rows.Scan(&e.ID, &e.DocumentID, &format, &e.Payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan export row: %w", err)
		}
		e.Format = domain.ExportFormat(format)
		exports = append(exports, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate exports: %w", err)
	}
	return exports, nil
}
