package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kirillkom/invoice-insight/internal/core/domain"
)

// CorrectionRepository is the append-only ledger. There is no update and no
// delete on purpose; rows survive even the purge of their document.
type CorrectionRepository struct {
	db *sql.DB
}

func NewCorrectionRepository(db *sql.DB) *CorrectionRepository {
	return &CorrectionRepository{db: db}
}

func (r *CorrectionRepository) Append(ctx context.Context, correction *domain.Correction) error {
	row := r.db.QueryRowContext(ctx, `
INSERT INTO corrections (document_id, field_name, original_value, corrected_value, created_at)
VALUES ($1,$2,$3,$4,$5)
RETURNING id
`, correction.DocumentID, string(correction.Field), correction.OriginalValue, correction.CorrectedValue, correction.CreatedAt)

	if err := row.Scan(&correction.ID); err != nil {
		return fmt.Errorf("append correction: %w", err)
	}
	return nil
}

func (r *CorrectionRepository) HistoryForField(ctx context.Context, name domain.FieldName, limit, offset int) ([]domain.Correction, error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT id, document_id, field_name, original_value, corrected_value, created_at
FROM corrections
WHERE field_name = $1
ORDER BY created_at, id
LIMIT $2 OFFSET $3
`, string(name), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("correction history: %w", err)
	}
	defer rows.Close()

	var history []domain.Correction
	for rows.Next() {
		var c domain.Correction
		var field string
		if err := rows.Scan(&c.ID, &c.DocumentID, &field, &c.OriginalValue, &c.CorrectedValue, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan correction row: %w", err)
		}
		c.Field = domain.FieldName(field)
		history = append(history, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate corrections: %w", err)
	}
	return history, nil
}
