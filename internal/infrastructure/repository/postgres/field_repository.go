package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kirillkom/invoice-insight/internal/core/domain"
)

type FieldRepository struct {
	db *sql.DB
}

func NewFieldRepository(db *sql.DB) *FieldRepository {
	return &FieldRepository{db: db}
}

// ReplaceFields swaps a document's field set atomically. Extraction always
// produces the whole set at once, so partial updates never make sense here.
func (r *FieldRepository) ReplaceFields(ctx context.Context, documentID string, fields []domain.ExtractedField) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM extracted_fields WHERE document_id = $1`, documentID); err != nil {
		return fmt.Errorf("clear field set: %w", err)
	}
	for i, f := range fields {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO extracted_fields (document_id, field_name, field_value, confidence_score, confidence_tier, is_selected, user_corrected, position)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`, documentID, string(f.Name), f.Value, f.Score, string(f.Tier), f.Selected, f.UserCorrected, i); err != nil {
			return fmt.Errorf("insert field %s: %w", f.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace tx: %w", err)
	}
	return nil
}

const fieldColumns = `field_name, field_value, confidence_score, confidence_tier, is_selected, user_corrected`

func (r *FieldRepository) ListByDocument(ctx context.Context, documentID string) ([]domain.ExtractedField, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+fieldColumns+`
FROM extracted_fields
WHERE document_id = $1
ORDER BY position, field_name
`, documentID)
	if err != nil {
		return nil, fmt.Errorf("list fields: %w", err)
	}
	defer rows.Close()

	var fields []domain.ExtractedField
	for rows.Next() {
		f, err := scanField(rows)
		if err != nil {
			return nil, fmt.Errorf("scan field row: %w", err)
		}
		fields = append(fields, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fields: %w", err)
	}
	return fields, nil
}

func (r *FieldRepository) GetField(ctx context.Context, documentID string, name domain.FieldName) (*domain.ExtractedField, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+fieldColumns+`
FROM extracted_fields
WHERE document_id = $1 AND field_name = $2
`, documentID, string(name))

	f, err := scanField(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan field: %w", err)
	}
	return &f, nil
}

func (r *FieldRepository) UpsertField(ctx context.Context, documentID string, field domain.ExtractedField) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO extracted_fields (document_id, field_name, field_value, confidence_score, confidence_tier, is_selected, user_corrected, position)
VALUES ($1,$2,$3,$4,$5,$6,$7,
	COALESCE((SELECT MAX(position)+1 FROM extracted_fields WHERE document_id = $1), 0))
ON CONFLICT (document_id, field_name) DO UPDATE
SET field_value = EXCLUDED.field_value,
    confidence_score = EXCLUDED.confidence_score,
    confidence_tier = EXCLUDED.confidence_tier,
    is_selected = EXCLUDED.is_selected,
    user_corrected = EXCLUDED.user_corrected
`, documentID, string(field.Name), field.Value, field.Score, string(field.Tier), field.Selected, field.UserCorrected)
	if err != nil {
		return fmt.Errorf("upsert field: %w", err)
	}
	return nil
}

func (r *FieldRepository) SetSelected(ctx context.Context, documentID string, name domain.FieldName, selected bool) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE extracted_fields
SET is_selected = $3
WHERE document_id = $1 AND field_name = $2
`, documentID, string(name), selected)
	if err != nil {
		return fmt.Errorf("set field selection: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set field selection rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrUnknownField, "set field selection",
			fmt.Errorf("field %s is not present on document %s", name, documentID))
	}
	return nil
}

func (r *FieldRepository) DeleteByDocument(ctx context.Context, documentID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM extracted_fields WHERE document_id = $1`, documentID); err != nil {
		return fmt.Errorf("delete field set: %w", err)
	}
	return nil
}

// Stats aggregates per-field quality across all documents. User-provided
// fields carry no score, so the average skips them.
func (r *FieldRepository) Stats(ctx context.Context) ([]domain.FieldStats, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT field_name,
       COUNT(*) AS extractions,
       COALESCE(AVG(confidence_score) FILTER (WHERE confidence_tier <> 'user-provided'), 0) AS avg_confidence,
       COUNT(*) FILTER (WHERE is_selected) AS selected_count,
       COUNT(*) FILTER (WHERE user_corrected) AS corrected_count
FROM extracted_fields
GROUP BY field_name
ORDER BY field_name
`)
	if err != nil {
		return nil, fmt.Errorf("field stats: %w", err)
	}
	defer rows.Close()

	var stats []domain.FieldStats
	for rows.Next() {
		var s domain.FieldStats
		var name string
		if err := rows.Scan(&name, &s.Extractions, &s.AvgScore, &s.Selected, &s.Corrected); err != nil {
			return nil, fmt.Errorf("scan stats row: %w", err)
		}
		s.Field = domain.FieldName(name)
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stats: %w", err)
	}
	return stats, nil
}

func scanField(row rowScanner) (domain.ExtractedField, error) {
	var f domain.ExtractedField
	var name, tier string
	if err := row.Scan(&name, &f.Value, &f.Score, &tier, &f.Selected, &f.UserCorrected); err != nil {
		return domain.ExtractedField{}, err
	}
	f.Name = domain.FieldName(name)
	f.Tier = domain.ConfidenceTier(tier)
	return f, nil
}
