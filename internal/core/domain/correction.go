package domain

import "time"

// Correction is an append-only record of a human overriding an extracted
// value. Rows are never mutated or deleted; together they form the training
// signal for future extraction improvements.
type Correction struct {
	ID             int64     `json:"id"`
	DocumentID     string    `json:"document_id"`
	Field          FieldName `json:"field_name"`
	OriginalValue  string    `json:"original_value"`
	CorrectedValue string    `json:"corrected_value"`
	CreatedAt      time.Time `json:"created_at"`
}

// FieldStats aggregates extraction quality per field name across documents.
type FieldStats struct {
	Field       FieldName `json:"field_name"`
	Extractions int64     `json:"extractions"`
	AvgScore    float64   `json:"avg_confidence"`
	Selected    int64     `json:"selected_count"`
	Corrected   int64     `json:"corrected_count"`
}
