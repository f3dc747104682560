package domain

import "time"

type ExportFormat string

const (
	ExportJSON ExportFormat = "json"
	ExportCSV  ExportFormat = "csv"
	ExportXLSX ExportFormat = "xlsx"
)

func KnownExportFormat(format string) bool {
	switch ExportFormat(format) {
	case ExportJSON, ExportCSV, ExportXLSX:
		return true
	}
	return false
}

// Export is a persisted snapshot of a document's selected fields. The payload
// is stored as JSON regardless of the format requested for download.
type Export struct {
	ID         string       `json:"id"`
	DocumentID string       `json:"document_id"`
	Format     ExportFormat `json:"format"`
	Payload    []byte       `json:"-"`
	CreatedAt  time.Time    `json:"created_at"`
}
