// Package render turns a persisted export snapshot into downloadable bytes.
// The snapshot itself is always stored as JSON; csv and xlsx are rendered on
// demand from the same structure.
package render

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/invoice-insight/internal/core/domain"
	"github.com/kirillkom/invoice-insight/internal/core/usecase"
)

const (
	ContentTypeJSON = "application/json"
	ContentTypeCSV  = "text/csv"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Render produces the response body and content type for an export.
func Render(export *domain.Export) ([]byte, string, error) {
	switch export.Format {
	case domain.ExportJSON:
		return export.Payload, ContentTypeJSON, nil
	case domain.ExportCSV:
		payload, err := decodePayload(export.Payload)
		if err != nil {
			return nil, "", err
		}
		raw, err := renderCSV(payload)
		if err != nil {
			return nil, "", err
		}
		return raw, ContentTypeCSV, nil
	case domain.ExportXLSX:
		payload, err := decodePayload(export.Payload)
		if err != nil {
			return nil, "", err
		}
		raw, err := renderXLSX(payload)
		if err != nil {
			return nil, "", err
		}
		return raw, ContentTypeXLSX, nil
	default:
		return nil, "", domain.WrapError(domain.ErrInvalidInput, "render export",
			fmt.Errorf("unsupported format %q", export.Format))
	}
}

// FileExtension returns the download suffix for a format.
func FileExtension(format domain.ExportFormat) string {
	switch format {
	case domain.ExportCSV:
		return "csv"
	case domain.ExportXLSX:
		return "xlsx"
	default:
		return "json"
	}
}

func decodePayload(raw []byte) (usecase.ExportPayload, error) {
	var payload usecase.ExportPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return payload, fmt.Errorf("decode export payload: %w", err)
	}
	return payload, nil
}

var columnHeaders = []string{"field_name", "field_value", "confidence_score", "confidence_tier", "user_corrected"}

// orderedFields walks the payload in canonical vocabulary order so rendered
// rows are stable across runs.
func orderedFields(payload usecase.ExportPayload) []struct {
	Name string
	View usecase.ExportedFieldView
} {
	rows := make([]struct {
		Name string
		View usecase.ExportedFieldView
	}, 0, len(payload.Fields))
	for _, name := range domain.Vocabulary() {
		view, ok := payload.Fields[string(name)]
		if !ok {
			continue
		}
		rows = append(rows, struct {
			Name string
			View usecase.ExportedFieldView
		}{Name: string(name), View: view})
	}
	return rows
}

func renderCSV(payload usecase.ExportPayload) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(columnHeaders); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range orderedFields(payload) {
		record := []string{
			row.Name,
			row.View.Value,
			fmt.Sprintf("%.2f", row.View.Score),
			row.View.Tier,
			fmt.Sprintf("%t", row.View.UserCorrected),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

func renderXLSX(payload usecase.ExportPayload) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Invoice Fields"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("drop default sheet: %w", err)
	}

	for i, header := range columnHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return nil, fmt.Errorf("write header cell: %w", err)
		}
	}

	row := 2
	for _, entry := range orderedFields(payload) {
		values := []any{
			entry.Name,
			entry.View.Value,
			entry.View.Score,
			entry.View.Tier,
			entry.View.UserCorrected,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, fmt.Errorf("write cell: %w", err)
			}
		}
		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 16)
	_ = f.SetColWidth(sheet, "B", "B", 40)
	_ = f.SetColWidth(sheet, "D", "D", 16)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}
