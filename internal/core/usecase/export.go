package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/invoice-insight/internal/core/domain"
	"github.com/kirillkom/invoice-insight/internal/core/ports"
)

type ExportInvoiceUseCase struct {
	repo    ports.DocumentRepository
	fields  ports.FieldRepository
	exports ports.ExportRepository
}

func NewExportInvoiceUseCase(
	repo ports.DocumentRepository,
	fields ports.FieldRepository,
	exports ports.ExportRepository,
) *ExportInvoiceUseCase {
	return &ExportInvoiceUseCase{
		repo:    repo,
		fields:  fields,
		exports: exports,
	}
}

// ExportPayload is the persisted snapshot shape. Download renderers (csv,
// xlsx) work from the same structure.
type ExportPayload struct {
	DocumentID string                       `json:"document_id"`
	Filename   string                       `json:"filename"`
	ExportedAt time.Time                    `json:"exported_at"`
	Fields     map[string]ExportedFieldView `json:"fields"`
}

type ExportedFieldView struct {
	Value         string  `json:"value"`
	Score         float64 `json:"confidence_score"`
	Tier          string  `json:"confidence_tier"`
	UserCorrected bool    `json:"user_corrected"`
}

func (uc *ExportInvoiceUseCase) Export(
	ctx context.Context,
	documentID string,
	names []domain.FieldName,
	format domain.ExportFormat,
) (*domain.Export, error) {
	if !domain.KnownExportFormat(string(format)) {
		return nil, domain.WrapError(domain.ErrInvalidInput, "export",
			fmt.Errorf("unsupported export format %q", format))
	}
	for _, name := range names {
		if !domain.KnownFieldName(string(name)) {
			return nil, domain.WrapError(domain.ErrUnknownField, "export",
				fmt.Errorf("field %q is not in the vocabulary", name))
		}
	}

	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("resolve document: %w", err)
	}

	fieldSet, err := uc.fields.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("list fields: %w", err)
	}

	wanted := make(map[domain.FieldName]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}

	payload := ExportPayload{
		DocumentID: doc.ID,
		Filename:   doc.Filename,
		ExportedAt: time.Now().UTC(),
		Fields:     make(map[string]ExportedFieldView),
	}
	exported := make([]domain.FieldName, 0, len(names))
	for _, f := range fieldSet {
		if len(names) > 0 && !wanted[f.Name] {
			continue
		}
		payload.Fields[string(f.Name)] = ExportedFieldView{
			Value:         f.Value,
			Score:         f.Score,
			Tier:          string(f.Tier),
			UserCorrected: f.UserCorrected,
		}
		exported = append(exported, f.Name)
	}
	if len(payload.Fields) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "export",
			errors.New("no matching fields to export"))
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal export payload: %w", err)
	}

	export := &domain.Export{
		ID:         uuid.NewString(),
		DocumentID: doc.ID,
		Format:     format,
		Payload:    raw,
		CreatedAt:  payload.ExportedAt,
	}
	if err := uc.exports.Create(ctx, export); err != nil {
		return nil, fmt.Errorf("persist export: %w", err)
	}

	// Exporting a field is an implicit selection of it.
	for _, name := range exported {
		if err := uc.fields.SetSelected(ctx, documentID, name, true); err != nil {
			return nil, fmt.Errorf("mark exported field selected: %w", err)
		}
	}
	return export, nil
}
