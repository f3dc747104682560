package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/kirillkom/invoice-insight/internal/core/domain"
	"github.com/kirillkom/invoice-insight/internal/core/ports"
)

// ExtractInvoiceUseCase runs the extraction pipeline for one document:
// load page text, extract candidates, classify, persist the field set.
// The document's artifact is persisted before the pipeline ever runs, so a
// total extraction failure never loses uploaded bytes.
type ExtractInvoiceUseCase struct {
	repo      ports.DocumentRepository
	fields    ports.FieldRepository
	loader    ports.DocumentLoader
	extractor ports.FieldExtractor
	gate      ports.ExtractionGate
}

func NewExtractInvoiceUseCase(
	repo ports.DocumentRepository,
	fields ports.FieldRepository,
	loader ports.DocumentLoader,
	extractor ports.FieldExtractor,
	gate ports.ExtractionGate,
) *ExtractInvoiceUseCase {
	return &ExtractInvoiceUseCase{
		repo:      repo,
		fields:    fields,
		loader:    loader,
		extractor: extractor,
		gate:      gate,
	}
}

// Run drives the uploaded → extracting → extracted|failed transitions and
// mirrors the terminal state onto doc so callers see fresh status without a
// re-read.
func (uc *ExtractInvoiceUseCase) Run(ctx context.Context, doc *domain.Document, raw []byte) ([]domain.ExtractedField, error) {
	if err := uc.markStatus(ctx, doc, domain.StatusExtracting, ""); err != nil {
		return nil, fmt.Errorf("set status=extracting: %w", err)
	}

	fields, err := uc.pipeline(ctx, doc, raw)
	if err != nil {
		if failErr := uc.markStatus(ctx, doc, domain.StatusFailed, err.Error()); failErr != nil {
			return nil, fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return nil, err
	}

	if err := uc.fields.ReplaceFields(ctx, doc.ID, fields); err != nil {
		wrapped := fmt.Errorf("persist field set: %w", err)
		if failErr := uc.markStatus(ctx, doc, domain.StatusFailed, wrapped.Error()); failErr != nil {
			return nil, fmt.Errorf("%w; mark failed status: %v", wrapped, failErr)
		}
		return nil, wrapped
	}

	if err := uc.markStatus(ctx, doc, domain.StatusExtracted, ""); err != nil {
		return nil, fmt.Errorf("set status=extracted: %w", err)
	}
	return fields, nil
}

func (uc *ExtractInvoiceUseCase) pipeline(ctx context.Context, doc *domain.Document, raw []byte) ([]domain.ExtractedField, error) {
	pages, err := uc.loader.Load(ctx, raw, doc.MimeType)
	if err != nil {
		return nil, fmt.Errorf("load document pages: %w", err)
	}

	// Model execution is the only long-running stage; one slot per loaded
	// model instance, excess extractions wait here.
	if err := uc.gate.Acquire(ctx); err != nil {
		return nil, fmt.Errorf("acquire extraction slot: %w", err)
	}
	defer uc.gate.Release()

	candidates, err := uc.extractor.ExtractFields(ctx, pages)
	if err != nil {
		return nil, fmt.Errorf("extract fields: %w", err)
	}

	fields := make([]domain.ExtractedField, 0, len(candidates))
	for _, c := range candidates {
		tier, selected, err := domain.Classify(c.Score)
		if err != nil {
			return nil, fmt.Errorf("classify %s: %w", c.Field, err)
		}
		fields = append(fields, domain.ExtractedField{
			Name:     c.Field,
			Value:    c.Value,
			Score:    c.Score,
			Tier:     tier,
			Selected: selected,
		})
	}
	return fields, nil
}

func (uc *ExtractInvoiceUseCase) markStatus(ctx context.Context, doc *domain.Document, status domain.DocumentStatus, errMessage string) error {
	if err := uc.repo.UpdateStatus(ctx, doc.ID, status, errMessage); err != nil {
		return err
	}
	doc.Status = status
	doc.Error = errMessage
	if status == domain.StatusExtracted || status == domain.StatusFailed {
		now := time.Now().UTC()
		doc.ProcessedAt = &now
	}
	return nil
}
