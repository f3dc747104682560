package usecase

import (
	"context"
	"fmt"

	"github.com/kirillkom/invoice-insight/internal/core/ports"
)

// PurgeInvoiceUseCase is the only deletion path for documents. Corrections
// are deliberately left in place: the ledger is an audit trail.
type PurgeInvoiceUseCase struct {
	repo   ports.DocumentRepository
	fields ports.FieldRepository
	store  ports.ArtifactStore
}

func NewPurgeInvoiceUseCase(
	repo ports.DocumentRepository,
	fields ports.FieldRepository,
	store ports.ArtifactStore,
) *PurgeInvoiceUseCase {
	return &PurgeInvoiceUseCase{
		repo:   repo,
		fields: fields,
		store:  store,
	}
}

func (uc *PurgeInvoiceUseCase) Purge(ctx context.Context, id string) error {
	doc, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("resolve document: %w", err)
	}

	if err := uc.fields.DeleteByDocument(ctx, id); err != nil {
		return fmt.Errorf("delete field set: %w", err)
	}
	if err := uc.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete document record: %w", err)
	}
	// Best-effort idempotent: an already-absent artifact is fine.
	if err := uc.store.Delete(ctx, doc.Locator); err != nil {
		return fmt.Errorf("delete artifact: %w", err)
	}
	return nil
}
