package usecase

import (
	"context"
	"fmt"

	"github.com/kirillkom/invoice-insight/internal/core/domain"
	"github.com/kirillkom/invoice-insight/internal/core/ports"
)

// InvoiceQueryUseCase is the read model over documents and their field sets.
type InvoiceQueryUseCase struct {
	repo   ports.DocumentRepository
	fields ports.FieldRepository
}

func NewInvoiceQueryUseCase(repo ports.DocumentRepository, fields ports.FieldRepository) *InvoiceQueryUseCase {
	return &InvoiceQueryUseCase{repo: repo, fields: fields}
}

func (uc *InvoiceQueryUseCase) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	return uc.repo.GetByID(ctx, id)
}

func (uc *InvoiceQueryUseCase) List(ctx context.Context, status domain.DocumentStatus, limit, offset int) ([]domain.Document, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return uc.repo.List(ctx, status, limit, offset)
}

func (uc *InvoiceQueryUseCase) Fields(ctx context.Context, id string) ([]domain.ExtractedField, error) {
	if _, err := uc.repo.GetByID(ctx, id); err != nil {
		return nil, fmt.Errorf("resolve document: %w", err)
	}
	return uc.fields.ListByDocument(ctx, id)
}
