package usecase

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/invoice-insight/internal/core/domain"
	"github.com/kirillkom/invoice-insight/internal/core/ports"
)

// ReextractInvoiceUseCase re-runs extraction against stored bytes, for
// example after a model update. The result is always a new document: prior
// extraction results are immutable so the audit trail and the correction
// signal stay meaningful.
type ReextractInvoiceUseCase struct {
	repo     ports.DocumentRepository
	store    ports.ArtifactStore
	queue    ports.MessageQueue
	pipeline *ExtractInvoiceUseCase
}

func NewReextractInvoiceUseCase(
	repo ports.DocumentRepository,
	store ports.ArtifactStore,
	queue ports.MessageQueue,
	pipeline *ExtractInvoiceUseCase,
) *ReextractInvoiceUseCase {
	return &ReextractInvoiceUseCase{
		repo:     repo,
		store:    store,
		queue:    queue,
		pipeline: pipeline,
	}
}

func (uc *ReextractInvoiceUseCase) Enqueue(ctx context.Context, documentID string) error {
	if _, err := uc.repo.GetByID(ctx, documentID); err != nil {
		return fmt.Errorf("resolve document: %w", err)
	}
	if err := uc.queue.PublishReextract(ctx, documentID); err != nil {
		return fmt.Errorf("publish re-extraction job: %w", err)
	}
	return nil
}

func (uc *ReextractInvoiceUseCase) ReextractByID(ctx context.Context, documentID string) (*domain.Document, error) {
	src, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("resolve source document: %w", err)
	}

	reader, err := uc.store.Get(ctx, src.Locator)
	if err != nil {
		return nil, fmt.Errorf("open source artifact: %w", err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read source artifact: %w", err)
	}

	// Keys derive from upload identities and are never reused, so the new
	// document gets its own copy under its own key.
	id := uuid.NewString()
	key := fmt.Sprintf("%s_%s", id, sanitizeFilename(src.Filename))
	locator, err := uc.store.Put(ctx, key, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("persist artifact copy: %w", err)
	}

	doc := &domain.Document{
		ID:         id,
		Filename:   src.Filename,
		MimeType:   src.MimeType,
		ByteSize:   int64(len(raw)),
		Locator:    locator,
		Status:     domain.StatusUploaded,
		UploadedAt: time.Now().UTC(),
	}
	if err := uc.repo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document record: %w", err)
	}

	if _, err := uc.pipeline.Run(ctx, doc, raw); err != nil {
		return doc, err
	}
	return doc, nil
}
