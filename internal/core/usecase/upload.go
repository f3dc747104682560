package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/invoice-insight/internal/core/domain"
	"github.com/kirillkom/invoice-insight/internal/core/ports"
)

// UploadInvoiceUseCase is the extraction session entry point. The raw bytes
// are persisted before extraction starts, so even a total pipeline failure
// leaves the upload retrievable through its locator.
type UploadInvoiceUseCase struct {
	repo        ports.DocumentRepository
	store       ports.ArtifactStore
	pipeline    *ExtractInvoiceUseCase
	waitTimeout time.Duration
}

func NewUploadInvoiceUseCase(
	repo ports.DocumentRepository,
	store ports.ArtifactStore,
	pipeline *ExtractInvoiceUseCase,
	waitTimeout time.Duration,
) *UploadInvoiceUseCase {
	if waitTimeout <= 0 {
		waitTimeout = 2 * time.Minute
	}
	return &UploadInvoiceUseCase{
		repo:        repo,
		store:       store,
		pipeline:    pipeline,
		waitTimeout: waitTimeout,
	}
}

func (uc *UploadInvoiceUseCase) Upload(
	ctx context.Context,
	filename, mimeType string,
	body io.Reader,
) (*domain.Document, []domain.ExtractedField, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, nil, fmt.Errorf("read upload body: %w", err)
	}
	if len(raw) == 0 {
		return nil, nil, domain.WrapError(domain.ErrInvalidInput, "upload", errors.New("empty payload"))
	}

	id := uuid.NewString()
	key := fmt.Sprintf("%s_%s", id, sanitizeFilename(filename))
	now := time.Now().UTC()

	locator, err := uc.store.Put(ctx, key, bytes.NewReader(raw))
	if err != nil {
		return nil, nil, fmt.Errorf("persist artifact: %w", err)
	}

	doc := &domain.Document{
		ID:         id,
		Filename:   filename,
		MimeType:   mimeType,
		ByteSize:   int64(len(raw)),
		Locator:    locator,
		Status:     domain.StatusUploaded,
		UploadedAt: now,
	}
	if err := uc.repo.Create(ctx, doc); err != nil {
		return nil, nil, fmt.Errorf("create document record: %w", err)
	}

	return uc.await(ctx, doc, raw)
}

type extractOutcome struct {
	fields []domain.ExtractedField
	err    error
}

// await runs the pipeline on a detached context and waits up to waitTimeout
// for the caller's response. On timeout the caller gets a temporary error and
// the in-flight extraction runs to completion; its terminal state is recorded
// and readable later, only this response discards it. There is no mid-flight
// cancellation: partial model output is not meaningful.
func (uc *UploadInvoiceUseCase) await(ctx context.Context, doc *domain.Document, raw []byte) (*domain.Document, []domain.ExtractedField, error) {
	done := make(chan extractOutcome, 1)
	go func() {
		fields, err := uc.pipeline.Run(context.WithoutCancel(ctx), doc, raw)
		done <- extractOutcome{fields: fields, err: err}
	}()

	timer := time.NewTimer(uc.waitTimeout)
	defer timer.Stop()

	select {
	case out := <-done:
		if out.err != nil {
			return doc, nil, out.err
		}
		return doc, out.fields, nil
	case <-timer.C:
		return doc, nil, domain.WrapError(domain.ErrTemporary, "await extraction",
			fmt.Errorf("still extracting after %s, poll the document for the result", uc.waitTimeout))
	}
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" {
		return "document.pdf"
	}
	return base
}
