package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kirillkom/invoice-insight/internal/core/domain"
	"github.com/kirillkom/invoice-insight/internal/core/ports"
)

// CorrectionUseCase records human corrections as an append-only ledger and
// keeps the document's field set consistent with the latest correction.
// Writes are serialized per document id; corrections to different documents
// proceed in parallel.
type CorrectionUseCase struct {
	repo   ports.DocumentRepository
	fields ports.FieldRepository
	ledger ports.CorrectionLedger

	locks keyedMutex
}

func NewCorrectionUseCase(
	repo ports.DocumentRepository,
	fields ports.FieldRepository,
	ledger ports.CorrectionLedger,
) *CorrectionUseCase {
	return &CorrectionUseCase{
		repo:   repo,
		fields: fields,
		ledger: ledger,
	}
}

func (uc *CorrectionUseCase) Record(
	ctx context.Context,
	documentID string,
	name domain.FieldName,
	correctedValue string,
) (*domain.ExtractedField, error) {
	if !domain.KnownFieldName(string(name)) {
		return nil, domain.WrapError(domain.ErrUnknownField, "record correction",
			fmt.Errorf("field %q is not in the vocabulary", name))
	}
	if correctedValue == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "record correction",
			errors.New("corrected value is empty"))
	}
	if _, err := uc.repo.GetByID(ctx, documentID); err != nil {
		return nil, fmt.Errorf("resolve document: %w", err)
	}

	unlock := uc.locks.lock(documentID)
	defer unlock()

	existing, err := uc.fields.GetField(ctx, documentID, name)
	if err != nil {
		return nil, fmt.Errorf("read current field: %w", err)
	}

	original := ""
	if existing != nil {
		original = existing.Value
	}
	correction := &domain.Correction{
		DocumentID:     documentID,
		Field:          name,
		OriginalValue:  original,
		CorrectedValue: correctedValue,
		CreatedAt:      time.Now().UTC(),
	}
	if err := uc.ledger.Append(ctx, correction); err != nil {
		return nil, fmt.Errorf("append correction: %w", err)
	}

	var updated domain.ExtractedField
	if existing != nil {
		updated = *existing
		updated.Value = correctedValue
		updated.UserCorrected = true
	} else {
		// The human added a field the model missed: it joins the set
		// outside the numeric confidence scale and stays selected.
		updated = domain.ExtractedField{
			Name:          name,
			Value:         correctedValue,
			Tier:          domain.TierUserProvided,
			Selected:      true,
			UserCorrected: true,
		}
	}
	if err := uc.fields.UpsertField(ctx, documentID, updated); err != nil {
		return nil, fmt.Errorf("apply correction to field set: %w", err)
	}
	return &updated, nil
}

// Select overrides the selection default of a field already in the set.
// The override persists independently of the confidence tier.
func (uc *CorrectionUseCase) Select(ctx context.Context, documentID string, name domain.FieldName, selected bool) error {
	if !domain.KnownFieldName(string(name)) {
		return domain.WrapError(domain.ErrUnknownField, "select field",
			fmt.Errorf("field %q is not in the vocabulary", name))
	}
	if _, err := uc.repo.GetByID(ctx, documentID); err != nil {
		return fmt.Errorf("resolve document: %w", err)
	}

	unlock := uc.locks.lock(documentID)
	defer unlock()

	if err := uc.fields.SetSelected(ctx, documentID, name, selected); err != nil {
		return fmt.Errorf("set field selection: %w", err)
	}
	return nil
}

// History returns corrections for a field across all documents, oldest first.
func (uc *CorrectionUseCase) History(ctx context.Context, name domain.FieldName, limit, offset int) ([]domain.Correction, error) {
	if !domain.KnownFieldName(string(name)) {
		return nil, domain.WrapError(domain.ErrUnknownField, "correction history",
			fmt.Errorf("field %q is not in the vocabulary", name))
	}
	return uc.ledger.HistoryForField(ctx, name, limit, offset)
}

// keyedMutex hands out one mutex per key and reclaims it once unused.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func (k *keyedMutex) lock(key string) (unlock func()) {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*lockEntry)
	}
	entry, ok := k.locks[key]
	if !ok {
		entry = &lockEntry{}
		k.locks[key] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		k.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
