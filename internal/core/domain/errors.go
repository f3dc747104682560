package domain

import (
	"errors"
	"fmt"
)

var (
	// Input defects: reported to the caller, never retried automatically.
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrCorruptDocument   = errors.New("corrupt document")

	// ErrExtractionFailed means every extractor failed for every field.
	// The uploaded bytes are still persisted and the caller may retry later.
	ErrExtractionFailed = errors.New("extraction failed")

	// ErrInvalidScore is an internal invariant violation, not a user condition.
	ErrInvalidScore = errors.New("confidence score out of range")

	// Correction-path caller defects.
	ErrDocumentNotFound = errors.New("document not found")
	ErrUnknownField     = errors.New("unknown field name")

	// Storage conditions.
	ErrArtifactNotFound = errors.New("artifact not found")

	ErrInvalidInput = errors.New("invalid input")
	ErrTemporary    = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
