// Package composite fans extraction out to every configured source and
// resolves the merged candidates into one winner per field.
package composite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kirillkom/invoice-insight/internal/core/domain"
)

// Source is one field extraction strategy. Sources are independent: a source
// failing never prevents the others from contributing candidates.
type Source interface {
	Name() string
	Extract(ctx context.Context, pages []string) ([]domain.Candidate, error)
	Info() domain.ExtractorInfo
}

// Extractor merges candidates from all sources. The priority order decides
// score ties: the earliest listed source is the primary extractor.
type Extractor struct {
	sources  []Source
	priority []string
	logger   *slog.Logger
}

func NewExtractor(logger *slog.Logger, sources ...Source) *Extractor {
	priority := make([]string, 0, len(sources))
	for _, s := range sources {
		priority = append(priority, s.Name())
	}
	return &Extractor{
		sources:  sources,
		priority: priority,
		logger:   logger,
	}
}

func (e *Extractor) ExtractFields(ctx context.Context, pages []string) ([]domain.Candidate, error) {
	var merged []domain.Candidate
	var failures []error

	for _, src := range e.sources {
		candidates, err := src.Extract(ctx, pages)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			e.logger.Warn("extraction source failed",
				slog.String("source", src.Name()),
				slog.String("error", err.Error()))
			failures = append(failures, fmt.Errorf("%s: %w", src.Name(), err))
			continue
		}
		merged = append(merged, candidates...)
	}

	if len(merged) == 0 && len(failures) == len(e.sources) && len(e.sources) > 0 {
		return nil, domain.WrapError(domain.ErrExtractionFailed, "extract fields", errors.Join(failures...))
	}
	return domain.ResolveCandidates(merged, e.priority), nil
}

func (e *Extractor) Status() domain.ExtractorStatus {
	status := domain.ExtractorStatus{Extractors: make([]domain.ExtractorInfo, 0, len(e.sources))}
	for _, src := range e.sources {
		status.Extractors = append(status.Extractors, src.Info())
	}
	return status
}
