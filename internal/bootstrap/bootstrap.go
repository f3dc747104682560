package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kirillkom/invoice-insight/internal/config"
	"github.com/kirillkom/invoice-insight/internal/core/ports"
	"github.com/kirillkom/invoice-insight/internal/core/usecase"
	"github.com/kirillkom/invoice-insight/internal/infrastructure/docloader/pdfload"
	"github.com/kirillkom/invoice-insight/internal/infrastructure/extractor/composite"
	"github.com/kirillkom/invoice-insight/internal/infrastructure/extractor/pattern"
	"github.com/kirillkom/invoice-insight/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/invoice-insight/internal/infrastructure/modelgate"
	"github.com/kirillkom/invoice-insight/internal/infrastructure/queue/nats"
	"github.com/kirillkom/invoice-insight/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/invoice-insight/internal/infrastructure/resilience"
	"github.com/kirillkom/invoice-insight/internal/infrastructure/storage/gcs"
	"github.com/kirillkom/invoice-insight/internal/infrastructure/storage/localfs"
)

// App wires the full dependency graph once; both the api and the worker
// binaries consume it.
type App struct {
	Config config.Config
	Logger *slog.Logger

	Queue   ports.MessageQueue
	Fields  ports.FieldRepository
	Exports ports.ExportRepository

	UploadUC     ports.InvoiceIngestor
	QueryUC      ports.InvoiceReader
	PurgeUC      ports.InvoicePurger
	CorrectionUC ports.CorrectionRecorder
	ReextractUC  ports.Reextractor
	ExportUC     ports.InvoiceExporter
	Extractor    ports.FieldExtractor

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	repo := postgres.NewDocumentRepository(db)
	fields := postgres.NewFieldRepository(db)
	ledger := postgres.NewCorrectionRepository(db)
	exports := postgres.NewExportRepository(db)

	store, err := newArtifactStore(ctx, cfg)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		Logger: logger,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	executor := resilience.NewExecutor(resilience.Config{Logger: logger})
	llmSource := ollama.New(cfg.OllamaURL, cfg.OllamaModel, executor)
	extractor := composite.NewExtractor(logger, llmSource, pattern.New())

	loader := pdfload.NewLoader()
	gate := modelgate.New(cfg.ExtractorSlots)

	pipeline := usecase.NewExtractInvoiceUseCase(repo, fields, loader, extractor, gate)
	uploadUC := usecase.NewUploadInvoiceUseCase(repo, store, pipeline, cfg.ExtractWaitTimeout)
	queryUC := usecase.NewInvoiceQueryUseCase(repo, fields)
	purgeUC := usecase.NewPurgeInvoiceUseCase(repo, fields, store)
	correctionUC := usecase.NewCorrectionUseCase(repo, fields, ledger)
	reextractUC := usecase.NewReextractInvoiceUseCase(repo, store, queue, pipeline)
	exportUC := usecase.NewExportInvoiceUseCase(repo, fields, exports)

	return &App{
		Config: cfg,
		Logger: logger,

		Queue:   queue,
		Fields:  fields,
		Exports: exports,

		UploadUC:     uploadUC,
		QueryUC:      queryUC,
		PurgeUC:      purgeUC,
		CorrectionUC: correctionUC,
		ReextractUC:  reextractUC,
		ExportUC:     exportUC,
		Extractor:    extractor,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func newArtifactStore(ctx context.Context, cfg config.Config) (ports.ArtifactStore, error) {
	switch cfg.StorageBackend {
	case "gcs":
		store, err := gcs.New(ctx, cfg.GCSBucket)
		if err != nil {
			return nil, fmt.Errorf("init gcs storage: %w", err)
		}
		return store, nil
	case "local", "":
		store, err := localfs.New(cfg.StoragePath)
		if err != nil {
			return nil, fmt.Errorf("init local storage: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
