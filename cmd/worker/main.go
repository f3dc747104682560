package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kirillkom/invoice-insight/internal/bootstrap"
	"github.com/kirillkom/invoice-insight/internal/config"
	"github.com/kirillkom/invoice-insight/internal/observability/logging"
	"github.com/kirillkom/invoice-insight/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger("invoice-worker", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics("invoice-worker")
	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: workerMetrics.Handler(),
	}
	go func() {
		logger.Info("worker metrics listening", "port", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server failed", "error", err)
		}
	}()

	logger.Info("worker subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeReextract(ctx, func(handlerCtx context.Context, documentID string, publishedAt time.Time) error {
		if !publishedAt.IsZero() {
			workerMetrics.ObserveQueueLag("invoice-worker", time.Since(publishedAt))
		}
		workerMetrics.StartReextract()
		start := time.Now()

		runCtx, cancel := context.WithTimeout(handlerCtx, 5*time.Minute)
		defer cancel()

		_, runErr := app.ReextractUC.ReextractByID(runCtx, documentID)
		workerMetrics.FinishReextract("invoice-worker", time.Since(start), runErr)
		return runErr
	})
	if err != nil {
		logger.Error("worker subscribe failed", "error", err)
		os.Exit(1)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = metricsServer.Shutdown(shutdownCtx)
}
