package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/asorokin/legal-doc-classifier/internal/bootstrap"
	"github.com/asorokin/legal-doc-classifier/internal/config"
	"github.com/asorokin/legal-doc-classifier/internal/core/domain"
	"github.com/asorokin/legal-doc-classifier/internal/observability/logging"
	"github.com/asorokin/legal-doc-classifier/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger("worker", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workerMetrics := metrics.NewWorkerMetrics("worker")
	classifierMetrics := metrics.NewClassifierMetrics("worker", workerMetrics.Registerer())

	app, err := bootstrap.New(ctx, cfg, classifierMetrics)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", workerMetrics.Handler())
		slog.Info("worker_metrics_listening", "port", cfg.WorkerMetricsPort)
		if err := http.ListenAndServe(":"+cfg.WorkerMetricsPort, mux); err != nil && err != http.ErrServerClosed {
			slog.Error("worker_metrics_server", "error", err)
		}
	}()

	slog.Info("worker_subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeClassifyRequested(ctx, func(handlerCtx context.Context, req domain.ClassificationRequest) error {
		classifyCtx, cancel := context.WithTimeout(handlerCtx, 5*time.Minute)
		defer cancel()

		workerMetrics.StartJob()
		start := time.Now()
		result, err := app.ClassifyUC.Classify(classifyCtx, req.Text, req.Filename)
		workerMetrics.FinishJob("worker", time.Since(start), err)
		if err != nil {
			return err
		}

		slog.Info("classification_done",
			"filename", req.Filename,
			"category", result.Category,
			"document_type", result.DocumentType,
			"tier", result.TierUsed,
			"confidence", result.ConfidenceScore,
			"needs_review", result.NeedsReview,
		)
		return nil
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}
}
