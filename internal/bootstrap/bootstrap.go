package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/asorokin/legal-doc-classifier/internal/config"
	"github.com/asorokin/legal-doc-classifier/internal/core/ports"
	"github.com/asorokin/legal-doc-classifier/internal/core/taxonomy"
	"github.com/asorokin/legal-doc-classifier/internal/core/usecase"
	"github.com/asorokin/legal-doc-classifier/internal/infrastructure/entailment"
	"github.com/asorokin/legal-doc-classifier/internal/infrastructure/llm/ollama"
	"github.com/asorokin/legal-doc-classifier/internal/infrastructure/llm/openaicompat"
	"github.com/asorokin/legal-doc-classifier/internal/infrastructure/llm/pool"
	"github.com/asorokin/legal-doc-classifier/internal/infrastructure/queue/nats"
	"github.com/asorokin/legal-doc-classifier/internal/infrastructure/repository/postgres"
	"github.com/asorokin/legal-doc-classifier/internal/infrastructure/resilience"
	"github.com/asorokin/legal-doc-classifier/internal/infrastructure/vector/qdrant"
)

type App struct {
	Config   config.Config
	Registry *taxonomy.Registry

	Queue      *nats.Queue
	Audit      ports.AuditLog
	ClassifyUC ports.DocumentClassifier
	SeedUC     ports.TaxonomySeeder

	closeFn func()
}

// New wires the full dependency graph. engineMetrics may be nil when
// the caller has no metrics endpoint (the CLI).
func New(ctx context.Context, cfg config.Config, engineMetrics ports.EngineMetrics) (*App, error) {
	registry, err := taxonomy.Load()
	if err != nil {
		return nil, fmt.Errorf("load taxonomy: %w", err)
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	audit := postgres.NewAuditRepository(db)
	if err := audit.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
		WorkerConcurrency:  cfg.WorkerConcurrency,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	ollamaClient := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel)
	embedder := ollama.NewResilientEmbedder(ollama.NewEmbedder(ollamaClient), executor)
	fallbackGen := ollama.NewResilientGenerator(ollama.NewGenerator(ollamaClient), executor)

	primaryGen := openaicompat.New(openaicompat.Config{
		BaseURL: cfg.PrimaryBaseURL,
		APIKey:  cfg.PrimaryAPIKey,
		Model:   cfg.PrimaryModel,
	})

	modelPool := pool.New(primaryGen, fallbackGen, time.Duration(cfg.PoolAcquireTimeoutSecond)*time.Second)

	vectorDB := qdrant.New(cfg.QdrantURL, cfg.QdrantTaxonomyCollection, cfg.QdrantDocumentsCollection)
	entailmentClient := entailment.New(cfg.EntailmentURL)

	retriever := usecase.NewContextRetriever(embedder, vectorDB, cfg.TaxonomyTopK, cfg.DocumentTopK)
	cascade := usecase.NewCascade(
		modelPool,
		usecase.NewPromptBuilder(registry),
		usecase.NewOutputParser(registry),
		usecase.NewRuleMatcher(registry),
		time.Duration(cfg.GenerateTimeoutSeconds)*time.Second,
	)
	validator := usecase.NewValidator(entailmentClient, registry, time.Duration(cfg.ValidatorTimeoutSeconds)*time.Second)

	scoring := usecase.DefaultScoringConfig()
	scoring.ReviewThreshold = cfg.ReviewThreshold
	scoring.EntailmentFloor = cfg.EntailmentFloor

	classifyUC := usecase.NewClassifyUseCase(retriever, cascade, validator, scoring, audit, vectorDB, engineMetrics)
	seedUC := usecase.NewSeedTaxonomyUseCase(registry, embedder, vectorDB)

	return &App{
		Config:   cfg,
		Registry: registry,

		Queue:      queue,
		Audit:      audit,
		ClassifyUC: classifyUC,
		SeedUC:     seedUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
