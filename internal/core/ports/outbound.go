package ports

import (
	"context"
	"time"

	"github.com/asorokin/legal-doc-classifier/internal/core/domain"
)

// Embedder produces a fixed-length vector for a piece of text. Backed
// by an always-resident lightweight model; never contends for the
// generative model lease.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// SimilaritySearcher is the opaque similarity-search service. Two
// spaces: taxonomy definitions and previously classified documents.
type SimilaritySearcher interface {
	SearchTaxonomy(ctx context.Context, queryVector []float32, topK int) ([]domain.TaxonomyHit, error)
	SearchDocuments(ctx context.Context, queryVector []float32, topK int) ([]domain.DocumentHit, error)
	UpsertTaxonomy(ctx context.Context, entries []TaxonomyEntry) error
	StoreDocument(ctx context.Context, record domain.AuditRecord, vector []float32) error
}

// TaxonomyEntry is one seeded definition vector.
type TaxonomyEntry struct {
	Name        string
	Kind        string // "category" or "document_type"
	Description string
	Vector      []float32
}

// ModelLease is an exclusive hold on the single resident generative
// model slot. Release is idempotent and must run on every exit path.
type ModelLease interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Release()
}

// ModelPool owns generative model lifecycle. Acquire blocks until the
// slot is free; only one lease exists at a time across all tiers.
type ModelPool interface {
	Acquire(ctx context.Context, tier domain.Tier) (ModelLease, error)
}

// EntailmentScorer is the zero-shot entailment service: probability
// that the premise (document text) supports the hypothesis (category
// description).
type EntailmentScorer interface {
	Entail(ctx context.Context, premise, hypothesis string) (float64, error)
}

// AuditLog is the append-only classification trail.
type AuditLog interface {
	Append(ctx context.Context, record domain.AuditRecord) error
	ListRecent(ctx context.Context, limit int, needsReviewOnly bool) ([]domain.AuditRecord, error)
}

// JobQueue transports asynchronous classification requests.
type JobQueue interface {
	PublishClassifyRequested(ctx context.Context, req domain.ClassificationRequest) error
	SubscribeClassifyRequested(ctx context.Context, handler func(context.Context, domain.ClassificationRequest) error) error
}

// EngineMetrics observes pipeline internals that never surface in the
// result: absorbed tier failures, retrieval outcomes, validator
// degradation. Implementations must be safe for concurrent use.
type EngineMetrics interface {
	RecordClassification(tier string, needsReview bool, confidence float64, duration time.Duration)
	RecordCascadeFallback(tier, errorKind string)
	RecordRetrievalOutcome(contextEmpty bool)
	RecordValidatorDegraded()
}

// TextExtractor turns a stored file into plain text for the CLI path.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (string, error)
}
