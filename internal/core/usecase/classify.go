package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/asorokin/legal-doc-classifier/internal/core/domain"
	"github.com/asorokin/legal-doc-classifier/internal/core/ports"
)

const auditExcerptLimit = 500

// ClassifyUseCase is the end-to-end engine: retrieval, cascade,
// validation, scoring, aggregation. One instance serves concurrent
// requests; all mutable state is per-invocation.
type ClassifyUseCase struct {
	retriever *ContextRetriever
	cascade   *Cascade
	validator *Validator
	scoring   ScoringConfig

	audit    ports.AuditLog
	searcher ports.SimilaritySearcher
	metrics  ports.EngineMetrics
}

func NewClassifyUseCase(
	retriever *ContextRetriever,
	cascade *Cascade,
	validator *Validator,
	scoring ScoringConfig,
	audit ports.AuditLog,
	searcher ports.SimilaritySearcher,
	metrics ports.EngineMetrics,
) *ClassifyUseCase {
	if metrics == nil {
		metrics = noopEngineMetrics{}
	}
	return &ClassifyUseCase{
		retriever: retriever,
		cascade:   cascade,
		validator: validator,
		scoring:   scoring,
		audit:     audit,
		searcher:  searcher,
		metrics:   metrics,
	}
}

// Classify runs the full pipeline. It fails only for empty input;
// every tier failure is absorbed by cascade fallback and recorded in
// the audit trail.
func (uc *ClassifyUseCase) Classify(ctx context.Context, text, filename string) (domain.ClassificationResult, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return domain.ClassificationResult{}, domain.WrapError(domain.ErrEmptyInput, "classify", errors.New("document text is empty"))
	}
	req := domain.ClassificationRequest{Text: trimmed, Filename: filename}
	start := time.Now()

	bundle, vector, err := uc.retriever.Retrieve(ctx, trimmed)
	if err != nil {
		return domain.ClassificationResult{}, err
	}
	uc.metrics.RecordRetrievalOutcome(bundle.Empty())

	attempts := uc.cascade.Run(ctx, req, bundle)
	final := attempts[len(attempts)-1]
	label := *final.Parsed
	for _, attempt := range attempts {
		if !attempt.Succeeded {
			uc.metrics.RecordCascadeFallback(string(attempt.Tier), attempt.ErrorKind)
		}
	}

	validation := uc.validator.Validate(ctx, trimmed, label.Category, bundle)
	if validation.Degraded {
		uc.metrics.RecordValidatorDegraded()
	}

	confidence, needsReview := ComputeConfidence(ScoreInputs{
		Tier:               final.Tier,
		RetrievalAgreement: retrievalAgreement(bundle, label.Category),
		Entailment:         validation.Entailment,
	}, uc.scoring)

	result := domain.ClassificationResult{
		Category:        label.Category,
		DocumentType:    label.DocumentType,
		ConfidenceScore: confidence,
		TierUsed:        final.Tier,
		NeedsReview:     needsReview,
		Rationale:       buildRationale(final, bundle, validation),
	}

	uc.metrics.RecordClassification(string(final.Tier), needsReview, confidence, time.Since(start))

	uc.aggregate(ctx, req, result, attempts, validation, bundle, vector)
	return result, nil
}

type noopEngineMetrics struct{}

func (noopEngineMetrics) RecordClassification(string, bool, float64, time.Duration) {}
func (noopEngineMetrics) RecordCascadeFallback(string, string)                      {}
func (noopEngineMetrics) RecordRetrievalOutcome(bool)                               {}
func (noopEngineMetrics) RecordValidatorDegraded()                                  {}

// aggregate writes the append-only audit record and stores the
// classified document for future retrieval context. Both are
// best-effort: the result is already final and must reach the caller.
func (uc *ClassifyUseCase) aggregate(
	ctx context.Context,
	req domain.ClassificationRequest,
	result domain.ClassificationResult,
	attempts []domain.CascadeAttempt,
	validation domain.ValidationScore,
	bundle domain.ContextBundle,
	vector []float32,
) {
	record := domain.AuditRecord{
		ID:                uuid.NewString(),
		Filename:          req.Filename,
		TextExcerpt:       truncate(req.Text, auditExcerptLimit),
		Category:          result.Category,
		DocumentType:      result.DocumentType,
		ConfidenceScore:   result.ConfidenceScore,
		TierUsed:          result.TierUsed,
		NeedsReview:       result.NeedsReview,
		Entailment:        validation.Entailment,
		ValidatorDegraded: validation.Degraded,
		ContextEmpty:      bundle.Empty(),
		Attempts:          attempts,
		CreatedAt:         time.Now().UTC(),
	}

	if err := uc.audit.Append(ctx, record); err != nil {
		slog.Error("audit_append_failed", "id", record.ID, "error", err)
	}

	if vector != nil {
		if err := uc.searcher.StoreDocument(ctx, record, vector); err != nil {
			slog.Warn("store_document_degraded", "id", record.ID, "error", err)
		}
	}
}

// retrievalAgreement signs the nearest prior document's similarity by
// label agreement with the chosen category. Zero when no prior
// document was retrieved.
func retrievalAgreement(bundle domain.ContextBundle, category string) float64 {
	nearest, ok := bundle.NearestDocument()
	if !ok {
		return 0
	}
	similarity := clamp(nearest.Score, 0, 1)
	if nearest.Category == category {
		return similarity
	}
	return -similarity
}

func buildRationale(final domain.CascadeAttempt, bundle domain.ContextBundle, validation domain.ValidationScore) string {
	var parts []string
	switch final.Tier {
	case domain.TierPrimary:
		parts = append(parts, "primary model")
	case domain.TierFallback:
		parts = append(parts, "fallback model")
	default:
		parts = append(parts, "keyword rules")
	}
	if nearest, ok := bundle.NearestDocument(); ok {
		parts = append(parts, fmt.Sprintf("nearest prior document %q labeled %s (%.2f)", nearest.Filename, nearest.Category, nearest.Score))
	}
	if validation.Degraded {
		parts = append(parts, "validator unavailable")
	} else {
		parts = append(parts, fmt.Sprintf("entailment %.2f", validation.Entailment))
	}
	return strings.Join(parts, "; ")
}
