package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/asorokin/legal-doc-classifier/internal/core/domain"
	"github.com/asorokin/legal-doc-classifier/internal/core/ports"
	"github.com/asorokin/legal-doc-classifier/internal/core/taxonomy"
)

type auditFake struct {
	records []domain.AuditRecord
	err     error
}

func (a *auditFake) Append(_ context.Context, record domain.AuditRecord) error {
	if a.err != nil {
		return a.err
	}
	a.records = append(a.records, record)
	return nil
}

func (a *auditFake) ListRecent(_ context.Context, limit int, needsReviewOnly bool) ([]domain.AuditRecord, error) {
	out := make([]domain.AuditRecord, 0, len(a.records))
	for i := len(a.records) - 1; i >= 0 && len(out) < limit; i-- {
		if needsReviewOnly && !a.records[i].NeedsReview {
			continue
		}
		out = append(out, a.records[i])
	}
	return out, nil
}

type metricsFake struct {
	classifications   int
	fallbacks         map[string]string // tier -> error kind
	retrievalOutcomes []bool
	validatorDegraded int
}

func (m *metricsFake) RecordClassification(string, bool, float64, time.Duration) {
	m.classifications++
}

func (m *metricsFake) RecordCascadeFallback(tier, errorKind string) {
	if m.fallbacks == nil {
		m.fallbacks = map[string]string{}
	}
	m.fallbacks[tier] = errorKind
}

func (m *metricsFake) RecordRetrievalOutcome(contextEmpty bool) {
	m.retrievalOutcomes = append(m.retrievalOutcomes, contextEmpty)
}

func (m *metricsFake) RecordValidatorDegraded() {
	m.validatorDegraded++
}

type pipelineFakes struct {
	embedder *embedderFake
	searcher *searcherFake
	pool     *poolFake
	scorer   *scorerFake
	audit    *auditFake
	metrics  *metricsFake
}

func newTestPipeline(t *testing.T, fakes pipelineFakes) *ClassifyUseCase {
	t.Helper()
	reg, err := taxonomy.Load()
	if err != nil {
		t.Fatalf("taxonomy.Load() error = %v", err)
	}
	if fakes.embedder == nil {
		fakes.embedder = &embedderFake{vector: []float32{0.1, 0.2, 0.3}}
	}
	if fakes.searcher == nil {
		fakes.searcher = &searcherFake{}
	}
	if fakes.pool == nil {
		fakes.pool = &poolFake{leases: map[domain.Tier]*leaseFake{
			domain.TierPrimary: {output: "Category: Asylum & Refugee; Type: Official Form/Application"},
		}}
	}
	if fakes.scorer == nil {
		fakes.scorer = &scorerFake{}
	}
	if fakes.audit == nil {
		fakes.audit = &auditFake{}
	}

	retriever := NewContextRetriever(fakes.embedder, fakes.searcher, 5, 3)
	cascade := NewCascade(fakes.pool, NewPromptBuilder(reg), NewOutputParser(reg), NewRuleMatcher(reg), time.Second)
	validator := NewValidator(fakes.scorer, reg, time.Second)
	var metrics ports.EngineMetrics
	if fakes.metrics != nil {
		metrics = fakes.metrics
	}
	return NewClassifyUseCase(retriever, cascade, validator, DefaultScoringConfig(), fakes.audit, fakes.searcher, metrics)
}

func TestClassifyEmptyInputFailsBeforeAnyWork(t *testing.T) {
	embedder := &embedderFake{}
	pool := &poolFake{}
	audit := &auditFake{}
	uc := newTestPipeline(t, pipelineFakes{embedder: embedder, pool: pool, audit: audit})

	_, err := uc.Classify(context.Background(), "   ", "empty.pdf")
	if !domain.IsKind(err, domain.ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
	if embedder.calls != 0 {
		t.Fatalf("no embedding may run for empty input")
	}
	if len(pool.acquired) != 0 {
		t.Fatalf("no model may be acquired for empty input")
	}
	if len(audit.records) != 0 {
		t.Fatalf("no audit record may be written for empty input")
	}
}

func TestClassifyHappyPathPrimary(t *testing.T) {
	audit := &auditFake{}
	uc := newTestPipeline(t, pipelineFakes{audit: audit})

	result, err := uc.Classify(context.Background(), "I-589 application for asylum and withholding of removal", "i589.pdf")
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if result.Category != "Asylum & Refugee" || result.DocumentType != "Official Form/Application" {
		t.Fatalf("label = %s / %s", result.Category, result.DocumentType)
	}
	if result.TierUsed != domain.TierPrimary {
		t.Fatalf("tier = %s, want primary", result.TierUsed)
	}
	if result.NeedsReview {
		t.Fatalf("confident primary result must not need review")
	}
	if len(audit.records) != 1 {
		t.Fatalf("exactly one audit record, got %d", len(audit.records))
	}
	record := audit.records[0]
	if record.Filename != "i589.pdf" || record.TierUsed != domain.TierPrimary || len(record.Attempts) != 1 {
		t.Fatalf("audit record = %+v", record)
	}
}

func TestClassifyResultIsAlwaysRegistryMember(t *testing.T) {
	reg, err := taxonomy.Load()
	if err != nil {
		t.Fatalf("taxonomy.Load() error = %v", err)
	}

	pools := []*poolFake{
		// Primary emits an out-of-taxonomy label; cascade must not pass it through.
		{leases: map[domain.Tier]*leaseFake{
			domain.TierPrimary:  {output: "Category: Maritime Law; Type: Charter Agreement"},
			domain.TierFallback: {output: "Category: Criminal Appeals; Type: Legal Brief/Memorandum"},
		}},
		// Every generative tier down: rule tier decides.
		{acquireErr: map[domain.Tier]error{
			domain.TierPrimary:  errors.New("down"),
			domain.TierFallback: errors.New("down"),
		}},
	}
	for _, pool := range pools {
		uc := newTestPipeline(t, pipelineFakes{pool: pool})
		result, err := uc.Classify(context.Background(), "appellate brief in criminal matter", "brief.pdf")
		if err != nil {
			t.Fatalf("Classify() error = %v", err)
		}
		if _, ok := reg.LookupCategory(result.Category); !ok {
			t.Fatalf("category %q escaped the closed taxonomy", result.Category)
		}
		if _, ok := reg.LookupDocumentType(result.DocumentType); !ok {
			t.Fatalf("document type %q escaped the closed taxonomy", result.DocumentType)
		}
	}
}

func TestClassifyRetrievalAgreementRaisesConfidence(t *testing.T) {
	agreeing := &searcherFake{
		documentHits: []domain.DocumentHit{
			{Filename: "prior_birth_cert.pdf", Category: "Asylum & Refugee", DocumentType: "ID or Civil Document", Score: 0.92},
		},
	}
	disagreeing := &searcherFake{
		documentHits: []domain.DocumentHit{
			{Filename: "prior_plea.pdf", Category: "Criminal Defense (Pretrial & Trial)", DocumentType: "Plea Agreement", Score: 0.92},
		},
	}

	withAgreement := newTestPipeline(t, pipelineFakes{searcher: agreeing})
	withDisagreement := newTestPipeline(t, pipelineFakes{searcher: disagreeing})

	text := "certified birth certificate submitted in support of asylum application"
	agree, err := withAgreement.Classify(context.Background(), text, "birth_cert.pdf")
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	disagree, err := withDisagreement.Classify(context.Background(), text, "birth_cert.pdf")
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}

	if agree.ConfidenceScore <= disagree.ConfidenceScore {
		t.Fatalf("agreeing neighbor must score higher: %.3f vs %.3f", agree.ConfidenceScore, disagree.ConfidenceScore)
	}
}

func TestClassifyValidatorOutageDegradesToNeutral(t *testing.T) {
	audit := &auditFake{}
	scorer := &scorerFake{err: errors.New("entailment service down")}
	uc := newTestPipeline(t, pipelineFakes{scorer: scorer, audit: audit})

	result, err := uc.Classify(context.Background(), "asylum application text", "doc.pdf")
	if err != nil {
		t.Fatalf("validator outage must not fail classification: %v", err)
	}
	if result.Category != "Asylum & Refugee" {
		t.Fatalf("category = %q", result.Category)
	}
	record := audit.records[0]
	if !record.ValidatorDegraded {
		t.Fatalf("audit record must flag validator degradation")
	}
	if record.Entailment != neutralEntailment {
		t.Fatalf("entailment = %v, want neutral %v", record.Entailment, neutralEntailment)
	}
}

func TestClassifyRuleBasedAlwaysNeedsReview(t *testing.T) {
	pool := &poolFake{acquireErr: map[domain.Tier]error{
		domain.TierPrimary:  errors.New("down"),
		domain.TierFallback: errors.New("down"),
	}}
	uc := newTestPipeline(t, pipelineFakes{pool: pool})

	result, err := uc.Classify(context.Background(), "Notice to appear in removal proceedings before the immigration court.", "nta.pdf")
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if result.TierUsed != domain.TierRuleBased {
		t.Fatalf("tier = %s, want rule_based", result.TierUsed)
	}
	if !result.NeedsReview {
		t.Fatalf("rule-based result must always need review")
	}
}

func TestClassifyAuditOutageDoesNotFailRequest(t *testing.T) {
	audit := &auditFake{err: errors.New("database down")}
	uc := newTestPipeline(t, pipelineFakes{audit: audit})

	result, err := uc.Classify(context.Background(), "asylum application", "doc.pdf")
	if err != nil {
		t.Fatalf("audit outage must not fail classification: %v", err)
	}
	if result.Category == "" {
		t.Fatalf("result must still carry a label")
	}
}

func TestClassifyRecordsPipelineMetrics(t *testing.T) {
	pool := &poolFake{
		acquireErr: map[domain.Tier]error{
			domain.TierPrimary: domain.WrapError(domain.ErrModelUnavailable, "acquire", errors.New("slot busy")),
		},
		leases: map[domain.Tier]*leaseFake{
			domain.TierFallback: {output: "Category: Asylum & Refugee; Type: Official Form/Application"},
		},
	}
	scorer := &scorerFake{err: errors.New("entailment service down")}
	recorder := &metricsFake{}
	uc := newTestPipeline(t, pipelineFakes{pool: pool, scorer: scorer, metrics: recorder})

	if _, err := uc.Classify(context.Background(), "asylum application text", "doc.pdf"); err != nil {
		t.Fatalf("Classify() error = %v", err)
	}

	if recorder.classifications != 1 {
		t.Fatalf("classifications recorded = %d, want 1", recorder.classifications)
	}
	if kind, ok := recorder.fallbacks[string(domain.TierPrimary)]; !ok || kind != "model_unavailable" {
		t.Fatalf("fallbacks = %v, want primary model_unavailable", recorder.fallbacks)
	}
	if len(recorder.retrievalOutcomes) != 1 || !recorder.retrievalOutcomes[0] {
		t.Fatalf("retrieval outcomes = %v, want one empty-context outcome", recorder.retrievalOutcomes)
	}
	if recorder.validatorDegraded != 1 {
		t.Fatalf("validator degradations = %d, want 1", recorder.validatorDegraded)
	}
}

func TestClassifyStoresDocumentForFutureRetrieval(t *testing.T) {
	searcher := &searcherFake{}
	uc := newTestPipeline(t, pipelineFakes{searcher: searcher})

	if _, err := uc.Classify(context.Background(), "asylum application text", "doc.pdf"); err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if len(searcher.stored) != 1 {
		t.Fatalf("classified document must be stored once, got %d", len(searcher.stored))
	}
	if searcher.stored[0].Category != "Asylum & Refugee" {
		t.Fatalf("stored record = %+v", searcher.stored[0])
	}
}
