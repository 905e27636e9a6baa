package domain

import "time"

// ClassificationRequest is owned by exactly one classify invocation.
type ClassificationRequest struct {
	Text     string `json:"text"`
	Filename string `json:"filename,omitempty"`
}

// TaxonomyHit is one nearest taxonomy definition from similarity search.
type TaxonomyHit struct {
	Name        string  `json:"name"`
	Kind        string  `json:"kind"` // "category" or "document_type"
	Description string  `json:"description,omitempty"`
	Score       float64 `json:"score"`
}

// DocumentHit is one previously classified document from similarity search.
type DocumentHit struct {
	Filename     string  `json:"filename"`
	Category     string  `json:"category"`
	DocumentType string  `json:"document_type"`
	Excerpt      string  `json:"excerpt,omitempty"`
	Score        float64 `json:"score"`
}

// ContextBundle is the retrieval context for one request, immutable
// once returned. Both slices are ranked by descending similarity and
// may be empty when the search service is unavailable.
type ContextBundle struct {
	TaxonomyHits []TaxonomyHit `json:"taxonomy_hits"`
	DocumentHits []DocumentHit `json:"document_hits"`
}

func (b ContextBundle) Empty() bool {
	return len(b.TaxonomyHits) == 0 && len(b.DocumentHits) == 0
}

// NearestDocument returns the top-ranked prior document, if any.
func (b ContextBundle) NearestDocument() (DocumentHit, bool) {
	if len(b.DocumentHits) == 0 {
		return DocumentHit{}, false
	}
	return b.DocumentHits[0], true
}

// RunnerUpCategory returns the highest-ranked category hit whose name
// differs from chosen. Used for the validator margin.
func (b ContextBundle) RunnerUpCategory(chosen string) (TaxonomyHit, bool) {
	for _, hit := range b.TaxonomyHits {
		if hit.Kind == "category" && hit.Name != chosen {
			return hit, true
		}
	}
	return TaxonomyHit{}, false
}

// Label is a parsed (category, document type) pair. Both names are
// always registry members; the engine never emits free-text labels.
type Label struct {
	Category     string `json:"category"`
	DocumentType string `json:"document_type"`
}

// CascadeAttempt records one invoked tier. Exactly one attempt per
// request succeeds, and it is always the last one.
type CascadeAttempt struct {
	Tier      Tier   `json:"tier"`
	RawOutput string `json:"raw_output,omitempty"`
	Parsed    *Label `json:"parsed,omitempty"`
	Succeeded bool   `json:"succeeded"`
	ErrorKind string `json:"error_kind,omitempty"`
}

// ValidationScore is the zero-shot entailment cross-check for the
// chosen category plus the runner-up margin.
type ValidationScore struct {
	Entailment         float64 `json:"entailment"`
	RunnerUpEntailment float64 `json:"runner_up_entailment"`
	RunnerUpCategory   string  `json:"runner_up_category,omitempty"`
	Degraded           bool    `json:"degraded"`
}

// Margin is how far the chosen category leads the runner-up.
func (v ValidationScore) Margin() float64 {
	return v.Entailment - v.RunnerUpEntailment
}

// ClassificationResult is the final output, immutable once produced.
type ClassificationResult struct {
	Category        string  `json:"category"`
	DocumentType    string  `json:"document_type"`
	ConfidenceScore float64 `json:"confidence_score"`
	TierUsed        Tier    `json:"tier_used"`
	NeedsReview     bool    `json:"needs_review"`
	Rationale       string  `json:"rationale"`
}

// AuditRecord is the append-only trail written once per request.
type AuditRecord struct {
	ID                string           `json:"id"`
	Filename          string           `json:"filename,omitempty"`
	TextExcerpt       string           `json:"text_excerpt,omitempty"`
	Category          string           `json:"category"`
	DocumentType      string           `json:"document_type"`
	ConfidenceScore   float64          `json:"confidence_score"`
	TierUsed          Tier             `json:"tier_used"`
	NeedsReview       bool             `json:"needs_review"`
	Entailment        float64          `json:"entailment"`
	ValidatorDegraded bool             `json:"validator_degraded"`
	ContextEmpty      bool             `json:"context_empty"`
	Attempts          []CascadeAttempt `json:"attempts"`
	CreatedAt         time.Time        `json:"created_at"`
}
