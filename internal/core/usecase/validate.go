package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/asorokin/legal-doc-classifier/internal/core/domain"
	"github.com/asorokin/legal-doc-classifier/internal/core/ports"
	"github.com/asorokin/legal-doc-classifier/internal/core/taxonomy"
)

// validationPremiseLimit bounds the premise passed to the entailment
// model.
const validationPremiseLimit = 1000

// neutralEntailment is used when the validator is unavailable: the
// confidence blend proceeds as if the validator had no opinion.
const neutralEntailment = 0.5

// Validator cross-checks the cascade's chosen category with a
// zero-shot entailment model. It runs once per request regardless of
// which tier produced the label, and never overrides the choice.
type Validator struct {
	scorer   ports.EntailmentScorer
	registry *taxonomy.Registry
	timeout  time.Duration
}

func NewValidator(scorer ports.EntailmentScorer, registry *taxonomy.Registry, timeout time.Duration) *Validator {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Validator{scorer: scorer, registry: registry, timeout: timeout}
}

// Validate scores entailment of the chosen category and of the
// runner-up category from the same bundle. Best-effort: on validator
// failure both scores degrade to neutral and the record is flagged.
func (v *Validator) Validate(ctx context.Context, text, chosenCategory string, bundle domain.ContextBundle) domain.ValidationScore {
	premise := truncate(text, validationPremiseLimit)

	entailCtx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	chosen, ok := v.registry.LookupCategory(chosenCategory)
	if !ok {
		// Cascade output is always a registry member; treat a miss
		// here as a validator degradation rather than a failure.
		return domain.ValidationScore{Entailment: neutralEntailment, RunnerUpEntailment: neutralEntailment, Degraded: true}
	}

	entailment, err := v.scorer.Entail(entailCtx, premise, hypothesisFor(chosen))
	if err != nil {
		slog.Warn("validator_degraded", "category", chosenCategory, "error", err)
		return domain.ValidationScore{Entailment: neutralEntailment, RunnerUpEntailment: neutralEntailment, Degraded: true}
	}

	score := domain.ValidationScore{Entailment: entailment}

	runnerUp, ok := bundle.RunnerUpCategory(chosen.Name)
	if !ok {
		return score
	}
	score.RunnerUpCategory = runnerUp.Name

	if cat, found := v.registry.LookupCategory(runnerUp.Name); found {
		runnerUpEntailment, err := v.scorer.Entail(entailCtx, premise, hypothesisFor(cat))
		if err != nil {
			slog.Warn("runner_up_entailment_skipped", "category", runnerUp.Name, "error", err)
			return score
		}
		score.RunnerUpEntailment = runnerUpEntailment
	}
	return score
}

func hypothesisFor(c domain.Category) string {
	return c.Description
}
