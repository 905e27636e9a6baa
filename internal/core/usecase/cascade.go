package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/asorokin/legal-doc-classifier/internal/core/domain"
	"github.com/asorokin/legal-doc-classifier/internal/core/ports"
)

// CascadeState is the explicit state of the tier fallback machine.
type CascadeState string

const (
	StatePrimary   CascadeState = "primary"
	StateFallback  CascadeState = "fallback"
	StateRuleBased CascadeState = "rule_based"
	StateDone      CascadeState = "done"
)

// cascadeTransitions is the failure-edge transition table: where the
// machine goes when the current tier raises a resource error, times
// out, or produces unparseable output. Success always goes to DONE.
var cascadeTransitions = map[CascadeState]CascadeState{
	StatePrimary:   StateFallback,
	StateFallback:  StateRuleBased,
	StateRuleBased: StateDone,
}

func stateTier(s CascadeState) domain.Tier {
	switch s {
	case StatePrimary:
		return domain.TierPrimary
	case StateFallback:
		return domain.TierFallback
	default:
		return domain.TierRuleBased
	}
}

// Cascade runs the ordered tier sequence for one request. Tiers are
// strictly sequential: each generative tier holds the exclusive model
// lease for the duration of its single attempt and releases it before
// the next tier runs.
type Cascade struct {
	pool    ports.ModelPool
	prompts *PromptBuilder
	parser  *OutputParser
	rules   *RuleMatcher

	generateTimeout time.Duration
}

func NewCascade(pool ports.ModelPool, prompts *PromptBuilder, parser *OutputParser, rules *RuleMatcher, generateTimeout time.Duration) *Cascade {
	if generateTimeout <= 0 {
		generateTimeout = 45 * time.Second
	}
	return &Cascade{
		pool:            pool,
		prompts:         prompts,
		parser:          parser,
		rules:           rules,
		generateTimeout: generateTimeout,
	}
}

// Run drives the state machine to DONE and returns one attempt per
// invoked tier. The last attempt always has Succeeded == true: the
// rule-based tier cannot fail.
func (c *Cascade) Run(ctx context.Context, req domain.ClassificationRequest, bundle domain.ContextBundle) []domain.CascadeAttempt {
	prompt := c.prompts.Build(req, bundle)

	attempts := make([]domain.CascadeAttempt, 0, 3)
	state := StatePrimary
	for state != StateDone {
		var attempt domain.CascadeAttempt
		if state == StateRuleBased {
			attempt = c.runRuleTier(req)
		} else {
			attempt = c.runGenerativeTier(ctx, stateTier(state), prompt)
		}
		attempts = append(attempts, attempt)

		if attempt.Succeeded {
			state = StateDone
			continue
		}
		slog.Info("cascade_fallback",
			"tier", attempt.Tier,
			"error_kind", attempt.ErrorKind,
			"filename", req.Filename,
		)
		state = cascadeTransitions[state]
	}
	return attempts
}

// runGenerativeTier performs one attempt on a generative tier: acquire
// the lease, generate with an explicit timeout, parse, release. A
// timeout is treated identically to a resource error; the same tier is
// never retried.
func (c *Cascade) runGenerativeTier(ctx context.Context, tier domain.Tier, prompt string) domain.CascadeAttempt {
	attempt := domain.CascadeAttempt{Tier: tier}

	lease, err := c.pool.Acquire(ctx, tier)
	if err != nil {
		attempt.ErrorKind = domain.TierErrorKind(domain.WrapError(domain.ErrModelUnavailable, "acquire model", err))
		return attempt
	}
	defer lease.Release()

	genCtx, cancel := context.WithTimeout(ctx, c.generateTimeout)
	defer cancel()

	raw, err := lease.Generate(genCtx, prompt)
	if err != nil {
		attempt.ErrorKind = domain.TierErrorKind(classifyGenerateError(err))
		return attempt
	}
	attempt.RawOutput = raw

	outcome := c.parser.Parse(raw)
	if !outcome.OK() {
		attempt.ErrorKind = domain.TierErrorKind(domain.WrapError(domain.ErrMalformedOutput, "parse output", errors.New(outcome.Reason)))
		return attempt
	}

	attempt.Parsed = outcome.Label
	attempt.Succeeded = true
	return attempt
}

func (c *Cascade) runRuleTier(req domain.ClassificationRequest) domain.CascadeAttempt {
	label := c.rules.Match(req.Text, req.Filename)
	return domain.CascadeAttempt{
		Tier:      domain.TierRuleBased,
		Parsed:    &label,
		Succeeded: true,
	}
}

func classifyGenerateError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.WrapError(domain.ErrInferenceTimeout, "generate", err)
	}
	if domain.IsKind(err, domain.ErrInferenceTimeout) || domain.IsKind(err, domain.ErrModelUnavailable) {
		return err
	}
	return domain.WrapError(domain.ErrModelUnavailable, "generate", err)
}
