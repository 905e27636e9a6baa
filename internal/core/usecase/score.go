package usecase

import "github.com/asorokin/legal-doc-classifier/internal/core/domain"

// ScoringConfig carries the tunable confidence policy. The defaults
// mirror the production calibration but every number is configuration,
// not law.
type ScoringConfig struct {
	// BlendBaseWeight and BlendEntailmentWeight combine the tier base
	// score with the validator entailment probability.
	BlendBaseWeight       float64
	BlendEntailmentWeight float64

	// RetrievalAgreementBonus is the maximum adjustment (either sign)
	// from nearest-document label agreement.
	RetrievalAgreementBonus float64

	// ReviewThreshold flags results below it for human review.
	ReviewThreshold float64

	// EntailmentFloor flags results whose entailment falls below it.
	EntailmentFloor float64
}

func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		BlendBaseWeight:         0.7,
		BlendEntailmentWeight:   0.3,
		RetrievalAgreementBonus: 0.05,
		ReviewThreshold:         0.5,
		EntailmentFloor:         0.3,
	}
}

// ScoreInputs are the already-computed scalars the scorer consumes.
// RetrievalAgreement is in [-1, 1]: the similarity of the nearest
// prior document, signed by whether its label matches the chosen
// category; 0 when no prior document was retrieved.
type ScoreInputs struct {
	Tier               domain.Tier
	RetrievalAgreement float64
	Entailment         float64
}

// ComputeConfidence is a pure function of its inputs: base score by
// tier, adjusted by retrieval agreement, blended with entailment,
// clamped to [0, 1]. Returns the final confidence and the review flag.
func ComputeConfidence(in ScoreInputs, cfg ScoringConfig) (float64, bool) {
	base := domain.TierBaseScore(in.Tier)

	agreement := clamp(in.RetrievalAgreement, -1, 1)
	base += agreement * cfg.RetrievalAgreementBonus

	final := cfg.BlendBaseWeight*base + cfg.BlendEntailmentWeight*in.Entailment
	final = clamp(final, 0, 1)

	needsReview := final < cfg.ReviewThreshold ||
		in.Entailment < cfg.EntailmentFloor ||
		in.Tier == domain.TierRuleBased

	return final, needsReview
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
