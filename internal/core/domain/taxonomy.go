package domain

// Category is one entry of the closed classification taxonomy.
// Loaded once at process start; never mutated afterwards.
type Category struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Keywords    []string  `json:"keywords,omitempty"`
	Embedding   []float32 `json:"-"`
}

// DocumentType mirrors Category in a disjoint namespace.
type DocumentType struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Keywords    []string  `json:"keywords,omitempty"`
	Embedding   []float32 `json:"-"`
}

type Tier string

const (
	TierPrimary   Tier = "primary"
	TierFallback  Tier = "fallback"
	TierRuleBased Tier = "rule_based"
)

// NextTier returns the fallback successor of a tier. The rule-based
// tier is terminal and has no successor.
func NextTier(t Tier) (Tier, bool) {
	switch t {
	case TierPrimary:
		return TierFallback, true
	case TierFallback:
		return TierRuleBased, true
	default:
		return "", false
	}
}

// TierBaseScore is the trust placed in a tier before any evidence
// adjustment. Rule-based output is never fully trusted.
func TierBaseScore(t Tier) float64 {
	switch t {
	case TierPrimary:
		return 0.9
	case TierFallback:
		return 0.7
	default:
		return 0.4
	}
}
