package ports

import (
	"context"

	"github.com/asorokin/legal-doc-classifier/internal/core/domain"
)

// DocumentClassifier is the single public operation of the engine.
// It only ever fails with domain.ErrEmptyInput; every other failure
// mode is absorbed by cascade fallback.
type DocumentClassifier interface {
	Classify(ctx context.Context, text, filename string) (domain.ClassificationResult, error)
}

// TaxonomySeeder populates the taxonomy similarity-search space from
// the registry definitions.
type TaxonomySeeder interface {
	SeedTaxonomy(ctx context.Context) error
}
