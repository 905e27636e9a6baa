package usecase

import (
	"context"
	"fmt"

	"github.com/asorokin/legal-doc-classifier/internal/core/ports"
	"github.com/asorokin/legal-doc-classifier/internal/core/taxonomy"
)

// SeedTaxonomyUseCase embeds every registry definition and upserts it
// into the taxonomy similarity-search space. Run once per registry
// version; upserts are idempotent.
type SeedTaxonomyUseCase struct {
	registry *taxonomy.Registry
	embedder ports.Embedder
	searcher ports.SimilaritySearcher
}

func NewSeedTaxonomyUseCase(registry *taxonomy.Registry, embedder ports.Embedder, searcher ports.SimilaritySearcher) *SeedTaxonomyUseCase {
	return &SeedTaxonomyUseCase{registry: registry, embedder: embedder, searcher: searcher}
}

func (uc *SeedTaxonomyUseCase) SeedTaxonomy(ctx context.Context) error {
	entries := make([]ports.TaxonomyEntry, 0, len(uc.registry.Categories())+len(uc.registry.DocumentTypes()))

	for _, c := range uc.registry.Categories() {
		vector, err := uc.embedder.EmbedQuery(ctx, taxonomy.CategoryDefinitionText(c))
		if err != nil {
			return fmt.Errorf("embed category %q: %w", c.Name, err)
		}
		entries = append(entries, ports.TaxonomyEntry{
			Name:        c.Name,
			Kind:        "category",
			Description: c.Description,
			Vector:      vector,
		})
	}

	for _, t := range uc.registry.DocumentTypes() {
		vector, err := uc.embedder.EmbedQuery(ctx, taxonomy.DocumentTypeDefinitionText(t))
		if err != nil {
			return fmt.Errorf("embed document type %q: %w", t.Name, err)
		}
		entries = append(entries, ports.TaxonomyEntry{
			Name:        t.Name,
			Kind:        "document_type",
			Description: t.Description,
			Vector:      vector,
		})
	}

	if err := uc.searcher.UpsertTaxonomy(ctx, entries); err != nil {
		return fmt.Errorf("upsert taxonomy entries: %w", err)
	}
	return nil
}
