package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/asorokin/legal-doc-classifier/internal/core/domain"
	"github.com/asorokin/legal-doc-classifier/internal/core/ports"
)

// retrievalTextLimit bounds the text passed to the embedding model.
const retrievalTextLimit = 1000

// ContextRetriever builds the RAG context bundle for one request.
// A similarity-search outage degrades to an empty bundle; only the
// embedding of empty input fails the request.
type ContextRetriever struct {
	embedder ports.Embedder
	searcher ports.SimilaritySearcher

	taxonomyTopK int
	documentTopK int
}

func NewContextRetriever(embedder ports.Embedder, searcher ports.SimilaritySearcher, taxonomyTopK, documentTopK int) *ContextRetriever {
	if taxonomyTopK <= 0 {
		taxonomyTopK = 5
	}
	if documentTopK <= 0 {
		documentTopK = 3
	}
	return &ContextRetriever{
		embedder:     embedder,
		searcher:     searcher,
		taxonomyTopK: taxonomyTopK,
		documentTopK: documentTopK,
	}
}

// Retrieve embeds the document text and queries both similarity
// spaces. The returned vector is reused later to store the classified
// document for future retrieval context.
func (r *ContextRetriever) Retrieve(ctx context.Context, text string) (domain.ContextBundle, []float32, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return domain.ContextBundle{}, nil, domain.WrapError(domain.ErrEmptyInput, "embed document", errors.New("text is empty after trimming"))
	}

	vector, err := r.embedder.EmbedQuery(ctx, truncate(trimmed, retrievalTextLimit))
	if err != nil {
		// Embedding runs on an always-resident model; an outage here
		// still must not fail the request. The cascade can run
		// without RAG context at reduced confidence.
		slog.Warn("embedding_unavailable", "error", err)
		return domain.ContextBundle{}, nil, nil
	}

	var bundle domain.ContextBundle

	taxonomyHits, err := r.searcher.SearchTaxonomy(ctx, vector, r.taxonomyTopK)
	if err != nil {
		slog.Warn("taxonomy_search_degraded", "error", err)
	} else {
		bundle.TaxonomyHits = taxonomyHits
	}

	documentHits, err := r.searcher.SearchDocuments(ctx, vector, r.documentTopK)
	if err != nil {
		slog.Warn("document_search_degraded", "error", err)
	} else {
		bundle.DocumentHits = documentHits
	}

	return bundle, vector, nil
}
