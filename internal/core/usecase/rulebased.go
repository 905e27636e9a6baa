package usecase

import (
	"strings"

	"github.com/asorokin/legal-doc-classifier/internal/core/domain"
	"github.com/asorokin/legal-doc-classifier/internal/core/taxonomy"
)

// RuleMatcher is the terminal cascade tier: deterministic keyword
// scoring over the registry definitions. It always produces a label,
// so the cascade is guaranteed to reach DONE.
type RuleMatcher struct {
	registry *taxonomy.Registry
}

func NewRuleMatcher(registry *taxonomy.Registry) *RuleMatcher {
	return &RuleMatcher{registry: registry}
}

// Match scores every category and document type by keyword occurrences
// in the text, with the filename as an advisory signal. Ties resolve
// in registry order, which keeps the matcher idempotent for a fixed
// input. Falls back to the registry defaults when nothing matches.
func (m *RuleMatcher) Match(text, filename string) domain.Label {
	haystack := strings.ToLower(text)
	nameHint := strings.ToLower(filename)

	category := m.registry.DefaultCategory().Name
	bestCategoryScore := 0
	for _, c := range m.registry.Categories() {
		score := keywordScore(haystack, nameHint, c.Keywords)
		if score > bestCategoryScore {
			bestCategoryScore = score
			category = c.Name
		}
	}

	docType := m.registry.DefaultDocumentType().Name
	bestTypeScore := 0
	for _, t := range m.registry.DocumentTypes() {
		score := keywordScore(haystack, nameHint, t.Keywords)
		if score > bestTypeScore {
			bestTypeScore = score
			docType = t.Name
		}
	}

	return domain.Label{Category: category, DocumentType: docType}
}

// keywordScore counts distinct matched keywords. A multi-word keyword
// counts double: phrases like "notice to appear" carry more signal
// than single tokens. Filename matches count once on top.
func keywordScore(text, filename string, keywords []string) int {
	score := 0
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if containsKeyword(text, kw) {
			if strings.ContainsRune(kw, ' ') {
				score += 2
			} else {
				score++
			}
		} else if filename != "" && containsKeyword(filename, kw) {
			score++
		}
	}
	return score
}

// containsKeyword matches on word boundaries so that short keywords
// like "ice" or "cat" do not fire inside "notice" or "certificate".
func containsKeyword(text, kw string) bool {
	for start := 0; ; {
		idx := strings.Index(text[start:], kw)
		if idx < 0 {
			return false
		}
		idx += start
		end := idx + len(kw)
		if boundaryAt(text, idx-1) && boundaryAt(text, end) {
			return true
		}
		start = idx + 1
	}
}

func boundaryAt(text string, idx int) bool {
	if idx < 0 || idx >= len(text) {
		return true
	}
	c := text[idx]
	return !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9')
}
