package usecase

import (
	"regexp"
	"strings"

	"github.com/asorokin/legal-doc-classifier/internal/core/domain"
	"github.com/asorokin/legal-doc-classifier/internal/core/taxonomy"
)

// labelPattern matches the mandated output grammar
// "Category: <name>; Type: <name>", case-insensitive, tolerant of
// extra whitespace and trailing punctuation around the tokens.
var labelPattern = regexp.MustCompile(`(?is)category\s*:\s*(.+?)\s*[;,\n]\s*(?:document\s+)?type\s*:\s*(.+?)\s*(?:[;\n]|$)`)

// ParseOutcome is the result type of the output parser. A failure is
// an expected condition that drives cascade fallback, not an error.
type ParseOutcome struct {
	Label  *domain.Label
	Reason string
}

func (o ParseOutcome) OK() bool { return o.Label != nil }

func parseFailure(reason string) ParseOutcome {
	return ParseOutcome{Reason: reason}
}

// OutputParser extracts a (category, document type) pair from raw
// generative output and validates both names against the registry.
// It never repairs an unknown name to the nearest-looking entry:
// exactness keeps the taxonomy closed.
type OutputParser struct {
	registry *taxonomy.Registry
}

func NewOutputParser(registry *taxonomy.Registry) *OutputParser {
	return &OutputParser{registry: registry}
}

func (p *OutputParser) Parse(raw string) ParseOutcome {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return parseFailure("empty output")
	}

	m := labelPattern.FindStringSubmatch(trimmed)
	if m == nil {
		return parseFailure("output does not match 'Category: <name>; Type: <name>'")
	}

	category, ok := p.registry.LookupCategory(m[1])
	if !ok {
		return parseFailure("category not in registry: " + strings.TrimSpace(m[1]))
	}
	docType, ok := p.registry.LookupDocumentType(m[2])
	if !ok {
		return parseFailure("document type not in registry: " + strings.TrimSpace(m[2]))
	}

	return ParseOutcome{Label: &domain.Label{
		Category:     category.Name,
		DocumentType: docType.Name,
	}}
}
