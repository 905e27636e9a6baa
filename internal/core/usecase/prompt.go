package usecase

import (
	"fmt"
	"strings"

	"github.com/asorokin/legal-doc-classifier/internal/core/domain"
	"github.com/asorokin/legal-doc-classifier/internal/core/taxonomy"
)

const (
	promptTextLimit    = 2500
	promptExcerptLimit = 200
	promptTaxonomyHits = 3
	promptDocumentHits = 2
)

// fewShotExemplar is one fixed curated classification example embedded
// into every generative prompt.
type fewShotExemplar struct {
	Text         string
	Category     string
	DocumentType string
}

var fewShotExemplars = []fewShotExemplar{
	{
		Text:         "USCIS Receipt Notice I-797C for Form I-130 Petition for Alien Relative filed for spouse",
		Category:     "Family-Sponsored Immigration",
		DocumentType: "USCIS Receipt Notice",
	},
	{
		Text:         "Notice to Appear charging removability under section 237(a)(1)(A) for overstaying authorized period",
		Category:     "Removal & Deportation Defense",
		DocumentType: "Notice to Appear (NTA)",
	},
	{
		Text:         "Application for Asylum and for Withholding of Removal based on political persecution",
		Category:     "Asylum & Refugee",
		DocumentType: "Official Form/Application",
	},
	{
		Text:         "Criminal Complaint charging defendant with aggravated assault in the first degree",
		Category:     "Criminal Defense (Pretrial & Trial)",
		DocumentType: "Criminal Complaint/Indictment",
	},
	{
		Text:         "Motion for Bond Redetermination in Immigration Court proceedings",
		Category:     "Immigration Detention & Bonds",
		DocumentType: "Motion (Court Filing)",
	},
	{
		Text:         "I-601 Application for Waiver of Grounds of Inadmissibility based on extreme hardship",
		Category:     "Waivers of Inadmissibility",
		DocumentType: "Official Form/Application",
	},
	{
		Text:         "Birth Certificate from Mexico with certified English translation for immigration purposes",
		Category:     "Family-Sponsored Immigration",
		DocumentType: "ID or Civil Document",
	},
}

// PromptBuilder renders the instruction prompt for a generative tier.
// Deterministic function of (text, bundle, fixed exemplars); no side
// effects, snapshot-testable.
type PromptBuilder struct {
	registry *taxonomy.Registry
}

func NewPromptBuilder(registry *taxonomy.Registry) *PromptBuilder {
	return &PromptBuilder{registry: registry}
}

func (p *PromptBuilder) Build(req domain.ClassificationRequest, bundle domain.ContextBundle) string {
	var b strings.Builder

	b.WriteString("You are an expert legal document classifier for a U.S. immigration and criminal law practice.\n")
	b.WriteString("Classify the document below into exactly one category and one document type from the closed lists.\n")
	b.WriteString("Answer with a single line in exactly this format: Category: <category name>; Type: <document type name>\n\n")

	b.WriteString("DOCUMENT:\n")
	if req.Filename != "" {
		fmt.Fprintf(&b, "Filename: %s\n", req.Filename)
	}
	fmt.Fprintf(&b, "Text: %s\n\n", truncate(req.Text, promptTextLimit))

	p.writeContext(&b, bundle)
	p.writeExemplars(&b)
	p.writeTaxonomy(&b)

	b.WriteString("Respond with one line only: Category: <category name>; Type: <document type name>\n")
	return b.String()
}

func (p *PromptBuilder) writeContext(b *strings.Builder, bundle domain.ContextBundle) {
	if bundle.Empty() {
		b.WriteString("RETRIEVAL CONTEXT: none available.\n\n")
		return
	}

	b.WriteString("RETRIEVAL CONTEXT (nearest taxonomy definitions):\n")
	for i, hit := range bundle.TaxonomyHits {
		if i >= promptTaxonomyHits {
			break
		}
		fmt.Fprintf(b, "%d. [%s] %s (similarity %.3f): %s\n", i+1, hit.Kind, hit.Name, hit.Score, truncate(hit.Description, promptExcerptLimit))
	}

	if len(bundle.DocumentHits) > 0 {
		b.WriteString("\nPREVIOUSLY CLASSIFIED SIMILAR DOCUMENTS:\n")
		for i, hit := range bundle.DocumentHits {
			if i >= promptDocumentHits {
				break
			}
			fmt.Fprintf(b, "%d. %s (similarity %.3f) -> Category: %s; Type: %s\n", i+1, hit.Filename, hit.Score, hit.Category, hit.DocumentType)
		}
	}
	b.WriteString("\n")
}

func (p *PromptBuilder) writeExemplars(b *strings.Builder) {
	b.WriteString("EXAMPLES:\n")
	for _, ex := range fewShotExemplars {
		fmt.Fprintf(b, "Text: %s\nCategory: %s; Type: %s\n\n", ex.Text, ex.Category, ex.DocumentType)
	}
}

func (p *PromptBuilder) writeTaxonomy(b *strings.Builder) {
	b.WriteString("CATEGORIES (choose exactly one):\n")
	for _, c := range p.registry.Categories() {
		fmt.Fprintf(b, "- %s\n", c.Name)
	}
	b.WriteString("\nDOCUMENT TYPES (choose exactly one):\n")
	for _, t := range p.registry.DocumentTypes() {
		fmt.Fprintf(b, "- %s\n", t.Name)
	}
	b.WriteString("\n")
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
