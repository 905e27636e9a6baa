// Package taxonomy holds the closed classification taxonomy: the fixed
// set of categories and document types every emitted label must belong to.
package taxonomy

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/asorokin/legal-doc-classifier/internal/core/domain"
)

//go:embed taxonomy.yaml
var defaultDefinitions []byte

// Terminal defaults used when no rule matches anything at all.
const (
	defaultCategoryName     = "Immigration Appeals & Motions"
	defaultDocumentTypeName = "Misc. Reference Material"
)

type Registry struct {
	version    int
	categories []domain.Category
	types      []domain.DocumentType

	categoryIndex map[string]int
	typeIndex     map[string]int
}

type definitionsFile struct {
	Version    int `yaml:"version"`
	Categories []struct {
		Name        string   `yaml:"name"`
		Description string   `yaml:"description"`
		Keywords    []string `yaml:"keywords"`
	} `yaml:"categories"`
	DocumentTypes []struct {
		Name        string   `yaml:"name"`
		Description string   `yaml:"description"`
		Keywords    []string `yaml:"keywords"`
	} `yaml:"document_types"`
}

// Load parses the embedded taxonomy definitions.
func Load() (*Registry, error) {
	return Parse(defaultDefinitions)
}

func Parse(data []byte) (*Registry, error) {
	var file definitionsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse taxonomy definitions: %w", err)
	}
	if len(file.Categories) == 0 {
		return nil, fmt.Errorf("taxonomy definitions contain no categories")
	}
	if len(file.DocumentTypes) == 0 {
		return nil, fmt.Errorf("taxonomy definitions contain no document types")
	}

	reg := &Registry{
		version:       file.Version,
		categoryIndex: make(map[string]int, len(file.Categories)),
		typeIndex:     make(map[string]int, len(file.DocumentTypes)),
	}

	for _, c := range file.Categories {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return nil, fmt.Errorf("taxonomy category with empty name")
		}
		key := NormalizeName(name)
		if _, exists := reg.categoryIndex[key]; exists {
			return nil, fmt.Errorf("duplicate taxonomy category: %s", name)
		}
		reg.categoryIndex[key] = len(reg.categories)
		reg.categories = append(reg.categories, domain.Category{
			Name:        name,
			Description: c.Description,
			Keywords:    lowerAll(c.Keywords),
		})
	}

	for _, t := range file.DocumentTypes {
		name := strings.TrimSpace(t.Name)
		if name == "" {
			return nil, fmt.Errorf("taxonomy document type with empty name")
		}
		key := NormalizeName(name)
		if _, exists := reg.typeIndex[key]; exists {
			return nil, fmt.Errorf("duplicate taxonomy document type: %s", name)
		}
		reg.typeIndex[key] = len(reg.types)
		reg.types = append(reg.types, domain.DocumentType{
			Name:        name,
			Description: t.Description,
			Keywords:    lowerAll(t.Keywords),
		})
	}

	if _, ok := reg.LookupCategory(defaultCategoryName); !ok {
		return nil, fmt.Errorf("taxonomy missing default category %q", defaultCategoryName)
	}
	if _, ok := reg.LookupDocumentType(defaultDocumentTypeName); !ok {
		return nil, fmt.Errorf("taxonomy missing default document type %q", defaultDocumentTypeName)
	}
	return reg, nil
}

func (r *Registry) Version() int { return r.version }

func (r *Registry) Categories() []domain.Category { return r.categories }

func (r *Registry) DocumentTypes() []domain.DocumentType { return r.types }

// LookupCategory resolves a name case-insensitively, tolerating extra
// whitespace and surrounding punctuation. It never maps to a
// nearest-looking entry: anything beyond normalization is a miss.
func (r *Registry) LookupCategory(name string) (domain.Category, bool) {
	idx, ok := r.categoryIndex[NormalizeName(name)]
	if !ok {
		return domain.Category{}, false
	}
	return r.categories[idx], true
}

func (r *Registry) LookupDocumentType(name string) (domain.DocumentType, bool) {
	idx, ok := r.typeIndex[NormalizeName(name)]
	if !ok {
		return domain.DocumentType{}, false
	}
	return r.types[idx], true
}

func (r *Registry) DefaultCategory() domain.Category {
	c, _ := r.LookupCategory(defaultCategoryName)
	return c
}

func (r *Registry) DefaultDocumentType() domain.DocumentType {
	t, _ := r.LookupDocumentType(defaultDocumentTypeName)
	return t
}

// CategoryDefinitionText is the text embedded for a category when
// seeding the taxonomy search space.
func CategoryDefinitionText(c domain.Category) string {
	return fmt.Sprintf("%s: %s Keywords: %s", c.Name, c.Description, strings.Join(c.Keywords, ", "))
}

func DocumentTypeDefinitionText(t domain.DocumentType) string {
	return fmt.Sprintf("%s: %s", t.Name, t.Description)
}

// NormalizeName lowercases, collapses internal whitespace and strips
// surrounding punctuation so that "  Asylum &  Refugee." matches
// "Asylum & Refugee".
func NormalizeName(name string) string {
	s := strings.TrimSpace(strings.ToLower(name))
	s = strings.Trim(s, `"'.,;: []()`)
	return strings.Join(strings.Fields(s), " ")
}

func lowerAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
