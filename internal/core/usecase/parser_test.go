package usecase

import (
	"testing"

	"github.com/asorokin/legal-doc-classifier/internal/core/taxonomy"
)

func newTestParser(t *testing.T) *OutputParser {
	t.Helper()
	reg, err := taxonomy.Load()
	if err != nil {
		t.Fatalf("taxonomy.Load() error = %v", err)
	}
	return NewOutputParser(reg)
}

func TestParseMandatedGrammar(t *testing.T) {
	parser := newTestParser(t)

	cases := []struct {
		name     string
		raw      string
		category string
		docType  string
	}{
		{
			name:     "exact format",
			raw:      "Category: Asylum & Refugee; Type: Official Form/Application",
			category: "Asylum & Refugee",
			docType:  "Official Form/Application",
		},
		{
			name:     "case insensitive with noise",
			raw:      "Sure. category:  FAMILY-SPONSORED IMMIGRATION ;  type: uscis receipt notice.",
			category: "Family-Sponsored Immigration",
			docType:  "USCIS Receipt Notice",
		},
		{
			name:     "newline separated",
			raw:      "Category: Criminal Appeals\nType: Appellate Brief is wrong but this line: Notice of Appeal",
			category: "Criminal Appeals",
			docType:  "",
		},
		{
			name:     "type name containing period",
			raw:      "Category: Immigration Appeals & Motions; Type: Misc. Reference Material",
			category: "Immigration Appeals & Motions",
			docType:  "Misc. Reference Material",
		},
		{
			name:     "document type label variant",
			raw:      "Category: Removal & Deportation Defense; Document Type: Notice to Appear (NTA)",
			category: "Removal & Deportation Defense",
			docType:  "Notice to Appear (NTA)",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			outcome := parser.Parse(tc.raw)
			if tc.docType == "" {
				if outcome.OK() {
					t.Fatalf("expected parse failure, got %+v", outcome.Label)
				}
				return
			}
			if !outcome.OK() {
				t.Fatalf("expected success, got failure: %s", outcome.Reason)
			}
			if outcome.Label.Category != tc.category {
				t.Fatalf("category = %q, want %q", outcome.Label.Category, tc.category)
			}
			if outcome.Label.DocumentType != tc.docType {
				t.Fatalf("document type = %q, want %q", outcome.Label.DocumentType, tc.docType)
			}
		})
	}
}

func TestParseFailures(t *testing.T) {
	parser := newTestParser(t)

	cases := []struct {
		name string
		raw  string
	}{
		{name: "empty output", raw: "   "},
		{name: "missing type token", raw: "Category: Asylum & Refugee"},
		{name: "unknown category", raw: "Category: Maritime Law; Type: Affidavit"},
		{name: "unknown document type", raw: "Category: Asylum & Refugee; Type: Ship Manifest"},
		{name: "free text", raw: "This document appears to be an asylum application."},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			outcome := parser.Parse(tc.raw)
			if outcome.OK() {
				t.Fatalf("expected failure, got %+v", outcome.Label)
			}
			if outcome.Reason == "" {
				t.Fatalf("parse failure must carry a reason")
			}
		})
	}
}

func TestParseNeverRepairsNearMiss(t *testing.T) {
	parser := newTestParser(t)

	// "Asylum" is a prefix of a registry name; exactness is required.
	outcome := parser.Parse("Category: Asylum; Type: Affidavit")
	if outcome.OK() {
		t.Fatalf("near-miss category must not be repaired, got %+v", outcome.Label)
	}
}
