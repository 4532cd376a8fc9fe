package domain

import (
	"strings"
	"testing"
)

const sampleTaxonomyYAML = `
version: 2
categories:
  - name: fraud
    keywords:
      - keyword: ponzi
        weight: 80
      - keyword: advance fee
        weight: 60
  - name: gambling
    keywords:
      - keyword: casino
        weight: 55
`

func TestParseTaxonomy(t *testing.T) {
	taxonomy, err := ParseTaxonomy(strings.NewReader(sampleTaxonomyYAML))
	if err != nil {
		t.Fatalf("ParseTaxonomy() error = %v", err)
	}
	if taxonomy.Version != 2 {
		t.Errorf("Version = %d, want 2", taxonomy.Version)
	}
	if len(taxonomy.Categories) != 2 {
		t.Fatalf("got %d categories, want 2", len(taxonomy.Categories))
	}
	// Declaration order is preserved: it decides score ties.
	if taxonomy.Categories[0].Name != CategoryFraud || taxonomy.Categories[1].Name != CategoryGambling {
		t.Errorf("category order = %s, %s", taxonomy.Categories[0].Name, taxonomy.Categories[1].Name)
	}
	if taxonomy.Categories[0].Keywords[1].Keyword != "advance fee" {
		t.Errorf("keyword order not preserved: %+v", taxonomy.Categories[0].Keywords)
	}
}

func TestParseTaxonomy_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "weight above 100",
			yaml: "version: 1\ncategories:\n  - name: fraud\n    keywords:\n      - keyword: scam\n        weight: 150\n",
		},
		{
			name: "weight zero",
			yaml: "version: 1\ncategories:\n  - name: fraud\n    keywords:\n      - keyword: scam\n        weight: 0\n",
		},
		{
			name: "empty keyword",
			yaml: "version: 1\ncategories:\n  - name: fraud\n    keywords:\n      - keyword: \"  \"\n        weight: 10\n",
		},
		{
			name: "reserved category none",
			yaml: "version: 1\ncategories:\n  - name: none\n    keywords:\n      - keyword: scam\n        weight: 10\n",
		},
		{
			name: "duplicate category",
			yaml: "version: 1\ncategories:\n  - name: fraud\n    keywords:\n      - keyword: scam\n        weight: 10\n  - name: fraud\n    keywords:\n      - keyword: loan\n        weight: 10\n",
		},
		{
			name: "no categories",
			yaml: "version: 1\ncategories: []\n",
		},
		{
			name: "not yaml",
			yaml: "{{{",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseTaxonomy(strings.NewReader(tt.yaml)); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestDefaultTaxonomy(t *testing.T) {
	taxonomy := DefaultTaxonomy()
	if err := taxonomy.Validate(); err != nil {
		t.Fatalf("default taxonomy invalid: %v", err)
	}
	if taxonomy.Categories[0].Name != CategoryFraud {
		t.Errorf("first category = %s, want fraud", taxonomy.Categories[0].Name)
	}
}

func TestRecommendedAction(t *testing.T) {
	tests := []struct {
		category RiskCategory
		want     string
	}{
		{CategoryFraud, "Report to Cyber Cell"},
		{CategoryGambling, "Escalate for legal action"},
		{CategoryProstitution, "Escalate for legal action"},
		{CategoryFakeHotel, "Report to Tourism Dept"},
		{CategoryNone, "No action"},
		{"unknown", "No action"},
	}
	for _, tt := range tests {
		if got := RecommendedAction(tt.category); got != tt.want {
			t.Errorf("RecommendedAction(%s) = %q, want %q", tt.category, got, tt.want)
		}
	}
}

func TestLevelForScore(t *testing.T) {
	tests := []struct {
		score int
		want  RiskLevel
	}{
		{0, RiskLevelLow},
		{39, RiskLevelLow},
		{40, RiskLevelMedium},
		{69, RiskLevelMedium},
		{70, RiskLevelHigh},
		{100, RiskLevelHigh},
	}
	for _, tt := range tests {
		if got := LevelForScore(tt.score); got != tt.want {
			t.Errorf("LevelForScore(%d) = %s, want %s", tt.score, got, tt.want)
		}
	}
}
