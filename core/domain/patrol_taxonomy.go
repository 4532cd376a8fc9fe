package domain

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// KeywordEntry is one weighted keyword inside a taxonomy category.
type KeywordEntry struct {
	Keyword string `yaml:"keyword" json:"keyword"`
	Weight  int    `yaml:"weight" json:"weight"`
}

// TaxonomyCategory is an ordered list of weighted keywords. Declaration
// order of categories is significant: it breaks score ties.
type TaxonomyCategory struct {
	Name     RiskCategory   `yaml:"name" json:"name"`
	Keywords []KeywordEntry `yaml:"keywords" json:"keywords"`
}

// Taxonomy is the keyword/weight configuration of the risk scorer.
// Loaded once at startup and read-only afterwards.
type Taxonomy struct {
	Version    int                `yaml:"version" json:"version"`
	Categories []TaxonomyCategory `yaml:"categories" json:"categories"`
}

// Validate checks weights are in [1,100] and keywords are non-empty.
func (t *Taxonomy) Validate() error {
	if len(t.Categories) == 0 {
		return fmt.Errorf("taxonomy: no categories defined")
	}
	seen := make(map[RiskCategory]bool, len(t.Categories))
	for _, cat := range t.Categories {
		if cat.Name == "" || cat.Name == CategoryNone {
			return fmt.Errorf("taxonomy: invalid category name %q", cat.Name)
		}
		if seen[cat.Name] {
			return fmt.Errorf("taxonomy: duplicate category %q", cat.Name)
		}
		seen[cat.Name] = true
		for _, kw := range cat.Keywords {
			if strings.TrimSpace(kw.Keyword) == "" {
				return fmt.Errorf("taxonomy: empty keyword in category %q", cat.Name)
			}
			if kw.Weight < 1 || kw.Weight > 100 {
				return fmt.Errorf("taxonomy: keyword %q weight %d out of range [1,100]", kw.Keyword, kw.Weight)
			}
		}
	}
	return nil
}

// ParseTaxonomy reads a YAML taxonomy document.
func ParseTaxonomy(r io.Reader) (*Taxonomy, error) {
	var t Taxonomy
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&t); err != nil {
		return nil, fmt.Errorf("taxonomy: decode: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// LoadTaxonomy loads a taxonomy from a YAML file, falling back to the
// built-in default when path is empty.
func LoadTaxonomy(path string) (*Taxonomy, error) {
	if path == "" {
		return DefaultTaxonomy(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("taxonomy: open %s: %w", path, err)
	}
	defer f.Close()
	return ParseTaxonomy(f)
}

// DefaultTaxonomy returns the built-in keyword sets.
func DefaultTaxonomy() *Taxonomy {
	return &Taxonomy{
		Version: 1,
		Categories: []TaxonomyCategory{
			{
				Name: CategoryFraud,
				Keywords: []KeywordEntry{
					{Keyword: "scam", Weight: 50},
					{Keyword: "fraud", Weight: 50},
					{Keyword: "loan", Weight: 30},
					{Keyword: "easy money", Weight: 45},
					{Keyword: "get rich quick", Weight: 50},
					{Keyword: "no investment", Weight: 40},
					{Keyword: "work from home", Weight: 35},
					{Keyword: "earn daily", Weight: 40},
					{Keyword: "lottery", Weight: 45},
					{Keyword: "winner", Weight: 25},
					{Keyword: "congratulations", Weight: 20},
					{Keyword: "prize", Weight: 30},
					{Keyword: "free money", Weight: 50},
					{Keyword: "instant cash", Weight: 45},
					{Keyword: "money back guarantee", Weight: 35},
					{Keyword: "urgent", Weight: 15},
					{Keyword: "limited time", Weight: 15},
					{Keyword: "part time job", Weight: 30},
				},
			},
			{
				Name: CategoryGambling,
				Keywords: []KeywordEntry{
					{Keyword: "casino", Weight: 55},
					{Keyword: "gambling", Weight: 55},
					{Keyword: "betting", Weight: 45},
					{Keyword: "jackpot", Weight: 50},
				},
			},
			{
				Name: CategoryProstitution,
				Keywords: []KeywordEntry{
					{Keyword: "escort", Weight: 60},
					{Keyword: "call girl", Weight: 65},
					{Keyword: "prostitute", Weight: 65},
					{Keyword: "massage", Weight: 30},
					{Keyword: "dating service", Weight: 35},
				},
			},
			{
				Name: CategoryFakeHotel,
				Keywords: []KeywordEntry{
					{Keyword: "resort", Weight: 25},
					{Keyword: "hotel booking", Weight: 30},
					{Keyword: "beach resort", Weight: 35},
					{Keyword: "accommodation", Weight: 20},
					{Keyword: "fake hotel", Weight: 70},
				},
			},
		},
	}
}

// takedownRecommendations maps category to the action the patrol team
// should take on a flagged item.
var takedownRecommendations = map[RiskCategory]string{
	CategoryFraud:        "Report to Cyber Cell",
	CategoryGambling:     "Escalate for legal action",
	CategoryProstitution: "Escalate for legal action",
	CategoryFakeHotel:    "Report to Tourism Dept",
	CategoryNone:         "No action",
}

// RecommendedAction returns the takedown recommendation for a category.
func RecommendedAction(cat RiskCategory) string {
	if action, ok := takedownRecommendations[cat]; ok {
		return action
	}
	return takedownRecommendations[CategoryNone]
}
