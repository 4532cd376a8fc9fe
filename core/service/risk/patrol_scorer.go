// Package risk implements the keyword-based risk scorer.
package risk

import (
	"strings"

	"patrol_server/core/domain"
)

// ScoreResult is the scorer's verdict for one piece of text.
type ScoreResult struct {
	Score           int                 `json:"score"`
	Category        domain.RiskCategory `json:"category"`
	MatchedKeywords []string            `json:"matched_keywords"`
}

// keywordMatcher holds one keyword prepared for matching. The needle is
// the normalized form; display is the keyword as declared in the
// taxonomy, reported back in MatchedKeywords.
type keywordMatcher struct {
	needle  string
	weight  int
	display string
}

type categoryMatcher struct {
	name     domain.RiskCategory
	keywords []keywordMatcher
}

// Scorer assigns a 0-100 risk score and a category from weighted keyword
// matches. Pure computation: no I/O, no error paths.
type Scorer struct {
	taxonomy *domain.Taxonomy
	matchers []categoryMatcher
}

// NewScorer creates a scorer over a loaded taxonomy. Keywords are
// normalized the same way as scored text, so externally configured
// keywords match regardless of case, diacritics or punctuation.
func NewScorer(taxonomy *domain.Taxonomy) *Scorer {
	if taxonomy == nil {
		taxonomy = domain.DefaultTaxonomy()
	}

	matchers := make([]categoryMatcher, 0, len(taxonomy.Categories))
	for _, cat := range taxonomy.Categories {
		cm := categoryMatcher{name: cat.Name, keywords: make([]keywordMatcher, 0, len(cat.Keywords))}
		for _, kw := range cat.Keywords {
			needle := Normalize(kw.Keyword)
			if needle == "" {
				// Punctuation-only keywords can never match and an empty
				// needle would count every position in the text.
				continue
			}
			cm.keywords = append(cm.keywords, keywordMatcher{
				needle:  needle,
				weight:  kw.Weight,
				display: kw.Keyword,
			})
		}
		matchers = append(matchers, cm)
	}

	return &Scorer{taxonomy: taxonomy, matchers: matchers}
}

// Score normalizes text and sums keyword weights per category. Each
// occurrence of a keyword contributes its full weight, so repetition
// raises the score. The winning category is the highest sum; ties go to
// the category declared first in the taxonomy. The score is the winner's
// sum capped at 100.
func (s *Scorer) Score(text string) ScoreResult {
	normalized := Normalize(text)
	if normalized == "" {
		return ScoreResult{Score: 0, Category: domain.CategoryNone, MatchedKeywords: []string{}}
	}

	var (
		bestCategory = domain.CategoryNone
		bestSum      = 0
		bestMatches  []string
	)

	for _, cat := range s.matchers {
		sum := 0
		var matches []string
		for _, kw := range cat.keywords {
			count := strings.Count(normalized, kw.needle)
			if count == 0 {
				continue
			}
			sum += kw.weight * count
			matches = append(matches, kw.display)
		}
		// Strict > keeps the first-declared category on ties.
		if sum > bestSum {
			bestSum = sum
			bestCategory = cat.name
			bestMatches = matches
		}
	}

	if bestSum == 0 {
		return ScoreResult{Score: 0, Category: domain.CategoryNone, MatchedKeywords: []string{}}
	}

	score := bestSum
	if score > 100 {
		score = 100
	}

	return ScoreResult{
		Score:           score,
		Category:        bestCategory,
		MatchedKeywords: bestMatches,
	}
}

// Taxonomy returns the scorer's loaded taxonomy.
func (s *Scorer) Taxonomy() *domain.Taxonomy {
	return s.taxonomy
}
