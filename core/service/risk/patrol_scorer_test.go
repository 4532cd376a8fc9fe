package risk

import (
	"reflect"
	"testing"

	"patrol_server/core/domain"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercase", "CASINO Night", "casino night"},
		{"diacritics stripped", "Résört Bóoking", "resort booking"},
		{"punctuation to spaces", "free-money!!!now", "free money now"},
		{"whitespace folded", "  easy \t money \n ", "easy money"},
		{"empty", "", ""},
		{"only punctuation", "!?.,;", ""},
		{"digits kept", "earn 5000 daily", "earn 5000 daily"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestScorer_Score(t *testing.T) {
	scorer := NewScorer(domain.DefaultTaxonomy())

	tests := []struct {
		name         string
		text         string
		wantScore    int
		wantCategory domain.RiskCategory
		wantKeywords []string
	}{
		{
			name:         "empty text",
			text:         "",
			wantScore:    0,
			wantCategory: domain.CategoryNone,
			wantKeywords: []string{},
		},
		{
			name:         "whitespace only",
			text:         "   \t\n  ",
			wantScore:    0,
			wantCategory: domain.CategoryNone,
			wantKeywords: []string{},
		},
		{
			name:         "clean text",
			text:         "looking forward to the beach trip next week",
			wantScore:    0,
			wantCategory: domain.CategoryNone,
			wantKeywords: []string{},
		},
		{
			name:         "single gambling keyword",
			text:         "new casino opening tonight",
			wantScore:    55,
			wantCategory: domain.CategoryGambling,
			wantKeywords: []string{"casino"},
		},
		{
			name:         "case insensitive",
			text:         "NEW CASINO OPENING",
			wantScore:    55,
			wantCategory: domain.CategoryGambling,
			wantKeywords: []string{"casino"},
		},
		{
			name:         "diacritics insensitive",
			text:         "visit our casïno",
			wantScore:    55,
			wantCategory: domain.CategoryGambling,
			wantKeywords: []string{"casino"},
		},
		{
			name:         "substring match inside longer word",
			text:         "join megacasino today",
			wantScore:    55,
			wantCategory: domain.CategoryGambling,
			wantKeywords: []string{"casino"},
		},
		{
			name:         "multi-word keyword across punctuation",
			text:         "get free-money!!!now",
			wantScore:    50,
			wantCategory: domain.CategoryFraud,
			wantKeywords: []string{"free money"},
		},
		{
			name:         "weights accumulate within category",
			text:         "easy money scam alert",
			wantScore:    95,
			wantCategory: domain.CategoryFraud,
			wantKeywords: []string{"scam", "easy money"},
		},
		{
			name:         "frequency raises score",
			text:         "casino casino",
			wantScore:    100,
			wantCategory: domain.CategoryGambling,
			wantKeywords: []string{"casino"},
		},
		{
			name:         "cap at 100",
			text:         "escort escort escort",
			wantScore:    100,
			wantCategory: domain.CategoryProstitution,
			wantKeywords: []string{"escort"},
		},
		{
			name:         "tie broken by declaration order",
			text:         "scam jackpot", // fraud 50 vs gambling 50
			wantScore:    50,
			wantCategory: domain.CategoryFraud,
			wantKeywords: []string{"scam"},
		},
		{
			name:         "highest category wins",
			text:         "casino betting and one scam", // gambling 100 vs fraud 50
			wantScore:    100,
			wantCategory: domain.CategoryGambling,
			wantKeywords: []string{"casino", "betting"},
		},
		{
			name:         "fake hotel phrase",
			text:         "book this fake hotel deal at the beach resort",
			wantScore:    100, // resort 25 + beach resort 35 + fake hotel 70, capped
			wantCategory: domain.CategoryFakeHotel,
			wantKeywords: []string{"resort", "beach resort", "fake hotel"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scorer.Score(tt.text)
			if got.Score != tt.wantScore {
				t.Errorf("Score = %d, want %d", got.Score, tt.wantScore)
			}
			if got.Category != tt.wantCategory {
				t.Errorf("Category = %s, want %s", got.Category, tt.wantCategory)
			}
			if !reflect.DeepEqual(got.MatchedKeywords, tt.wantKeywords) &&
				!(len(got.MatchedKeywords) == 0 && len(tt.wantKeywords) == 0) {
				t.Errorf("MatchedKeywords = %v, want %v", got.MatchedKeywords, tt.wantKeywords)
			}
		})
	}
}

func TestScorer_CustomTaxonomy(t *testing.T) {
	taxonomy := &domain.Taxonomy{
		Version: 1,
		Categories: []domain.TaxonomyCategory{
			{
				Name: domain.CategoryFraud,
				Keywords: []domain.KeywordEntry{
					{Keyword: "ponzi", Weight: 80},
				},
			},
		},
	}
	scorer := NewScorer(taxonomy)

	got := scorer.Score("classic ponzi setup")
	if got.Score != 80 || got.Category != domain.CategoryFraud {
		t.Errorf("got (%d, %s), want (80, fraud)", got.Score, got.Category)
	}

	// Default keywords no longer apply under a custom taxonomy.
	got = scorer.Score("casino night")
	if got.Score != 0 || got.Category != domain.CategoryNone {
		t.Errorf("got (%d, %s), want (0, none)", got.Score, got.Category)
	}
}

func TestScorer_KeywordsNormalizedLikeText(t *testing.T) {
	// Externally loaded taxonomies may carry keywords with case,
	// diacritics or punctuation; they must match the same way the
	// built-in lowercase keywords do.
	taxonomy := &domain.Taxonomy{
		Version: 1,
		Categories: []domain.TaxonomyCategory{
			{
				Name: domain.CategoryGambling,
				Keywords: []domain.KeywordEntry{
					{Keyword: "Casino", Weight: 50},
				},
			},
			{
				Name: domain.CategoryFakeHotel,
				Keywords: []domain.KeywordEntry{
					{Keyword: "Résort-Offer", Weight: 40},
					{Keyword: "!!!", Weight: 30}, // normalizes to nothing, must never match
				},
			},
		},
	}
	scorer := NewScorer(taxonomy)

	got := scorer.Score("casino night")
	if got.Score != 50 || got.Category != domain.CategoryGambling {
		t.Errorf("mixed-case keyword: got (%d, %s), want (50, gambling)", got.Score, got.Category)
	}
	if !reflect.DeepEqual(got.MatchedKeywords, []string{"Casino"}) {
		t.Errorf("MatchedKeywords = %v, want declared form [Casino]", got.MatchedKeywords)
	}

	got = scorer.Score("great resort offer here")
	if got.Score != 40 || got.Category != domain.CategoryFakeHotel {
		t.Errorf("accented keyword: got (%d, %s), want (40, fake_hotel)", got.Score, got.Category)
	}

	got = scorer.Score("nothing suspicious at all")
	if got.Score != 0 || got.Category != domain.CategoryNone {
		t.Errorf("punctuation-only keyword matched: got (%d, %s), want (0, none)", got.Score, got.Category)
	}
}

func TestScorer_NilTaxonomyFallsBack(t *testing.T) {
	scorer := NewScorer(nil)
	got := scorer.Score("casino")
	if got.Category != domain.CategoryGambling {
		t.Errorf("Category = %s, want gambling", got.Category)
	}
}
