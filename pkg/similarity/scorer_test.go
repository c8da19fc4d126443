package similarity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenizeFiltersShortAndStopwords(t *testing.T) {
	tokens := tokenize("The quick brown fox is on a hill")
	assert.Equal(t, []string{"quick", "brown", "fox", "hill"}, tokens)
}

func TestSignificantTermsOrdering(t *testing.T) {
	// "coffee" appears three times, "roast" twice, everything else once.
	terms := SignificantTerms("Coffee notes", "roast the coffee, grind coffee, roast again")

	require.NotEmpty(t, terms)
	assert.Equal(t, "coffee", terms[0])
	assert.Equal(t, "roast", terms[1])
}

func TestSignificantTermsIncludesBigrams(t *testing.T) {
	terms := SignificantTerms("", "sourdough starter needs flour, sourdough starter needs water")

	assert.Contains(t, terms, "sourdough starter")
}

func TestSignificantTermsEmptyContent(t *testing.T) {
	assert.Nil(t, SignificantTerms("", ""))
	assert.Nil(t, SignificantTerms("a an the", "is on at"))
}

func TestRankExcludesQueryNote(t *testing.T) {
	now := time.Now().UnixMilli()
	query := Document{ID: "n1", Title: "Gardening", Content: "tomato seedlings need water", CreatedAt: now}

	results := Rank(query, []Document{
		query,
		{ID: "n2", Title: "Tomato care", Content: "water the tomato plants daily", CreatedAt: now},
	})

	require.Len(t, results, 1)
	assert.Equal(t, "n2", results[0].ID)
}

func TestRankDeterministic(t *testing.T) {
	now := time.Now().UnixMilli()
	query := Document{ID: "q", Title: "Project X", Content: "kickoff planning roadmap milestones", CreatedAt: now}
	candidates := []Document{
		{ID: "a", Title: "Roadmap draft", Content: "milestones for project kickoff", CreatedAt: now},
		{ID: "b", Title: "Planning", Content: "planning the roadmap", CreatedAt: now},
		{ID: "c", Title: "Groceries", Content: "milk eggs bread", CreatedAt: now - 30*24*60*60*1000},
	}

	first := Rank(query, candidates)
	second := Rank(query, candidates)

	assert.Equal(t, first, second)
	assert.LessOrEqual(t, len(first), MaxSuggestions)
	for _, s := range first {
		assert.Greater(t, s.Score, ScoreThreshold)
	}
}

func TestRankTagAndRecencyContribution(t *testing.T) {
	// No textual overlap at all: termScore and titleBoost stay zero, so the
	// final score is exactly 3 tags * 0.1 + recency 0.1 = 0.4.
	now := time.Now().UnixMilli()
	query := Document{
		ID:        "q",
		Title:     "zzz",
		Content:   "xxx yyy",
		TagIDs:    []string{"t1", "t2", "t3"},
		CreatedAt: now,
	}
	candidate := Document{
		ID:        "c",
		Title:     "qqq",
		Content:   "www vvv",
		TagIDs:    []string{"t1", "t2", "t3"},
		CreatedAt: now,
	}

	results := Rank(query, []Document{candidate})
	require.Len(t, results, 1)
	assert.InDelta(t, 0.4, results[0].Score, 1e-9)
}

func TestRankThresholdAndCap(t *testing.T) {
	now := time.Now().UnixMilli()
	query := Document{ID: "q", Title: "alpha", Content: "alpha beta gamma", CreatedAt: now}

	// Unrelated and old: should score zero and be filtered out.
	results := Rank(query, []Document{
		{ID: "far", Title: "unrelated", Content: "nothing shared", CreatedAt: now - 365*24*60*60*1000},
	})
	assert.Empty(t, results)

	// Seven near-identical candidates: capped at five.
	var many []Document
	for _, id := range []string{"c1", "c2", "c3", "c4", "c5", "c6", "c7"} {
		many = append(many, Document{ID: id, Title: "alpha beta", Content: "alpha beta gamma", CreatedAt: now})
	}
	results = Rank(query, many)
	assert.Len(t, results, MaxSuggestions)
}
