package gateway

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kittclouds/looseleaf/internal/store"
)

// cannedGen returns a fixed answer; lastPrompt records what was asked.
type cannedGen struct {
	answer     string
	err        error
	lastPrompt string
}

func (c *cannedGen) Generate(_ context.Context, prompt string) (string, error) {
	c.lastPrompt = prompt
	return c.answer, c.err
}

func TestSummarize(t *testing.T) {
	gen := &cannedGen{answer: "  A tidy summary.  "}
	g := New(gen)

	out, err := g.Summarize(context.Background(), "long note body", SummaryOptions{Length: "one sentence", Focus: "risks"})
	require.NoError(t, err)
	assert.Equal(t, "A tidy summary.", out)
	assert.Contains(t, gen.lastPrompt, "one sentence")
	assert.Contains(t, gen.lastPrompt, "risks")
	assert.Contains(t, gen.lastPrompt, "long note body")
}

func TestSummarizeEmptyAnswerIsError(t *testing.T) {
	g := New(&cannedGen{answer: "   "})
	_, err := g.Summarize(context.Background(), "body", SummaryOptions{})
	require.ErrorIs(t, err, ErrNoOutput)
}

func TestSummarizePropagatesGeneratorError(t *testing.T) {
	g := New(&cannedGen{err: ErrNoAPIKey})
	_, err := g.Summarize(context.Background(), "body", SummaryOptions{})
	require.ErrorIs(t, err, ErrNoAPIKey)
}

func TestKeywordsParsesJSONArray(t *testing.T) {
	g := New(&cannedGen{answer: `["alpha","beta","gamma"]`})
	got, err := g.Keywords(context.Background(), "body")
	require.NoError(t, err)
	assert.False(t, got.Fallback)
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, got.Items)
}

func TestKeywordsStripsCodeFence(t *testing.T) {
	g := New(&cannedGen{answer: "```json\n[\"alpha\",\"beta\"]\n```"})
	got, err := g.Keywords(context.Background(), "body")
	require.NoError(t, err)
	assert.False(t, got.Fallback)
	assert.Equal(t, []string{"alpha", "beta"}, got.Items)
}

func TestKeywordsToleratesTrailingComma(t *testing.T) {
	g := New(&cannedGen{answer: `["alpha","beta",]`})
	got, err := g.Keywords(context.Background(), "body")
	require.NoError(t, err)
	assert.False(t, got.Fallback)
	assert.Equal(t, []string{"alpha", "beta"}, got.Items)
}

func TestKeywordsFallbackSplit(t *testing.T) {
	g := New(&cannedGen{answer: "Sure! The keywords are: alpha, beta\n\"gamma\", x"})
	got, err := g.Keywords(context.Background(), "body")
	require.NoError(t, err)
	assert.True(t, got.Fallback)
	// single-character tokens are dropped
	assert.Equal(t, []string{"Sure! The keywords are: alpha", "beta", "gamma"}, got.Items)
}

func TestConceptsPromptScope(t *testing.T) {
	gen := &cannedGen{answer: `["team morale"]`}
	g := New(gen)
	got, err := g.Concepts(context.Background(), "body")
	require.NoError(t, err)
	assert.Equal(t, []string{"team morale"}, got.Items)
	assert.Contains(t, gen.lastPrompt, "themes")
}

func TestSemanticSearchRanksByIndices(t *testing.T) {
	notes := []*store.Note{
		{ID: "a", Title: "Groceries", Content: "milk eggs"},
		{ID: "b", Title: "Project X", Content: "kickoff details"},
		{ID: "c", Title: "Journal", Content: "rainy day"},
	}
	gen := &cannedGen{answer: `[2, 3]`}
	g := New(gen)

	got, err := g.SemanticSearch(context.Background(), "work planning", notes)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].ID)
	assert.Equal(t, "c", got[1].ID)
	assert.Contains(t, gen.lastPrompt, "1. Groceries")
	assert.Contains(t, gen.lastPrompt, "2. Project X")
}

func TestSemanticSearchSkipsOutOfRangeIndices(t *testing.T) {
	notes := []*store.Note{{ID: "a", Title: "Only", Content: "one"}}
	g := New(&cannedGen{answer: `[0, 1, 7]`})

	got, err := g.SemanticSearch(context.Background(), "q", notes)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)
}

func TestSemanticSearchFallbackRequiresAllTerms(t *testing.T) {
	notes := []*store.Note{
		{ID: "a", Title: "Project X", Content: "kickoff details and budget"},
		{ID: "b", Title: "Project Y", Content: "budget only"},
	}
	g := New(&cannedGen{answer: "I cannot rank these, sorry."})

	got, err := g.SemanticSearch(context.Background(), "Kickoff BUDGET", notes)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)
}

func TestSemanticSearchExcerptKeepsRunesIntact(t *testing.T) {
	// "x" plus 150 two-byte runes: the byte cap lands mid-rune, so the
	// excerpt must back up to the previous rune boundary.
	notes := []*store.Note{
		{ID: "a", Title: "Accents", Content: "x" + strings.Repeat("é", 150)},
	}
	gen := &cannedGen{answer: `[1]`}
	g := New(gen)

	_, err := g.SemanticSearch(context.Background(), "q", notes)
	require.NoError(t, err)
	assert.True(t, utf8.ValidString(gen.lastPrompt))
	assert.Contains(t, gen.lastPrompt, "x"+strings.Repeat("é", 99)+"\n")
	assert.NotContains(t, gen.lastPrompt, strings.Repeat("é", 100))
}

func TestSemanticSearchPropagatesError(t *testing.T) {
	boom := errors.New("boom")
	g := New(&cannedGen{err: boom})
	_, err := g.SemanticSearch(context.Background(), "q", []*store.Note{{ID: "a"}})
	require.ErrorIs(t, err, boom)
}

func TestSemanticSearchEmptyCandidates(t *testing.T) {
	g := New(&cannedGen{answer: "[1]"})
	got, err := g.SemanticSearch(context.Background(), "q", nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}
