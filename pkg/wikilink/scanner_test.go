package wikilink

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// titles builds a resolver over a title -> id map with case-insensitive match.
func titles(m map[string]string) Resolver {
	return ResolverFunc(func(title string) (string, bool) {
		id, ok := m[strings.ToLower(title)]
		return id, ok
	})
}

func TestParseEmptyContent(t *testing.T) {
	res := Parse("", titles(map[string]string{"foo": "n1"}))
	assert.Empty(t, res.Renderable)
	assert.Empty(t, res.MentionIDs)
}

func TestParseResolvedMention(t *testing.T) {
	r := titles(map[string]string{"project x": "n1"})

	res := Parse("See [[Project X]] for context", r)

	assert.Equal(t, "See [Project X](note:n1) for context", res.Renderable)
	assert.Equal(t, []string{"n1"}, res.MentionIDs)
}

func TestParseUnresolvedMentionPassesThrough(t *testing.T) {
	res := Parse("See [[Missing]] later", titles(nil))

	assert.Equal(t, "See [[Missing]] later", res.Renderable)
	assert.Empty(t, res.MentionIDs)
}

func TestParseCaseInsensitive(t *testing.T) {
	r := titles(map[string]string{"groceries": "n7"})

	res := Parse("[[GROCERIES]] and [[groceries]]", r)

	assert.Equal(t, "[GROCERIES](note:n7) and [groceries](note:n7)", res.Renderable)
	assert.Equal(t, []string{"n7"}, res.MentionIDs, "duplicate targets collapse to one id")
}

func TestParseFirstOccurrenceOrder(t *testing.T) {
	r := titles(map[string]string{"beta": "b", "alpha": "a"})

	res := Parse("[[Beta]] then [[Alpha]] then [[Beta]]", r)

	assert.Equal(t, []string{"b", "a"}, res.MentionIDs)
}

func TestParseTrimsInnerWhitespace(t *testing.T) {
	r := titles(map[string]string{"foo": "n1"})

	res := Parse("[[  Foo  ]]", r)

	require.Equal(t, []string{"n1"}, res.MentionIDs)
	assert.Equal(t, "[Foo](note:n1)", res.Renderable)
}

func TestParseUnclosedBracket(t *testing.T) {
	r := titles(map[string]string{"foo": "n1"})

	res := Parse("start [[Foo then nothing", r)

	assert.Equal(t, "start [[Foo then nothing", res.Renderable)
	assert.Empty(t, res.MentionIDs)
}

func TestParseNonGreedySpans(t *testing.T) {
	r := titles(map[string]string{"a": "na"})

	// The first ]] closes the span; the trailing bracket text stays literal.
	res := Parse("[[A]] tail ]]", r)

	assert.Equal(t, "[A](note:na) tail ]]", res.Renderable)
	assert.Equal(t, []string{"na"}, res.MentionIDs)
}

func TestParseEmptyBrackets(t *testing.T) {
	res := Parse("[[]] and [[  ]]", titles(map[string]string{"": "never"}))

	assert.Equal(t, "[[]] and [[  ]]", res.Renderable)
	assert.Empty(t, res.MentionIDs)
}
