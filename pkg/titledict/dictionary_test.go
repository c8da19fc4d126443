package titledict

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compile(t *testing.T, entries []Entry) *Dictionary {
	t.Helper()
	d, err := Compile(entries)
	require.NoError(t, err)
	return d
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "project x", Normalize("  Project   X "))
	assert.Equal(t, "", Normalize("   "))
}

func TestResolveTitle(t *testing.T) {
	d := compile(t, []Entry{
		{ID: "n1", Title: "Project X"},
		{ID: "n2", Title: "Groceries"},
	})

	id, ok := d.ResolveTitle("project x")
	require.True(t, ok)
	assert.Equal(t, "n1", id)

	id, ok = d.ResolveTitle("GROCERIES")
	require.True(t, ok)
	assert.Equal(t, "n2", id)

	_, ok = d.ResolveTitle("missing")
	assert.False(t, ok)
}

func TestDuplicateTitlesLastWins(t *testing.T) {
	d := compile(t, []Entry{
		{ID: "old", Title: "Draft"},
		{ID: "new", Title: "draft"},
	})

	id, ok := d.ResolveTitle("Draft")
	require.True(t, ok)
	assert.Equal(t, "new", id)
	assert.Equal(t, 1, d.Len())
}

func TestScanUnlinked(t *testing.T) {
	d := compile(t, []Entry{
		{ID: "n1", Title: "Kafka"},
		{ID: "n2", Title: "Project X"},
	})

	matches := d.ScanUnlinked("Reading kafka before the project x kickoff")

	require.Len(t, matches, 2)
	assert.Equal(t, "n1", matches[0].NoteID)
	assert.Equal(t, "kafka", matches[0].Text)
	assert.Equal(t, "n2", matches[1].NoteID)
}

func TestScanUnlinkedWholeWordsOnly(t *testing.T) {
	d := compile(t, []Entry{{ID: "n1", Title: "Kafka"}})

	assert.Empty(t, d.ScanUnlinked("a kafkaesque ordeal"))
	assert.Empty(t, d.ScanUnlinked("okafka"))

	matches := d.ScanUnlinked("read kafka, twice")
	require.Len(t, matches, 1)
	assert.Equal(t, "kafka", matches[0].Text)
}

func TestScanUnlinkedLeftmostLongest(t *testing.T) {
	d := compile(t, []Entry{
		{ID: "short", Title: "Project"},
		{ID: "long", Title: "Project X"},
	})

	matches := d.ScanUnlinked("the project x kickoff")

	require.Len(t, matches, 1)
	assert.Equal(t, "long", matches[0].NoteID)
	assert.Equal(t, "project x", matches[0].Text)
}

func TestScanUnlinkedNonASCIIOffsets(t *testing.T) {
	d := compile(t, []Entry{{ID: "n1", Title: "Kafka"}})

	// 'İ' lowers to a longer byte sequence, so lowered-text offsets drift
	// from the original. The reported span must slice the original text.
	text := strings.Repeat("İ", 10) + " kafka"
	matches := d.ScanUnlinked(text)

	require.Len(t, matches, 1)
	assert.Equal(t, "kafka", matches[0].Text)
	assert.Equal(t, text[matches[0].Start:matches[0].End], matches[0].Text)
	assert.Equal(t, len(text), matches[0].End)
}

func TestScanUnlinkedNonASCIITitle(t *testing.T) {
	d := compile(t, []Entry{{ID: "n1", Title: "Café"}})

	matches := d.ScanUnlinked("meet at the CAFÉ at noon")

	require.Len(t, matches, 1)
	assert.Equal(t, "CAFÉ", matches[0].Text)
	assert.Equal(t, "n1", matches[0].NoteID)
}

func TestScanUnlinkedSkipsBracketedSpans(t *testing.T) {
	d := compile(t, []Entry{{ID: "n1", Title: "Kafka"}})

	matches := d.ScanUnlinked("see [[Kafka]] plus kafka in prose")

	require.Len(t, matches, 1)
	assert.Equal(t, "kafka", matches[0].Text)
}

func TestScanUnlinkedEmpty(t *testing.T) {
	d := compile(t, nil)
	assert.Nil(t, d.ScanUnlinked("anything"))

	d = compile(t, []Entry{{ID: "n1", Title: "Kafka"}})
	assert.Nil(t, d.ScanUnlinked(""))
}
