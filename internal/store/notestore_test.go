package store

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateDefaults(t *testing.T) {
	s := New(WithClock(func() int64 { return 1700000000000 }))

	id := s.Create(&Note{Content: "hello"})
	require.NotEmpty(t, id)

	n, ok := s.Get(id)
	require.True(t, ok)
	assert.True(t, len(n.Title) > 0, "blank title gets a generated one")
	assert.Contains(t, n.Title, "Note ")
	assert.Equal(t, ContentText, n.ContentType)
	assert.Equal(t, int64(1700000000000), n.CreatedAt)
	assert.Equal(t, n.CreatedAt, n.UpdatedAt)
	assert.Empty(t, n.Tags)
	assert.Empty(t, n.Connections)
	assert.Empty(t, n.Mentions)
}

func TestMentionRoundTrip(t *testing.T) {
	s := New()

	a := s.Create(&Note{Title: "Project X", Content: "Kickoff details"})
	b := s.Create(&Note{Title: "Notes", Content: "See [[Project X]] for context"})

	noteB, ok := s.Get(b)
	require.True(t, ok)
	assert.Equal(t, []string{a}, noteB.Mentions)
}

func TestUpdateRecomputesMentions(t *testing.T) {
	s := New()

	a := s.Create(&Note{Title: "Alpha", Content: ""})
	bID := s.Create(&Note{Title: "Beta", Content: "plain text"})

	content := "now links [[Alpha]]"
	s.Update(bID, Patch{Content: &content})
	b, _ := s.Get(bID)
	assert.Equal(t, []string{a}, b.Mentions)

	// Mentions are fully recomputed, not merged.
	content = "no links anymore"
	s.Update(bID, Patch{Content: &content})
	b, _ = s.Get(bID)
	assert.Empty(t, b.Mentions)
}

func TestSelfMentionFiltered(t *testing.T) {
	s := New()

	id := s.Create(&Note{Title: "Loop", Content: "I am [[Loop]]"})

	n, _ := s.Get(id)
	assert.Empty(t, n.Mentions)
}

func TestUpdateUnknownIDSilentNoop(t *testing.T) {
	s := New()
	title := "x"
	s.Update("nope", Patch{Title: &title}) // must not panic
	assert.Equal(t, 0, s.Count())
}

func TestDirtyBitLifecycle(t *testing.T) {
	s := New()

	id := s.Create(&Note{Title: "A"})
	assert.True(t, s.IsDirty(id))

	s.MarkClean(id)
	assert.False(t, s.IsDirty(id))

	title := "B"
	s.Update(id, Patch{Title: &title})
	assert.True(t, s.IsDirty(id))
}

func TestDeleteCascade(t *testing.T) {
	s := New()

	a := s.Create(&Note{Title: "Target"})
	b := s.Create(&Note{Title: "Linker", Content: "see [[Target]]"})
	s.Connect(b, a)

	s.Delete(a)

	_, ok := s.Get(a)
	assert.False(t, ok)

	nb, _ := s.Get(b)
	assert.NotContains(t, nb.Connections, a)
	assert.NotContains(t, nb.Mentions, a)
	assert.True(t, s.IsDirty(b), "scrubbed notes are re-flagged for persistence")
}

func TestSetAllResetsDirty(t *testing.T) {
	s := New()

	notes := []*Note{
		{ID: "n1", Title: "One"},
		{ID: "n2", Title: "Two"},
	}
	s.SetAll(notes)

	assert.Equal(t, 2, s.Count())
	assert.False(t, s.IsDirty("n1"))
	assert.False(t, s.IsDirty("n2"))
	assert.Empty(t, s.DirtyIDs())
}

func TestConnectDisconnect(t *testing.T) {
	s := New()
	a := s.Create(&Note{Title: "A"})
	b := s.Create(&Note{Title: "B"})

	// Self-link rejected.
	s.Connect(a, a)
	na, _ := s.Get(a)
	assert.Empty(t, na.Connections)

	// Directed link, duplicate rejected.
	s.Connect(a, b)
	s.Connect(a, b)
	na, _ = s.Get(a)
	assert.Equal(t, []string{b}, na.Connections)
	nb, _ := s.Get(b)
	assert.Empty(t, nb.Connections, "no auto-reciprocal edge")

	// Unknown target rejected.
	s.Connect(a, "ghost")
	na, _ = s.Get(a)
	assert.Equal(t, []string{b}, na.Connections)

	s.Disconnect(a, b)
	na, _ = s.Get(a)
	assert.Empty(t, na.Connections)

	// Absent link no-ops.
	s.Disconnect(a, b)
}

func TestTagDeleteCascades(t *testing.T) {
	s := New()
	tag := s.CreateTag("work", "#ff0000")
	other := s.CreateTag("home", "#00ff00")

	id := s.Create(&Note{Title: "A", Tags: []Tag{tag, other}})

	s.DeleteTag(tag.ID)

	n, _ := s.Get(id)
	require.Len(t, n.Tags, 1)
	assert.Equal(t, other.ID, n.Tags[0].ID)
	assert.Len(t, s.Tags(), 1)
}

func TestTagRenameIsNotLive(t *testing.T) {
	s := New()
	tag := s.CreateTag("work", "#ff0000")
	id := s.Create(&Note{Title: "A", Tags: []Tag{tag}})

	require.True(t, s.UpdateTag(tag.ID, "job", "#ff0000"))

	n, _ := s.Get(id)
	assert.Equal(t, "work", n.Tags[0].Name, "embedded copy stays stale")

	s.SyncTags()
	n, _ = s.Get(id)
	assert.Equal(t, "job", n.Tags[0].Name)
}

func TestRecents(t *testing.T) {
	s := New()
	a := s.Create(&Note{Title: "A"})
	b := s.Create(&Note{Title: "B"})

	s.SetActive(a)
	s.SetActive(b)
	s.SetActive(a)

	assert.Equal(t, a, s.Active())
	assert.Equal(t, []string{a, b}, s.Recents())

	s.Delete(a)
	assert.Equal(t, "", s.Active())
	assert.Equal(t, []string{b}, s.Recents())
}

func TestRefreshMentionsAfterImport(t *testing.T) {
	s := New()
	s.SetAll([]*Note{
		{ID: "b", Title: "Notes", Content: "See [[Project X]]"},
		{ID: "a", Title: "Project X", Content: "Kickoff"},
	})

	s.RefreshMentions()

	b, _ := s.Get("b")
	assert.Equal(t, []string{"a"}, b.Mentions)
}

// fakeMeta records metadata writes for assertions.
type fakeMeta struct {
	mu   sync.Mutex
	keys []string
	done chan struct{}
}

func (f *fakeMeta) Put(store, key, value string) error {
	f.mu.Lock()
	f.keys = append(f.keys, fmt.Sprintf("%s/%s", store, key))
	f.mu.Unlock()
	select {
	case f.done <- struct{}{}:
	default:
	}
	return nil
}

func TestMetadataWriteFireAndForget(t *testing.T) {
	meta := &fakeMeta{done: make(chan struct{}, 1)}
	s := New(WithMetadata(meta))

	id := s.Create(&Note{Title: "A"})
	<-meta.done

	meta.mu.Lock()
	defer meta.mu.Unlock()
	require.Len(t, meta.keys, 1)
	assert.Equal(t, "note-meta/"+id, meta.keys[0])
}
