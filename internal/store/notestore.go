package store

import (
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kittclouds/looseleaf/pkg/wikilink"
)

// MetadataWriter receives fire-and-forget per-note metadata writes.
// Implemented by the persistence layer's secondary store.
type MetadataWriter interface {
	Put(store, key, value string) error
}

// metadataStore is the secondary-store bucket for per-note metadata.
const metadataStore = "note-meta"

// maxRecents caps the recent-view history.
const maxRecents = 20

type entry struct {
	note  *Note
	dirty bool
}

// NoteStore is the single source of truth for notes and tags. Mutations are
// synchronous; only metadata writes leave the calling goroutine.
type NoteStore struct {
	mu       sync.RWMutex
	notes    map[string]*entry
	order    []string // creation order, drives deterministic listing
	tags     []Tag
	activeID string
	recents  []string

	meta     MetadataWriter
	logger   *slog.Logger
	now      func() int64
	onChange func()
}

// Option configures a NoteStore.
type Option func(*NoteStore)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *NoteStore) { s.logger = l }
}

// WithMetadata sets the secondary store for per-note metadata writes.
func WithMetadata(w MetadataWriter) Option {
	return func(s *NoteStore) { s.meta = w }
}

// WithClock overrides the timestamp source. Tests use this.
func WithClock(now func() int64) Option {
	return func(s *NoteStore) { s.now = now }
}

// New creates an empty NoteStore.
func New(opts ...Option) *NoteStore {
	s := &NoteStore{
		notes:  make(map[string]*entry),
		logger: slog.Default(),
		now:    func() int64 { return time.Now().UnixMilli() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnChange registers a callback invoked after every mutation, outside the
// store lock. The autosave scheduler hooks in here.
func (s *NoteStore) OnChange(fn func()) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// =============================================================================
// Note CRUD
// =============================================================================

// Create assigns an ID and timestamps, seeds mentions from content, marks the
// note dirty, and returns the new ID. A blank title defaults to one generated
// from the creation time.
func (s *NoteStore) Create(note *Note) string {
	s.mu.Lock()

	n := note.Clone()
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	ts := s.now()
	n.CreatedAt = ts
	n.UpdatedAt = ts
	if n.Title == "" {
		n.Title = "Note " + time.UnixMilli(ts).Format("Jan 2, 2006 3:04 PM")
	}
	if n.ContentType == "" {
		n.ContentType = ContentText
	}
	if n.Tags == nil {
		n.Tags = []Tag{}
	}
	if n.Connections == nil {
		n.Connections = []string{}
	}

	s.notes[n.ID] = &entry{note: n, dirty: true}
	s.order = append(s.order, n.ID)
	s.recomputeMentionsLocked(n)

	meta := n.Clone()
	s.mu.Unlock()

	s.writeMetadata(meta)
	s.notify()
	return n.ID
}

// Update merges a partial change into an existing note. Unknown IDs no-op:
// callers are expected to hold IDs from a live listing. If content changed,
// mentions are recomputed against the merged note set.
func (s *NoteStore) Update(id string, patch Patch) {
	s.mu.Lock()

	e, ok := s.notes[id]
	if !ok {
		s.mu.Unlock()
		return
	}

	n := e.note
	if patch.Title != nil {
		n.Title = *patch.Title
	}
	if patch.ContentType != nil {
		n.ContentType = *patch.ContentType
	}
	if patch.Tags != nil {
		n.Tags = append([]Tag(nil), (*patch.Tags)...)
	}
	if patch.Connections != nil {
		n.Connections = append([]string(nil), (*patch.Connections)...)
	}
	if patch.Concepts != nil {
		n.Concepts = append([]string(nil), (*patch.Concepts)...)
	}
	if patch.Source != nil {
		n.Source = *patch.Source
	}
	if patch.MediaURL != nil {
		n.MediaURL = *patch.MediaURL
	}
	if patch.Location != nil {
		n.Location = *patch.Location
	}
	if patch.Content != nil {
		n.Content = *patch.Content
		s.recomputeMentionsLocked(n)
	}

	n.UpdatedAt = s.now()
	e.dirty = true

	meta := n.Clone()
	s.mu.Unlock()

	s.writeMetadata(meta)
	s.notify()
}

// Delete removes a note and, in a second pass over the full collection,
// scrubs its ID out of every other note's connections and mentions.
func (s *NoteStore) Delete(id string) {
	s.mu.Lock()

	if _, ok := s.notes[id]; !ok {
		s.mu.Unlock()
		return
	}
	delete(s.notes, id)
	s.order = removeString(s.order, id)
	s.recents = removeString(s.recents, id)
	if s.activeID == id {
		s.activeID = ""
	}

	for _, e := range s.notes {
		before := len(e.note.Connections) + len(e.note.Mentions)
		e.note.Connections = removeString(e.note.Connections, id)
		e.note.Mentions = removeString(e.note.Mentions, id)
		if len(e.note.Connections)+len(e.note.Mentions) != before {
			e.dirty = true
		}
	}

	s.mu.Unlock()
	s.notify()
}

// Get returns a copy of a note.
func (s *NoteStore) Get(id string) (*Note, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.notes[id]
	if !ok {
		return nil, false
	}
	return e.note.Clone(), true
}

// List returns copies of all notes in creation order.
func (s *NoteStore) List() []*Note {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Note, 0, len(s.order))
	for _, id := range s.order {
		result = append(result, s.notes[id].note.Clone())
	}
	return result
}

// Count returns the number of notes.
func (s *NoteStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.notes)
}

// SetAll bulk-replaces the collection, treating the imported data as an
// already-persisted baseline: every dirty bit resets to false.
func (s *NoteStore) SetAll(notes []*Note) {
	s.mu.Lock()

	s.notes = make(map[string]*entry, len(notes))
	s.order = s.order[:0]
	for _, n := range notes {
		if n.ID == "" {
			continue
		}
		s.notes[n.ID] = &entry{note: n.Clone(), dirty: false}
		s.order = append(s.order, n.ID)
	}
	s.recents = nil
	s.activeID = ""

	s.mu.Unlock()
	s.notify()
}

// =============================================================================
// Dirty tracking
// =============================================================================

// IsDirty reports whether a note changed since the last confirmed persist.
func (s *NoteStore) IsDirty(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.notes[id]
	return ok && e.dirty
}

// MarkClean clears a note's dirty bit after a confirmed save.
func (s *NoteStore) MarkClean(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.notes[id]; ok {
		e.dirty = false
	}
}

// DirtyIDs returns the IDs of all dirty notes in creation order.
func (s *NoteStore) DirtyIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []string
	for _, id := range s.order {
		if s.notes[id].dirty {
			ids = append(ids, id)
		}
	}
	return ids
}

// =============================================================================
// Connections (mutation primitives used by the relationship engine)
// =============================================================================

// Connect appends a directed link from source to target. Self-links and
// duplicates are rejected silently; unknown IDs no-op.
func (s *NoteStore) Connect(sourceID, targetID string) {
	if sourceID == targetID {
		return
	}

	s.mu.Lock()
	src, ok := s.notes[sourceID]
	if !ok || src.note.HasConnection(targetID) {
		s.mu.Unlock()
		return
	}
	if _, ok := s.notes[targetID]; !ok {
		s.mu.Unlock()
		return
	}

	src.note.Connections = append(src.note.Connections, targetID)
	src.note.UpdatedAt = s.now()
	src.dirty = true
	s.mu.Unlock()
	s.notify()
}

// Disconnect removes target from source's connections; absent links no-op.
func (s *NoteStore) Disconnect(sourceID, targetID string) {
	s.mu.Lock()
	src, ok := s.notes[sourceID]
	if !ok || !src.note.HasConnection(targetID) {
		s.mu.Unlock()
		return
	}

	src.note.Connections = removeString(src.note.Connections, targetID)
	src.note.UpdatedAt = s.now()
	src.dirty = true
	s.mu.Unlock()
	s.notify()
}

// =============================================================================
// Tags
// =============================================================================

// Tags returns a copy of the tag list.
func (s *NoteStore) Tags() []Tag {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Tag(nil), s.tags...)
}

// SetTags bulk-replaces the tag list (import path).
func (s *NoteStore) SetTags(tags []Tag) {
	s.mu.Lock()
	s.tags = append([]Tag(nil), tags...)
	s.mu.Unlock()
	s.notify()
}

// CreateTag registers a new tag and returns it.
func (s *NoteStore) CreateTag(name, color string) Tag {
	tag := Tag{ID: uuid.New().String(), Name: name, Color: color}

	s.mu.Lock()
	s.tags = append(s.tags, tag)
	s.mu.Unlock()
	s.notify()
	return tag
}

// UpdateTag renames or recolors a tag in the tag list. Notes holding an
// embedded copy keep the stale value until SyncTags runs.
func (s *NoteStore) UpdateTag(id, name, color string) bool {
	s.mu.Lock()
	updated := false
	for i := range s.tags {
		if s.tags[i].ID == id {
			s.tags[i].Name = name
			s.tags[i].Color = color
			updated = true
			break
		}
	}
	s.mu.Unlock()
	if updated {
		s.notify()
	}
	return updated
}

// TagByName finds a tag by name, case-insensitively.
func (s *NoteStore) TagByName(name string) (Tag, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.tags {
		if strings.EqualFold(t.Name, name) {
			return t, true
		}
	}
	return Tag{}, false
}

// DeleteTag removes a tag and scrubs it from every note in the same
// synchronous pass, so no reader observes a note referencing a deleted tag.
func (s *NoteStore) DeleteTag(id string) {
	s.mu.Lock()

	before := len(s.tags)
	kept := s.tags[:0]
	for _, t := range s.tags {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	s.tags = kept
	if len(s.tags) == before {
		s.mu.Unlock()
		return
	}

	for _, e := range s.notes {
		keptTags := e.note.Tags[:0]
		removed := false
		for _, t := range e.note.Tags {
			if t.ID == id {
				removed = true
				continue
			}
			keptTags = append(keptTags, t)
		}
		e.note.Tags = keptTags
		if removed {
			e.dirty = true
		}
	}

	s.mu.Unlock()
	s.notify()
}

// SyncTags re-embeds current tag values into every note holding a stale
// copy. Embedded tags whose ID no longer exists are dropped.
func (s *NoteStore) SyncTags() {
	s.mu.Lock()

	byID := make(map[string]Tag, len(s.tags))
	for _, t := range s.tags {
		byID[t.ID] = t
	}

	for _, e := range s.notes {
		changed := false
		kept := e.note.Tags[:0]
		for _, t := range e.note.Tags {
			current, ok := byID[t.ID]
			if !ok {
				changed = true
				continue
			}
			if current != t {
				changed = true
			}
			kept = append(kept, current)
		}
		e.note.Tags = kept
		if changed {
			e.dirty = true
		}
	}

	s.mu.Unlock()
	s.notify()
}

// =============================================================================
// Active note and recent views
// =============================================================================

// SetActive records the note being viewed and pushes it onto the recent-view
// history.
func (s *NoteStore) SetActive(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.notes[id]; !ok {
		return
	}
	s.activeID = id
	s.recents = removeString(s.recents, id)
	s.recents = append([]string{id}, s.recents...)
	if len(s.recents) > maxRecents {
		s.recents = s.recents[:maxRecents]
	}
}

// Active returns the active note ID, if any.
func (s *NoteStore) Active() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeID
}

// Recents returns the recent-view history, most recent first.
func (s *NoteStore) Recents() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.recents...)
}

// SetRecents restores a persisted recent-view history.
func (s *NoteStore) SetRecents(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recents = append([]string(nil), ids...)
}

// =============================================================================
// Mention resolution
// =============================================================================

// ResolveTitle finds a note ID by title, case-insensitive exact. Earliest
// created note wins on duplicate titles. Satisfies wikilink.Resolver.
func (s *NoteStore) ResolveTitle(title string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resolveTitleLocked(title)
}

func (s *NoteStore) resolveTitleLocked(title string) (string, bool) {
	t := strings.TrimSpace(title)
	for _, id := range s.order {
		if strings.EqualFold(strings.TrimSpace(s.notes[id].note.Title), t) {
			return id, true
		}
	}
	return "", false
}

// recomputeMentionsLocked rebuilds a note's mentions from scratch. A note
// never mentions itself, even when its content names its own title.
func (s *NoteStore) recomputeMentionsLocked(n *Note) {
	ids := wikilink.MentionIDs(n.Content, wikilink.ResolverFunc(s.resolveTitleLocked))
	n.Mentions = removeString(ids, n.ID)
	if n.Mentions == nil {
		n.Mentions = []string{}
	}
}

// RefreshMentions recomputes mentions for every note, used after bulk import
// when mention targets may have arrived later than their referrers.
func (s *NoteStore) RefreshMentions() {
	s.mu.Lock()
	for _, id := range s.order {
		e := s.notes[id]
		old := strings.Join(e.note.Mentions, "\x00")
		s.recomputeMentionsLocked(e.note)
		if strings.Join(e.note.Mentions, "\x00") != old {
			e.dirty = true
		}
	}
	s.mu.Unlock()
	s.notify()
}

// =============================================================================
// Helpers
// =============================================================================

// writeMetadata pushes note metadata to the secondary store without blocking
// the caller. Failures are logged, not surfaced: the authoritative write path
// is the autosave flush.
func (s *NoteStore) writeMetadata(n *Note) {
	if s.meta == nil {
		return
	}
	go func() {
		payload, err := json.Marshal(map[string]any{
			"id":          n.ID,
			"title":       n.Title,
			"contentType": n.ContentType,
			"updatedAt":   n.UpdatedAt,
		})
		if err == nil {
			err = s.meta.Put(metadataStore, n.ID, string(payload))
		}
		if err != nil {
			s.logger.Warn("note metadata write failed", "id", n.ID, "error", err)
		}
	}()
}

func (s *NoteStore) notify() {
	s.mu.RLock()
	fn := s.onChange
	s.mu.RUnlock()
	if fn != nil {
		fn()
	}
}

func removeString(list []string, v string) []string {
	out := list[:0]
	for _, s := range list {
		if s != v {
			out = append(out, s)
		}
	}
	if len(out) == 0 && list == nil {
		return nil
	}
	return out
}
