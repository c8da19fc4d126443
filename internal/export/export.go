// Package export serializes notes to markdown documents with a structured
// metadata header, and reconstructs notes from such documents on import.
package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/kittclouds/looseleaf/internal/store"
)

// PlaceholderTagColor is assigned to tags created during import when a tag
// name in the document does not resolve against the current tag list.
const PlaceholderTagColor = "#9e9e9e"

// idFragmentLen is how much of the note ID ends up in the filename.
const idFragmentLen = 8

// timeLayout is the header timestamp format.
const timeLayout = time.RFC3339

// Render serializes a note: a `key: value` header block, a blank line, then
// the raw content body.
func Render(n *store.Note) string {
	var b strings.Builder
	fmt.Fprintf(&b, "title: %s\n", n.Title)
	fmt.Fprintf(&b, "id: %s\n", n.ID)
	fmt.Fprintf(&b, "type: %s\n", n.ContentType)
	fmt.Fprintf(&b, "created: %s\n", time.UnixMilli(n.CreatedAt).UTC().Format(timeLayout))
	fmt.Fprintf(&b, "updated: %s\n", time.UnixMilli(n.UpdatedAt).UTC().Format(timeLayout))
	fmt.Fprintf(&b, "tags: %s\n", strings.Join(tagNames(n.Tags), ", "))
	fmt.Fprintf(&b, "connections: %s\n", strings.Join(n.Connections, ", "))
	fmt.Fprintf(&b, "mentions: %s\n", strings.Join(n.Mentions, ", "))
	b.WriteString("\n")
	b.WriteString(n.Content)
	return b.String()
}

// Filename derives the export filename: slugified title plus an ID fragment.
func Filename(n *store.Note) string {
	id := n.ID
	if len(id) > idFragmentLen {
		id = id[:idFragmentLen]
	}
	return Slug(n.Title) + "-" + id + ".md"
}

// Slug lowercases a title and reduces it to hyphen-separated word runs.
func Slug(title string) string {
	var b strings.Builder
	lastHyphen := true // suppress a leading hyphen
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		case !lastHyphen:
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if out == "" {
		return "note"
	}
	return out
}

// TagResolver resolves tag names during import. Implemented by NoteStore.
type TagResolver interface {
	TagByName(name string) (store.Tag, bool)
	CreateTag(name, color string) store.Tag
}

// Parse reconstructs a note from an exported document. Header keys it does
// not recognize are skipped. Tag names resolve against the resolver; an
// unknown name creates a placeholder tag with the default color.
func Parse(doc string, tags TagResolver) (*store.Note, error) {
	header, body, found := strings.Cut(doc, "\n\n")
	if !found {
		return nil, fmt.Errorf("export: document has no header/body separator")
	}

	n := &store.Note{
		ContentType: store.ContentText,
		Content:     body,
	}

	for _, line := range strings.Split(header, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.TrimSpace(key) {
		case "title":
			n.Title = value
		case "id":
			n.ID = value
		case "type":
			n.ContentType = store.ContentType(value)
		case "created":
			if ts, err := time.Parse(timeLayout, value); err == nil {
				n.CreatedAt = ts.UnixMilli()
			}
		case "updated":
			if ts, err := time.Parse(timeLayout, value); err == nil {
				n.UpdatedAt = ts.UnixMilli()
			}
		case "tags":
			for _, name := range splitList(value) {
				tag, ok := tags.TagByName(name)
				if !ok {
					tag = tags.CreateTag(name, PlaceholderTagColor)
				}
				n.Tags = append(n.Tags, tag)
			}
		case "connections":
			n.Connections = splitList(value)
		case "mentions":
			n.Mentions = splitList(value)
		}
	}

	if n.Title == "" {
		return nil, fmt.Errorf("export: document has no title")
	}
	return n, nil
}

// ImportAll parses a batch of documents and bulk-loads them into the store.
// Parse failures skip the document; the count of imported notes and the
// first error encountered are returned.
func ImportAll(docs []string, s *store.NoteStore) (int, error) {
	var notes []*store.Note
	var firstErr error
	for _, doc := range docs {
		n, err := Parse(doc, s)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		notes = append(notes, n)
	}
	if len(notes) > 0 {
		existing := s.List()
		s.SetAll(append(existing, notes...))
	}
	return len(notes), firstErr
}

func tagNames(tags []store.Tag) []string {
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = t.Name
	}
	return names
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
