// Package store holds the authoritative in-memory note collection.
// All note mutations flow through the NoteStore; other components only read
// snapshots it hands out.
package store

// ContentType classifies a note's payload. Set at creation, never recomputed
// from content.
type ContentType string

const (
	ContentText  ContentType = "text"
	ContentImage ContentType = "image"
	ContentLink  ContentType = "link"
	ContentAudio ContentType = "audio"
	ContentVideo ContentType = "video"
)

// Tag is a display label. Notes embed tags by value at assignment time, so a
// rename does not retroactively update notes holding a stale copy.
type Tag struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Note is a single captured content unit with its relationship edges.
type Note struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Content     string      `json:"content"`
	ContentType ContentType `json:"contentType"`
	CreatedAt   int64       `json:"createdAt"` // unix milliseconds
	UpdatedAt   int64       `json:"updatedAt"`

	Tags        []Tag    `json:"tags"`
	Connections []string `json:"connections"` // directed, outward note IDs
	Mentions    []string `json:"mentions"`    // parser-derived note IDs
	Concepts    []string `json:"concepts,omitempty"`

	Source   string `json:"source,omitempty"`
	MediaURL string `json:"mediaUrl,omitempty"`
	Location string `json:"location,omitempty"`
}

// Clone returns a deep copy safe to hand outside the store.
func (n *Note) Clone() *Note {
	c := *n
	c.Tags = append([]Tag(nil), n.Tags...)
	c.Connections = append([]string(nil), n.Connections...)
	c.Mentions = append([]string(nil), n.Mentions...)
	c.Concepts = append([]string(nil), n.Concepts...)
	return &c
}

// TagIDs returns the IDs of the note's embedded tags.
func (n *Note) TagIDs() []string {
	ids := make([]string, len(n.Tags))
	for i, t := range n.Tags {
		ids[i] = t.ID
	}
	return ids
}

// HasConnection reports whether id is already an outward connection.
func (n *Note) HasConnection(id string) bool {
	for _, c := range n.Connections {
		if c == id {
			return true
		}
	}
	return false
}

// Patch is a partial note update. Nil fields are left untouched.
type Patch struct {
	Title       *string
	Content     *string
	ContentType *ContentType
	Tags        *[]Tag
	Connections *[]string
	Concepts    *[]string
	Source      *string
	MediaURL    *string
	Location    *string
}
