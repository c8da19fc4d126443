// Package relation answers relationship queries over the note collection:
// explicit connections, inbound backlinks, similarity-ranked suggestions,
// and a graph snapshot for visualization.
package relation

import (
	"log/slog"
	"strings"

	"github.com/kittclouds/looseleaf/internal/store"
	"github.com/kittclouds/looseleaf/pkg/similarity"
)

// EdgeType distinguishes user-created links from parser-derived ones.
type EdgeType string

const (
	EdgeConnection EdgeType = "connection"
	EdgeMention    EdgeType = "mention"
)

// Node is a graph vertex.
type Node struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Edge is a directed graph edge.
type Edge struct {
	Source string   `json:"source"`
	Target string   `json:"target"`
	Type   EdgeType `json:"type"`
}

// Graph is a point-in-time snapshot of the relationship graph.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Suggestion pairs a candidate note with its match score.
type Suggestion struct {
	Note  *store.Note
	Score float64
}

// Engine computes relationships over NoteStore snapshots. It never mutates
// note fields itself; connect/disconnect go through the store.
type Engine struct {
	store  *store.NoteStore
	logger *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New creates an Engine over the store.
func New(s *store.NoteStore, opts ...Option) *Engine {
	e := &Engine{store: s, logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Connect adds a directed link from source to target. Self-links and
// duplicates are rejected by the store.
func (e *Engine) Connect(sourceID, targetID string) {
	e.store.Connect(sourceID, targetID)
}

// Disconnect removes the directed link if present.
func (e *Engine) Disconnect(sourceID, targetID string) {
	e.store.Disconnect(sourceID, targetID)
}

// Backlinks returns every note whose connections or mentions contain the
// given ID. Computed by a full scan each call: either side of an edge can
// mutate independently, so a cached reverse index would go stale.
func (e *Engine) Backlinks(noteID string) []*store.Note {
	var back []*store.Note
	for _, n := range e.store.List() {
		if n.ID == noteID {
			continue
		}
		if containsString(n.Connections, noteID) || containsString(n.Mentions, noteID) {
			back = append(back, n)
		}
	}
	return back
}

// Suggest ranks other notes by content similarity to the given note.
// At most five suggestions, score-descending, all above the score floor.
func (e *Engine) Suggest(noteID string) []Suggestion {
	query, ok := e.store.Get(noteID)
	if !ok {
		return nil
	}

	notes := e.store.List()
	byID := make(map[string]*store.Note, len(notes))
	candidates := make([]similarity.Document, 0, len(notes))
	for _, n := range notes {
		if n.ID == noteID {
			continue
		}
		byID[n.ID] = n
		candidates = append(candidates, toDocument(n))
	}

	scored := similarity.Rank(toDocument(query), candidates)
	suggestions := make([]Suggestion, 0, len(scored))
	for _, s := range scored {
		suggestions = append(suggestions, Suggestion{Note: byID[s.ID], Score: s.Score})
	}
	return suggestions
}

// GraphData builds the full relationship graph: one node per note, one
// typed edge per connection and per mention.
func (e *Engine) GraphData() Graph {
	notes := e.store.List()
	g := Graph{Nodes: make([]Node, 0, len(notes))}
	for _, n := range notes {
		g.Nodes = append(g.Nodes, Node{ID: n.ID, Title: n.Title})
		for _, target := range n.Connections {
			g.Edges = append(g.Edges, Edge{Source: n.ID, Target: target, Type: EdgeConnection})
		}
		for _, target := range n.Mentions {
			g.Edges = append(g.Edges, Edge{Source: n.ID, Target: target, Type: EdgeMention})
		}
	}
	return g
}

func toDocument(n *store.Note) similarity.Document {
	content := n.Content
	if len(n.Concepts) > 0 {
		// AI-derived concepts widen the matchable text
		content += " " + strings.Join(n.Concepts, " ")
	}
	return similarity.Document{
		ID:        n.ID,
		Title:     n.Title,
		Content:   content,
		TagIDs:    n.TagIDs(),
		CreatedAt: n.CreatedAt,
	}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
