package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/kittclouds/looseleaf/internal/store"
)

// TextGenerator is the single call shape every task is built on.
// Implemented by Client; tests substitute a canned generator.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// candidateExcerptLen caps per-note content embedded in the semantic-search
// prompt so large notes cannot blow the prompt budget.
const candidateExcerptLen = 200

// Extraction is the tagged result of a list-extraction task. Fallback is
// true when the model's output was not valid JSON and the items came from
// heuristic text splitting instead.
type Extraction struct {
	Items    []string
	Fallback bool
}

// Gateway exposes the four AI tasks over a text generator.
type Gateway struct {
	gen    TextGenerator
	logger *slog.Logger
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Gateway) { g.logger = l }
}

// New creates a Gateway over the given generator.
func New(gen TextGenerator, opts ...Option) *Gateway {
	g := &Gateway{gen: gen, logger: slog.Default()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// SummaryOptions shape the summary request.
type SummaryOptions struct {
	// Length is a free-form length hint ("one sentence", "a paragraph").
	Length string
	// Focus optionally narrows the summary to a topic.
	Focus string
}

// Summarize asks for a summary of the content. An empty model answer is an
// error, not an empty summary.
func (g *Gateway) Summarize(ctx context.Context, content string, opts SummaryOptions) (string, error) {
	length := opts.Length
	if length == "" {
		length = "a short paragraph"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Summarize the following note in %s.", length)
	if opts.Focus != "" {
		fmt.Fprintf(&b, " Focus on: %s.", opts.Focus)
	}
	b.WriteString(" Reply with the summary text only.\n\n")
	b.WriteString(content)

	out, err := g.gen.Generate(ctx, b.String())
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", ErrNoOutput
	}
	return out, nil
}

// Keywords extracts single-word or short keywords from the content.
func (g *Gateway) Keywords(ctx context.Context, content string) (Extraction, error) {
	prompt := "Extract the most important keywords from the following note. " +
		"Reply with a JSON array of strings and nothing else, " +
		`for example ["alpha","beta"].` + "\n\n" + content
	return g.extractList(ctx, "keywords", prompt)
}

// Concepts extracts broader themes and topics from the content. Same wire
// contract as Keywords, different semantic scope.
func (g *Gateway) Concepts(ctx context.Context, content string) (Extraction, error) {
	prompt := "Identify the broader themes and topics discussed in the following note. " +
		"Reply with a JSON array of short theme strings and nothing else, " +
		`for example ["project planning","team morale"].` + "\n\n" + content
	return g.extractList(ctx, "concepts", prompt)
}

// extractList runs a JSON-array task with the heuristic split fallback.
func (g *Gateway) extractList(ctx context.Context, task, prompt string) (Extraction, error) {
	out, err := g.gen.Generate(ctx, prompt)
	if err != nil {
		return Extraction{}, err
	}

	if raw := extractJSONArray(out); raw != "" {
		var items []string
		if err := json.Unmarshal([]byte(raw), &items); err == nil {
			return Extraction{Items: items}, nil
		} else {
			g.logger.Warn("list extraction parse failed, using split fallback",
				"task", task, "error", err)
		}
	} else {
		g.logger.Warn("list extraction found no JSON array, using split fallback",
			"task", task)
	}

	return Extraction{Items: splitItems(out), Fallback: true}, nil
}

// SemanticSearch asks the model to rank candidate notes by relevance to the
// query. The model answers with 1-based indices into the candidate list; an
// unparsable answer degrades to an AND-of-terms substring search. Generator
// errors propagate so the caller can fall back to basic search.
func (g *Gateway) SemanticSearch(ctx context.Context, query string, notes []*store.Note) ([]*store.Note, error) {
	if len(notes) == 0 {
		return nil, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Given the search query %q, rank the notes below by relevance.\n", query)
	b.WriteString("Reply with a JSON array of the relevant note numbers, most relevant first, " +
		"and nothing else, for example [2,1]. Omit irrelevant notes.\n\n")
	for i, n := range notes {
		excerpt := n.Content
		if len(excerpt) > candidateExcerptLen {
			cut := candidateExcerptLen
			for cut > 0 && !utf8.RuneStart(excerpt[cut]) {
				cut--
			}
			excerpt = excerpt[:cut]
		}
		fmt.Fprintf(&b, "%d. %s: %s\n", i+1, n.Title, excerpt)
	}

	out, err := g.gen.Generate(ctx, b.String())
	if err != nil {
		return nil, err
	}

	if raw := extractJSONArray(out); raw != "" {
		var indices []int
		if err := json.Unmarshal([]byte(raw), &indices); err == nil {
			ranked := make([]*store.Note, 0, len(indices))
			for _, idx := range indices {
				if idx < 1 || idx > len(notes) {
					continue
				}
				ranked = append(ranked, notes[idx-1])
			}
			return ranked, nil
		}
		g.logger.Warn("semantic search parse failed, using term fallback", "error", err)
	} else {
		g.logger.Warn("semantic search found no JSON array, using term fallback")
	}

	return termSearch(query, notes), nil
}

// termSearch is the semantic-search fallback: every whitespace-separated
// query term must appear (case-insensitive) in the note's title or content.
func termSearch(query string, notes []*store.Note) []*store.Note {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return nil
	}

	var hits []*store.Note
	for _, n := range notes {
		haystack := strings.ToLower(n.Title + " " + n.Content)
		all := true
		for _, term := range terms {
			if !strings.Contains(haystack, term) {
				all = false
				break
			}
		}
		if all {
			hits = append(hits, n)
		}
	}
	return hits
}
