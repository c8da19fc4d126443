// Package wikilink extracts [[Title]] mention references from note content.
// A single left-to-right pass finds non-overlapping bracket spans and resolves
// each candidate title against the live note collection.
package wikilink

import "strings"

// Resolver maps a mention title to a note ID. Matching is case-insensitive
// exact; the implementation owns the case folding.
type Resolver interface {
	ResolveTitle(title string) (id string, ok bool)
}

// ResolverFunc adapts a plain function to the Resolver interface.
type ResolverFunc func(title string) (string, bool)

// ResolveTitle implements Resolver.
func (f ResolverFunc) ResolveTitle(title string) (string, bool) { return f(title) }

// Result holds the output of a parse pass.
type Result struct {
	// Renderable is the content with every resolved [[Title]] span replaced
	// by an inline note link marker. Unresolved spans pass through verbatim.
	Renderable string

	// MentionIDs lists the resolved target note IDs in first-occurrence
	// order. Repeat mentions of the same target collapse to one entry.
	MentionIDs []string
}

// Parse scans content for [[...]] spans and resolves them through r.
// Empty content short-circuits without scanning.
func Parse(content string, r Resolver) Result {
	if content == "" {
		return Result{}
	}

	var out strings.Builder
	out.Grow(len(content))

	var ids []string
	seen := make(map[string]bool)

	i := 0
	n := len(content)
	for i < n {
		open := strings.Index(content[i:], "[[")
		if open == -1 {
			out.WriteString(content[i:])
			break
		}
		open += i

		// Non-greedy: the first ]] after the opener closes the span.
		end := strings.Index(content[open+2:], "]]")
		if end == -1 {
			out.WriteString(content[i:])
			break
		}
		end += open + 2

		out.WriteString(content[i:open])

		raw := content[open : end+2]
		title := strings.TrimSpace(content[open+2 : end])

		if id, ok := resolve(r, title); ok {
			out.WriteString("[")
			out.WriteString(title)
			out.WriteString("](note:")
			out.WriteString(id)
			out.WriteString(")")
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		} else {
			// May resolve later once a matching note exists.
			out.WriteString(raw)
		}

		i = end + 2
	}

	return Result{Renderable: out.String(), MentionIDs: ids}
}

// MentionIDs is a convenience wrapper for callers that only need the
// resolved targets.
func MentionIDs(content string, r Resolver) []string {
	return Parse(content, r).MentionIDs
}

func resolve(r Resolver, title string) (string, bool) {
	if r == nil || title == "" {
		return "", false
	}
	return r.ResolveTitle(title)
}
