// Package search implements the tiered note search pipeline: free-text
// substring match, structured filters (date, inferred content type, tags),
// and an optional AI-ranked mode delegating to the gateway.
package search

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/kittclouds/looseleaf/internal/store"
)

// SemanticSearcher ranks candidates by relevance to a query. Implemented by
// the gateway; errors surface to the caller, who decides whether to retry
// in basic mode.
type SemanticSearcher interface {
	SemanticSearch(ctx context.Context, query string, notes []*store.Note) ([]*store.Note, error)
}

// Filters narrow a result set after the free-text match.
type Filters struct {
	// Date keeps notes created on the same calendar day. Zero means no
	// date filtering.
	Date time.Time
	// Types keeps notes whose inferred content types intersect the set.
	Types []store.ContentType
	// TagIDs keeps notes carrying at least one of the given tag IDs.
	TagIDs []string
}

// Empty reports whether no filter is set.
func (f Filters) Empty() bool {
	return f.Date.IsZero() && len(f.Types) == 0 && len(f.TagIDs) == 0
}

// Content sniffing patterns. These classify by body shape, so a note that
// merely quotes a URL can classify as a link; that looseness is accepted.
var (
	imagePattern = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)|data:image/`)
	linkPattern  = regexp.MustCompile(`\[[^\]]*\]\([^)]*\)|https?://\S+`)
	audioPattern = regexp.MustCompile(`data:audio/|\.(?:mp3|wav|ogg|m4a)\b`)
	videoPattern = regexp.MustCompile(`data:video/|\.(?:mp4|webm|mov|mkv)\b`)
)

// InferTypes derives the content types present in a note body. Text is
// always present.
func InferTypes(n *store.Note) []store.ContentType {
	types := []store.ContentType{store.ContentText}
	if imagePattern.MatchString(n.Content) {
		types = append(types, store.ContentImage)
	}
	if linkPattern.MatchString(n.Content) {
		types = append(types, store.ContentLink)
	}
	if audioPattern.MatchString(n.Content) {
		types = append(types, store.ContentAudio)
	}
	if videoPattern.MatchString(n.Content) {
		types = append(types, store.ContentVideo)
	}
	return types
}

// Search runs the pipeline over a note snapshot. With an empty query and no
// filters it returns the snapshot unchanged. In AI mode the searcher's
// error propagates instead of silently degrading.
func Search(ctx context.Context, notes []*store.Note, query string, filters Filters, searcher SemanticSearcher) ([]*store.Note, error) {
	if searcher != nil {
		return searcher.SemanticSearch(ctx, query, notes)
	}

	matched := matchText(notes, query)
	if filters.Empty() {
		return matched, nil
	}
	return applyFilters(matched, filters), nil
}

// matchText keeps notes whose title or content contains the query,
// case-insensitive. An empty query keeps everything.
func matchText(notes []*store.Note, query string) []*store.Note {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return notes
	}
	var hits []*store.Note
	for _, n := range notes {
		if strings.Contains(strings.ToLower(n.Title), q) ||
			strings.Contains(strings.ToLower(n.Content), q) {
			hits = append(hits, n)
		}
	}
	return hits
}

// applyFilters narrows in order: date, content type, tags.
func applyFilters(notes []*store.Note, f Filters) []*store.Note {
	out := notes

	if !f.Date.IsZero() {
		y, m, d := f.Date.Date()
		var kept []*store.Note
		for _, n := range out {
			cy, cm, cd := time.UnixMilli(n.CreatedAt).Date()
			if cy == y && cm == m && cd == d {
				kept = append(kept, n)
			}
		}
		out = kept
	}

	if len(f.Types) > 0 {
		var kept []*store.Note
		for _, n := range out {
			if typesIntersect(InferTypes(n), f.Types) {
				kept = append(kept, n)
			}
		}
		out = kept
	}

	if len(f.TagIDs) > 0 {
		var kept []*store.Note
		for _, n := range out {
			if hasAnyTag(n, f.TagIDs) {
				kept = append(kept, n)
			}
		}
		out = kept
	}

	return out
}

func typesIntersect(have, want []store.ContentType) bool {
	for _, h := range have {
		for _, w := range want {
			if h == w {
				return true
			}
		}
	}
	return false
}

func hasAnyTag(n *store.Note, ids []string) bool {
	for _, tag := range n.Tags {
		for _, id := range ids {
			if tag.ID == id {
				return true
			}
		}
	}
	return false
}
