// Package similarity ranks notes against a query note using a cheap,
// deterministic lexical heuristic: frequent terms and phrases from the query
// note are matched as substrings against every candidate. It is intentionally
// not embedding-based; the AI gateway offers the richer alternative.
package similarity

import (
	"sort"
	"strings"
	"unicode"
)

const (
	// MaxSuggestions caps how many candidates Rank returns.
	MaxSuggestions = 5

	// ScoreThreshold is the minimum match score a candidate must exceed.
	ScoreThreshold = 0.15

	maxKeyTerms   = 15
	maxKeyPhrases = 5

	termWeight    = 0.7
	titleBoost    = 0.2
	tagUnitScore  = 0.1
	recencyBoost  = 0.1
	recencyWindow = 7 * 24 * 60 * 60 * 1000 // 7 days in ms
)

// stopwords are common English function words excluded from term extraction.
var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
	"with": true, "by": true, "from": true, "up": true, "about": true,
	"into": true, "over": true, "after": true, "is": true, "are": true,
	"was": true, "were": true, "be": true, "been": true, "being": true,
	"have": true, "has": true, "had": true, "do": true, "does": true,
	"did": true, "will": true, "would": true, "could": true,
}

// Document is the minimal note projection the scorer needs.
type Document struct {
	ID        string
	Title     string
	Content   string
	TagIDs    []string
	CreatedAt int64 // unix milliseconds
}

// Scored pairs a candidate ID with its match score.
type Scored struct {
	ID    string
	Score float64
}

// tokenize splits lowercased text on non-word runs and drops short tokens
// and stopwords.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_')
	})

	result := make([]string, 0, len(fields))
	for _, w := range fields {
		if len(w) <= 2 || stopwords[w] {
			continue
		}
		result = append(result, w)
	}
	return result
}

// topByFrequency returns up to limit entries, highest count first.
// Ties keep first-occurrence order so results are deterministic.
func topByFrequency(items []string, limit int) []string {
	counts := make(map[string]int, len(items))
	order := make([]string, 0, len(items))
	for _, it := range items {
		if counts[it] == 0 {
			order = append(order, it)
		}
		counts[it]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	if len(order) > limit {
		order = order[:limit]
	}
	return order
}

// SignificantTerms extracts the feature set for a note: its top frequent
// single tokens followed by its top frequent adjacent-token bigrams.
func SignificantTerms(title, content string) []string {
	tokens := tokenize(title + " " + content)
	if len(tokens) == 0 {
		return nil
	}

	keyTerms := topByFrequency(tokens, maxKeyTerms)

	var bigrams []string
	for i := 0; i+1 < len(tokens); i++ {
		// tokenize already dropped stopwords; a bigram touching one would
		// still be skipped here
		if stopwords[tokens[i]] || stopwords[tokens[i+1]] {
			continue
		}
		bigrams = append(bigrams, tokens[i]+" "+tokens[i+1])
	}
	keyPhrases := topByFrequency(bigrams, maxKeyPhrases)

	seen := make(map[string]bool, len(keyTerms)+len(keyPhrases))
	terms := make([]string, 0, len(keyTerms)+len(keyPhrases))
	for _, t := range append(keyTerms, keyPhrases...) {
		if !seen[t] {
			seen[t] = true
			terms = append(terms, t)
		}
	}
	return terms
}

// Score computes the match score of a single candidate against the query's
// significant terms.
func Score(query Document, terms []string, candidate Document) float64 {
	var score float64

	if len(terms) > 0 {
		text := strings.ToLower(candidate.Title + " " + candidate.Content)
		title := strings.ToLower(candidate.Title)

		matched := 0
		inTitle := false
		for _, term := range terms {
			if strings.Contains(text, term) {
				matched++
			}
			if strings.Contains(title, term) {
				inTitle = true
			}
		}

		score = float64(matched) / float64(len(terms)) * termWeight
		if inTitle {
			score += titleBoost
		}
	}

	score += tagUnitScore * float64(tagOverlap(query.TagIDs, candidate.TagIDs))

	diff := query.CreatedAt - candidate.CreatedAt
	if diff < 0 {
		diff = -diff
	}
	if diff < recencyWindow {
		score += recencyBoost
	}

	return score
}

// Rank scores every candidate against the query note and returns at most
// MaxSuggestions results above ScoreThreshold, highest first. The query note
// itself is never returned.
func Rank(query Document, candidates []Document) []Scored {
	terms := SignificantTerms(query.Title, query.Content)

	var scored []Scored
	for _, c := range candidates {
		if c.ID == query.ID {
			continue
		}
		s := Score(query, terms, c)
		if s > ScoreThreshold {
			scored = append(scored, Scored{ID: c.ID, Score: s})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > MaxSuggestions {
		scored = scored[:MaxSuggestions]
	}
	return scored
}

func tagOverlap(a, b []string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]bool, len(a))
	for _, id := range a {
		set[id] = true
	}
	n := 0
	for _, id := range b {
		if set[id] {
			n++
		}
	}
	return n
}
