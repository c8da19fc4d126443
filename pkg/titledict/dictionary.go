// Package titledict provides a runtime dictionary over note titles.
// A single Aho-Corasick automaton serves as both the case-insensitive title
// lookup used by mention resolution AND a text scanner that surfaces unlinked
// mentions (titles appearing in content without [[ ]] syntax).
package titledict

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	ahocorasick "github.com/coregx/ahocorasick"
)

// Entry is one note title registered in the dictionary.
type Entry struct {
	ID    string
	Title string
}

// Match is a detected unlinked title occurrence in scanned text.
type Match struct {
	Start  int    // byte offset start
	End    int    // byte offset end
	Text   string // original text slice
	NoteID string // resolved note
}

// Dictionary resolves titles and scans text for them.
type Dictionary struct {
	ac         *ahocorasick.Automaton
	patterns   []string
	patternIDs []string          // pattern index -> note ID
	titleIndex map[string]string // normalized title -> note ID
}

// Normalize lowercases a title and collapses interior whitespace for
// case-insensitive exact matching.
func Normalize(title string) string {
	lowered := strings.Map(unicode.ToLower, strings.TrimSpace(title))
	return strings.Join(strings.Fields(lowered), " ")
}

// Compile builds a dictionary from note titles. Later entries win on
// duplicate titles, matching map-replacement semantics of the note set.
func Compile(entries []Entry) (*Dictionary, error) {
	d := &Dictionary{
		titleIndex: make(map[string]string, len(entries)),
	}

	index := make(map[string]int, len(entries))
	for _, e := range entries {
		key := Normalize(e.Title)
		if key == "" {
			continue
		}
		d.titleIndex[key] = e.ID

		if idx, exists := index[key]; exists {
			d.patternIDs[idx] = e.ID
			continue
		}
		index[key] = len(d.patterns)
		d.patterns = append(d.patterns, key)
		d.patternIDs = append(d.patternIDs, e.ID)
	}

	if len(d.patterns) == 0 {
		return d, nil
	}
	ac, err := ahocorasick.NewBuilder().
		AddStrings(d.patterns).
		Build()
	if err != nil {
		return nil, err
	}
	d.ac = ac

	return d, nil
}

// ResolveTitle finds the note ID for a title, case-insensitively.
// Satisfies the wikilink.Resolver contract.
func (d *Dictionary) ResolveTitle(title string) (string, bool) {
	id, ok := d.titleIndex[Normalize(title)]
	return id, ok
}

// Len returns the number of distinct registered titles.
func (d *Dictionary) Len() int {
	return len(d.patterns)
}

// ScanUnlinked finds note titles occurring in text outside [[ ]] spans,
// matching case-insensitively and on whole words only. Overlapping hits
// resolve leftmost-longest. These are candidate links, not stored mentions.
func (d *Dictionary) ScanUnlinked(text string) []Match {
	if d.ac == nil || text == "" {
		return nil
	}

	folded := fold(text)

	var candidates []Match
	for _, m := range d.ac.FindAllOverlapping([]byte(folded.lowered)) {
		start, end := folded.back[m.Start], folded.back[m.End]
		if !wholeWord(text, start, end) || insideBrackets(text, start) {
			continue
		}
		candidates = append(candidates, Match{
			Start:  start,
			End:    end,
			Text:   text[start:end],
			NoteID: d.patternIDs[m.PatternID],
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Start != candidates[j].Start {
			return candidates[i].Start < candidates[j].Start
		}
		return candidates[i].End > candidates[j].End
	})

	var result []Match
	next := 0
	for _, c := range candidates {
		if c.Start < next {
			continue
		}
		result = append(result, c)
		next = c.End
	}
	return result
}

// foldedText is a lowercased copy of scanned text plus a map from each
// lowered byte offset back to the original offset. Lowering can change a
// rune's byte length ('İ' lowers to a two-rune sequence), so automaton
// offsets must be translated before slicing the original text.
type foldedText struct {
	lowered string
	back    []int // len(lowered)+1 entries; back[len(lowered)] == len(original)
}

func fold(text string) foldedText {
	var b strings.Builder
	b.Grow(len(text))
	back := make([]int, 0, len(text)+1)
	for i, r := range text {
		start := b.Len()
		b.WriteRune(unicode.ToLower(r))
		for j := start; j < b.Len(); j++ {
			back = append(back, i)
		}
	}
	back = append(back, len(text))
	return foldedText{lowered: b.String(), back: back}
}

// wholeWord reports whether text[start:end] is not flanked by letters or
// digits in the original text.
func wholeWord(text string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:start])
		if isWordRune(r) {
			return false
		}
	}
	if end < len(text) {
		r, _ := utf8.DecodeRuneInString(text[end:])
		if isWordRune(r) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// insideBrackets reports whether offset falls inside an open [[ ]] span.
func insideBrackets(text string, offset int) bool {
	open := strings.LastIndex(text[:offset], "[[")
	if open == -1 {
		return false
	}
	end := strings.Index(text[open:], "]]")
	return end != -1 && open+end >= offset
}
