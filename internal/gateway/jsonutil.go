package gateway

import (
	"regexp"
	"strings"
)

// Pre-compiled patterns for pulling JSON arrays out of model output, which
// commonly arrives wrapped in markdown code fences or chatty framing text.
var (
	// jsonArrayBlockPattern matches JSON arrays inside markdown code blocks.
	jsonArrayBlockPattern = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(\\[.*\\])\\s*```")
	// jsonArrayPattern matches any JSON array (greedy fallback).
	jsonArrayPattern = regexp.MustCompile(`(?s)\[[\s\S]*\]`)
	// trailingCommaPattern matches trailing commas before ] or }.
	trailingCommaPattern = regexp.MustCompile(`,\s*([}\]])`)
)

// extractJSONArray extracts a JSON array from model output. Returns "" when
// no array-shaped text is present.
func extractJSONArray(content string) string {
	if matches := jsonArrayBlockPattern.FindStringSubmatch(content); len(matches) > 1 {
		return cleanJSON(matches[1])
	}
	if match := jsonArrayPattern.FindString(content); match != "" {
		return cleanJSON(match)
	}
	return ""
}

// cleanJSON removes trailing commas, a JSON artifact models produce often.
func cleanJSON(raw string) string {
	return trailingCommaPattern.ReplaceAllString(strings.TrimSpace(raw), "$1")
}

// splitItems is the parse-failure fallback for list extraction: split on
// commas and newlines, strip quote and bracket characters, and drop tokens
// too short to be meaningful.
func splitItems(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == '\n'
	})
	items := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, " \t\"'`[]{}-*")
		if len(f) <= 1 {
			continue
		}
		items = append(items, f)
	}
	return items
}
