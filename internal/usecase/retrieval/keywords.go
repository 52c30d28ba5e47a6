package retrieval

import "strings"

// stopWords are excluded from lexical filtering; they match everything.
var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "to": {}, "of": {}, "in": {}, "on": {},
	"for": {}, "with": {}, "and": {}, "or": {}, "is": {}, "are": {},
	"has": {}, "have": {}, "what": {},
}

// ExtractKeywords tokenizes query text for lexical filtering: lowercase,
// punctuation stripped, tokens longer than 2 chars, stop words removed,
// deduplicated in order of first appearance.
func ExtractKeywords(query string) []string {
	fields := strings.Fields(strings.ToLower(query))

	seen := make(map[string]struct{}, len(fields))
	keywords := make([]string, 0, len(fields))
	for _, f := range fields {
		w := strings.TrimFunc(f, func(r rune) bool {
			return !isWordRune(r)
		})
		if len(w) <= 2 {
			continue
		}
		if _, ok := stopWords[w]; ok {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		keywords = append(keywords, w)
	}
	return keywords
}

func isWordRune(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= '0' && r <= '9'
}

// matchesAny reports whether haystack contains at least one keyword,
// case-insensitive substring match.
func matchesAny(haystack string, keywords []string) bool {
	h := strings.ToLower(haystack)
	for _, kw := range keywords {
		if strings.Contains(h, kw) {
			return true
		}
	}
	return false
}
