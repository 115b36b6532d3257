// internal/ai/confidence.go
package ai

import (
	"strings"
	"unicode"
)

var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "that": {}, "with": {}, "this": {}, "from": {}, "have": {},
	"were": {}, "was": {}, "for": {}, "are": {}, "you": {}, "your": {}, "but": {},
	"not": {}, "they": {}, "their": {}, "them": {}, "then": {}, "than": {}, "into": {},
	"about": {}, "would": {}, "could": {}, "should": {}, "there": {}, "which": {},
	"what": {}, "when": {}, "where": {}, "will": {}, "also": {}, "been": {}, "some": {},
	"more": {}, "most": {}, "very": {}, "just": {}, "like": {}, "over": {}, "such": {},
}

// Confidence scores how well suggestion is grounded in scriptContext: the share
// of the suggestion's content words that also appear in the script. Range [0,1].
func Confidence(suggestion, scriptContext string) float64 {
	words := contentWords(suggestion)
	if len(words) == 0 {
		return 0
	}
	known := make(map[string]struct{})
	for _, w := range contentWords(scriptContext) {
		known[w] = struct{}{}
	}

	hits := 0
	for _, w := range words {
		if _, ok := known[w]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(words))
}

func contentWords(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) < 3 {
			continue
		}
		if _, stop := stopWords[f]; stop {
			continue
		}
		out = append(out, f)
	}
	return out
}
