package search

import "strings"

// Words ignored when checking for verbatim matches
var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "be": {}, "is": {}, "are": {},
	"was": {}, "to": {}, "of": {}, "and": {}, "in": {}, "that": {},
	"have": {}, "it": {}, "for": {}, "not": {}, "on": {}, "with": {},
	"as": {}, "you": {}, "do": {}, "at": {}, "this": {}, "but": {},
	"by": {}, "from": {},
}

// terms lowercases text, strips surrounding punctuation from each word and
// drops stop words.
func terms(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	out := fields[:0]
	for _, f := range fields {
		w := strings.ToLower(strings.Trim(f, `.,!?;:'"-()[]{}`))
		if w == "" {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		out = append(out, w)
	}
	return out
}

// verbatim reports whether every significant query term occurs in text.
// A query made only of stop words never matches.
func verbatim(queryTerms []string, text string) bool {
	if len(queryTerms) == 0 {
		return false
	}
	have := make(map[string]struct{})
	for _, w := range terms(text) {
		have[w] = struct{}{}
	}
	for _, q := range queryTerms {
		if _, ok := have[q]; !ok {
			return false
		}
	}
	return true
}
