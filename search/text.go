package search

import (
	"slices"
	"strings"
	"unicode"
)

// Words ignored when comparing a query against transcript text.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true, "um": true, "uh": true, "like": true, "so": true,
}

// Terms splits text into lowercase words with punctuation and stop words removed.
// Duplicates are dropped; order of first appearance is kept.
func Terms(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})

	terms := make([]string, 0, len(fields))
	for _, field := range fields {
		word := strings.Trim(field, "'")
		if word == "" || stopWords[word] || slices.Contains(terms, word) {
			continue
		}
		terms = append(terms, word)
	}
	return terms
}

// MatchedTerms returns the query terms that occur verbatim in document.
func MatchedTerms(document, query string) []string {
	queryTerms := Terms(query)
	if len(queryTerms) == 0 {
		return nil
	}

	docTerms := make(map[string]bool)
	for _, word := range Terms(document) {
		docTerms[word] = true
	}

	var matched []string
	for _, term := range queryTerms {
		if docTerms[term] {
			matched = append(matched, term)
		}
	}
	return matched
}

// ContainsAllTerms reports whether every query term occurs verbatim in document.
// A query made only of stop words never matches.
func ContainsAllTerms(document, query string) bool {
	queryTerms := Terms(query)
	return len(queryTerms) > 0 && len(MatchedTerms(document, query)) == len(queryTerms)
}
