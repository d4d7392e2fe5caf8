// Package search offers did-you-mean corrections over a vocabulary of known words.
package search

import (
	"strings"
	"unicode"

	"github.com/xrash/smetrics"
)

// DefaultThreshold is the minimum Jaro-Winkler similarity for a correction
const DefaultThreshold = 0.85

// Tokenize lower-cases text and splits it into words of letters and digits
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Vocabulary builds a de-duplicated word list from names
func Vocabulary(names []string) []string {
	seen := map[string]bool{}
	words := []string{}
	for _, name := range names {
		for _, w := range Tokenize(name) {
			if !seen[w] {
				seen[w] = true
				words = append(words, w)
			}
		}
	}
	return words
}

// Suggest corrects each word of query to its closest vocabulary word.
// It returns ok=false when nothing changed.
func Suggest(query string, vocabulary []string, threshold float64) (string, bool) {
	words := Tokenize(query)
	if len(words) == 0 || len(vocabulary) == 0 {
		return "", false
	}

	known := make(map[string]bool, len(vocabulary))
	for _, v := range vocabulary {
		known[v] = true
	}

	changed := false
	for i, w := range words {
		if known[w] {
			continue
		}
		best, bestScore := "", threshold
		for _, candidate := range vocabulary {
			score := smetrics.JaroWinkler(w, candidate, 0.7, 4)
			if score > bestScore || (score == bestScore && best == "") {
				best, bestScore = candidate, score
			}
		}
		if best != "" {
			words[i] = best
			changed = true
		}
	}

	if !changed {
		return "", false
	}
	return strings.Join(words, " "), true
}
