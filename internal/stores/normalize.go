// Package stores canonicalizes store names and decides whether two names
// denote the same store. Stateless pure functions, safe for concurrent use.
package stores

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agext/levenshtein"

	"github.com/famcart/receipt-analyzer/constants"
)

var (
	reNonAlnum   = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
	reWhitespace = regexp.MustCompile(`\s+`)

	levParams = levenshtein.NewParams()
)

// Normalize canonicalizes a store name for use as a stable list key:
// punctuation removed, whitespace collapsed, title case, trimmed. Names that
// normalize to nothing land in the sentinel bucket.
func Normalize(name string) string {
	s := reNonAlnum.ReplaceAllString(name, "")
	s = reWhitespace.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	if s == "" {
		return constants.UnknownStore
	}

	words := strings.Split(s, " ")
	for i, w := range words {
		words[i] = titleWord(w)
	}
	return strings.Join(words, " ")
}

// Similar reports whether two store names likely denote the same store:
// exact match after lowering/trimming, substring containment either way, or
// Levenshtein similarity at or above the configured threshold.
func Similar(a, b string) bool {
	la := strings.ToLower(strings.TrimSpace(a))
	lb := strings.ToLower(strings.TrimSpace(b))
	if la == lb {
		return true
	}
	if la == "" || lb == "" {
		return false
	}
	if strings.Contains(la, lb) || strings.Contains(lb, la) {
		return true
	}

	dist := levenshtein.Distance(la, lb, levParams)
	maxLen := utf8.RuneCountInString(la)
	if n := utf8.RuneCountInString(lb); n > maxLen {
		maxLen = n
	}
	similarity := 1.0 - float64(dist)/float64(maxLen)
	return similarity >= constants.StoreSimilarityThreshold
}

func titleWord(w string) string {
	r, size := utf8.DecodeRuneInString(w)
	if r == utf8.RuneError {
		return w
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(w[size:])
}
