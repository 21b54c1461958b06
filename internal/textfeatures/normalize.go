// Package textfeatures turns free text into fixed-width TF-IDF vectors.
package textfeatures

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

var (
	urlExpr     = regexp.MustCompile(`http\S+|www\S+|https\S+`)
	nonWordExpr = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)
	digitExpr   = regexp.MustCompile(`\p{Nd}+`)
)

// Normalize lowercases text, drops URLs, punctuation and digits, and collapses whitespace.
// Training and prediction both go through this function.
func Normalize(text string) string {
	text = norm.NFC.String(text)
	text = strings.ToLower(text)
	text = urlExpr.ReplaceAllString(text, "")
	text = nonWordExpr.ReplaceAllString(text, "")
	text = digitExpr.ReplaceAllString(text, "")
	return strings.Join(strings.Fields(text), " ")
}

// analyze produces the unigram and bigram terms of a raw text.
func analyze(text string) []string {
	fields := strings.Fields(Normalize(text))
	tokens := fields[:0]
	for _, tok := range fields {
		if utf8.RuneCountInString(tok) < 2 {
			continue
		}
		if _, stop := stopWords[tok]; stop {
			continue
		}
		tokens = append(tokens, tok)
	}

	terms := make([]string, 0, 2*len(tokens))
	terms = append(terms, tokens...)
	for i := 0; i+1 < len(tokens); i++ {
		terms = append(terms, tokens[i]+" "+tokens[i+1])
	}
	return terms
}
