// Package token holds the word and sentence splitting used by both the
// validator and the sentences backfill. Tokens are maximal alphabetic runs
// (apostrophes included), lowercased; everything else is a separator.
package token

import (
	"regexp"
	"strings"
)

var (
	wordRe     = regexp.MustCompile(`[A-Za-z']+`)
	sentenceRe = regexp.MustCompile(`[.!?]+\s*`)
)

func Normalize(w string) string {
	return strings.ToLower(w)
}

// Tokenize returns the normalized tokens of text in order of appearance,
// duplicates retained.
func Tokenize(text string) []string {
	matches := wordRe.FindAllString(text, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, Normalize(m))
	}
	return out
}

// SplitSentences splits on runs of terminal punctuation and drops empty
// fragments. No abbreviation or clause handling.
func SplitSentences(text string) []string {
	parts := sentenceRe.Split(strings.TrimSpace(text), -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// UniqueFirstAppearance removes duplicates keeping each token's first
// occurrence in original order.
func UniqueFirstAppearance(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
