package search

import (
	"regexp"
	"strings"
)

var (
	// termPattern matches words of two or more word characters.
	termPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)
	// wordPattern matches any run of word characters.
	wordPattern = regexp.MustCompile(`[\p{L}\p{N}_]+`)
)

// analyze lower-cases text, drops stop words and returns unigrams followed by
// n-grams up to maxN built from the remaining adjacent tokens.
func analyze(text string, maxN int) []string {
	var tokens []string
	for _, tok := range termPattern.FindAllString(strings.ToLower(text), -1) {
		if _, stop := englishStopWords[tok]; !stop {
			tokens = append(tokens, tok)
		}
	}
	if maxN <= 1 || len(tokens) < 2 {
		return tokens
	}

	terms := append([]string(nil), tokens...)
	for n := 2; n <= maxN && n <= len(tokens); n++ {
		for i := 0; i+n <= len(tokens); i++ {
			terms = append(terms, strings.Join(tokens[i:i+n], " "))
		}
	}
	return terms
}

// wordSet returns the distinct lower-cased words of text.
func wordSet(text string) map[string]struct{} {
	words := wordPattern.FindAllString(strings.ToLower(text), -1)
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
