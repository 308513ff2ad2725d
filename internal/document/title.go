package document

import (
	"regexp"
	"strings"
)

// DefaultTitleLength is the default maximum title length in characters.
const DefaultTitleLength = 100

var (
	sentenceEnd = regexp.MustCompile(`[.!?]+`)
	whitespace  = regexp.MustCompile(`\s+`)
)

// DeriveTitle uses the first sentence of text as a title, collapsing whitespace
// and truncating to maxLength characters with a trailing "...". When the text
// opens with a terminator the first sentence is empty, and the leading
// characters of the raw text are used instead.
func DeriveTitle(text string, maxLength int) string {
	if maxLength <= 0 {
		maxLength = DefaultTitleLength
	}

	title := strings.TrimSpace(sentenceEnd.Split(text, 2)[0])
	if title == "" {
		title = strings.TrimSpace(truncate(strings.TrimSpace(text), maxLength))
	}

	title = whitespace.ReplaceAllString(title, " ")
	if len([]rune(title)) > maxLength {
		title = truncate(title, maxLength) + "..."
	}
	return title
}

func truncate(s string, n int) string {
	rs := []rune(s)
	if len(rs) <= n {
		return s
	}
	return string(rs[:n])
}
