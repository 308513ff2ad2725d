package extractor

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// splitPageParagraphs splits the text of one page into paragraphs. A boundary is
// any of: a run of blank lines, a newline followed by an upper-case letter, or a
// sentence terminator followed by whitespace ending in a newline.
//
// Offsets advance by each raw segment's length plus one for the separator, so
// spans are approximate once a separator is longer than one character.
func splitPageParagraphs(text string, page, base, minLength int) []Paragraph {
	var paragraphs []Paragraph
	pos := 0
	for i, seg := range splitOnBoundaries([]rune(text)) {
		trimmed := strings.TrimSpace(string(seg))
		if n := utf8.RuneCountInString(trimmed); n > minLength {
			paragraphs = append(paragraphs, Paragraph{
				Text:           trimmed,
				Page:           page,
				ParagraphIndex: i + 1,
				StartPosition:  base + pos,
				EndPosition:    base + pos + n,
			})
		}
		pos += len(seg) + 1
	}
	return paragraphs
}

func splitOnBoundaries(rs []rune) [][]rune {
	var segments [][]rune
	start := 0
	for i := 0; i < len(rs); {
		if end, ok := boundaryAt(rs, i); ok {
			segments = append(segments, rs[start:i])
			start, i = end, end
			continue
		}
		i++
	}
	return append(segments, rs[start:])
}

// boundaryAt reports whether a paragraph boundary starts at rs[i] and where it ends.
// The rules are tried in order and the first match wins.
func boundaryAt(rs []rune, i int) (int, bool) {
	j := i + 1
	for j < len(rs) && unicode.IsSpace(rs[j]) {
		j++
	}

	if rs[i] == '\n' {
		if end, ok := lastNewline(rs, i, j); ok {
			return end, true
		}
		if j < len(rs) && rs[j] >= 'A' && rs[j] <= 'Z' {
			return i + 1, true
		}
		return 0, false
	}

	if i > 0 && unicode.IsSpace(rs[i]) && strings.ContainsRune(".!?", rs[i-1]) {
		return lastNewline(rs, i, j)
	}
	return 0, false
}

// lastNewline finds the last newline in rs(i, j) and returns the index after it.
func lastNewline(rs []rune, i, j int) (int, bool) {
	for k := j - 1; k > i; k-- {
		if rs[k] == '\n' {
			return k + 1, true
		}
	}
	return 0, false
}
