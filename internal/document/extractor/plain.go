package extractor

import (
	"context"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var blankLines = regexp.MustCompile(`\n\s*\n`)

// PlainExtractor extracts paragraphs from plain text documents. All paragraphs
// are placed on page 1.
type PlainExtractor struct {
	minLength int
}

// NewPlainExtractor creates a new plain text extractor
func NewPlainExtractor(minLength int) *PlainExtractor {
	return &PlainExtractor{minLength: minLength}
}

// Extract splits the decoded text on blank lines. Undecodable bytes are dropped.
func (e *PlainExtractor) Extract(ctx context.Context, reader io.Reader) (*Result, error) {
	raw, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		paragraphs []Paragraph
		kept       []string
	)
	for i, seg := range blankLines.Split(decodePermissive(raw), -1) {
		text := strings.TrimSpace(seg)
		if utf8.RuneCountInString(text) <= e.minLength {
			continue
		}
		paragraphs = append(paragraphs, Paragraph{
			Text:           text,
			Page:           1,
			ParagraphIndex: i + 1,
		})
		kept = append(kept, text)
	}

	full := strings.Join(kept, "\n")
	// Spans locate the first occurrence, so repeated paragraphs share a span.
	for i := range paragraphs {
		at := strings.Index(full, paragraphs[i].Text)
		start := utf8.RuneCountInString(full[:at])
		paragraphs[i].StartPosition = start
		paragraphs[i].EndPosition = start + utf8.RuneCountInString(paragraphs[i].Text)
	}

	return newResult(full, paragraphs), nil
}

// decodePermissive decodes UTF-8 (or UTF-16 when a BOM says so) and drops
// anything that does not decode.
func decodePermissive(raw []byte) string {
	decoded, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), raw)
	if err != nil {
		decoded = raw
	}
	return strings.Map(func(r rune) rune {
		if r == utf8.RuneError {
			return -1
		}
		return r
	}, string(decoded))
}
