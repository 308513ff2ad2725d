package extractor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"
)

// paragraphGapFactor is how much larger than the typical line gap a vertical
// gap must be before it is rendered as a blank line.
const paragraphGapFactor = 1.5

// LayoutReader returns a page's text grouped into positioned rows.
type LayoutReader func(pdf.Page) (pdf.Rows, error)

// PlainReader returns a page's text in content-stream order.
type PlainReader func(pdf.Page) (string, error)

// PDFExtractor extracts paragraphs from PDF documents page by page
type PDFExtractor struct {
	minLength int
	logger    *zap.Logger
	layout    LayoutReader
	plain     PlainReader
}

// PDFOption configures a PDFExtractor.
type PDFOption func(*PDFExtractor)

// WithPageReaders replaces the layout-aware and plain page text methods.
// A nil reader keeps the library default.
func WithPageReaders(layout LayoutReader, plain PlainReader) PDFOption {
	return func(e *PDFExtractor) {
		if layout != nil {
			e.layout = layout
		}
		if plain != nil {
			e.plain = plain
		}
	}
}

// NewPDFExtractor creates a new PDF extractor
func NewPDFExtractor(logger *zap.Logger, minLength int, opts ...PDFOption) *PDFExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &PDFExtractor{
		minLength: minLength,
		logger:    logger,
		layout:    pdf.Page.GetTextByRow,
		plain: func(p pdf.Page) (string, error) {
			return p.GetPlainText(nil)
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract reads every page with the row-based layout method and falls back to
// the plain page text when that fails. It only returns an error when both fail.
func (e *PDFExtractor) Extract(ctx context.Context, reader io.Reader) (*Result, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}

	r, err := openPDF(content)
	if err != nil {
		return nil, err
	}

	var (
		full       strings.Builder
		paragraphs []Paragraph
		offset     int
	)
	for i := 1; i <= r.NumPage(); i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		text, err := e.pageText(r, i)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		if text == "" {
			continue
		}

		paragraphs = append(paragraphs, splitPageParagraphs(text, i, offset, e.minLength)...)
		full.WriteString(text)
		full.WriteByte('\n')
		offset += utf8.RuneCountInString(text) + 1
	}

	return newResult(strings.TrimSpace(full.String()), paragraphs), nil
}

func (e *PDFExtractor) pageText(r *pdf.Reader, num int) (string, error) {
	var page pdf.Page
	if err := recovered(func() error {
		page = r.Page(num)
		return nil
	}); err != nil {
		return "", err
	}
	if page.V.IsNull() {
		return "", nil
	}

	var text string
	layoutErr := recovered(func() error {
		rows, err := e.layout(page)
		if err != nil {
			return err
		}
		text = layoutText(rows)
		return nil
	})
	if layoutErr == nil && strings.TrimSpace(text) != "" {
		return text, nil
	}
	if layoutErr != nil {
		e.logger.Warn("layout extraction failed, using plain page text",
			zap.Int("page", num), zap.Error(layoutErr))
	}

	plainErr := recovered(func() error {
		var err error
		text, err = e.plain(page)
		return err
	})
	if plainErr != nil {
		if layoutErr != nil {
			return "", errors.Join(layoutErr, plainErr)
		}
		return "", plainErr
	}
	return text, nil
}

func openPDF(content []byte) (r *pdf.Reader, err error) {
	err = recovered(func() error {
		var openErr error
		r, openErr = pdf.NewReader(bytes.NewReader(content), int64(len(content)))
		return openErr
	})
	return r, err
}

// recovered runs fn and turns a panic inside the PDF library into an error.
func recovered(fn func() error) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("pdf: %v", v)
		}
	}()
	return fn()
}

// layoutText rebuilds page text from positioned rows, top to bottom. A vertical
// gap noticeably wider than the usual line spacing becomes a blank line.
func layoutText(rows pdf.Rows) string {
	gap := typicalLineGap(rows)

	var b strings.Builder
	for i, row := range rows {
		if i > 0 {
			b.WriteByte('\n')
			if gap > 0 && float64(rows[i-1].Position-row.Position) > gap*paragraphGapFactor {
				b.WriteByte('\n')
			}
		}
		for j, t := range row.Content {
			if j > 0 && needsSpace(row.Content[j-1], t) {
				b.WriteByte(' ')
			}
			b.WriteString(t.S)
		}
	}
	return b.String()
}

func typicalLineGap(rows pdf.Rows) float64 {
	var gaps []float64
	for i := 1; i < len(rows); i++ {
		if d := rows[i-1].Position - rows[i].Position; d > 0 {
			gaps = append(gaps, float64(d))
		}
	}
	if len(gaps) < 2 {
		return 0
	}
	sort.Float64s(gaps)
	return gaps[len(gaps)/2]
}

// needsSpace separates text blocks that sit at different x positions on the same
// row. Fragments sharing an x position are pieces of one kerned string.
func needsSpace(prev, cur pdf.Text) bool {
	if cur.X <= prev.X || prev.S == "" || cur.S == "" {
		return false
	}
	last, _ := utf8.DecodeLastRuneInString(prev.S)
	first, _ := utf8.DecodeRuneInString(cur.S)
	return !unicode.IsSpace(last) && !unicode.IsSpace(first)
}
