package document

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sanjeevkumarraob/askyourdoc/internal/document/extractor"
	"github.com/sanjeevkumarraob/askyourdoc/internal/document/extractor/extractortest"
)

func newTestProcessor() *Processor {
	return NewProcessor(zap.NewNop(), DefaultOptions())
}

func TestProcessor_ExtractPlainText(t *testing.T) {
	p := newTestProcessor()

	res, err := p.Extract(context.Background(), strings.NewReader("Para one text here.\n\nPara two text here."), "text/plain; charset=utf-8")
	require.NoError(t, err)

	require.Len(t, res.Paragraphs, 2)
	assert.Equal(t, 1, res.Paragraphs[0].ParagraphIndex)
	assert.Equal(t, 2, res.Paragraphs[1].ParagraphIndex)
}

func TestProcessor_UnsupportedFormat(t *testing.T) {
	p := newTestProcessor()

	_, err := p.Extract(context.Background(), strings.NewReader("png bytes"), "image/png")
	require.Error(t, err)

	var unsupported *UnsupportedFormatError
	require.True(t, errors.As(err, &unsupported))
	assert.Equal(t, "image/png", unsupported.MediaType)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestProcessor_ExtractionError(t *testing.T) {
	p := newTestProcessor()

	_, err := p.Extract(context.Background(), strings.NewReader("garbage"), MediaTypePDF)
	require.Error(t, err)

	var extractionErr *ExtractionError
	require.True(t, errors.As(err, &extractionErr))
	assert.Equal(t, "pdf", extractionErr.Format)
}

func TestProcessor_PDFPageReadFailures(t *testing.T) {
	failingLayout := func(pdf.Page) (pdf.Rows, error) { return nil, errors.New("corrupt text matrix") }
	data := extractortest.BuildPDF("Quarterly figures are summarised on this page.")

	t.Run("plain text rescues the page", func(t *testing.T) {
		p := newTestProcessor()
		p.pdfExtractor = extractor.NewPDFExtractor(zap.NewNop(), extractor.DefaultMinPDFParagraphLength,
			extractor.WithPageReaders(failingLayout, func(pdf.Page) (string, error) {
				return "Quarterly figures recovered from the plain text.", nil
			}))

		res, err := p.Extract(context.Background(), bytes.NewReader(data), MediaTypePDF)
		require.NoError(t, err)
		require.Len(t, res.Paragraphs, 1)
		assert.Equal(t, "Quarterly figures recovered from the plain text.", res.Paragraphs[0].Text)
	})

	t.Run("both methods fail", func(t *testing.T) {
		p := newTestProcessor()
		p.pdfExtractor = extractor.NewPDFExtractor(zap.NewNop(), extractor.DefaultMinPDFParagraphLength,
			extractor.WithPageReaders(failingLayout, func(pdf.Page) (string, error) {
				return "", errors.New("missing font")
			}))

		_, err := p.Extract(context.Background(), bytes.NewReader(data), MediaTypePDF)
		require.Error(t, err)

		var extractionErr *ExtractionError
		require.True(t, errors.As(err, &extractionErr))
		assert.Equal(t, "pdf", extractionErr.Format)
		assert.ErrorContains(t, err, "corrupt text matrix")
		assert.ErrorContains(t, err, "missing font")
	})
}

func TestProcessor_Title(t *testing.T) {
	p := NewProcessor(zap.NewNop(), Options{TitleMaxLength: 10})
	assert.Equal(t, "A long fir...", p.Title("A long first sentence. Second."))
}
