package document

import (
	"context"
	"errors"
	"io"

	"go.uber.org/zap"

	"github.com/sanjeevkumarraob/askyourdoc/internal/document/extractor"
)

// Paragraph is a segment of document text with page and position metadata.
type Paragraph = extractor.Paragraph

// ExtractionResult is the extracted text of one document.
type ExtractionResult = extractor.Result

// Options tunes the extraction thresholds
type Options struct {
	MinParagraphLength    int
	MinPDFParagraphLength int
	TitleMaxLength        int
}

// DefaultOptions returns the stock extraction thresholds.
func DefaultOptions() Options {
	return Options{
		MinParagraphLength:    extractor.DefaultMinParagraphLength,
		MinPDFParagraphLength: extractor.DefaultMinPDFParagraphLength,
		TitleMaxLength:        DefaultTitleLength,
	}
}

// Processor handles document processing
type Processor struct {
	pdfExtractor   *extractor.PDFExtractor
	wordExtractor  *extractor.WordExtractor
	plainExtractor *extractor.PlainExtractor
	titleMaxLength int
	logger         *zap.Logger
}

// NewProcessor creates a new document processor
func NewProcessor(logger *zap.Logger, opts Options) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{
		pdfExtractor:   extractor.NewPDFExtractor(logger, opts.MinPDFParagraphLength),
		wordExtractor:  extractor.NewWordExtractor(logger, opts.MinParagraphLength),
		plainExtractor: extractor.NewPlainExtractor(opts.MinParagraphLength),
		titleMaxLength: opts.TitleMaxLength,
		logger:         logger,
	}
}

// Extract converts a document into ordered paragraphs using the extractor for
// its media type.
func (p *Processor) Extract(ctx context.Context, r io.Reader, mediaType string) (*ExtractionResult, error) {
	var (
		format string
		res    *ExtractionResult
		err    error
	)

	switch normalize(mediaType) {
	case MediaTypePDF:
		format = "pdf"
		res, err = p.pdfExtractor.Extract(ctx, r)
	case MediaTypeDOCX, MediaTypeMSWord:
		format = "word"
		res, err = p.wordExtractor.Extract(ctx, r)
	case MediaTypeText:
		format = "text"
		res, err = p.plainExtractor.Extract(ctx, r)
	default:
		return nil, &UnsupportedFormatError{MediaType: mediaType}
	}

	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, &ExtractionError{Format: format, Cause: err}
	}

	p.logger.Debug("document extracted",
		zap.String("format", format),
		zap.Int("paragraphs", len(res.Paragraphs)),
		zap.Int("pages", res.TotalPages))
	return res, nil
}

// Title derives a document title from its extracted text.
func (p *Processor) Title(fullText string) string {
	return DeriveTitle(fullText, p.titleMaxLength)
}
