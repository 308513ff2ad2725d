// Package service implements the document use cases shared by the HTTP API,
// the directory watcher and the CLI.
package service

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sanjeevkumarraob/askyourdoc/internal/document"
	"github.com/sanjeevkumarraob/askyourdoc/internal/search"
	"github.com/sanjeevkumarraob/askyourdoc/internal/store"
)

// Extractor turns raw document bytes into paragraphs and a title.
type Extractor interface {
	Extract(ctx context.Context, r io.Reader, mediaType string) (*document.ExtractionResult, error)
	Title(fullText string) string
}

// Searcher ranks a document's paragraphs against a question.
type Searcher interface {
	Search(query string, paragraphs []document.Paragraph, topK, contextWindow int) []search.Result
}

// FileSaver keeps the raw upload bytes.
type FileSaver interface {
	Save(name string, data []byte) (string, error)
	Remove(path string) error
}

// UploadInput is a file submitted for processing.
type UploadInput struct {
	Filename  string
	MediaType string
	Data      []byte
}

// AskInput is a question about one document. Nil TopK and ContextWindow use
// the search defaults.
type AskInput struct {
	DocumentID    string
	Question      string
	TopK          *int
	ContextWindow *int
}

// Answer holds the paragraphs that best answer a question.
type Answer struct {
	DocumentID              string
	DocumentTitle           string
	OriginalFilename        string
	Results                 []search.Result
	TotalParagraphsSearched int
}

// Documents coordinates extraction, storage and search.
type Documents struct {
	extractor Extractor
	searcher  Searcher
	store     store.Store
	files     FileSaver
	logger    *zap.Logger
	now       func() time.Time
	newID     func(data []byte) string

	defaultTopK    int
	defaultContext int
}

// Option configures Documents.
type Option func(*Documents)

// WithSearchDefaults sets the top_k and context window used when a question
// does not specify them.
func WithSearchDefaults(topK, contextWindow int) Option {
	return func(d *Documents) {
		d.defaultTopK = topK
		d.defaultContext = contextWindow
	}
}

// NewDocuments creates the document service
func NewDocuments(logger *zap.Logger, extractor Extractor, searcher Searcher, st store.Store, files FileSaver, opts ...Option) *Documents {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Documents{
		extractor:      extractor,
		searcher:       searcher,
		store:          st,
		files:          files,
		logger:         logger,
		now:            time.Now,
		newID:          NewDocumentID,
		defaultTopK:    5,
		defaultContext: 5,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// NewDocumentID derives an ID from the content hash and a random suffix:
// doc_<md5[:8]>_<uuid[:8]>.
func NewDocumentID(data []byte) string {
	sum := md5.Sum(data)
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("doc_%s_%s", hex.EncodeToString(sum[:])[:8], suffix[:8])
}

// Upload saves, extracts and registers a document.
func (d *Documents) Upload(ctx context.Context, in UploadInput) (*store.Document, error) {
	mediaType := document.ResolveMediaType(in.Filename, in.MediaType, in.Data)
	if !document.IsSupported(mediaType) {
		return nil, &document.UnsupportedFormatError{MediaType: mediaType}
	}
	if len(in.Data) == 0 {
		return nil, document.ErrEmptyFile
	}

	id := d.newID(in.Data)
	path, err := d.files.Save(id+fileExtension(in.Filename, mediaType), in.Data)
	if err != nil {
		return nil, fmt.Errorf("saving upload: %w", err)
	}

	doc, err := d.process(ctx, id, path, mediaType, in)
	if err != nil {
		if rmErr := d.files.Remove(path); rmErr != nil {
			d.logger.Warn("failed to remove upload after error", zap.String("path", path), zap.Error(rmErr))
		}
		return nil, err
	}

	d.logger.Info("document processed",
		zap.String("document_id", doc.ID),
		zap.String("filename", doc.OriginalFilename),
		zap.String("media_type", mediaType),
		zap.Int("pages", doc.TotalPages),
		zap.Int("paragraphs", len(doc.Paragraphs)))
	return doc, nil
}

func (d *Documents) process(ctx context.Context, id, path, mediaType string, in UploadInput) (*store.Document, error) {
	res, err := d.extractor.Extract(ctx, bytes.NewReader(in.Data), mediaType)
	if err != nil {
		return nil, err
	}

	doc := &store.Document{
		ID:               id,
		OriginalFilename: in.Filename,
		Title:            d.extractor.Title(res.FullText),
		MediaType:        mediaType,
		UploadTime:       d.now().UTC(),
		FileSize:         int64(len(in.Data)),
		TotalPages:       res.TotalPages,
		Paragraphs:       res.Paragraphs,
		FullText:         res.FullText,
		FilePath:         path,
	}
	if err := d.store.Put(ctx, doc); err != nil {
		return nil, fmt.Errorf("storing document: %w", err)
	}
	return doc, nil
}

// Ask finds the paragraphs of a document most relevant to a question.
func (d *Documents) Ask(ctx context.Context, in AskInput) (*Answer, error) {
	doc, err := d.store.Get(ctx, in.DocumentID)
	if err != nil {
		return nil, err
	}

	topK, window := d.defaultTopK, d.defaultContext
	if in.TopK != nil {
		topK = *in.TopK
	}
	if in.ContextWindow != nil {
		window = *in.ContextWindow
	}

	results := d.searcher.Search(in.Question, doc.Paragraphs, topK, window)
	d.logger.Debug("question answered",
		zap.String("document_id", doc.ID),
		zap.Int("results", len(results)))

	return &Answer{
		DocumentID:              doc.ID,
		DocumentTitle:           doc.Title,
		OriginalFilename:        doc.OriginalFilename,
		Results:                 results,
		TotalParagraphsSearched: len(doc.Paragraphs),
	}, nil
}

// List returns summaries of all documents, oldest first.
func (d *Documents) List(ctx context.Context) ([]store.Summary, error) {
	return d.store.List(ctx)
}

// Get returns the summary of one document.
func (d *Documents) Get(ctx context.Context, id string) (*store.Summary, error) {
	doc, err := d.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s := doc.Summary()
	return &s, nil
}

// Delete removes a document and its raw file.
func (d *Documents) Delete(ctx context.Context, id string) error {
	doc, err := d.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := d.store.Delete(ctx, id); err != nil {
		return err
	}
	if err := d.files.Remove(doc.FilePath); err != nil {
		d.logger.Warn("document deleted but file remains", zap.String("document_id", id), zap.Error(err))
	}
	return nil
}

// IsNotFound reports whether err means the document does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}

func fileExtension(filename, mediaType string) string {
	if ext := strings.ToLower(filepath.Ext(filename)); ext != "" {
		return ext
	}
	switch mediaType {
	case document.MediaTypePDF:
		return ".pdf"
	case document.MediaTypeDOCX:
		return ".docx"
	case document.MediaTypeMSWord:
		return ".doc"
	case document.MediaTypeText:
		return ".txt"
	}
	return ""
}
