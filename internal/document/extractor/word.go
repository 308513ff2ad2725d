package extractor

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/unidoc/unioffice/document"
	"go.uber.org/zap"
)

// WordExtractor extracts paragraphs from Word documents. Word has no reliable
// pagination, so each paragraph element's ordinal doubles as its pseudo-page.
type WordExtractor struct {
	minLength int
	logger    *zap.Logger
}

// NewWordExtractor creates a new Word extractor
func NewWordExtractor(logger *zap.Logger, minLength int) *WordExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WordExtractor{minLength: minLength, logger: logger}
}

// Extract extracts paragraphs from a Word document
func (e *WordExtractor) Extract(ctx context.Context, reader io.Reader) (*Result, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}

	texts, err := readParagraphs(content)
	if err != nil || len(texts) == 0 {
		if err != nil {
			e.logger.Debug("unioffice read failed, parsing document.xml directly", zap.Error(err))
		}
		fallback, xmlErr := readDocumentXML(content)
		if xmlErr != nil {
			if err != nil {
				return nil, errors.Join(err, xmlErr)
			}
			return nil, xmlErr
		}
		texts = fallback
	}

	var (
		full       strings.Builder
		paragraphs []Paragraph
		offset     int
	)
	for i, raw := range texts {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		text := strings.TrimSpace(raw)
		n := utf8.RuneCountInString(text)
		if n <= e.minLength {
			continue
		}
		paragraphs = append(paragraphs, Paragraph{
			Text:           text,
			Page:           i + 1,
			ParagraphIndex: i + 1,
			StartPosition:  offset,
			EndPosition:    offset + n,
		})
		full.WriteString(text)
		full.WriteByte('\n')
		offset += n + 1
	}

	return newResult(strings.TrimSpace(full.String()), paragraphs), nil
}

func readParagraphs(content []byte) (texts []string, err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("unioffice: %v", v)
		}
	}()

	doc, err := document.Read(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, err
	}
	for _, para := range doc.Paragraphs() {
		var b strings.Builder
		for _, run := range para.Runs() {
			b.WriteString(run.Text())
		}
		texts = append(texts, b.String())
	}
	return texts, nil
}

// readDocumentXML walks word/document.xml and returns the text of each
// body-level paragraph in order.
func readDocumentXML(content []byte) ([]string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("open word archive: %w", err)
	}
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return parseDocumentXML(rc)
	}
	return nil, errors.New("word/document.xml not found")
}

func parseDocumentXML(r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)

	var (
		texts     []string
		buf       strings.Builder
		depth     int
		bodyDepth = -1
		inPara    bool
		inRun     bool
		inText    bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse document.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			switch name := t.Name.Local; {
			case name == "body" && bodyDepth < 0:
				bodyDepth = depth
			case name == "p" && bodyDepth > 0 && depth == bodyDepth+1:
				inPara = true
				buf.Reset()
			case !inPara:
			case name == "r":
				inRun = true
			case name == "t" && inRun:
				inText = true
			case name == "tab" && inRun:
				buf.WriteByte('\t')
			case (name == "br" || name == "cr") && inRun:
				buf.WriteByte('\n')
			}
		case xml.EndElement:
			switch name := t.Name.Local; {
			case name == "t":
				inText = false
			case name == "r":
				inRun = false
			case name == "p" && inPara && depth == bodyDepth+1:
				texts = append(texts, buf.String())
				inPara = false
			}
			depth--
		case xml.CharData:
			if inText {
				buf.Write(t)
			}
		}
	}
	return texts, nil
}
