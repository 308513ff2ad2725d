package extractor

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// createTestDOCX builds a minimal DOCX package whose body holds one paragraph per entry.
func createTestDOCX(t *testing.T, paragraphs ...string) []byte {
	t.Helper()

	var body strings.Builder
	for _, p := range paragraphs {
		if p == "" {
			body.WriteString("<w:p/>")
			continue
		}
		fmt.Fprintf(&body, `<w:p><w:pPr><w:tabs><w:tab w:val="left" w:pos="720"/></w:tabs></w:pPr><w:r><w:t xml:space="preserve">%s</w:t></w:r></w:p>`, p)
	}
	documentXML := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		body.String() + `</w:body></w:document>`

	files := []struct{ name, content string }{
		{"[Content_Types].xml", `<?xml version="1.0" encoding="UTF-8"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`},
		{"_rels/.rels", `<?xml version="1.0" encoding="UTF-8"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`},
		{"word/document.xml", documentXML},
	}

	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)
	for _, f := range files {
		fw, err := w.Create(f.name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(f.content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestWordExtractor_DropsShortParagraphsAndKeepsOrdinals(t *testing.T) {
	e := NewWordExtractor(zap.NewNop(), DefaultMinParagraphLength)
	data := createTestDOCX(t, "Hello", "Fifteen chars!!", "Thirty characters long text!!!")

	res, err := e.Extract(context.Background(), bytes.NewReader(data))
	require.NoError(t, err)

	require.Len(t, res.Paragraphs, 2)
	assert.Equal(t, "Fifteen chars!!", res.Paragraphs[0].Text)
	assert.Equal(t, 2, res.Paragraphs[0].Page)
	assert.Equal(t, 2, res.Paragraphs[0].ParagraphIndex)
	assert.Equal(t, "Thirty characters long text!!!", res.Paragraphs[1].Text)
	assert.Equal(t, 3, res.Paragraphs[1].Page)
	assert.Equal(t, 3, res.Paragraphs[1].ParagraphIndex)
	assert.Equal(t, 3, res.TotalPages)
	assert.Equal(t, "Fifteen chars!!\nThirty characters long text!!!", res.FullText)
	assert.Equal(t, 16, res.Paragraphs[1].StartPosition)
	assert.Equal(t, 46, res.Paragraphs[1].EndPosition)
}

func TestWordExtractor_EmptyParagraphsCount(t *testing.T) {
	e := NewWordExtractor(zap.NewNop(), DefaultMinParagraphLength)
	data := createTestDOCX(t, "", "", "A paragraph after two blank ones.")

	res, err := e.Extract(context.Background(), bytes.NewReader(data))
	require.NoError(t, err)

	require.Len(t, res.Paragraphs, 1)
	assert.Equal(t, 3, res.Paragraphs[0].Page)
}

func TestWordExtractor_NotAWordFile(t *testing.T) {
	e := NewWordExtractor(zap.NewNop(), DefaultMinParagraphLength)

	_, err := e.Extract(context.Background(), strings.NewReader("definitely not a zip archive"))
	assert.Error(t, err)
}

func TestParseDocumentXML(t *testing.T) {
	xmlDoc := `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>
<w:p><w:r><w:t>Tab</w:t><w:tab/><w:t>bed</w:t></w:r><w:r><w:br/><w:t>next</w:t></w:r></w:p>
<w:tbl><w:tr><w:tc><w:p><w:r><w:t>inside a table</w:t></w:r></w:p></w:tc></w:tr></w:tbl>
<w:p><w:r><w:t>Second</w:t></w:r></w:p>
</w:body></w:document>`

	got, err := parseDocumentXML(strings.NewReader(xmlDoc))
	require.NoError(t, err)

	assert.Equal(t, []string{"Tab\tbed\nnext", "Second"}, got)
}
