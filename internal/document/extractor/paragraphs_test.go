package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func texts(paragraphs []Paragraph) []string {
	out := make([]string, 0, len(paragraphs))
	for _, p := range paragraphs {
		out = append(out, p.Text)
	}
	return out
}

func TestSplitPageParagraphs_BlankLines(t *testing.T) {
	text := "First paragraph is long enough here.\n\nSecond paragraph is also long enough."

	got := splitPageParagraphs(text, 3, 0, DefaultMinPDFParagraphLength)

	require.Len(t, got, 2)
	assert.Equal(t, Paragraph{
		Text:           "First paragraph is long enough here.",
		Page:           3,
		ParagraphIndex: 1,
		StartPosition:  0,
		EndPosition:    36,
	}, got[0])
	assert.Equal(t, "Second paragraph is also long enough.", got[1].Text)
	assert.Equal(t, 2, got[1].ParagraphIndex)
	assert.Equal(t, 37, got[1].StartPosition)
}

func TestSplitPageParagraphs_NewlineBeforeCapital(t *testing.T) {
	text := "this line continues with lowercase text\nand keeps going on the same para\nNew paragraph begins here with capital"

	got := splitPageParagraphs(text, 1, 0, DefaultMinPDFParagraphLength)

	assert.Equal(t, []string{
		"this line continues with lowercase text\nand keeps going on the same para",
		"New paragraph begins here with capital",
	}, texts(got))
}

func TestSplitPageParagraphs_SentenceEndBeforeNewline(t *testing.T) {
	text := "the first sentence ends right here.   \nlowercase continuation makes a second part"

	got := splitPageParagraphs(text, 1, 0, DefaultMinPDFParagraphLength)

	assert.Equal(t, []string{
		"the first sentence ends right here.",
		"lowercase continuation makes a second part",
	}, texts(got))
}

func TestSplitPageParagraphs_ShortFragmentsKeepOrdinal(t *testing.T) {
	text := "Page 3\n\nA real paragraph with plenty of characters."

	got := splitPageParagraphs(text, 3, 100, DefaultMinPDFParagraphLength)

	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].ParagraphIndex)
	assert.Equal(t, 3, got[0].Page)
	assert.Equal(t, 107, got[0].StartPosition)
}

func TestSplitPageParagraphs_Threshold(t *testing.T) {
	exactly20 := "abcdefghij klmnopqrs"
	require.Len(t, []rune(exactly20), 20)

	assert.Empty(t, splitPageParagraphs(exactly20, 1, 0, DefaultMinPDFParagraphLength))
	assert.Len(t, splitPageParagraphs(exactly20+"t", 1, 0, DefaultMinPDFParagraphLength), 1)
}

func TestSplitPageParagraphs_Empty(t *testing.T) {
	assert.Empty(t, splitPageParagraphs("", 1, 0, DefaultMinPDFParagraphLength))
	assert.Empty(t, splitPageParagraphs("\n\n\n", 1, 0, DefaultMinPDFParagraphLength))
}
