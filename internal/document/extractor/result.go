package extractor

// Paragraph is a segment of extracted text with its position in the source document.
type Paragraph struct {
	Text           string `json:"text"`
	Page           int    `json:"page"`
	ParagraphIndex int    `json:"paragraph_index"`
	StartPosition  int    `json:"start_position"`
	EndPosition    int    `json:"end_position"`
}

// Result is the output of extracting one document.
type Result struct {
	FullText   string      `json:"full_text"`
	Paragraphs []Paragraph `json:"paragraphs"`
	TotalPages int         `json:"total_pages"`
}

// Minimum trimmed lengths (exclusive) below which a segment is treated as noise.
const (
	DefaultMinParagraphLength    = 10
	DefaultMinPDFParagraphLength = 20
)

func newResult(fullText string, paragraphs []Paragraph) *Result {
	if paragraphs == nil {
		paragraphs = []Paragraph{}
	}
	total := 0
	for _, p := range paragraphs {
		if p.Page > total {
			total = p.Page
		}
	}
	return &Result{
		FullText:   fullText,
		Paragraphs: paragraphs,
		TotalPages: total,
	}
}
