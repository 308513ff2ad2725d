package search

import (
	"sort"

	"github.com/sanjeevkumarraob/askyourdoc/internal/document"
)

// rankKeywords scores each paragraph by the share of query words it contains.
// Paragraphs without any shared word are left out.
func rankKeywords(query string, paragraphs []document.Paragraph, topK int) []hit {
	queryTerms := wordSet(query)
	if len(queryTerms) == 0 {
		return nil
	}

	var hits []hit
	for i, p := range paragraphs {
		words := wordSet(p.Text)
		common := 0
		for term := range queryTerms {
			if _, ok := words[term]; ok {
				common++
			}
		}
		if common == 0 {
			continue
		}
		hits = append(hits, hit{
			index:  i,
			score:  float64(common) / float64(len(queryTerms)),
			method: MethodKeyword,
		})
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits
}
