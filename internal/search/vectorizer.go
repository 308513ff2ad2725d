package search

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrEmptyVocabulary means no term survived tokenisation and document-frequency
// pruning, so no weighting model can be built for the corpus.
var ErrEmptyVocabulary = errors.New("empty vocabulary")

// VectorizerConfig controls how the per-query TF-IDF model is built.
type VectorizerConfig struct {
	MaxFeatures int     // keep at most this many terms, by corpus frequency
	MinDF       int     // drop terms found in fewer documents
	MaxDF       float64 // drop terms found in more than this fraction of documents
	MaxNGram    int
}

// DefaultVectorizerConfig returns unigrams and bigrams, 1000 terms, min_df 1, max_df 0.8.
func DefaultVectorizerConfig() VectorizerConfig {
	return VectorizerConfig{
		MaxFeatures: 1000,
		MinDF:       1,
		MaxDF:       0.8,
		MaxNGram:    2,
	}
}

// sparseVector holds the non-zero weights of a document, ordered by
// vocabulary index.
type sparseVector struct {
	indices []int
	weights []float64
}

func (v sparseVector) dot(o sparseVector) float64 {
	var sum float64
	i, j := 0, 0
	for i < len(v.indices) && j < len(o.indices) {
		switch {
		case v.indices[i] == o.indices[j]:
			sum += v.weights[i] * o.weights[j]
			i++
			j++
		case v.indices[i] < o.indices[j]:
			i++
		default:
			j++
		}
	}
	return sum
}

// fitTransform builds a TF-IDF model over docs and returns each document's
// L2-normalised vector. Weights are raw term counts times smoothed inverse
// document frequency ln((1+n)/(1+df))+1.
func fitTransform(docs []string, cfg VectorizerConfig) ([]sparseVector, error) {
	n := len(docs)
	counts := make([]map[string]int, n)
	df := make(map[string]int)
	for d, text := range docs {
		counts[d] = make(map[string]int)
		for _, term := range analyze(text, cfg.MaxNGram) {
			counts[d][term]++
		}
		for term := range counts[d] {
			df[term]++
		}
	}
	if len(df) == 0 {
		return nil, fmt.Errorf("%w: documents contain only stop words", ErrEmptyVocabulary)
	}

	maxCount := cfg.MaxDF * float64(n)
	if maxCount < float64(cfg.MinDF) {
		return nil, fmt.Errorf("%w: max_df keeps fewer documents than min_df", ErrEmptyVocabulary)
	}

	terms := make([]string, 0, len(df))
	for term, c := range df {
		if c >= cfg.MinDF && float64(c) <= maxCount {
			terms = append(terms, term)
		}
	}
	sort.Strings(terms)

	if cfg.MaxFeatures > 0 && len(terms) > cfg.MaxFeatures {
		total := make(map[string]int, len(terms))
		for _, c := range counts {
			for term, k := range c {
				total[term] += k
			}
		}
		sort.SliceStable(terms, func(i, j int) bool { return total[terms[i]] > total[terms[j]] })
		terms = terms[:cfg.MaxFeatures]
		sort.Strings(terms)
	}
	if len(terms) == 0 {
		return nil, fmt.Errorf("%w: no terms remain after pruning", ErrEmptyVocabulary)
	}

	vocab := make(map[string]int, len(terms))
	idf := make([]float64, len(terms))
	for i, term := range terms {
		vocab[term] = i
		idf[i] = math.Log(float64(1+n)/float64(1+df[term])) + 1
	}

	vectors := make([]sparseVector, n)
	for d, c := range counts {
		var vec sparseVector
		for term := range c {
			if idx, ok := vocab[term]; ok {
				vec.indices = append(vec.indices, idx)
			}
		}
		sort.Ints(vec.indices)

		var norm float64
		vec.weights = make([]float64, len(vec.indices))
		for k, idx := range vec.indices {
			w := float64(c[terms[idx]]) * idf[idx]
			vec.weights[k] = w
			norm += w * w
		}
		if norm > 0 {
			norm = math.Sqrt(norm)
			for k := range vec.weights {
				vec.weights[k] /= norm
			}
		}
		vectors[d] = vec
	}
	return vectors, nil
}
