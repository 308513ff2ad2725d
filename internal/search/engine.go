package search

import (
	"sort"

	"go.uber.org/zap"

	"github.com/sanjeevkumarraob/askyourdoc/internal/document"
)

// Scoring methods reported on each result.
const (
	MethodTFIDF   = "tfidf"
	MethodKeyword = "keyword"
)

// Config holds the search defaults and weighting parameters.
type Config struct {
	MinSimilarity float64
	MaxFeatures   int
	MinDF         int
	MaxDF         float64
	TopK          int
	ContextWindow int
}

// DefaultConfig returns the standard search configuration
func DefaultConfig() Config {
	v := DefaultVectorizerConfig()
	return Config{
		MinSimilarity: 0.1,
		MaxFeatures:   v.MaxFeatures,
		MinDF:         v.MinDF,
		MaxDF:         v.MaxDF,
		TopK:          5,
		ContextWindow: 5,
	}
}

// Result represents one matched paragraph with its surrounding context
type Result struct {
	Paragraph       document.Paragraph
	SimilarityScore float64
	ContextBefore   []document.Paragraph
	ContextAfter    []document.Paragraph
	Method          string
}

type hit struct {
	index  int
	score  float64
	method string
}

// Engine ranks the paragraphs of a single document against a question.
// It keeps no index between calls and is safe for concurrent use.
type Engine struct {
	cfg    Config
	logger *zap.Logger
}

// NewEngine creates a new search engine
func NewEngine(logger *zap.Logger, cfg Config) *Engine {
	def := DefaultConfig()
	if cfg.TopK <= 0 {
		cfg.TopK = def.TopK
	}
	if cfg.ContextWindow < 0 {
		cfg.ContextWindow = def.ContextWindow
	}
	if cfg.MaxFeatures <= 0 {
		cfg.MaxFeatures = def.MaxFeatures
	}
	if cfg.MinDF <= 0 {
		cfg.MinDF = def.MinDF
	}
	if cfg.MaxDF <= 0 || cfg.MaxDF > 1 {
		cfg.MaxDF = def.MaxDF
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{cfg: cfg, logger: logger}
}

// Config returns the effective configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Search scores paragraphs against query and returns up to topK matches, each
// expanded with contextWindow neighbouring paragraphs on both sides. A topK of
// zero or less uses the configured default; a negative contextWindow is
// treated as zero.
func (e *Engine) Search(query string, paragraphs []document.Paragraph, topK, contextWindow int) []Result {
	if len(paragraphs) == 0 {
		return []Result{}
	}
	if topK <= 0 {
		topK = e.cfg.TopK
	}
	if contextWindow < 0 {
		contextWindow = 0
	}

	hits, err := e.rankTFIDF(query, paragraphs, topK)
	if err != nil {
		e.logger.Info("term weighting unavailable, using keyword overlap",
			zap.Error(err),
			zap.Int("paragraphs", len(paragraphs)))
		hits = rankKeywords(query, paragraphs, topK)
	}

	results := make([]Result, 0, len(hits))
	for _, h := range hits {
		results = append(results, Result{
			Paragraph:       paragraphs[h.index],
			SimilarityScore: h.score,
			ContextBefore:   contextBefore(paragraphs, h.index, contextWindow),
			ContextAfter:    contextAfter(paragraphs, h.index, contextWindow),
			Method:          h.method,
		})
	}
	return results
}

func (e *Engine) rankTFIDF(query string, paragraphs []document.Paragraph, topK int) ([]hit, error) {
	docs := make([]string, 0, len(paragraphs)+1)
	docs = append(docs, query)
	for _, p := range paragraphs {
		docs = append(docs, p.Text)
	}

	vectors, err := fitTransform(docs, VectorizerConfig{
		MaxFeatures: e.cfg.MaxFeatures,
		MinDF:       e.cfg.MinDF,
		MaxDF:       e.cfg.MaxDF,
		MaxNGram:    2,
	})
	if err != nil {
		return nil, err
	}

	hits := make([]hit, len(paragraphs))
	for i := range paragraphs {
		hits[i] = hit{index: i, score: vectors[0].dot(vectors[i+1]), method: MethodTFIDF}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	if len(hits) > topK {
		hits = hits[:topK]
	}

	kept := hits[:0]
	for _, h := range hits {
		if h.score > e.cfg.MinSimilarity {
			kept = append(kept, h)
		}
	}
	return kept, nil
}

func contextBefore(paragraphs []document.Paragraph, i, window int) []document.Paragraph {
	start := i - window
	if start < 0 {
		start = 0
	}
	return append([]document.Paragraph{}, paragraphs[start:i]...)
}

func contextAfter(paragraphs []document.Paragraph, i, window int) []document.Paragraph {
	end := i + 1 + window
	if end > len(paragraphs) {
		end = len(paragraphs)
	}
	return append([]document.Paragraph{}, paragraphs[i+1:end]...)
}
