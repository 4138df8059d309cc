// Package lexical provides LexicalSearcher implementations: an in-process
// BM25 scorer over the loaded corpus snapshot and a Meilisearch-backed
// client for deployments with an external keyword index.
package lexical

import (
	"context"
	"math"
	"sort"
	"strings"
	"unicode"

	"note-ranker/internal/domain"
)

type bm25Doc struct {
	chunkID      string
	sourceNoteID string
	termFreq     map[string]int
	length       int
}

// BM25Searcher scores the corpus snapshot with Okapi BM25. The snapshot is
// the index artifact: it is built once at load and read-only afterwards.
type BM25Searcher struct {
	k1     float64
	b      float64
	docs   []bm25Doc
	df     map[string]int
	avgLen float64
}

// NewBM25Searcher indexes the corpus with the given term-saturation (k1)
// and length-normalization (b) parameters.
func NewBM25Searcher(corpus *domain.Corpus, k1, b float64) *BM25Searcher {
	chunks := corpus.All()
	sort.Slice(chunks, func(i, j int) bool { return chunks[i].ChunkID < chunks[j].ChunkID })

	s := &BM25Searcher{
		k1:   k1,
		b:    b,
		docs: make([]bm25Doc, 0, len(chunks)),
		df:   make(map[string]int),
	}
	totalLen := 0
	for _, c := range chunks {
		tokens := Tokenize(c.Text)
		tf := make(map[string]int, len(tokens))
		for _, t := range tokens {
			tf[t]++
		}
		for t := range tf {
			s.df[t]++
		}
		s.docs = append(s.docs, bm25Doc{
			chunkID:      c.ChunkID,
			sourceNoteID: c.SourceNoteID,
			termFreq:     tf,
			length:       len(tokens),
		})
		totalLen += len(tokens)
	}
	if len(s.docs) > 0 {
		s.avgLen = float64(totalLen) / float64(len(s.docs))
	}
	return s
}

// SearchLexical returns chunks with a positive BM25 score against the
// query, highest first, capped at limit.
func (s *BM25Searcher) SearchLexical(_ context.Context, query string, limit int) ([]domain.RetrievalHit, error) {
	terms := Tokenize(query)
	if len(terms) == 0 || len(s.docs) == 0 {
		return []domain.RetrievalHit{}, nil
	}

	hits := make([]domain.RetrievalHit, 0, limit)
	for _, doc := range s.docs {
		score := 0.0
		for _, term := range terms {
			tf := doc.termFreq[term]
			if tf == 0 {
				continue
			}
			score += s.idf(term) * s.saturate(float64(tf), doc.length)
		}
		if score > 0 {
			hits = append(hits, domain.RetrievalHit{
				ChunkID:      doc.chunkID,
				SourceNoteID: doc.sourceNoteID,
				Score:        score,
			})
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func (s *BM25Searcher) idf(term string) float64 {
	n := float64(len(s.docs))
	df := float64(s.df[term])
	return math.Log(1.0 + (n-df+0.5)/(df+0.5))
}

func (s *BM25Searcher) saturate(tf float64, docLen int) float64 {
	norm := 1.0 - s.b + s.b*float64(docLen)/s.avgLen
	return tf * (s.k1 + 1.0) / (tf + s.k1*norm)
}

// Tokenize lowercases and splits on anything that is not a letter or
// digit. Shared by the lexical and local interaction scorers so both see
// the same token stream.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
