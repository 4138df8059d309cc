package localscore

import (
	"context"

	"note-ranker/internal/adapter/lexical"
)

// TermOverlapScorer is the in-process pairwise scorer: a blend of query
// term coverage and vocabulary Jaccard overlap, in [0,1]. It stands in for
// a cross-encoder backend when none is deployed.
type TermOverlapScorer struct{}

// NewTermOverlapScorer returns the in-process pairwise scorer.
func NewTermOverlapScorer() *TermOverlapScorer {
	return &TermOverlapScorer{}
}

// ScorePair scores a (query, chunk text) pair.
func (s *TermOverlapScorer) ScorePair(_ context.Context, query, text string) (float64, error) {
	terms := lexical.Tokenize(query)
	tokens := lexical.Tokenize(text)
	if len(terms) == 0 || len(tokens) == 0 {
		return 0, nil
	}

	querySet := toSet(terms)
	textSet := toSet(tokens)

	covered := 0
	for term := range querySet {
		if textSet[term] {
			covered++
		}
	}
	coverage := float64(covered) / float64(len(querySet))

	union := len(textSet)
	for term := range querySet {
		if !textSet[term] {
			union++
		}
	}
	jaccard := float64(covered) / float64(union)

	return 0.6*coverage + 0.4*jaccard, nil
}

// ModelName identifies the scorer for logging.
func (s *TermOverlapScorer) ModelName() string {
	return "term-overlap-v1"
}

func toSet(tokens []string) map[string]bool {
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		set[t] = true
	}
	return set
}
