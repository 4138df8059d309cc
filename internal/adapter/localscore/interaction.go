// Package localscore holds in-process scorer implementations. They mirror
// the shape of the remote scoring backends so the funnel runs standalone;
// both are pure functions of their inputs, which the determinism contract
// requires of any scorer wired into the pipeline.
package localscore

import (
	"context"
	"sort"
	"strings"

	"note-ranker/internal/adapter/lexical"
	"note-ranker/internal/domain"
)

// TokenInteractionScorer computes a late-interaction style signal: every
// query term is matched against every chunk token, partial containment
// included, and each match contributes weight proportional to how much of
// the longer string the shorter one covers.
type TokenInteractionScorer struct{}

// NewTokenInteractionScorer returns the in-process interaction scorer.
func NewTokenInteractionScorer() *TokenInteractionScorer {
	return &TokenInteractionScorer{}
}

// ScoreInteraction scores a (query, chunk text) pair. The score is the
// total match weight normalized by query term count and capped at 1.
// Evidence lists the matching chunk tokens by descending weight.
func (s *TokenInteractionScorer) ScoreInteraction(_ context.Context, query, text string) (domain.InteractionResult, error) {
	terms := lexical.Tokenize(query)
	tokens := lexical.Tokenize(text)
	if len(terms) == 0 || len(tokens) == 0 {
		return domain.InteractionResult{Score: 0}, nil
	}

	total := 0.0
	var evidence []domain.EvidenceToken
	for _, term := range terms {
		for pos, token := range tokens {
			w := containmentWeight(term, token)
			if w == 0 {
				continue
			}
			total += w
			evidence = append(evidence, domain.EvidenceToken{
				Token:    token,
				Weight:   w,
				Position: pos,
			})
		}
	}

	score := total / float64(len(terms))
	if score > 1.0 {
		score = 1.0
	}

	sort.Slice(evidence, func(i, j int) bool {
		if evidence[i].Weight != evidence[j].Weight {
			return evidence[i].Weight > evidence[j].Weight
		}
		return evidence[i].Position < evidence[j].Position
	})
	return domain.InteractionResult{Score: score, Evidence: evidence}, nil
}

// containmentWeight is the shorter string's share of the longer one when
// one contains the other, 0 otherwise. Exact matches weigh 1.
func containmentWeight(a, b string) float64 {
	if a == b {
		return 1.0
	}
	short, long := a, b
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(short) < 3 || !strings.Contains(long, short) {
		return 0
	}
	return float64(len(short)) / float64(len(long))
}
