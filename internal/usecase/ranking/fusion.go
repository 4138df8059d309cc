package ranking

import (
	"sort"

	"note-ranker/internal/domain"
)

// NormalizeMinMax rescales raw scores into [0,1] via (raw-min)/(max-min).
// When max == min (single candidate, all-zero, or otherwise uniform) every
// member normalizes to 1.0 so a uniform set is never demoted.
func NormalizeMinMax(scores []float64) []float64 {
	if len(scores) == 0 {
		return nil
	}
	min, max := scores[0], scores[0]
	for _, s := range scores[1:] {
		if s < min {
			min = s
		}
		if s > max {
			max = s
		}
	}
	out := make([]float64, len(scores))
	if max == min {
		for i := range out {
			out[i] = 1.0
		}
		return out
	}
	for i, s := range scores {
		out[i] = (s - min) / (max - min)
	}
	return out
}

// FuseWeighted combines normalized lexical and dense scores with the
// configured weights. Inputs must already be in [0,1].
func FuseWeighted(lexical, dense float64, cfg Config) float64 {
	return cfg.WeightLexical*lexical + cfg.WeightDense*dense
}

// scoreLess is the single ordering rule shared by all three stages:
// descending primary score, ascending chunk id on ties. Every stage output
// goes through it exactly once, after the parallel scoring join, so output
// order never depends on worker scheduling.
func scoreLess(scoreI, scoreJ float64, idI, idJ string) bool {
	if scoreI != scoreJ {
		return scoreI > scoreJ
	}
	return idI < idJ
}

// OrderCandidates sorts scout output by fusion score desc, chunk id asc.
func OrderCandidates(cands []domain.Candidate) {
	sort.Slice(cands, func(i, j int) bool {
		return scoreLess(cands[i].FusionScore, cands[j].FusionScore, cands[i].ChunkID, cands[j].ChunkID)
	})
}

// OrderRescored sorts inspector output by interaction score desc, with the
// carried fusion score desc as the first tie-break, then chunk id asc.
func OrderRescored(cands []domain.RescoredCandidate) {
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].Interaction != cands[j].Interaction {
			return cands[i].Interaction > cands[j].Interaction
		}
		return scoreLess(cands[i].FusionScore, cands[j].FusionScore, cands[i].ChunkID, cands[j].ChunkID)
	})
}

// OrderFinal sorts judge output by calibrated score desc, chunk id asc.
func OrderFinal(results []domain.FinalResult) {
	sort.Slice(results, func(i, j int) bool {
		return scoreLess(results[i].CalibratedScore, results[j].CalibratedScore, results[i].ChunkID, results[j].ChunkID)
	})
}

// truncate caps a slice at k without copying.
func truncate[T any](items []T, k int) []T {
	if len(items) > k {
		return items[:k]
	}
	return items
}
