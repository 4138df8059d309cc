package ranking_test

import (
	"testing"

	"note-ranker/internal/domain"
	"note-ranker/internal/usecase/ranking"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeMinMax(t *testing.T) {
	tests := []struct {
		name   string
		scores []float64
		want   []float64
	}{
		{
			name:   "spread scores scale to unit interval",
			scores: []float64{0.2, 0.8, 0.5},
			want:   []float64{0.0, 1.0, 0.5},
		},
		{
			name:   "all equal scores normalize to 1.0",
			scores: []float64{0.3, 0.3, 0.3},
			want:   []float64{1.0, 1.0, 1.0},
		},
		{
			name:   "all zero scores normalize to 1.0",
			scores: []float64{0, 0},
			want:   []float64{1.0, 1.0},
		},
		{
			name:   "single score normalizes to 1.0",
			scores: []float64{0.42},
			want:   []float64{1.0},
		},
		{
			name:   "empty input",
			scores: nil,
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ranking.NormalizeMinMax(tt.scores)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.InDeltaSlice(t, tt.want, got, 1e-12)
		})
	}
}

func TestFuseWeighted(t *testing.T) {
	cfg := ranking.DefaultConfig()
	cfg.WeightLexical = 0.7
	cfg.WeightDense = 0.3

	assert.InDelta(t, 0.7, ranking.FuseWeighted(1.0, 0.0, cfg), 1e-12)
	assert.InDelta(t, 0.3, ranking.FuseWeighted(0.0, 1.0, cfg), 1e-12)
	assert.InDelta(t, 1.0, ranking.FuseWeighted(1.0, 1.0, cfg), 1e-12)
}

func TestOrderCandidates_TieBreaksAscendingID(t *testing.T) {
	cands := []domain.Candidate{
		{ChunkID: "c3", FusionScore: 0.5},
		{ChunkID: "c1", FusionScore: 0.5},
		{ChunkID: "c2", FusionScore: 0.9},
	}

	ranking.OrderCandidates(cands)

	assert.Equal(t, "c2", cands[0].ChunkID)
	assert.Equal(t, "c1", cands[1].ChunkID)
	assert.Equal(t, "c3", cands[2].ChunkID)
}

func TestOrderRescored_InteractionThenFusionThenID(t *testing.T) {
	cands := []domain.RescoredCandidate{
		{ChunkID: "c2", Interaction: 0.5, FusionScore: 0.4},
		{ChunkID: "c3", Interaction: 0.5, FusionScore: 0.8},
		{ChunkID: "c1", Interaction: 0.5, FusionScore: 0.4},
		{ChunkID: "c0", Interaction: 0.9, FusionScore: 0.1},
	}

	ranking.OrderRescored(cands)

	assert.Equal(t, "c0", cands[0].ChunkID)
	assert.Equal(t, "c3", cands[1].ChunkID) // higher carried fusion wins the tie
	assert.Equal(t, "c1", cands[2].ChunkID)
	assert.Equal(t, "c2", cands[3].ChunkID)
}

func TestOrderFinal(t *testing.T) {
	results := []domain.FinalResult{
		{ChunkID: "b", CalibratedScore: 0.4},
		{ChunkID: "a", CalibratedScore: 0.4},
		{ChunkID: "c", CalibratedScore: 0.7},
	}

	ranking.OrderFinal(results)

	assert.Equal(t, "c", results[0].ChunkID)
	assert.Equal(t, "a", results[1].ChunkID)
	assert.Equal(t, "b", results[2].ChunkID)
}
