package ranking

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"note-ranker/internal/domain"
	"note-ranker/internal/worker"
)

// Inspect re-scores scout candidates with the token-interaction signal.
// The scout fusion score is carried through unchanged; ranking is by
// interaction score with fusion score, then chunk id, breaking ties.
// Scoring runs across the pool with one result slot per candidate, then the
// joined slice is ordered once and truncated to K_B.
func Inspect(
	ctx context.Context,
	query string,
	candidates []domain.Candidate,
	corpus *domain.Corpus,
	scorer domain.InteractionScorer,
	pool *worker.Pool,
	cfg Config,
	logger *slog.Logger,
) ([]domain.RescoredCandidate, error) {
	start := time.Now()

	rescored := make([]domain.RescoredCandidate, len(candidates))
	err := pool.Map(ctx, len(candidates), func(ctx context.Context, i int) error {
		cand := candidates[i]
		chunk, ok := corpus.Get(cand.ChunkID)
		if !ok {
			return &domain.ScorerError{Stage: "inspect", ChunkID: cand.ChunkID, Err: domain.ErrChunkNotFound}
		}
		res, err := scorer.ScoreInteraction(ctx, query, chunk.Text)
		if err != nil {
			return &domain.ScorerError{Stage: "inspect", ChunkID: cand.ChunkID, Err: err}
		}
		rescored[i] = domain.RescoredCandidate{
			ChunkID:      cand.ChunkID,
			SourceNoteID: cand.SourceNoteID,
			Interaction:  res.Score,
			FusionScore:  cand.FusionScore,
			Evidence:     topEvidence(res.Evidence, cfg.EvidenceLimit),
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("interaction scoring: %w", err)
	}

	OrderRescored(rescored)
	rescored = truncate(rescored, cfg.KB)

	logger.Info("inspect_completed",
		slog.Int("input_candidates", len(candidates)),
		slog.Int("rescored", len(rescored)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))

	return rescored, nil
}

// topEvidence orders evidence by descending weight (position, then token,
// as deterministic tie-breaks) and caps it at limit. A zero limit disables
// evidence emission.
func topEvidence(evidence []domain.EvidenceToken, limit int) []domain.EvidenceToken {
	if limit <= 0 || len(evidence) == 0 {
		return nil
	}
	sorted := make([]domain.EvidenceToken, len(evidence))
	copy(sorted, evidence)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Weight != sorted[j].Weight {
			return sorted[i].Weight > sorted[j].Weight
		}
		if sorted[i].Position != sorted[j].Position {
			return sorted[i].Position < sorted[j].Position
		}
		return sorted[i].Token < sorted[j].Token
	})
	return truncate(sorted, limit)
}
