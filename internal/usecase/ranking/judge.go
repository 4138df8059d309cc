package ranking

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"note-ranker/internal/domain"
	"note-ranker/internal/worker"
)

// Judge applies the precise pairwise scorer to the inspector survivors,
// calibrates raw scores through the monotonic mapping, attaches patient
// identity where the note-link table resolves one, and truncates to K_C.
// A nil link table and unresolved notes are both "unknown patient".
func Judge(
	ctx context.Context,
	query string,
	rescored []domain.RescoredCandidate,
	corpus *domain.Corpus,
	scorer domain.PairwiseScorer,
	calibrator domain.Calibrator,
	links domain.NoteLinkTable,
	pool *worker.Pool,
	cfg Config,
	logger *slog.Logger,
) ([]domain.FinalResult, error) {
	start := time.Now()

	results := make([]domain.FinalResult, len(rescored))
	err := pool.Map(ctx, len(rescored), func(ctx context.Context, i int) error {
		cand := rescored[i]
		chunk, ok := corpus.Get(cand.ChunkID)
		if !ok {
			return &domain.ScorerError{Stage: "judge", ChunkID: cand.ChunkID, Err: domain.ErrChunkNotFound}
		}
		raw, err := scorer.ScorePair(ctx, query, chunk.Text)
		if err != nil {
			return &domain.ScorerError{Stage: "judge", ChunkID: cand.ChunkID, Err: err}
		}
		result := domain.FinalResult{
			ChunkID:         cand.ChunkID,
			CalibratedScore: clamp01(calibrator.Calibrate(raw)),
			Pointer: domain.Pointer{
				SourceNoteID: chunk.SourceNoteID,
				Offset:       chunk.Offset,
			},
		}
		if uid, ok := links.Lookup(chunk.SourceNoteID); ok {
			result.PatientUID = &uid
		}
		results[i] = result
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("pairwise scoring: %w", err)
	}

	OrderFinal(results)
	results = truncate(results, cfg.KC)

	linked := 0
	for _, r := range results {
		if r.PatientUID != nil {
			linked++
		}
	}
	logger.Info("judge_completed",
		slog.Int("input_candidates", len(rescored)),
		slog.Int("results", len(results)),
		slog.Int("patient_linked", linked),
		slog.Bool("calibrated", calibrator.Calibrated()),
		slog.String("model", scorer.ModelName()),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))

	return results, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
