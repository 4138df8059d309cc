package ranking

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"note-ranker/internal/domain"

	"golang.org/x/sync/errgroup"
)

// Scout runs the wide first pass: lexical and dense retrieval in parallel,
// merged by chunk id, per-mechanism min-max normalization over the merged
// set, weighted-sum fusion, and truncation to K_A. Both mechanisms coming
// back empty yields an empty candidate list, not an error.
func Scout(
	ctx context.Context,
	query string,
	lexical domain.LexicalSearcher,
	dense domain.DenseSearcher,
	cfg Config,
	logger *slog.Logger,
) ([]domain.Candidate, error) {
	start := time.Now()

	var lexHits, denseHits []domain.RetrievalHit
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hits, err := lexical.SearchLexical(gctx, query, cfg.KA)
		if err != nil {
			return fmt.Errorf("lexical search: %w", err)
		}
		lexHits = hits
		return nil
	})
	g.Go(func() error {
		hits, err := dense.SearchDense(gctx, query, cfg.KA)
		if err != nil {
			return fmt.Errorf("dense search: %w", err)
		}
		denseHits = hits
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	candidates := mergeHits(lexHits, denseHits, cfg)
	OrderCandidates(candidates)
	candidates = truncate(candidates, cfg.KA)

	logger.Info("scout_completed",
		slog.Int("lexical_hits", len(lexHits)),
		slog.Int("dense_hits", len(denseHits)),
		slog.Int("candidates", len(candidates)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))

	return candidates, nil
}

// mergeHits joins the two mechanisms' hits by chunk id. A chunk seen by
// only one mechanism gets a raw score of 0 for the other; each mechanism is
// then normalized independently over the merged set before fusion.
func mergeHits(lexHits, denseHits []domain.RetrievalHit, cfg Config) []domain.Candidate {
	type rawScores struct {
		sourceNoteID string
		lexical      float64
		dense        float64
	}
	merged := make(map[string]*rawScores)
	order := make([]string, 0, len(lexHits)+len(denseHits))

	for _, h := range lexHits {
		if _, ok := merged[h.ChunkID]; !ok {
			merged[h.ChunkID] = &rawScores{sourceNoteID: h.SourceNoteID}
			order = append(order, h.ChunkID)
		}
		merged[h.ChunkID].lexical = h.Score
	}
	for _, h := range denseHits {
		if _, ok := merged[h.ChunkID]; !ok {
			merged[h.ChunkID] = &rawScores{sourceNoteID: h.SourceNoteID}
			order = append(order, h.ChunkID)
		}
		merged[h.ChunkID].dense = h.Score
	}

	if len(order) == 0 {
		return []domain.Candidate{}
	}

	rawLex := make([]float64, len(order))
	rawDense := make([]float64, len(order))
	for i, id := range order {
		rawLex[i] = merged[id].lexical
		rawDense[i] = merged[id].dense
	}
	normLex := NormalizeMinMax(rawLex)
	normDense := NormalizeMinMax(rawDense)

	candidates := make([]domain.Candidate, len(order))
	for i, id := range order {
		candidates[i] = domain.Candidate{
			ChunkID:      id,
			SourceNoteID: merged[id].sourceNoteID,
			Lexical:      normLex[i],
			Dense:        normDense[i],
			FusionScore:  FuseWeighted(normLex[i], normDense[i], cfg),
		}
	}
	return candidates
}
