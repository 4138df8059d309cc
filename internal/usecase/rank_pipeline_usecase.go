package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"note-ranker/internal/domain"
	"note-ranker/internal/infra/logger"
	"note-ranker/internal/usecase/ranking"
	"note-ranker/internal/worker"
)

// RankInput defines the input for a pipeline run.
type RankInput struct {
	Query string
}

// StageTimings records per-stage wall time for the run summary.
type StageTimings struct {
	Scout   time.Duration
	Inspect time.Duration
	Judge   time.Duration
}

// RankOutput carries every stage's materialized output. Each slice is in
// its stage's final sort order.
type RankOutput struct {
	RunID      string
	Candidates []domain.Candidate
	Rescored   []domain.RescoredCandidate
	Final      []domain.FinalResult
	Calibrated bool
	Timings    StageTimings
}

// RankPipelineUsecase runs the scout → inspect → judge funnel.
type RankPipelineUsecase interface {
	Execute(ctx context.Context, input RankInput) (*RankOutput, error)
}

type rankPipelineUsecase struct {
	lexical    domain.LexicalSearcher
	dense      domain.DenseSearcher
	interact   domain.InteractionScorer
	pairwise   domain.PairwiseScorer
	calibrator domain.Calibrator
	corpus     *domain.Corpus
	links      domain.NoteLinkTable
	cfg        ranking.Config
	pool       *worker.Pool
	logger     *logger.ContextLogger
}

// NewRankPipelineUsecase wires the funnel. cfg must already be validated;
// links may be nil when no identity resolution output is available.
func NewRankPipelineUsecase(
	lexical domain.LexicalSearcher,
	dense domain.DenseSearcher,
	interact domain.InteractionScorer,
	pairwise domain.PairwiseScorer,
	calibrator domain.Calibrator,
	corpus *domain.Corpus,
	links domain.NoteLinkTable,
	cfg ranking.Config,
	log *slog.Logger,
) RankPipelineUsecase {
	return &rankPipelineUsecase{
		lexical:    lexical,
		dense:      dense,
		interact:   interact,
		pairwise:   pairwise,
		calibrator: calibrator,
		corpus:     corpus,
		links:      links,
		cfg:        cfg,
		pool:       worker.NewPool(cfg.Workers),
		logger:     logger.NewContextLoggerWith(log, "note-ranker"),
	}
}

// Execute runs the three stages as strict barriers: each stage consumes the
// previous stage's fully materialized output and nothing else.
func (u *rankPipelineUsecase) Execute(ctx context.Context, input RankInput) (*RankOutput, error) {
	if input.Query == "" {
		return nil, fmt.Errorf("query is empty")
	}
	if err := u.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration: %w", err)
	}

	runID := uuid.NewString()
	ctx = logger.WithRunID(ctx, runID)
	ctx = logger.WithQuery(ctx, input.Query)
	out := &RankOutput{RunID: runID, Calibrated: u.calibrator.Calibrated()}

	scoutStart := time.Now()
	scoutCtx := logger.WithStage(ctx, "scout")
	candidates, err := ranking.Scout(scoutCtx, input.Query, u.lexical, u.dense, u.cfg, u.logger.WithContext(scoutCtx))
	if err != nil {
		return nil, fmt.Errorf("scout stage: %w", err)
	}
	out.Candidates = candidates
	out.Timings.Scout = time.Since(scoutStart)

	inspectStart := time.Now()
	inspectCtx := logger.WithStage(ctx, "inspect")
	rescored, err := ranking.Inspect(inspectCtx, input.Query, candidates, u.corpus, u.interact, u.pool, u.cfg, u.logger.WithContext(inspectCtx))
	if err != nil {
		return nil, fmt.Errorf("inspect stage: %w", err)
	}
	out.Rescored = rescored
	out.Timings.Inspect = time.Since(inspectStart)

	judgeStart := time.Now()
	judgeCtx := logger.WithStage(ctx, "judge")
	final, err := ranking.Judge(judgeCtx, input.Query, rescored, u.corpus, u.pairwise, u.calibrator, u.links, u.pool, u.cfg, u.logger.WithContext(judgeCtx))
	if err != nil {
		return nil, fmt.Errorf("judge stage: %w", err)
	}
	out.Final = final
	out.Timings.Judge = time.Since(judgeStart)

	u.logger.WithContext(ctx).Info("pipeline_completed",
		slog.Int("scout_out", len(out.Candidates)),
		slog.Int("inspect_out", len(out.Rescored)),
		slog.Int("judge_out", len(out.Final)))

	return out, nil
}
