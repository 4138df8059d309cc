package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"note-ranker/internal/adapter/corpus"
	"note-ranker/internal/adapter/dense"
	"note-ranker/internal/adapter/lexical"
	"note-ranker/internal/adapter/localscore"
	"note-ranker/internal/domain"
	logctx "note-ranker/internal/infra/logger"
	"note-ranker/internal/usecase"
	"note-ranker/internal/usecase/ranking"
	"note-ranker/internal/worker"
)

var (
	version = "dev"

	// Global flags
	verbose    bool
	corpusPath string
	outDir     string

	// Funnel flags
	query           string
	kA              int
	kB              int
	kC              int
	lexicalK1       float64
	lexicalB        float64
	weightLexical   float64
	weightDense     float64
	workers         int
	evidenceLimit   int
	embeddingsPath  string
	linksPath       string
	calibrationPath string

	// Stage input flags
	inPath    string
	notesPath string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "ranker",
	Short:   "Rank clinical note chunks through the scout/inspect/judge funnel",
	Version: version,
}

var chunkCmd = &cobra.Command{
	Use:   "chunk",
	Short: "Split raw notes into corpus chunks",
	Long: `Split raw notes into corpus chunks.

Reads a notes JSONL file ({"note_id", "text"} per line) and writes
chunks.jsonl suitable as --corpus input for the ranking stages.

Examples:
  ranker chunk --notes notes.jsonl --out ./data`,
	RunE: runChunk,
}

var scoutCmd = &cobra.Command{
	Use:   "scout",
	Short: "Run the wide retrieval pass",
	Long: `Run the wide retrieval pass: lexical and dense search, score fusion,
top-K_A selection. Writes candidates.jsonl and scout_summary.json.

Examples:
  # In-process BM25 and hashed embeddings built from the corpus
  ranker scout --corpus data/chunks.jsonl --query "chest pain onset"

  # Precomputed embeddings
  ranker scout --corpus data/chunks.jsonl --embeddings data/embeddings.jsonl --query "chest pain onset"`,
	RunE: runScout,
}

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Re-score scout candidates with the interaction signal",
	RunE:  runInspect,
}

var judgeCmd = &cobra.Command{
	Use:   "judge",
	Short: "Apply the pairwise scorer and calibration to inspector survivors",
	RunE:  runJudge,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run all three stages end to end",
	Long: `Run all three stages end to end, writing every stage's output plus a
run summary.

Examples:
  ranker run --corpus data/chunks.jsonl --query "chest pain onset" \
    --links data/note_links.jsonl --calibration data/calibration.jsonl`,
	RunE: runAll,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&corpusPath, "corpus", "data/chunks.jsonl", "chunk corpus JSONL path")
	rootCmd.PersistentFlags().StringVar(&outDir, "out", ".", "output directory for stage files")

	chunkCmd.Flags().StringVar(&notesPath, "notes", "", "raw notes JSONL path (required)")
	_ = chunkCmd.MarkFlagRequired("notes")

	for _, cmd := range []*cobra.Command{scoutCmd, inspectCmd, judgeCmd, runCmd} {
		cmd.Flags().StringVar(&query, "query", "", "query text (required)")
		_ = cmd.MarkFlagRequired("query")
	}

	for _, cmd := range []*cobra.Command{scoutCmd, runCmd} {
		cmd.Flags().IntVar(&kA, "ka", 200, "scout output size")
		cmd.Flags().Float64Var(&lexicalK1, "k1", 0.9, "BM25 k1 saturation parameter")
		cmd.Flags().Float64Var(&lexicalB, "b", 0.4, "BM25 length normalization parameter")
		cmd.Flags().Float64Var(&weightLexical, "weight-lexical", 0.5, "lexical fusion weight")
		cmd.Flags().Float64Var(&weightDense, "weight-dense", 0.5, "dense fusion weight")
		cmd.Flags().StringVar(&embeddingsPath, "embeddings", "", "precomputed chunk embeddings JSONL (optional)")
	}

	for _, cmd := range []*cobra.Command{inspectCmd, runCmd} {
		cmd.Flags().IntVar(&kB, "kb", 50, "inspector output size")
		cmd.Flags().IntVar(&evidenceLimit, "evidence-limit", 10, "max evidence tokens per candidate")
	}

	for _, cmd := range []*cobra.Command{judgeCmd, runCmd} {
		cmd.Flags().IntVar(&kC, "kc", 10, "judge output size")
		cmd.Flags().StringVar(&linksPath, "links", "", "note-link table JSONL (optional)")
		cmd.Flags().StringVar(&calibrationPath, "calibration", "", "calibration reference set JSONL (optional)")
	}

	for _, cmd := range []*cobra.Command{inspectCmd, judgeCmd, runCmd} {
		cmd.Flags().IntVar(&workers, "workers", 0, "scoring workers (0 = GOMAXPROCS)")
	}

	inspectCmd.Flags().StringVar(&inPath, "in", "", "candidates JSONL (default <out>/candidates.jsonl)")
	judgeCmd.Flags().StringVar(&inPath, "in", "", "rescored JSONL (default <out>/rescored.jsonl)")

	rootCmd.AddCommand(chunkCmd)
	rootCmd.AddCommand(scoutCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(judgeCmd)
	rootCmd.AddCommand(runCmd)
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}
	handler := slog.NewJSONHandler(os.Stderr, opts)
	return slog.New(handler)
}

// stageContext tags the context for one CLI stage run so stage events
// carry run, stage, and query fields.
func stageContext(ctx context.Context, base *slog.Logger, stage, runID string) (context.Context, *slog.Logger) {
	ctx = logctx.WithRunID(ctx, runID)
	ctx = logctx.WithStage(ctx, stage)
	ctx = logctx.WithQuery(ctx, query)
	return ctx, logctx.NewContextLoggerWith(base, "note-ranker").WithContext(ctx)
}

func funnelConfig() ranking.Config {
	cfg := ranking.DefaultConfig()
	cfg.KA = kA
	cfg.KB = kB
	cfg.KC = kC
	cfg.LexicalK1 = lexicalK1
	cfg.LexicalB = lexicalB
	cfg.WeightLexical = weightLexical
	cfg.WeightDense = weightDense
	cfg.Workers = workers
	cfg.EvidenceLimit = evidenceLimit
	return cfg
}

func loadCorpus(logger *slog.Logger) (*domain.Corpus, int, error) {
	chunks, skipped, err := corpus.LoadChunks(corpusPath)
	if err != nil {
		return nil, 0, fmt.Errorf("load corpus: %w", err)
	}
	if skipped > 0 {
		logger.Warn("corpus lines skipped", slog.Int("skipped", skipped), slog.String("path", corpusPath))
	}
	return chunks, skipped, nil
}

func buildDense(ctx context.Context, chunks *domain.Corpus, logger *slog.Logger) (domain.DenseSearcher, error) {
	encoder := dense.NewHashingEncoder(0)
	if embeddingsPath != "" {
		idx, skipped, err := dense.LoadEmbeddedIndex(embeddingsPath, encoder, chunks)
		if err != nil {
			return nil, fmt.Errorf("load embeddings: %w", err)
		}
		if skipped > 0 {
			logger.Warn("embedding lines skipped", slog.Int("skipped", skipped), slog.String("path", embeddingsPath))
		}
		return idx, nil
	}
	return dense.BuildEmbeddedIndex(ctx, encoder, chunks)
}

func runChunk(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	start := time.Now()

	notes, skipped, err := corpus.LoadNotes(notesPath)
	if err != nil {
		return fmt.Errorf("load notes: %w", err)
	}
	if skipped > 0 {
		logger.Warn("note lines skipped", slog.Int("skipped", skipped), slog.String("path", notesPath))
	}

	chunker := domain.NewChunker()
	var chunks []domain.Chunk
	for _, note := range notes {
		cs, err := chunker.Chunk(note)
		if err != nil {
			return fmt.Errorf("chunk note %s: %w", note.NoteID, err)
		}
		chunks = append(chunks, cs...)
	}

	outPath := filepath.Join(outDir, "chunks.jsonl")
	if err := corpus.WriteJSONL(outPath, chunks); err != nil {
		return err
	}

	logger.Info("chunk_completed",
		slog.Int("notes", len(notes)),
		slog.Int("chunks", len(chunks)),
		slog.String("chunker_version", string(chunker.Version())),
		slog.String("out", outPath))

	return corpus.WriteSummary(filepath.Join(outDir, "chunk_summary.json"), corpus.StageSummary{
		Stage:        "chunk",
		RunID:        uuid.NewString(),
		InputCount:   len(notes),
		OutputCount:  len(chunks),
		SkippedLines: skipped,
		DurationMs:   time.Since(start).Milliseconds(),
	})
}

func runScout(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	ctx := cmd.Context()
	start := time.Now()

	cfg := funnelConfig()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration: %w", err)
	}

	chunks, skipped, err := loadCorpus(logger)
	if err != nil {
		return err
	}

	lex := lexical.NewBM25Searcher(chunks, cfg.LexicalK1, cfg.LexicalB)
	den, err := buildDense(ctx, chunks, logger)
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	stageCtx, stageLog := stageContext(ctx, logger, "scout", runID)
	candidates, err := ranking.Scout(stageCtx, query, lex, den, cfg, stageLog)
	if err != nil {
		return err
	}

	if err := corpus.WriteJSONL(filepath.Join(outDir, "candidates.jsonl"), candidates); err != nil {
		return err
	}
	return corpus.WriteSummary(filepath.Join(outDir, "scout_summary.json"), corpus.StageSummary{
		Stage:        "scout",
		RunID:        runID,
		Query:        query,
		InputCount:   chunks.Len(),
		OutputCount:  len(candidates),
		SkippedLines: skipped,
		DurationMs:   time.Since(start).Milliseconds(),
	})
}

func runInspect(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	ctx := cmd.Context()
	start := time.Now()

	cfg := funnelConfig()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration: %w", err)
	}

	chunks, _, err := loadCorpus(logger)
	if err != nil {
		return err
	}

	if inPath == "" {
		inPath = filepath.Join(outDir, "candidates.jsonl")
	}
	candidates, skipped, err := corpus.LoadCandidates(inPath)
	if err != nil {
		return fmt.Errorf("load candidates: %w", err)
	}
	if skipped > 0 {
		logger.Warn("candidate lines skipped", slog.Int("skipped", skipped), slog.String("path", inPath))
	}

	runID := uuid.NewString()
	pool := worker.NewPool(cfg.Workers)
	stageCtx, stageLog := stageContext(ctx, logger, "inspect", runID)
	rescored, err := ranking.Inspect(stageCtx, query, candidates, chunks, localscore.NewTokenInteractionScorer(), pool, cfg, stageLog)
	if err != nil {
		return err
	}

	if err := corpus.WriteJSONL(filepath.Join(outDir, "rescored.jsonl"), rescored); err != nil {
		return err
	}
	return corpus.WriteSummary(filepath.Join(outDir, "inspect_summary.json"), corpus.StageSummary{
		Stage:        "inspect",
		RunID:        runID,
		Query:        query,
		InputCount:   len(candidates),
		OutputCount:  len(rescored),
		SkippedLines: skipped,
		DurationMs:   time.Since(start).Milliseconds(),
	})
}

func runJudge(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	ctx := cmd.Context()
	start := time.Now()

	cfg := funnelConfig()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration: %w", err)
	}

	chunks, _, err := loadCorpus(logger)
	if err != nil {
		return err
	}

	if inPath == "" {
		inPath = filepath.Join(outDir, "rescored.jsonl")
	}
	rescored, skipped, err := corpus.LoadRescored(inPath)
	if err != nil {
		return fmt.Errorf("load rescored: %w", err)
	}
	if skipped > 0 {
		logger.Warn("rescored lines skipped", slog.Int("skipped", skipped), slog.String("path", inPath))
	}

	links, calibrator, err := loadJudgeInputs(logger)
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	pool := worker.NewPool(cfg.Workers)
	stageCtx, stageLog := stageContext(ctx, logger, "judge", runID)
	final, err := ranking.Judge(stageCtx, query, rescored, chunks, localscore.NewTermOverlapScorer(), calibrator, links, pool, cfg, stageLog)
	if err != nil {
		return err
	}

	if err := corpus.WriteJSONL(filepath.Join(outDir, "final.jsonl"), final); err != nil {
		return err
	}
	return corpus.WriteSummary(filepath.Join(outDir, "judge_summary.json"), corpus.StageSummary{
		Stage:         "judge",
		RunID:         runID,
		Query:         query,
		InputCount:    len(rescored),
		OutputCount:   len(final),
		SkippedLines:  skipped,
		PatientLinked: countLinked(final),
		Uncalibrated:  !calibrator.Calibrated(),
		DurationMs:    time.Since(start).Milliseconds(),
	})
}

func runAll(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	ctx := cmd.Context()
	start := time.Now()

	cfg := funnelConfig()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration: %w", err)
	}

	chunks, corpusSkipped, err := loadCorpus(logger)
	if err != nil {
		return err
	}

	lex := lexical.NewBM25Searcher(chunks, cfg.LexicalK1, cfg.LexicalB)
	den, err := buildDense(ctx, chunks, logger)
	if err != nil {
		return err
	}

	links, calibrator, err := loadJudgeInputs(logger)
	if err != nil {
		return err
	}

	pipeline := usecase.NewRankPipelineUsecase(
		lex,
		den,
		localscore.NewTokenInteractionScorer(),
		localscore.NewTermOverlapScorer(),
		calibrator,
		chunks,
		links,
		cfg,
		logger,
	)

	out, err := pipeline.Execute(ctx, usecase.RankInput{Query: query})
	if err != nil {
		return err
	}

	if err := corpus.WriteJSONL(filepath.Join(outDir, "candidates.jsonl"), out.Candidates); err != nil {
		return err
	}
	if err := corpus.WriteJSONL(filepath.Join(outDir, "rescored.jsonl"), out.Rescored); err != nil {
		return err
	}
	if err := corpus.WriteJSONL(filepath.Join(outDir, "final.jsonl"), out.Final); err != nil {
		return err
	}
	return corpus.WriteSummary(filepath.Join(outDir, "summary.json"), corpus.StageSummary{
		Stage:         "run",
		RunID:         out.RunID,
		Query:         query,
		InputCount:    chunks.Len(),
		OutputCount:   len(out.Final),
		SkippedLines:  corpusSkipped,
		PatientLinked: countLinked(out.Final),
		Uncalibrated:  !out.Calibrated,
		DurationMs:    time.Since(start).Milliseconds(),
	})
}

func loadJudgeInputs(logger *slog.Logger) (domain.NoteLinkTable, domain.Calibrator, error) {
	links, skipped, err := corpus.LoadNoteLinks(linksPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load note links: %w", err)
	}
	if skipped > 0 {
		logger.Warn("note-link lines skipped", slog.Int("skipped", skipped), slog.String("path", linksPath))
	}

	points, skipped, err := corpus.LoadCalibration(calibrationPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load calibration: %w", err)
	}
	if skipped > 0 {
		logger.Warn("calibration lines skipped", slog.Int("skipped", skipped), slog.String("path", calibrationPath))
	}

	calibrator := ranking.NewCalibrator(points)
	if !calibrator.Calibrated() {
		logger.Warn("calibration unavailable, raw scores pass through clamped")
	}
	return links, calibrator, nil
}

func countLinked(final []domain.FinalResult) int {
	n := 0
	for _, f := range final {
		if f.PatientUID != nil {
			n++
		}
	}
	return n
}
