package ranking_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"note-ranker/internal/domain"
	"note-ranker/internal/usecase/ranking"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLexical struct {
	hits []domain.RetrievalHit
	err  error
}

func (s *stubLexical) SearchLexical(_ context.Context, _ string, _ int) ([]domain.RetrievalHit, error) {
	return s.hits, s.err
}

type stubDense struct {
	hits []domain.RetrievalHit
	err  error
}

func (s *stubDense) SearchDense(_ context.Context, _ string, _ int) ([]domain.RetrievalHit, error) {
	return s.hits, s.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestScout_SymmetricScoresTieBreakByID(t *testing.T) {
	lex := &stubLexical{hits: []domain.RetrievalHit{
		{ChunkID: "c1", SourceNoteID: "n1", Score: 0.8},
		{ChunkID: "c2", SourceNoteID: "n2", Score: 0.2},
	}}
	den := &stubDense{hits: []domain.RetrievalHit{
		{ChunkID: "c1", SourceNoteID: "n1", Score: 0.2},
		{ChunkID: "c2", SourceNoteID: "n2", Score: 0.8},
	}}

	cfg := ranking.DefaultConfig()
	cfg.KA = 2
	cfg.KB = 2
	cfg.KC = 1

	got, err := ranking.Scout(context.Background(), "q", lex, den, cfg, discardLogger())
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Both fuse to 0.5; ascending chunk id breaks the tie.
	assert.Equal(t, "c1", got[0].ChunkID)
	assert.Equal(t, "c2", got[1].ChunkID)
	assert.InDelta(t, 0.5, got[0].FusionScore, 1e-9)
	assert.InDelta(t, 0.5, got[1].FusionScore, 1e-9)
	assert.InDelta(t, 1.0, got[0].Lexical, 1e-9)
	assert.InDelta(t, 0.0, got[0].Dense, 1e-9)
}

func TestScout_SingleMechanismChunkGetsZeroForOther(t *testing.T) {
	lex := &stubLexical{hits: []domain.RetrievalHit{
		{ChunkID: "only-lex", SourceNoteID: "n1", Score: 3.5},
		{ChunkID: "both", SourceNoteID: "n2", Score: 1.0},
	}}
	den := &stubDense{hits: []domain.RetrievalHit{
		{ChunkID: "both", SourceNoteID: "n2", Score: 0.9},
	}}

	got, err := ranking.Scout(context.Background(), "q", lex, den, ranking.DefaultConfig(), discardLogger())
	require.NoError(t, err)
	require.Len(t, got, 2)

	byID := map[string]domain.Candidate{}
	for _, c := range got {
		byID[c.ChunkID] = c
	}

	// only-lex was never seen by the dense mechanism: raw 0, normalized 0
	// because "both" holds the dense max.
	assert.InDelta(t, 0.0, byID["only-lex"].Dense, 1e-9)
	assert.InDelta(t, 1.0, byID["only-lex"].Lexical, 1e-9)
	assert.InDelta(t, 1.0, byID["both"].Dense, 1e-9)
}

func TestScout_BothEmptyYieldsEmptyNotError(t *testing.T) {
	got, err := ranking.Scout(context.Background(), "q", &stubLexical{}, &stubDense{}, ranking.DefaultConfig(), discardLogger())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestScout_TruncatesToKA(t *testing.T) {
	var lexHits []domain.RetrievalHit
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		lexHits = append(lexHits, domain.RetrievalHit{ChunkID: id, Score: float64(len(lexHits))})
	}

	cfg := ranking.DefaultConfig()
	cfg.KA = 3
	cfg.KB = 2
	cfg.KC = 1

	got, err := ranking.Scout(context.Background(), "q", &stubLexical{hits: lexHits}, &stubDense{}, cfg, discardLogger())
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestScout_SearchFailureIsFatal(t *testing.T) {
	lex := &stubLexical{err: errors.New("index unavailable")}

	_, err := ranking.Scout(context.Background(), "q", lex, &stubDense{}, ranking.DefaultConfig(), discardLogger())
	assert.ErrorContains(t, err, "lexical search")
}

func TestScout_ScoresStayInUnitInterval(t *testing.T) {
	lex := &stubLexical{hits: []domain.RetrievalHit{
		{ChunkID: "a", Score: 12.7},
		{ChunkID: "b", Score: -3.0},
		{ChunkID: "c", Score: 5.5},
	}}
	den := &stubDense{hits: []domain.RetrievalHit{
		{ChunkID: "b", Score: 0.99},
		{ChunkID: "c", Score: 0.01},
	}}

	got, err := ranking.Scout(context.Background(), "q", lex, den, ranking.DefaultConfig(), discardLogger())
	require.NoError(t, err)

	for _, c := range got {
		assert.GreaterOrEqual(t, c.Lexical, 0.0)
		assert.LessOrEqual(t, c.Lexical, 1.0)
		assert.GreaterOrEqual(t, c.Dense, 0.0)
		assert.LessOrEqual(t, c.Dense, 1.0)
		assert.GreaterOrEqual(t, c.FusionScore, 0.0)
		assert.LessOrEqual(t, c.FusionScore, 1.0)
	}
}
