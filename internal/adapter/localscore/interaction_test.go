package localscore_test

import (
	"context"
	"testing"

	"note-ranker/internal/adapter/localscore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenInteractionScorer_ExactMatchesScoreHighest(t *testing.T) {
	s := localscore.NewTokenInteractionScorer()

	full, err := s.ScoreInteraction(context.Background(), "chest pain", "chest pain noted on exam")
	require.NoError(t, err)
	partial, err := s.ScoreInteraction(context.Background(), "chest pain", "patient denies pain")
	require.NoError(t, err)
	none, err := s.ScoreInteraction(context.Background(), "chest pain", "medication refill")
	require.NoError(t, err)

	assert.Greater(t, full.Score, partial.Score)
	assert.Greater(t, partial.Score, none.Score)
	assert.Zero(t, none.Score)
}

func TestTokenInteractionScorer_ScoreCappedAtOne(t *testing.T) {
	s := localscore.NewTokenInteractionScorer()

	res, err := s.ScoreInteraction(context.Background(), "pain", "pain pain pain pain")
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.Score)
}

func TestTokenInteractionScorer_EvidenceOrderedByWeight(t *testing.T) {
	s := localscore.NewTokenInteractionScorer()

	res, err := s.ScoreInteraction(context.Background(), "hypertension", "hypertension and hypertensive crisis")
	require.NoError(t, err)
	require.NotEmpty(t, res.Evidence)

	// Exact match first, substring matches after.
	assert.Equal(t, "hypertension", res.Evidence[0].Token)
	assert.Equal(t, 1.0, res.Evidence[0].Weight)
	for i := 1; i < len(res.Evidence); i++ {
		assert.LessOrEqual(t, res.Evidence[i].Weight, res.Evidence[i-1].Weight)
	}
}

func TestTokenInteractionScorer_EmptyInputs(t *testing.T) {
	s := localscore.NewTokenInteractionScorer()

	res, err := s.ScoreInteraction(context.Background(), "", "some text")
	require.NoError(t, err)
	assert.Zero(t, res.Score)

	res, err = s.ScoreInteraction(context.Background(), "query", "")
	require.NoError(t, err)
	assert.Zero(t, res.Score)
}

func TestTokenInteractionScorer_Deterministic(t *testing.T) {
	s := localscore.NewTokenInteractionScorer()

	first, err := s.ScoreInteraction(context.Background(), "chest pain onset", "sudden onset chest pain at rest")
	require.NoError(t, err)
	second, err := s.ScoreInteraction(context.Background(), "chest pain onset", "sudden onset chest pain at rest")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestTokenInteractionScorer_ShortSubstringsIgnored(t *testing.T) {
	s := localscore.NewTokenInteractionScorer()

	// Two-character fragments never count as containment matches.
	res, err := s.ScoreInteraction(context.Background(), "on", "onset monitoring continuation")
	require.NoError(t, err)
	assert.Zero(t, res.Score)
}
