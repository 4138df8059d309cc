package lexical_test

import (
	"context"
	"testing"

	"note-ranker/internal/adapter/lexical"
	"note-ranker/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildCorpus() *domain.Corpus {
	return domain.NewCorpus([]domain.Chunk{
		{ChunkID: "c1", SourceNoteID: "n1", Text: "Patient reports chest pain radiating to the left arm."},
		{ChunkID: "c2", SourceNoteID: "n1", Text: "Chest pain resolved after rest. Chest clear on exam."},
		{ChunkID: "c3", SourceNoteID: "n2", Text: "Follow-up for hypertension, medication adjusted."},
	})
}

func TestBM25Searcher_RanksMatchingChunks(t *testing.T) {
	s := lexical.NewBM25Searcher(buildCorpus(), 0.9, 0.4)

	hits, err := s.SearchLexical(context.Background(), "chest pain", 10)
	require.NoError(t, err)
	require.Len(t, hits, 2)

	// Only chunks containing query terms score; c3 never appears.
	for _, h := range hits {
		assert.NotEqual(t, "c3", h.ChunkID)
		assert.Greater(t, h.Score, 0.0)
	}
	assert.Equal(t, "n1", hits[0].SourceNoteID)
}

func TestBM25Searcher_NoMatchYieldsEmpty(t *testing.T) {
	s := lexical.NewBM25Searcher(buildCorpus(), 0.9, 0.4)

	hits, err := s.SearchLexical(context.Background(), "appendectomy", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestBM25Searcher_EmptyQueryYieldsEmpty(t *testing.T) {
	s := lexical.NewBM25Searcher(buildCorpus(), 0.9, 0.4)

	hits, err := s.SearchLexical(context.Background(), "   ", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestBM25Searcher_HonorsLimit(t *testing.T) {
	s := lexical.NewBM25Searcher(buildCorpus(), 0.9, 0.4)

	hits, err := s.SearchLexical(context.Background(), "chest pain", 1)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestBM25Searcher_IsDeterministic(t *testing.T) {
	s := lexical.NewBM25Searcher(buildCorpus(), 0.9, 0.4)

	first, err := s.SearchLexical(context.Background(), "chest pain rest", 10)
	require.NoError(t, err)
	second, err := s.SearchLexical(context.Background(), "chest pain rest", 10)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestBM25Searcher_EmptyCorpus(t *testing.T) {
	s := lexical.NewBM25Searcher(domain.NewCorpus(nil), 0.9, 0.4)

	hits, err := s.SearchLexical(context.Background(), "anything", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestTokenize(t *testing.T) {
	assert.Equal(t,
		[]string{"chest", "pain", "10mg"},
		lexical.Tokenize("Chest pain; 10mg?"))
	assert.Empty(t, lexical.Tokenize("!? ..."))
}
