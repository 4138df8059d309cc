package dense_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"note-ranker/internal/adapter/dense"
	"note-ranker/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func denseCorpus() *domain.Corpus {
	return domain.NewCorpus([]domain.Chunk{
		{ChunkID: "c1", SourceNoteID: "n1", Text: "chest pain radiating to the left arm"},
		{ChunkID: "c2", SourceNoteID: "n1", Text: "blood pressure elevated at follow up"},
		{ChunkID: "c3", SourceNoteID: "n2", Text: "chest pain with exertion and shortness of breath"},
	})
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, dense.CosineSimilarity([]float32{1, 0}, []float32{2, 0}), 1e-6)
	assert.InDelta(t, 0.0, dense.CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-6)
	assert.InDelta(t, -1.0, dense.CosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-6)

	// Mismatched dimensions and zero vectors degrade to 0, not panic.
	assert.Zero(t, dense.CosineSimilarity([]float32{1, 0}, []float32{1}))
	assert.Zero(t, dense.CosineSimilarity([]float32{0, 0}, []float32{1, 0}))
}

func TestBuildEmbeddedIndex_SearchFindsRelatedChunks(t *testing.T) {
	idx, err := dense.BuildEmbeddedIndex(context.Background(), dense.NewHashingEncoder(0), denseCorpus())
	require.NoError(t, err)

	hits, err := idx.SearchDense(context.Background(), "chest pain", 10)
	require.NoError(t, err)
	require.NotEmpty(t, hits)

	// Chunks sharing query vocabulary outrank the unrelated one.
	assert.Contains(t, []string{"c1", "c3"}, hits[0].ChunkID)
	for _, h := range hits {
		assert.Greater(t, h.Score, 0.0)
	}
}

func TestEmbeddedIndex_SearchIsDeterministic(t *testing.T) {
	idx, err := dense.BuildEmbeddedIndex(context.Background(), dense.NewHashingEncoder(0), denseCorpus())
	require.NoError(t, err)

	first, err := idx.SearchDense(context.Background(), "elevated blood pressure", 10)
	require.NoError(t, err)
	second, err := idx.SearchDense(context.Background(), "elevated blood pressure", 10)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestEmbeddedIndex_EmptyCorpus(t *testing.T) {
	idx, err := dense.BuildEmbeddedIndex(context.Background(), dense.NewHashingEncoder(0), domain.NewCorpus(nil))
	require.NoError(t, err)

	hits, err := idx.SearchDense(context.Background(), "anything", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestLoadEmbeddedIndex_SkipsUnknownAndBadRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "embeddings.jsonl")
	content := `{"chunk_id":"c1","embedding":[1,0,0]}
{"chunk_id":"ghost","embedding":[0,1,0]}
{"chunk_id":"c2"}
garbage
{"chunk_id":"c3","embedding":[0,0,1]}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	idx, skipped, err := dense.LoadEmbeddedIndex(path, dense.NewHashingEncoder(3), denseCorpus())
	require.NoError(t, err)
	assert.Equal(t, 3, skipped)

	hits, err := idx.SearchDense(context.Background(), "chest pain", 10)
	require.NoError(t, err)
	for _, h := range hits {
		assert.NotEqual(t, "ghost", h.ChunkID)
	}
}

func TestHashingEncoder_Deterministic(t *testing.T) {
	enc := dense.NewHashingEncoder(0)

	first, err := enc.Encode(context.Background(), []string{"chest pain", "follow up"})
	require.NoError(t, err)
	second, err := enc.Encode(context.Background(), []string{"chest pain", "follow up"})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first, 2)
}

func TestHashingEncoder_UnitNorm(t *testing.T) {
	enc := dense.NewHashingEncoder(64)

	vectors, err := enc.Encode(context.Background(), []string{"chest pain radiating"})
	require.NoError(t, err)
	require.Len(t, vectors, 1)
	require.Len(t, vectors[0], 64)

	var norm float64
	for _, v := range vectors[0] {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, norm, 1e-5)
}

func TestHashingEncoder_SimilarTextsScoreHigher(t *testing.T) {
	enc := dense.NewHashingEncoder(0)

	vectors, err := enc.Encode(context.Background(), []string{
		"chest pain on exertion",
		"chest pain with exertion",
		"medication refill request",
	})
	require.NoError(t, err)

	near := dense.CosineSimilarity(vectors[0], vectors[1])
	far := dense.CosineSimilarity(vectors[0], vectors[2])
	assert.Greater(t, near, far)
}
