package domain_test

import (
	"strings"
	"testing"

	"note-ranker/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunker_SplitsAtBlankLines(t *testing.T) {
	chunker := domain.NewChunker()

	para1 := strings.Repeat("First paragraph sentence. ", 5)
	para2 := strings.Repeat("Second paragraph sentence. ", 5)
	note := domain.Note{NoteID: "n1", Text: para1 + "\n\n" + para2}

	chunks, err := chunker.Chunk(note)
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	for _, c := range chunks {
		assert.Equal(t, "n1", c.SourceNoteID)
		assert.NotEmpty(t, c.ChunkID)
	}
	assert.Equal(t, 0, chunks[0].Offset)
	assert.Greater(t, chunks[1].Offset, 0)
}

func TestChunker_MergesShortParagraphs(t *testing.T) {
	chunker := domain.NewChunker()

	note := domain.Note{NoteID: "n1", Text: "Short line.\n\nAnother short one.\n\nThird brief note."}

	chunks, err := chunker.Chunk(note)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Contains(t, chunks[0].Text, "Short line.")
	assert.Contains(t, chunks[0].Text, "Third brief note.")
}

func TestChunker_SplitsLongParagraphs(t *testing.T) {
	chunker := domain.NewChunker()

	var b strings.Builder
	for i := 0; i < 100; i++ {
		b.WriteString("The patient continues to report intermittent chest discomfort. ")
	}
	note := domain.Note{NoteID: "n1", Text: b.String()}

	chunks, err := chunker.Chunk(note)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	for _, c := range chunks {
		assert.LessOrEqual(t, len([]rune(c.Text)), domain.MaxChunkLength)
	}
}

func TestChunker_IsIdempotent(t *testing.T) {
	chunker := domain.NewChunker()
	note := domain.Note{NoteID: "n1", Text: strings.Repeat("Stable vitals recorded overnight. ", 10)}

	first, err := chunker.Chunk(note)
	require.NoError(t, err)
	second, err := chunker.Chunk(note)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestChunker_EmptyNote(t *testing.T) {
	chunker := domain.NewChunker()

	chunks, err := chunker.Chunk(domain.Note{NoteID: "n1", Text: "\n\n  \n\n"})
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestChunker_NormalizesCarriageReturns(t *testing.T) {
	chunker := domain.NewChunker()

	para := strings.Repeat("Windows line endings everywhere in this note. ", 4)
	note := domain.Note{NoteID: "n1", Text: para + "\r\n\r\n" + para}

	chunks, err := chunker.Chunk(note)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.NotContains(t, chunks[0].Text, "\r")
}

func TestChunker_RepeatedParagraphsGetDistinctIDsAndOffsets(t *testing.T) {
	chunker := domain.NewChunker()

	boilerplate := strings.Repeat("Medication list reviewed and reconciled with the patient. ", 3)
	note := domain.Note{NoteID: "n1", Text: boilerplate + "\n\n" + boilerplate}

	chunks, err := chunker.Chunk(note)
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	assert.NotEqual(t, chunks[0].ChunkID, chunks[1].ChunkID)
	assert.Equal(t, 0, chunks[0].Offset)
	assert.Greater(t, chunks[1].Offset, chunks[0].Offset)
	assert.Equal(t, chunks[0].Text, chunks[1].Text)
}

func TestChunkIDPolicy_StableAndDistinct(t *testing.T) {
	policy := domain.NewChunkIDPolicy()

	a := policy.Compute("n1", 0, "chest pain noted")
	b := policy.Compute("n1", 0, "chest pain noted")
	c := policy.Compute("n2", 0, "chest pain noted")
	d := policy.Compute("n1", 0, "different text")
	e := policy.Compute("n1", 1, "chest pain noted")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, a, d)
	assert.NotEqual(t, a, e)
	assert.True(t, strings.HasPrefix(a, "n1-"))
}
