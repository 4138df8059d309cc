package domain

import "strings"

// ChunkerVersion identifies the chunking algorithm so regenerated corpora
// can be told apart from older ones.
type ChunkerVersion string

const ChunkerVersionV1 ChunkerVersion = "v1"

const (
	// MinChunkLength is the minimum chunk length in runes. Shorter
	// paragraphs are merged with a neighbor.
	MinChunkLength = 80
	// MaxChunkLength is the maximum chunk length in runes. Longer
	// paragraphs are split at sentence boundaries.
	MaxChunkLength = 1000
)

// Note is a raw clinical note before canonicalization.
type Note struct {
	NoteID string `json:"note_id"`
	Text   string `json:"text"`
}

// NoteChunker splits a raw note into corpus chunks.
type NoteChunker interface {
	Chunk(note Note) ([]Chunk, error)
	Version() ChunkerVersion
}

type paragraphChunker struct {
	ids ChunkIDPolicy
}

// NewChunker creates the default paragraph-based chunker.
func NewChunker() NoteChunker {
	return &paragraphChunker{ids: NewChunkIDPolicy()}
}

func (c *paragraphChunker) Version() ChunkerVersion {
	return ChunkerVersionV1
}

// Chunk splits the note text at blank lines, merges short paragraphs,
// splits overlong ones at sentence boundaries, and assigns each piece a
// stable id and its character offset into the normalized note.
func (c *paragraphChunker) Chunk(note Note) ([]Chunk, error) {
	normalized := strings.ReplaceAll(note.Text, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")

	parts := strings.Split(normalized, "\n\n")

	var paragraphs []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			paragraphs = append(paragraphs, trimmed)
		}
	}

	merged := mergeShortParagraphs(paragraphs)
	merged = mergeConsecutiveShort(merged)
	split := splitLongParagraphs(merged)

	chunks := make([]Chunk, 0, len(split))
	cursor := 0
	for ordinal, text := range split {
		offset, next := locateChunk(normalized, cursor, text)
		cursor = next
		chunks = append(chunks, Chunk{
			ChunkID:      c.ids.Compute(note.NoteID, ordinal, text),
			SourceNoteID: note.NoteID,
			Text:         text,
			Offset:       offset,
		})
	}

	return chunks, nil
}

// locateChunk finds the chunk's position in the normalized note and returns
// it together with the cursor for the next search. Merging and splitting
// rewrite whitespace between segments, so the search uses the chunk's first
// line, which always survives verbatim. The next cursor sits past the
// matched line so a repeated paragraph resolves to its own occurrence.
func locateChunk(body string, cursor int, chunkText string) (offset, next int) {
	needle := chunkText
	if i := strings.Index(needle, "\n"); i > 0 {
		needle = needle[:i]
	}
	if idx := strings.Index(body[cursor:], needle); idx >= 0 {
		return cursor + idx, cursor + idx + len(needle)
	}
	return cursor, cursor
}
