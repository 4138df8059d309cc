// Package dense provides DenseSearcher implementations: an embedded cosine
// index over precomputed vectors and helpers to obtain those vectors.
package dense

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"

	"note-ranker/internal/domain"
)

type entry struct {
	chunkID      string
	sourceNoteID string
	vector       []float32
}

// EmbeddedIndex is an in-memory vector index searched by cosine
// similarity. The incoming query is embedded with the same encoder that
// produced the stored vectors.
type EmbeddedIndex struct {
	encoder domain.VectorEncoder
	entries []entry
	dim     int
}

// BuildEmbeddedIndex encodes every corpus chunk up front. Intended for the
// standalone CLI path where no external vector index is available.
func BuildEmbeddedIndex(ctx context.Context, encoder domain.VectorEncoder, corpus *domain.Corpus) (*EmbeddedIndex, error) {
	chunks := corpus.All()
	sort.Slice(chunks, func(i, j int) bool { return chunks[i].ChunkID < chunks[j].ChunkID })

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := encoder.Encode(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("encode corpus: %w", err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("expected %d vectors, got %d", len(chunks), len(vectors))
	}

	idx := &EmbeddedIndex{encoder: encoder, entries: make([]entry, len(chunks))}
	for i, c := range chunks {
		idx.entries[i] = entry{chunkID: c.ChunkID, sourceNoteID: c.SourceNoteID, vector: vectors[i]}
		idx.dim = len(vectors[i])
	}
	return idx, nil
}

type embeddingRecord struct {
	ChunkID   string    `json:"chunk_id"`
	Embedding []float32 `json:"embedding"`
}

// LoadEmbeddedIndex reads precomputed embeddings (one JSON object per
// line: chunk_id plus embedding) and joins them with the corpus for source
// note metadata. Records that fail to parse or reference unknown chunks
// are skipped and counted.
func LoadEmbeddedIndex(path string, encoder domain.VectorEncoder, corpus *domain.Corpus) (*EmbeddedIndex, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open embeddings %s: %w", path, err)
	}
	defer f.Close()

	idx := &EmbeddedIndex{encoder: encoder}
	skipped := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var rec embeddingRecord
		if json.Unmarshal(line, &rec) != nil || rec.ChunkID == "" || len(rec.Embedding) == 0 {
			skipped++
			continue
		}
		chunk, ok := corpus.Get(rec.ChunkID)
		if !ok {
			skipped++
			continue
		}
		idx.entries = append(idx.entries, entry{
			chunkID:      rec.ChunkID,
			sourceNoteID: chunk.SourceNoteID,
			vector:       rec.Embedding,
		})
		idx.dim = len(rec.Embedding)
	}
	if err := scanner.Err(); err != nil {
		return nil, skipped, fmt.Errorf("read embeddings %s: %w", path, err)
	}
	sort.Slice(idx.entries, func(i, j int) bool { return idx.entries[i].chunkID < idx.entries[j].chunkID })
	return idx, skipped, nil
}

// SearchDense embeds the query and returns the closest chunks by cosine
// similarity, highest first, capped at limit.
func (idx *EmbeddedIndex) SearchDense(ctx context.Context, query string, limit int) ([]domain.RetrievalHit, error) {
	if len(idx.entries) == 0 {
		return []domain.RetrievalHit{}, nil
	}
	vectors, err := idx.encoder.Encode(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("no embedding returned for query")
	}
	qv := vectors[0]

	hits := make([]domain.RetrievalHit, 0, len(idx.entries))
	for _, e := range idx.entries {
		score := float64(CosineSimilarity(qv, e.vector))
		if score <= 0 {
			continue
		}
		hits = append(hits, domain.RetrievalHit{
			ChunkID:      e.chunkID,
			SourceNoteID: e.sourceNoteID,
			Score:        score,
		})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// CosineSimilarity returns the cosine of the angle between two vectors, or
// 0 when either has zero magnitude or the dimensions differ.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float32
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (float32(math.Sqrt(float64(normA))) * float32(math.Sqrt(float64(normB))))
}
