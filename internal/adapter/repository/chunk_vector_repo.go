// Package repository holds Postgres-backed adapters. The chunk embedding
// table is populated by the ingest pipeline; this service only queries it.
package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"note-ranker/internal/domain"
)

type chunkVectorRepository struct {
	pool    *pgxpool.Pool
	encoder domain.VectorEncoder
}

// NewChunkVectorRepository creates a DenseSearcher over a prebuilt pgvector
// index. The encoder must match the one used to populate the table; the
// embedding_version column guards against mixing encoders.
func NewChunkVectorRepository(pool *pgxpool.Pool, encoder domain.VectorEncoder) domain.DenseSearcher {
	return &chunkVectorRepository{pool: pool, encoder: encoder}
}

func (r *chunkVectorRepository) SearchDense(ctx context.Context, query string, limit int) ([]domain.RetrievalHit, error) {
	vectors, err := r.encoder.Encode(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to encode query: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("no embedding returned for query")
	}

	// Cosine distance; similarity = 1 - distance keeps higher-is-better.
	sql := `
		SELECT chunk_id, source_note_id, 1 - (embedding <=> $1) AS score
		FROM chunk_embeddings
		WHERE embedding_version = $2
		ORDER BY embedding <=> $1
		LIMIT $3
	`
	rows, err := r.pool.Query(ctx, sql, pgvector.NewVector(vectors[0]), r.encoder.Version(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunk embeddings: %w", err)
	}
	defer rows.Close()

	var hits []domain.RetrievalHit
	for rows.Next() {
		var h domain.RetrievalHit
		if err := rows.Scan(&h.ChunkID, &h.SourceNoteID, &h.Score); err != nil {
			return nil, fmt.Errorf("failed to scan hit: %w", err)
		}
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return hits, nil
}
