package lexical

import (
	"context"

	"github.com/meilisearch/meilisearch-go"

	"note-ranker/internal/domain"
)

// MeiliSearcher queries a prebuilt Meilisearch index of chunks. Documents
// are expected to carry chunk_id and source_note_id attributes; ranking
// scores come from Meilisearch's relevancy scoring.
type MeiliSearcher struct {
	index meilisearch.IndexManager
}

// NewMeiliSearcher wraps an existing index. This service never writes to
// it; index construction belongs to the ingest pipeline.
func NewMeiliSearcher(client meilisearch.ServiceManager, indexName string) *MeiliSearcher {
	return &MeiliSearcher{index: client.Index(indexName)}
}

// SearchLexical runs a keyword search and maps hits to raw-scored ids.
func (m *MeiliSearcher) SearchLexical(_ context.Context, query string, limit int) ([]domain.RetrievalHit, error) {
	result, err := m.index.Search(query, &meilisearch.SearchRequest{
		Query:            query,
		Limit:            int64(limit),
		ShowRankingScore: true,
	})
	if err != nil {
		return nil, err
	}

	hits := make([]domain.RetrievalHit, 0, len(result.Hits))
	for _, hit := range result.Hits {
		hitMap, ok := hit.(map[string]interface{})
		if !ok {
			continue
		}
		chunkID := getString(hitMap, "chunk_id")
		if chunkID == "" {
			continue
		}
		hits = append(hits, domain.RetrievalHit{
			ChunkID:      chunkID,
			SourceNoteID: getString(hitMap, "source_note_id"),
			Score:        getFloat(hitMap, "_rankingScore"),
		})
	}
	return hits, nil
}

func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func getFloat(m map[string]interface{}, key string) float64 {
	if v, ok := m[key]; ok {
		if f, ok := v.(float64); ok {
			return f
		}
	}
	return 0
}
