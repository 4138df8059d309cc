package domain

import "context"

// RetrievalHit is a raw-scored chunk id returned by a retrieval index.
// Scores are on the index's native scale; the scout stage normalizes them.
type RetrievalHit struct {
	ChunkID      string
	SourceNoteID string
	Score        float64
}

// LexicalSearcher queries a prebuilt lexical (keyword) index. The index is
// opaque beyond this query-and-get-scored-ids contract; this service never
// writes to it. An empty result is valid and not an error.
type LexicalSearcher interface {
	SearchLexical(ctx context.Context, query string, limit int) ([]RetrievalHit, error)
}

// DenseSearcher queries a prebuilt dense/vector index under the same
// read-only contract as LexicalSearcher.
type DenseSearcher interface {
	SearchDense(ctx context.Context, query string, limit int) ([]RetrievalHit, error)
}

// InteractionResult is a token-level interaction score with the tokens that
// contributed the most weight, ordered by descending weight.
type InteractionResult struct {
	Score    float64
	Evidence []EvidenceToken
}

// InteractionScorer computes a fine-grained token-interaction signal for a
// (query, chunk text) pair. Implementations must be deterministic for a
// given input pair; a per-candidate failure aborts the whole stage.
type InteractionScorer interface {
	ScoreInteraction(ctx context.Context, query, text string) (InteractionResult, error)
}

// PairwiseScorer computes the most precise available relevance score for a
// (query, chunk text) pair, e.g. a cross-encoder. Raw scores are on the
// scorer's native scale; the judge stage calibrates them.
type PairwiseScorer interface {
	ScorePair(ctx context.Context, query, text string) (float64, error)

	// ModelName identifies the backing model for logging.
	ModelName() string
}

// Calibrator maps raw pairwise scores into probability-like values in
// [0,1]. The mapping must be non-decreasing in its input. Calibrated
// reports whether a reference fit is in effect; the identity fallback
// returns false so degenerate fits are never silent.
type Calibrator interface {
	Calibrate(raw float64) float64
	Calibrated() bool
}

// VectorEncoder produces embeddings for query text. Dense index adapters
// that hold vectors rather than text use it to embed the incoming query.
type VectorEncoder interface {
	Encode(ctx context.Context, texts []string) ([][]float32, error)
	Version() string
}
