package domain

import (
	"errors"
	"fmt"
)

// ErrChunkNotFound is returned when a candidate references a chunk id that
// is absent from the corpus snapshot.
var ErrChunkNotFound = errors.New("chunk not found in corpus")

// ScorerError marks a per-candidate scoring failure. It is fatal for the
// stage: dropping a candidate silently would corrupt the narrowing
// invariant and the meaning of calibrated scores downstream.
type ScorerError struct {
	Stage   string
	ChunkID string
	Err     error
}

func (e *ScorerError) Error() string {
	return fmt.Sprintf("%s: scoring chunk %s: %v", e.Stage, e.ChunkID, e.Err)
}

func (e *ScorerError) Unwrap() error { return e.Err }
