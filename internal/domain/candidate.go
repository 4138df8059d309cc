package domain

// Candidate is a scout stage result. Scores are min-max normalized to [0,1]
// over the merged lexical+dense candidate set; FusionScore is the weighted
// sum of the two and is never set independently.
type Candidate struct {
	ChunkID      string  `json:"chunk_id"`
	SourceNoteID string  `json:"source_note_id"`
	Lexical      float64 `json:"s_lexical"`
	Dense        float64 `json:"s_dense"`
	FusionScore  float64 `json:"fusion_score"`
}

// EvidenceToken is a single token contribution to an interaction score.
type EvidenceToken struct {
	Token    string  `json:"token"`
	Weight   float64 `json:"weight"`
	Position int     `json:"position"`
}

// RescoredCandidate is an inspector stage result. FusionScore is carried
// through from the scout stage unchanged; ranking is by Interaction with
// FusionScore as the first tie-break. Evidence, when present, is ordered by
// descending weight.
type RescoredCandidate struct {
	ChunkID     string  `json:"chunk_id"`
	Interaction float64 `json:"s_interaction"`
	FusionScore float64 `json:"fusion_score"`
	// SourceNoteID is carried for downstream stages but is not part of the
	// stage's wire format; the judge re-resolves it from the corpus.
	SourceNoteID string          `json:"-"`
	Evidence     []EvidenceToken `json:"evidence,omitempty"`
}

// Pointer locates a chunk within its source note.
type Pointer struct {
	SourceNoteID string `json:"source_note_id"`
	Offset       int    `json:"offset"`
}

// FinalResult is a judge stage result. CalibratedScore is in [0,1] and is
// monotonic in the raw pairwise score. PatientUID is set only when the
// chunk's source note has an entry in the note-link table.
type FinalResult struct {
	ChunkID         string  `json:"chunk_id"`
	CalibratedScore float64 `json:"calibrated_score"`
	PatientUID      *string `json:"patient_uid,omitempty"`
	Pointer         Pointer `json:"pointer"`
}
