package domain

// Chunk is a canonical text chunk produced by the note canonicalization
// pipeline. Chunks are immutable from this service's perspective; the corpus
// file is append-only and never rewritten here.
type Chunk struct {
	ChunkID      string `json:"chunk_id"`
	SourceNoteID string `json:"source_note_id"`
	Text         string `json:"text"`
	Offset       int    `json:"offset"`
}

// Corpus is an in-memory snapshot of the chunk corpus keyed by chunk id.
type Corpus struct {
	chunks map[string]Chunk
}

// NewCorpus builds a corpus snapshot from a chunk list. Later duplicates of
// the same chunk_id win, matching append-only file semantics.
func NewCorpus(chunks []Chunk) *Corpus {
	m := make(map[string]Chunk, len(chunks))
	for _, c := range chunks {
		m[c.ChunkID] = c
	}
	return &Corpus{chunks: m}
}

// Get returns the chunk for the given id.
func (c *Corpus) Get(chunkID string) (Chunk, bool) {
	ch, ok := c.chunks[chunkID]
	return ch, ok
}

// Len returns the number of distinct chunks in the snapshot.
func (c *Corpus) Len() int {
	return len(c.chunks)
}

// All returns every chunk in the snapshot. Iteration order is unspecified;
// callers that need determinism must sort.
func (c *Corpus) All() []Chunk {
	out := make([]Chunk, 0, len(c.chunks))
	for _, ch := range c.chunks {
		out = append(out, ch)
	}
	return out
}

// NoteLink associates a source note with a resolved patient identity.
// Produced by the identity-resolution pipeline and consumed read-only.
type NoteLink struct {
	NoteUID    string `json:"note_uid"`
	PatientUID string `json:"patient_uid"`
}

// NoteLinkTable maps note_uid to patient_uid. A nil table and a missing
// entry both mean "unknown patient", never an error.
type NoteLinkTable map[string]string

// Lookup returns the patient uid for a note, if resolved.
func (t NoteLinkTable) Lookup(noteUID string) (string, bool) {
	if t == nil {
		return "", false
	}
	uid, ok := t[noteUID]
	return uid, ok
}
