package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// ChunkIDPolicy derives a stable chunk id from the source note id, the
// chunk's ordinal within the note, and the chunk text. Same note + same
// position + same text always yields the same id, so re-chunking an
// unchanged note is idempotent. The ordinal keeps repeated paragraphs
// (boilerplate sections recur in clinical notes) from colliding.
type ChunkIDPolicy interface {
	Compute(noteID string, ordinal int, text string) string
}

type chunkIDPolicy struct{}

// NewChunkIDPolicy creates the default SHA-256 based id policy.
func NewChunkIDPolicy() ChunkIDPolicy {
	return &chunkIDPolicy{}
}

// Compute returns "<note_id>-<hash12>" where hash12 is the first 12 hex
// characters of SHA-256 over the note id, ordinal, and normalized text.
// Null bytes separate the components so "a"+"bc" and "ab"+"c" never
// collide.
func (p *chunkIDPolicy) Compute(noteID string, ordinal int, text string) string {
	content := strings.TrimSpace(noteID) + "\x00" + strconv.Itoa(ordinal) + "\x00" + strings.TrimSpace(text)
	hash := sha256.Sum256([]byte(content))
	return noteID + "-" + hex.EncodeToString(hash[:])[:12]
}
