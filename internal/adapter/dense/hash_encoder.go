package dense

import (
	"context"
	"hash/fnv"
	"math"

	"note-ranker/internal/adapter/lexical"
)

const defaultHashDim = 256

// HashingEncoder is a deterministic feature-hashing encoder: each token is
// hashed into a fixed-dimension bag-of-words vector which is then
// L2-normalized. It needs no model artifacts, so the CLI can run the dense
// mechanism offline; deployments swap in a real embedding backend.
type HashingEncoder struct {
	dim int
}

// NewHashingEncoder creates an encoder with the given dimension.
// Non-positive dimensions fall back to the default.
func NewHashingEncoder(dim int) *HashingEncoder {
	if dim <= 0 {
		dim = defaultHashDim
	}
	return &HashingEncoder{dim: dim}
}

// Encode hashes each text's tokens into a normalized vector.
func (e *HashingEncoder) Encode(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, e.dim)
		for _, token := range lexical.Tokenize(text) {
			h := fnv.New32a()
			h.Write([]byte(token))
			sum := h.Sum32()
			bucket := int(sum % uint32(e.dim))
			// The next hash bit decides the sign, which keeps colliding
			// tokens from always reinforcing each other.
			if (sum>>31)&1 == 1 {
				vec[bucket]--
			} else {
				vec[bucket]++
			}
		}
		var norm float32
		for _, v := range vec {
			norm += v * v
		}
		if norm > 0 {
			inv := float32(1.0 / math.Sqrt(float64(norm)))
			for j := range vec {
				vec[j] *= inv
			}
		}
		out[i] = vec
	}
	return out, nil
}

// Version identifies the encoding scheme; embeddings from different
// versions must never be mixed in one index.
func (e *HashingEncoder) Version() string {
	return "feature-hash-v1"
}
