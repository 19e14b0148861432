package embedding

import (
	"context"
	"hash/fnv"

	"github.com/giygas/pharmacy-api/interfaces"
	"github.com/giygas/pharmacy-api/similarity"
	"github.com/viant/vec/search"
)

var _ interfaces.EmbeddingProvider = (*HashingEmbedder)(nil)

// HashingEmbedder maps text to a unit vector by feature hashing its tokens
// and their character trigrams. Equal texts always get equal vectors, and
// texts sharing words or word fragments land close together.
type HashingEmbedder struct {
	dimension int
}

// NewHashingEmbedder creates an embedder producing vectors of size dimension
func NewHashingEmbedder(dimension int) *HashingEmbedder {
	if dimension <= 0 {
		dimension = 256
	}
	return &HashingEmbedder{dimension: dimension}
}

func (h *HashingEmbedder) Name() string   { return "hashing" }
func (h *HashingEmbedder) Dimension() int { return h.dimension }

func (h *HashingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tokens := similarity.Tokenize(text)
	if len(tokens) == 0 {
		return nil, ErrEmptyText
	}

	vector := make([]float32, h.dimension)
	for _, token := range tokens {
		h.add(vector, token, 1)
		padded := "#" + token + "#"
		for i := 0; i+3 <= len(padded); i++ {
			h.add(vector, padded[i:i+3], 0.5)
		}
	}

	norm := search.Float32s(vector).Magnitude()
	if norm == 0 {
		return vector, nil
	}
	scale := 1 / norm
	for i := range vector {
		vector[i] *= scale
	}
	return vector, nil
}

// add hashes feature into a bucket; one hash bit picks the sign so unrelated
// collisions tend to cancel out
func (h *HashingEmbedder) add(vector []float32, feature string, weight float32) {
	hasher := fnv.New64a()
	_, _ = hasher.Write([]byte(feature))
	sum := hasher.Sum64()

	bucket := int(sum % uint64(h.dimension))
	if sum&(1<<63) != 0 {
		weight = -weight
	}
	vector[bucket] += weight
}
