package retrieval

import (
	"fmt"
	"math"

	"github.com/kirillkom/medref-rag/internal/core/domain"
)

// Epsilon guards every division in the ranking math against zero.
const Epsilon = 1e-8

// CosineSimilarity returns dot(a,b) / (|a|*|b| + Epsilon). Vectors of
// different length are a configuration error, never truncated.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, domain.WrapError(
			domain.ErrDimensionMismatch,
			"cosine similarity",
			fmt.Errorf("len(a)=%d len(b)=%d", len(a), len(b)),
		)
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	return dot / (math.Sqrt(normA)*math.Sqrt(normB) + Epsilon), nil
}
