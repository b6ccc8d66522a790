package search

import "math"

// CosineSimilarity computes the cosine similarity between two vectors.
// Returns 0 for nil, empty, length-mismatched, or zero-magnitude inputs
// instead of erroring: a malformed stored embedding should rank a
// candidate last, not fail the whole search.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
