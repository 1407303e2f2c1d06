package relevance

import "math"

// CosineSimilarity returns the cosine of the angle between a and b.
// Empty or mismatched vectors yield 0. A zero norm is treated as 1, so a
// zero vector yields the raw dot product rather than NaN.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, sumA, sumB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		sumA += x * x
		sumB += y * y
	}

	normA := math.Sqrt(sumA)
	if normA == 0 {
		normA = 1
	}
	normB := math.Sqrt(sumB)
	if normB == 0 {
		normB = 1
	}
	return dot / (normA * normB)
}
