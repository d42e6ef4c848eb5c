// Package embeddings builds lexical embedding vectors for catalog text and
// provides vector helpers such as L2 normalization.
package embeddings

import (
	"math"
)

// Float is the element type of an embedding vector.
type Float interface {
	~float32 | ~float64
}

// NormalizeL2 scales vector in place to unit length. A zero vector is left unchanged.
func NormalizeL2[T Float](vector []T) {
	var sumSquares float64

	for _, v := range vector {
		sumSquares += float64(v) * float64(v)
	}

	if sumSquares == 0 {
		return
	}

	magnitude := math.Sqrt(sumSquares)

	for i := range vector {
		vector[i] = T(float64(vector[i]) / magnitude)
	}
}

// Magnitude returns the Euclidean length of vector.
func Magnitude[T Float](vector []T) float64 {
	var sumSquares float64
	for _, v := range vector {
		sumSquares += float64(v) * float64(v)
	}

	return math.Sqrt(sumSquares)
}
