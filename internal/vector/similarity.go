// Package vector provides similarity helpers and the dense-vector file codec.
package vector

import "math"

// Dot returns the inner product of two vectors.
func Dot(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}

// L2Norm returns the L2 norm of a vector.
func L2Norm(x []float32) float64 {
	var sum float64
	for _, v := range x {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum)
}

// Cosine returns the cosine similarity of two vectors in [-1,1].
// Vectors are not assumed to be normalized. Zero-length or mismatched
// vectors score 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	na := L2Norm(a)
	nb := L2Norm(b)
	if na == 0 || nb == 0 {
		return 0
	}
	return Dot(a, b) / (na * nb)
}

// CosineNorm rescales a cosine similarity from [-1,1] to [0,1].
func CosineNorm(cos float64) float64 {
	return (cos + 1.0) / 2.0
}
