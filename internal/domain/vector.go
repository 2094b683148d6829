package domain

import "math"

// KeyPrefix namespaces all docrag keys in shared storage.
const KeyPrefix = "docrag:"

// Vector is a fixed-dimension dense embedding. Stored vectors are
// L2-normalized at the provider boundary; a zero vector is valid and
// scores 0 against everything.
type Vector []float32

// Dot returns the dot product. Vectors of different lengths compare
// over the shorter prefix.
func (v Vector) Dot(other Vector) float64 {
	n := len(v)
	if len(other) < n {
		n = len(other)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(v[i]) * float64(other[i])
	}
	return sum
}

// Norm returns the Euclidean (L2) norm.
func (v Vector) Norm() float64 {
	var sum float64
	for _, f := range v {
		sum += float64(f) * float64(f)
	}
	return math.Sqrt(sum)
}

// Normalized returns a unit-length copy. A zero vector is returned as is.
func (v Vector) Normalized() Vector {
	norm := v.Norm()
	if norm == 0 {
		return v
	}
	out := make(Vector, len(v))
	for i, f := range v {
		out[i] = float32(float64(f) / norm)
	}
	return out
}

// Cosine returns the cosine similarity between a and b in [-1, 1].
// When either norm is zero the similarity is 0 rather than NaN.
func Cosine(a, b Vector) float64 {
	na := a.Norm()
	nb := b.Norm()
	if na == 0 || nb == 0 {
		return 0
	}
	return a.Dot(b) / (na * nb)
}
