package vectorizer

import "math"

// Vector is a sparse term-id → weight mapping for a single document or
// query. Zero weights are never stored.
type Vector map[int]float64

// Dot returns the dot product over the shared support of v and other,
// iterating the smaller side.
func (v Vector) Dot(other Vector) float64 {
	a, b := v, other
	if len(b) < len(a) {
		a, b = b, a
	}
	var sum float64
	for termID, weight := range a {
		if w, ok := b[termID]; ok {
			sum += weight * w
		}
	}
	return sum
}

// Norm returns the Euclidean (L2) norm of the vector.
func (v Vector) Norm() float64 {
	var sum float64
	for _, weight := range v {
		sum += weight * weight
	}
	return math.Sqrt(sum)
}

// normalize scales v to unit length in place. The zero vector is left
// untouched rather than divided by zero.
func (v Vector) normalize() {
	norm := v.Norm()
	if norm == 0 {
		return
	}
	for termID := range v {
		v[termID] /= norm
	}
}
