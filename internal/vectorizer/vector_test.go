package vectorizer

import (
	"math"
	"testing"
)

func TestVectorDot(t *testing.T) {
	a := Vector{0: 0.6, 1: 0.8}
	b := Vector{1: 1.0}

	if got := a.Dot(b); math.Abs(got-0.8) > tolerance {
		t.Errorf("Dot = %v, want 0.8", got)
	}
}

func TestVectorDotSymmetry(t *testing.T) {
	a := Vector{0: 0.3, 2: 0.5, 7: 0.2}
	b := Vector{2: 0.9, 7: 0.1, 11: 0.4}

	if ab, ba := a.Dot(b), b.Dot(a); ab != ba {
		t.Errorf("Dot not symmetric: %v vs %v", ab, ba)
	}
}

func TestVectorDotDisjointSupport(t *testing.T) {
	a := Vector{0: 1.0}
	b := Vector{1: 1.0}
	if got := a.Dot(b); got != 0 {
		t.Errorf("Dot over disjoint support = %v, want 0", got)
	}
}

func TestVectorDotZeroVector(t *testing.T) {
	zero := Vector{}
	other := Vector{0: 0.5, 1: 0.5}
	if got := zero.Dot(other); got != 0 {
		t.Errorf("zero vector dot = %v, want 0", got)
	}
}

func TestVectorNormalize(t *testing.T) {
	v := Vector{0: 3, 1: 4}
	v.normalize()
	if norm := v.Norm(); math.Abs(norm-1.0) > tolerance {
		t.Errorf("norm after normalize = %v, want 1.0", norm)
	}
	if math.Abs(v[0]-0.6) > tolerance || math.Abs(v[1]-0.8) > tolerance {
		t.Errorf("normalized components = %v, want {0:0.6, 1:0.8}", v)
	}
}

func TestNormalizeZeroVector(t *testing.T) {
	v := Vector{}
	v.normalize()
	if len(v) != 0 || v.Norm() != 0 {
		t.Errorf("zero vector changed by normalize: %v", v)
	}
}
