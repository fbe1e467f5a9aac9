// Package real3 provides the 3-vector arithmetic used for positions and
// momenta throughout the propagation code. Vectors are plain value types so
// the hot loop never allocates.
package real3

import "math"

// Real3 is a 3-tuple interpreted as a position (length units) or a momentum
// vector (momentum units).
type Real3 [3]float64

// Add returns v + w.
func (v Real3) Add(w Real3) Real3 {
	return Real3{v[0] + w[0], v[1] + w[1], v[2] + w[2]}
}

// Sub returns v - w.
func (v Real3) Sub(w Real3) Real3 {
	return Real3{v[0] - w[0], v[1] - w[1], v[2] - w[2]}
}

// Scale returns a*v.
func (v Real3) Scale(a float64) Real3 {
	return Real3{a * v[0], a * v[1], a * v[2]}
}

// Dot returns the inner product of v and w.
func (v Real3) Dot(w Real3) float64 {
	return v[0]*w[0] + v[1]*w[1] + v[2]*w[2]
}

// Cross returns the vector product v x w.
func (v Real3) Cross(w Real3) Real3 {
	return Real3{
		v[1]*w[2] - v[2]*w[1],
		v[2]*w[0] - v[0]*w[2],
		v[0]*w[1] - v[1]*w[0],
	}
}

// Norm returns the Euclidean length of v.
func (v Real3) Norm() float64 {
	return math.Sqrt(v.Dot(v))
}

// Unit returns v normalized to unit length. The caller must ensure v is
// nonzero.
func (v Real3) Unit() Real3 {
	return v.Scale(1 / v.Norm())
}

// IsFinite reports whether every component is a finite number.
func (v Real3) IsFinite() bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// Axpy returns a*x + y.
func Axpy(a float64, x, y Real3) Real3 {
	return Real3{a*x[0] + y[0], a*x[1] + y[1], a*x[2] + y[2]}
}

// Distance returns the Euclidean distance between two points.
func Distance(a, b Real3) float64 {
	return b.Sub(a).Norm()
}
