package real3

import "math"

// Default tolerances for soft floating-point comparisons, scaled for double
// precision.
const (
	softRelEps = 1e-12
	softAbsEps = 1e-14
)

// SoftEqual reports whether a and b are equal to within a relative tolerance
// scaled by the larger magnitude, with an absolute floor near zero.
func SoftEqual(a, b float64) bool {
	rel := softRelEps * math.Max(math.Abs(a), math.Abs(b))
	return math.Abs(a-b) <= math.Max(rel, softAbsEps)
}

// SoftZero reports whether a is zero to within the absolute tolerance.
func SoftZero(a float64) bool {
	return math.Abs(a) <= softAbsEps
}
