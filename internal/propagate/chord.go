package propagate

import "github.com/sethrj/celeritas/internal/real3"

// Chord is the straight segment between two points: its length and, when the
// length is nonzero, its unit direction.
type Chord struct {
	Length float64
	Dir    real3.Real3
}

// makeChord computes the chord from src to dst. A zero-length chord has a
// zero direction; callers must treat it as degenerate.
func makeChord(src, dst real3.Real3) Chord {
	d := dst.Sub(src)
	length := d.Norm()
	c := Chord{Length: length}
	if length > 0 {
		c.Dir = d.Scale(1 / length)
	}
	return c
}

// isInterceptClose reports whether origin + t*dir is within eps of target,
// without forming the intermediate point.
func isInterceptClose(origin, dir real3.Real3, t float64, target real3.Real3, eps float64) bool {
	var deltaSq float64
	for i := 0; i < 3; i++ {
		d := origin[i] - target[i] + t*dir[i]
		deltaSq += d * d
	}
	return deltaSq <= eps*eps
}
