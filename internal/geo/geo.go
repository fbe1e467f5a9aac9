// Package geo defines the geometry track view consumed by the propagator and
// provides simple concrete geometries (nested boxes, concentric spheres) for
// tests and demos. The track view speaks only in straight lines: curved
// trajectories are presented to it as a sequence of chords.
package geo

import "github.com/sethrj/celeritas/internal/real3"

// Propagation is a geometry answer to "how far to the next surface along the
// current direction, searching up to a cap". Distance never exceeds the cap;
// Boundary reports whether a surface was found within it.
type Propagation struct {
	Distance float64
	Boundary bool
}

// TrackView is the query surface the propagator needs from a geometry
// tracker. Implementations maintain a position/direction/volume state for
// one track.
type TrackView interface {
	// Pos returns the current position.
	Pos() real3.Real3
	// Dir returns the current direction.
	Dir() real3.Real3
	// IsOnBoundary reports whether the track sits exactly on a surface.
	IsOnBoundary() bool
	// FindNextStep returns the distance to the next surface along the
	// current direction, capped at max.
	FindNextStep(max float64) Propagation
	// FindSafety returns a lower bound on the distance to any surface, up
	// to max.
	FindSafety(max float64) float64
	// SetDir changes the current direction (a unit vector).
	SetDir(d real3.Real3)
	// MoveInternal repositions the track within the current volume.
	MoveInternal(p real3.Real3)
	// MoveToBoundary snaps to the surface reported by the last
	// FindNextStep.
	MoveToBoundary()
	// CrossBoundary transitions across the current surface. Called by the
	// surrounding stepper, not by the propagator.
	CrossBoundary()
}

// surfaceID identifies one face of one shape in a concrete geometry.
type surfaceID struct {
	shape int
	axis  int
	side  int
}

// Hits on the surface the track currently occupies are excluded below this
// distance so an on-boundary track does not re-report its own surface.
const sameSurfaceTol = 1e-10
