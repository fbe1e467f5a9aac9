package propagate

import "github.com/sethrj/celeritas/internal/geo"

// stepFinder answers a straight-line boundary query over a chord. The search
// reaches delta_intersection past the chord end so that boundaries very close
// to the endpoint still get reported.
type stepFinder interface {
	find(c Chord) geo.Propagation
}

// nextStepFinder is the plain finder: one geometry query per chord.
type nextStepFinder struct {
	geo  geo.TrackView
	opts *Options
}

func (f *nextStepFinder) find(c Chord) geo.Propagation {
	if c.Length >= f.opts.MinimumSubstep() {
		// Only update the direction for nontrivial chords: a near-zero
		// chord has an unreliable (or zero) direction.
		f.geo.SetDir(c.Dir)
	}
	return f.geo.FindNextStep(c.Length + f.opts.DeltaIntersection())
}

// safetyStepFinder keeps a signed distance credit and skips the boundary
// query while the chord provably cannot reach any surface. Semantically
// equivalent to nextStepFinder.
type safetyStepFinder struct {
	geo    geo.TrackView
	opts   *Options
	safety float64
}

func (f *safetyStepFinder) find(c Chord) geo.Propagation {
	search := c.Length + f.opts.DeltaIntersection()
	f.safety -= search
	if f.safety <= 0 && !f.geo.IsOnBoundary() {
		f.safety = f.geo.FindSafety(2*search) - search
	}
	if f.safety > 0 {
		return geo.Propagation{Distance: search, Boundary: false}
	}

	// The direction may be stale after several in-safety chords, so it must
	// be set before falling through to the geometry query.
	if c.Length == 0 {
		panic("propagate: safety finder fall-through on a degenerate chord")
	}
	f.geo.SetDir(c.Dir)
	return f.geo.FindNextStep(search)
}
