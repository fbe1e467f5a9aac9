package propagate

import (
	"github.com/sethrj/celeritas/internal/field"
	"github.com/sethrj/celeritas/internal/geo"
	"github.com/sethrj/celeritas/internal/real3"
)

// trialSubstep classifies the result of one driver advance against the
// geometry. Construction computes the chord between the start point and the
// curved endpoint, queries the geometry for an intersection along it, and
// scales the substep length by the intercept/chord fraction to approximate
// the arc length to the boundary.
type trialSubstep struct {
	opts          *Options
	startPos      real3.Real3
	startBoundary bool
	substep       field.DriverResult

	chord  Chord
	linear geo.Propagation
	// scaled can exceed substep by up to the delta-intersection overreach,
	// and is NaN or Inf when the chord is degenerate.
	scaled float64
}

func newTrialSubstep(
	opts *Options,
	find stepFinder,
	startPos real3.Real3,
	startBoundary bool,
	end field.DriverResult,
) trialSubstep {
	t := trialSubstep{
		opts:          opts,
		startPos:      startPos,
		startBoundary: startBoundary,
		substep:       end,
	}
	t.chord = makeChord(startPos, end.State.Pos)
	t.linear = find.find(t.chord)
	t.scaled = t.linear.Distance / t.chord.Length * end.Step
	return t
}

// endState is the ODE state at the end of the trial.
func (t *trialSubstep) endState() field.OdeState { return t.substep.State }

// step is the exact arc length of the integrated substep.
func (t *trialSubstep) step() float64 { return t.substep.Step }

// scaledSubstep is the substep length scaled by the intercept/chord
// fraction.
func (t *trialSubstep) scaledSubstep() float64 { return t.scaled }

// trueBoundary: the intercept sits at or before the chord end, not just in
// the overreach, so moving to it cannot exceed the physical path length.
func (t *trialSubstep) trueBoundary() bool {
	return t.linear.Distance <= t.chord.Length
}

// noBoundary: no surface was found even searching a bit past the chord end.
func (t *trialSubstep) noBoundary() bool {
	return !t.linear.Boundary
}

// stuck: starting on a surface and immediately re-hitting one within a bump.
func (t *trialSubstep) stuck() bool {
	return t.startBoundary && t.linear.Distance < t.opts.BumpDistance()
}

// lengthAlmostBoundary: the boundary is essentially at the chord endpoint,
// close enough that the next trial would be below the minimum substep.
func (t *trialSubstep) lengthAlmostBoundary() bool {
	return t.linear.Boundary && t.scaled <= t.opts.MinimumSubstep()
}

// endpointNearBoundary: the straight-line intercept point is spatially
// within delta_intersection of the curved endpoint.
func (t *trialSubstep) endpointNearBoundary() bool {
	return t.linear.Boundary &&
		isInterceptClose(t.startPos, t.chord.Dir, t.linear.Distance,
			t.substep.State.Pos, t.opts.DeltaIntersection())
}

// degenerateChord: the substep end coincides with its start, so the chord
// has no direction and cannot be refined further.
func (t *trialSubstep) degenerateChord() bool {
	return t.chord.Length == 0
}
