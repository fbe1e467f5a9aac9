package propagate

import (
	"math"

	"github.com/sethrj/celeritas/internal/field"
	"github.com/sethrj/celeritas/internal/geo"
	"github.com/sethrj/celeritas/internal/real3"
)

// substepStatus is the state of the substep loop after each iteration.
type substepStatus int

const (
	// statusIterating: still performing substeps (or trial substeps).
	statusIterating substepStatus = iota
	// statusBoundary: intersected a boundary.
	statusBoundary
	// statusMovedInternal: reached the end of the requested step length.
	statusMovedInternal
	// statusStuck: the track won't move from the boundary.
	statusStuck
	// statusLooping: no boundary found after exhausting the substep budget.
	statusLooping
)

// GeoFieldState aggregates the per-track state mutated by the substep loop:
// the geometry view, the ODE state, and whether the track is on a boundary.
// After each stable transition the ODE position agrees with the geometry
// position to within a driver tolerance and the boundary flag matches the
// geometry.
type GeoFieldState struct {
	Geo      geo.TrackView
	Ode      field.OdeState
	Boundary bool
}

// substepper manages the bookkeeping of the substep loop for one propagation
// call. All of its state lives on the stack.
type substepper struct {
	request float64
	opts    *Options
	state   *GeoFieldState

	// travelled is the cumulative arc length accepted.
	travelled float64
	// trialSubstep is the arc length to attempt next iteration.
	trialSubstep float64
	// remaining counts accepted substeps until the track is looping.
	remaining int16
}

func newSubstepper(step float64, opts *Options, state *GeoFieldState) substepper {
	return substepper{
		request:      step,
		opts:         opts,
		state:        state,
		trialSubstep: step,
		remaining:    opts.MaxSubsteps,
	}
}

func (s *substepper) status() substepStatus {
	if s.trialSubstep > s.opts.MinimumSubstep() && s.remaining > 0 {
		return statusIterating
	}
	if s.remaining == 0 && s.travelled < s.request {
		return statusLooping
	}
	if s.travelled > 0 {
		if s.state.Boundary {
			return statusBoundary
		}
		return statusMovedInternal
	}
	// No movement no matter the step size
	return statusStuck
}

// acceptInternal commits a substep whose chord crossed no boundary and
// resets the trial length toward the remaining request.
func (s *substepper) acceptInternal(t *trialSubstep) {
	s.state.Ode = t.endState()
	s.state.Boundary = false
	s.travelled += t.step()
	s.trialSubstep = s.request - s.travelled
	s.state.Geo.MoveInternal(s.state.Ode.Pos)
	s.remaining--
}

// acceptLikelyBoundary ends the search at a substep believed to stop at or
// just past a surface. The boundary is crossed only if the intercept is at
// or before the chord end, or crossing stays within the remaining travel
// budget, or the chord is degenerate and the hit came from the
// delta-intersection overreach.
func (s *substepper) acceptLikelyBoundary(t *trialSubstep) {
	hit := t.trueBoundary() ||
		s.travelled+t.scaledSubstep() <= s.request ||
		t.degenerateChord()
	if !hit {
		s.state.Ode.Pos = t.endState().Pos
		s.state.Geo.MoveInternal(s.state.Ode.Pos)
	}
	s.state.Boundary = hit

	// Report conservatively: never more than the actual arc, never more
	// than the intercept-scaled estimate. The scaled length is undefined
	// for a degenerate chord, so the raw substep is used there.
	if t.degenerateChord() {
		s.travelled += t.step()
	} else {
		s.travelled += math.Min(t.scaledSubstep(), t.step())
	}
	s.state.Ode.Mom = t.endState().Mom
	s.trialSubstep = 0
}

// retryStuck halves the trial after touching a surface we likely started
// on, without advancing state or spending a substep.
func (s *substepper) retryStuck(t *trialSubstep) {
	s.trialSubstep = t.step() / 2
}

// updateTrialStep shrinks the trial to the intercept-scaled arc when a
// boundary was reported too far from the substep end for confident
// attribution.
func (s *substepper) updateTrialStep(t *trialSubstep) {
	if t.scaledSubstep() >= s.trialSubstep {
		panic("propagate: trial substep failed to decrease")
	}
	s.trialSubstep = t.scaledSubstep()
}

// crossBoundary snaps the geometry to the boundary found by the last query
// and bumps the ODE position onto it.
func (s *substepper) crossBoundary() {
	s.state.Geo.MoveToBoundary()
	s.state.Ode.Pos = s.state.Geo.Pos()
	s.state.Boundary = true
}

// restoreDirection projects the momentum direction back into the geometry:
// along-step movement was done in chord directions, and the physical
// momentum must be preserved at the exit point.
func (s *substepper) restoreDirection() {
	s.state.Geo.SetDir(s.state.Ode.Mom.Unit())
}

// fixupInternalStep repairs round-off: a track that reached the end of the
// step may report slightly less than the request.
func (s *substepper) fixupInternalStep() {
	if s.travelled < s.request && real3.SoftEqual(s.travelled, s.request) {
		s.travelled = s.request
	}
}

// unstick escapes a track that could not move at all: bump it along the
// just-restored momentum direction, hoping it points deeper into the
// current volume.
func (s *substepper) unstick() {
	s.travelled = math.Min(s.opts.BumpDistance(), s.request)
	s.state.Ode.Pos = real3.Axpy(s.travelled, s.state.Geo.Dir(), s.state.Ode.Pos)
	s.state.Geo.MoveInternal(s.state.Ode.Pos)
	s.state.Boundary = false
}
