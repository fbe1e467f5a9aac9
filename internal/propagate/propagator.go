package propagate

import (
	"math"

	"github.com/sethrj/celeritas/internal/field"
	"github.com/sethrj/celeritas/internal/geo"
	"github.com/sethrj/celeritas/internal/real3"
)

// Driver integrates the curved trajectory over a requested arc length. The
// returned step is in (0, request]; shorter steps are taken when field
// curvature demands it, but never zero.
type Driver interface {
	Advance(step float64, state field.OdeState) field.DriverResult
	Options() field.DriverOptions
}

// Result is the outcome of one propagation: the arc length travelled,
// whether the track stopped on a boundary, and whether it exhausted its
// substep budget.
type Result struct {
	Distance float64
	Boundary bool
	Looping  bool
}

// Err maps the result onto the caller-facing error taxonomy. Looping is the
// only non-success outcome a finished propagation can report.
func (r Result) Err() error {
	if r.Looping {
		return ErrLooping
	}
	return nil
}

// Propagator moves one charged track through field and geometry. It holds
// borrowed references only; all per-call state lives on the stack so the
// same code is valid on any worker.
type Propagator struct {
	opts     Options
	drv      Driver
	geo      geo.TrackView
	momentum float64
}

// New constructs a propagator for one track with explicit options. The
// momentum scalar combines with the geometry's direction to form the
// initial momentum vector.
func New(opts Options, drv Driver, gtv geo.TrackView, momentum float64) *Propagator {
	if momentum <= 0 {
		panic("propagate: momentum must be positive")
	}
	return &Propagator{opts: opts, drv: drv, geo: gtv, momentum: momentum}
}

// NewFromDriver constructs a propagator taking the tolerances from the
// driver and the default substep budget.
func NewFromDriver(drv Driver, gtv geo.TrackView, momentum float64) *Propagator {
	opts := DefaultOptions()
	opts.Driver = drv.Options()
	return New(opts, drv, gtv, momentum)
}

// ToBoundary propagates until the track hits a boundary (or loops).
func (p *Propagator) ToBoundary() Result {
	return p.Propagate(math.Inf(1))
}

// Propagate advances the track up to the requested step length, stopping
// early at a volume boundary. On return the geometry direction is the
// momentum direction at the end point.
func (p *Propagator) Propagate(step float64) Result {
	if step <= 0 {
		panic("propagate: step request must be positive")
	}

	state := GeoFieldState{
		Geo:      p.geo,
		Ode:      field.OdeState{Pos: p.geo.Pos(), Mom: p.geo.Dir().Scale(p.momentum)},
		Boundary: p.geo.IsOnBoundary(),
	}
	sub := newSubstepper(step, &p.opts, &state)

	var finder stepFinder
	if p.opts.UseSafety {
		finder = &safetyStepFinder{geo: p.geo, opts: &p.opts}
	} else {
		finder = &nextStepFinder{geo: p.geo, opts: &p.opts}
	}

	// Break the curved trajectory into substeps as determined by the driver
	// and by the proximity of geometry boundaries. The loop converges
	// because the trial step always decreases or the position advances.
	status := sub.status()
	for status == statusIterating {
		p.checkConsistency(&state)

		dr := p.drv.Advance(sub.trialSubstep, state.Ode)
		if !(dr.Step > 0 && dr.Step <= sub.trialSubstep) {
			panic("propagate: driver returned an arc outside (0, trial]")
		}

		trial := newTrialSubstep(&p.opts, finder, state.Ode.Pos, state.Boundary, dr)
		switch {
		case trial.noBoundary():
			sub.acceptInternal(&trial)
		case trial.stuck():
			sub.retryStuck(&trial)
		case trial.lengthAlmostBoundary() || trial.endpointNearBoundary() || trial.degenerateChord():
			sub.acceptLikelyBoundary(&trial)
		default:
			// A boundary was reported but the straight-line intercept is
			// too far from the substep's end state: shrink and retry.
			sub.updateTrialStep(&trial)
		}
		status = sub.status()
	}

	switch status {
	case statusBoundary:
		// The delta-intersection search-beyond may bump the ODE position
		// onto the geometry's boundary point.
		sub.crossBoundary()
	case statusMovedInternal:
		sub.fixupInternalStep()
	}

	sub.restoreDirection()

	if status == statusStuck {
		sub.unstick()
	}

	result := Result{
		Distance: sub.travelled,
		Boundary: state.Boundary,
		Looping:  status == statusLooping,
	}
	if !(result.Distance > 0) ||
		!(result.Distance <= step || real3.SoftEqual(result.Distance, step)) {
		panic("propagate: distance outside (0, request]")
	}
	return result
}

// checkConsistency verifies the loop invariants: the ODE position agrees
// with the geometry position and the tracked boundary flag matches the
// geometry. A violation is a logic error.
func (p *Propagator) checkConsistency(state *GeoFieldState) {
	if real3.Distance(state.Ode.Pos, state.Geo.Pos()) > p.opts.DeltaIntersection() {
		panic("propagate: ODE position diverged from geometry position")
	}
	if state.Boundary != state.Geo.IsOnBoundary() {
		panic("propagate: boundary flag inconsistent with geometry")
	}
}
