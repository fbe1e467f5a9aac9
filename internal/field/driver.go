package field

import (
	"fmt"
	"math"

	"github.com/sethrj/celeritas/internal/real3"
)

func errOption(name string, value float64) error {
	return fmt.Errorf("field: driver option %s out of range: %g", name, value)
}

// Dormand-Prince coefficients (RK45)
var (
	b21 = 1.0 / 5.0
	b31 = 3.0 / 40.0
	b32 = 9.0 / 40.0
	b41 = 44.0 / 45.0
	b42 = -56.0 / 15.0
	b43 = 32.0 / 9.0
	b51 = 19372.0 / 6561.0
	b52 = -25360.0 / 2187.0
	b53 = 64448.0 / 6561.0
	b54 = -212.0 / 729.0
	b61 = 9017.0 / 3168.0
	b62 = -355.0 / 33.0
	b63 = 46732.0 / 5247.0
	b64 = 49.0 / 176.0
	b65 = -5103.0 / 18656.0

	c1 = 35.0 / 384.0
	c3 = 500.0 / 1113.0
	c4 = 125.0 / 192.0
	c5 = -2187.0 / 6784.0
	c6 = 11.0 / 84.0

	dc1 = c1 - 5179.0/57600.0
	dc3 = c3 - 7571.0/16695.0
	dc4 = c4 - 393.0/640.0
	dc5 = c5 - -92097.0/339200.0
	dc6 = c6 - 187.0/2100.0
	dc7 = -1.0 / 40.0
)

// Step-size scaling bounds per attempt, and the cap applied to unbounded
// ("to boundary") arc requests so the integration stays finite.
const (
	minStepScale = 0.1
	maxAdvance   = 1e8
)

// DriverOptions configures the adaptive driver and supplies the geometric
// tolerances consumed by the propagator.
type DriverOptions struct {
	// MinimumStep is the smallest arc length worth integrating.
	MinimumStep float64 `yaml:"minimum_step"`
	// DeltaChord is the allowed sagitta between chord and curve. Driver does
	// not read it: its step control is by truncation error only.
	DeltaChord float64 `yaml:"delta_chord"`
	// DeltaIntersection is the surface-proximity tolerance.
	DeltaIntersection float64 `yaml:"delta_intersection"`
	// EpsilonStep is the relative truncation error tolerance per step.
	EpsilonStep float64 `yaml:"epsilon_step"`
	// Safety scales the predicted step size after an error estimate.
	Safety float64 `yaml:"safety"`
	// PShrink is the error exponent used when shrinking the step.
	PShrink float64 `yaml:"pshrink"`
	// MaxNsteps bounds the retry loop inside a single advance.
	MaxNsteps int `yaml:"max_nsteps"`
}

// DefaultDriverOptions returns the tolerances used by the reference setup.
func DefaultDriverOptions() DriverOptions {
	return DriverOptions{
		MinimumStep:       1e-5,
		DeltaChord:        0.25,
		DeltaIntersection: 1e-4,
		EpsilonStep:       1e-5,
		Safety:            0.9,
		PShrink:           -0.25,
		MaxNsteps:         100,
	}
}

// Validate checks option ranges.
func (o DriverOptions) Validate() error {
	switch {
	case o.MinimumStep <= 0:
		return errOption("minimum_step", o.MinimumStep)
	case o.DeltaIntersection <= o.MinimumStep:
		return errOption("delta_intersection", o.DeltaIntersection)
	case o.EpsilonStep <= 0:
		return errOption("epsilon_step", o.EpsilonStep)
	case o.MaxNsteps <= 0:
		return errOption("max_nsteps", float64(o.MaxNsteps))
	}
	return nil
}

// Driver advances an ODE state along the curved trajectory with embedded
// Dormand-Prince error control. The achieved arc length is at most the
// requested one and never zero.
type Driver struct {
	opts DriverOptions
	eq   Equation
}

// NewDriver constructs a driver for one particle's equation of motion.
func NewDriver(opts DriverOptions, eq Equation) *Driver {
	return &Driver{opts: opts, eq: eq}
}

// Options returns the driver configuration.
func (d *Driver) Options() DriverOptions { return d.opts }

// Advance integrates up to the trial arc length, shrinking the attempted
// substep until the truncation error is within tolerance. The returned step
// is in (0, step].
func (d *Driver) Advance(step float64, state OdeState) DriverResult {
	if step <= 0 {
		panic("field: driver advance requires a positive step")
	}

	dt := math.Min(step, maxAdvance)
	for i := 0; ; i++ {
		end, errState := d.integrate(dt, state)
		errRatio := math.Sqrt(relErrSq(errState, dt, state.Mom)) / d.opts.EpsilonStep
		if errRatio <= 1 || dt <= d.opts.MinimumStep || i >= d.opts.MaxNsteps {
			return DriverResult{Step: dt, State: end}
		}

		scale := d.opts.Safety * math.Pow(errRatio, d.opts.PShrink)
		dt *= math.Min(math.Max(scale, minStepScale), 1)
		if dt < d.opts.MinimumStep {
			dt = d.opts.MinimumStep
		}
	}
}

// integrate takes one embedded RK45 step of length dt, returning the end
// state and the per-component error estimate.
func (d *Driver) integrate(dt float64, y OdeState) (end, errState OdeState) {
	rhs := d.eq.RHS

	k1 := rhs(y)
	k2 := rhs(y.add(k1.scale(dt * b21)))
	k3 := rhs(y.add(k1.scale(dt * b31)).add(k2.scale(dt * b32)))
	k4 := rhs(y.add(k1.scale(dt * b41)).add(k2.scale(dt * b42)).add(k3.scale(dt * b43)))
	k5 := rhs(y.add(k1.scale(dt * b51)).add(k2.scale(dt * b52)).add(k3.scale(dt * b53)).add(k4.scale(dt * b54)))
	k6 := rhs(y.add(k1.scale(dt * b61)).add(k2.scale(dt * b62)).add(k3.scale(dt * b63)).add(k4.scale(dt * b64)).add(k5.scale(dt * b65)))

	end = y.add(k1.scale(dt * c1)).add(k3.scale(dt * c3)).add(k4.scale(dt * c4)).add(k5.scale(dt * c5)).add(k6.scale(dt * c6))

	// FSAL stage for the embedded error estimate
	k7 := rhs(end)
	errState = k1.scale(dc1).add(k3.scale(dc3)).add(k4.scale(dc4)).add(k5.scale(dc5)).add(k6.scale(dc6)).add(k7.scale(dc7)).scale(dt)
	return end, errState
}

// relErrSq is the square of the relative truncation error: the position
// error scaled by the step length and the momentum error scaled by the
// starting momentum, whichever is worse.
func relErrSq(errState OdeState, step float64, mom real3.Real3) float64 {
	errPos := errState.Pos.Dot(errState.Pos) / (step * step)
	errMom := errState.Mom.Dot(errState.Mom) / mom.Dot(mom)
	return math.Max(errPos, errMom)
}
