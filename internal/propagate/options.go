// Package propagate advances a charged particle along its curved trajectory
// through a magnetic field while honoring geometric boundaries. It couples an
// adaptive field driver, which produces curved arcs, with a geometry track
// view, which answers only straight-line queries; the two are reconciled by a
// substep state machine with explicit handling for stuck, tangent, and
// degenerate-chord configurations.
package propagate

import (
	"fmt"

	"github.com/sethrj/celeritas/internal/field"
)

// Options configures the substep loop.
type Options struct {
	// Driver supplies the integration tolerances, including the geometric
	// ones consumed here (delta_intersection, minimum_step).
	Driver field.DriverOptions `yaml:"driver"`
	// MaxSubsteps bounds the number of accepted substeps per propagation
	// before the track is declared looping.
	MaxSubsteps int16 `yaml:"max_substeps"`
	// UseSafety enables the safety-accelerated next-step finder.
	UseSafety bool `yaml:"use_safety"`
}

// DefaultOptions returns the reference configuration.
func DefaultOptions() Options {
	return Options{
		Driver:      field.DefaultDriverOptions(),
		MaxSubsteps: 100,
	}
}

// DeltaIntersection is the surface-proximity tolerance: a boundary within
// this distance of where we expected it counts as hit.
func (o *Options) DeltaIntersection() float64 {
	return o.Driver.DeltaIntersection
}

// BumpDistance is the displacement used to escape surfaces the classifier
// declared unresolvable.
func (o *Options) BumpDistance() float64 {
	return 0.1 * o.DeltaIntersection()
}

// MinimumSubstep is the arc length below which a substep is too small to
// take.
func (o *Options) MinimumSubstep() float64 {
	return o.Driver.MinimumStep
}

// Validate checks option ranges.
func (o *Options) Validate() error {
	if err := o.Driver.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	if o.MaxSubsteps <= 0 {
		return fmt.Errorf("%w: max_substeps = %d", ErrInvalidOptions, o.MaxSubsteps)
	}
	return nil
}
