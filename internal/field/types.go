// Package field integrates the trajectory of a charged particle through a
// magnetic field. It provides the field types, the Lorentz equation of
// motion, and an adaptive Runge-Kutta driver that advances an ODE state by a
// requested arc length within a configured accuracy.
package field

import "github.com/sethrj/celeritas/internal/real3"

// OdeState is the integration state: a position and a momentum vector. The
// momentum must be nonzero; its magnitude is the scalar momentum and its
// direction the direction of travel.
type OdeState struct {
	Pos real3.Real3
	Mom real3.Real3
}

// DriverResult is the outcome of one driver advance: the arc length actually
// integrated (which may be less than requested) and the end state.
type DriverResult struct {
	Step  float64
	State OdeState
}

func (s OdeState) add(o OdeState) OdeState {
	return OdeState{Pos: s.Pos.Add(o.Pos), Mom: s.Mom.Add(o.Mom)}
}

func (s OdeState) scale(a float64) OdeState {
	return OdeState{Pos: s.Pos.Scale(a), Mom: s.Mom.Scale(a)}
}
