package field

// Equation is the Lorentz equation of motion for a charged particle in a
// magnetic field, parameterized by arc length:
//
//	dpos/ds = unit(mom)
//	dmom/ds = charge * unit(mom) x B(pos)
//
// so the gyration radius in code units is |p| / (|charge| * |B|). The field
// does no work: |mom| is an invariant of the exact solution.
type Equation struct {
	Field  Field
	Charge float64
}

// RHS evaluates the state derivative with respect to arc length.
func (e Equation) RHS(s OdeState) OdeState {
	dir := s.Mom.Unit()
	b := e.Field.At(s.Pos)
	return OdeState{
		Pos: dir,
		Mom: dir.Cross(b).Scale(e.Charge),
	}
}
