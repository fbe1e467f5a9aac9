package propagate

import (
	"github.com/sethrj/celeritas/internal/field"
	"github.com/sethrj/celeritas/internal/geo"
	"github.com/sethrj/celeritas/internal/real3"
)

// mockGeo is a scripted TrackView: FindNextStep answers are popped from a
// queue (repeating the last one when exhausted) and every call is recorded.
type mockGeo struct {
	pos        real3.Real3
	dir        real3.Real3
	onBoundary bool

	nextResults []geo.Propagation
	safety      float64

	findMaxes     []float64
	safetyMaxes   []float64
	setDirs       []real3.Real3
	moveInternals []real3.Real3
	moveToBounds  int
	crossings     int

	lastNext geo.Propagation
}

func (m *mockGeo) Pos() real3.Real3   { return m.pos }
func (m *mockGeo) Dir() real3.Real3   { return m.dir }
func (m *mockGeo) IsOnBoundary() bool { return m.onBoundary }

func (m *mockGeo) FindNextStep(max float64) geo.Propagation {
	m.findMaxes = append(m.findMaxes, max)
	p := geo.Propagation{Distance: max, Boundary: false}
	if len(m.nextResults) > 0 {
		p = m.nextResults[0]
		if len(m.nextResults) > 1 {
			m.nextResults = m.nextResults[1:]
		}
	}
	if p.Distance > max {
		p = geo.Propagation{Distance: max, Boundary: false}
	}
	m.lastNext = p
	return p
}

func (m *mockGeo) FindSafety(max float64) float64 {
	m.safetyMaxes = append(m.safetyMaxes, max)
	if m.safety > max {
		return max
	}
	return m.safety
}

func (m *mockGeo) SetDir(d real3.Real3) {
	m.setDirs = append(m.setDirs, d)
	m.dir = d
}

func (m *mockGeo) MoveInternal(p real3.Real3) {
	m.moveInternals = append(m.moveInternals, p)
	m.pos = p
	m.onBoundary = false
}

func (m *mockGeo) MoveToBoundary() {
	m.moveToBounds++
	m.pos = real3.Axpy(m.lastNext.Distance, m.dir, m.pos)
	m.onBoundary = true
}

func (m *mockGeo) CrossBoundary() { m.crossings++ }

// mockDriver adapts a function to the Driver interface.
type mockDriver struct {
	opts field.DriverOptions
	fn   func(step float64, s field.OdeState) field.DriverResult
}

func (d *mockDriver) Options() field.DriverOptions { return d.opts }

func (d *mockDriver) Advance(step float64, s field.OdeState) field.DriverResult {
	return d.fn(step, s)
}

// straightDriver integrates a field-free track exactly: full requested arc
// along the momentum direction.
func straightDriver(opts field.DriverOptions) *mockDriver {
	return &mockDriver{opts: opts, fn: func(step float64, s field.OdeState) field.DriverResult {
		return field.DriverResult{
			Step: step,
			State: field.OdeState{
				Pos: real3.Axpy(step, s.Mom.Unit(), s.Pos),
				Mom: s.Mom,
			},
		}
	}}
}

// finderFunc adapts a function to the stepFinder interface.
type finderFunc func(Chord) geo.Propagation

func (f finderFunc) find(c Chord) geo.Propagation { return f(c) }
