package propagate

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sethrj/celeritas/internal/field"
	"github.com/sethrj/celeritas/internal/geo"
	"github.com/sethrj/celeritas/internal/real3"
)

func fieldDriver(b real3.Real3) *field.Driver {
	return field.NewDriver(field.DefaultDriverOptions(),
		field.Equation{Field: field.Uniform{B: b}, Charge: 1})
}

func zeroFieldDriver() *field.Driver {
	return fieldDriver(real3.Real3{})
}

func innerBoxWorld(t *testing.T) *geo.NestedBoxes {
	t.Helper()
	g, err := geo.NewNestedBoxes(5, 24)
	require.NoError(t, err)
	return g
}

func TestPropagateStraightInternal(t *testing.T) {
	g := innerBoxWorld(t)
	g.Init(real3.Real3{-10, -2, -2}, real3.Real3{1, 0, 0})
	p := NewFromDriver(zeroFieldDriver(), g, 1.0)

	res := p.Propagate(4.0)

	assert.Equal(t, 4.0, res.Distance)
	assert.False(t, res.Boundary)
	assert.False(t, res.Looping)
	assert.False(t, g.IsOnBoundary())
	assert.InDelta(t, -6, g.Pos()[0], 1e-12)
	assert.NoError(t, res.Err())
}

func TestPropagateStraightToBoundary(t *testing.T) {
	g := innerBoxWorld(t)
	g.Init(real3.Real3{-10, -2, -2}, real3.Real3{1, 0, 0})
	p := NewFromDriver(zeroFieldDriver(), g, 1.0)

	res := p.Propagate(10.0)

	assert.InDelta(t, 5.0, res.Distance, 1e-10)
	assert.True(t, res.Boundary)
	assert.False(t, res.Looping)
	require.True(t, g.IsOnBoundary())
	assert.InDelta(t, -5, g.Pos()[0], 1e-10)
}

func TestPropagateSafetyFinderEquivalent(t *testing.T) {
	g := innerBoxWorld(t)
	g.Init(real3.Real3{-10, -2, -2}, real3.Real3{1, 0, 0})

	opts := DefaultOptions()
	opts.UseSafety = true
	p := New(opts, zeroFieldDriver(), g, 1.0)

	res := p.Propagate(10.0)

	assert.InDelta(t, 5.0, res.Distance, 1e-10)
	assert.True(t, res.Boundary)
	assert.True(t, g.IsOnBoundary())
}

func TestPropagateFromJustInsideWorld(t *testing.T) {
	g := innerBoxWorld(t)
	start := real3.Real3{-24 + 1e-13, 6.5, 6.5}
	g.Init(start, real3.Real3{-1, 0, 0})
	p := NewFromDriver(zeroFieldDriver(), g, 1.0)

	res := p.ToBoundary()

	// The geometry reports the surface a rounding error away and the
	// propagation ends on it with a tiny positive distance.
	assert.True(t, res.Boundary)
	assert.Greater(t, res.Distance, 0.0)
	assert.InDelta(t, 1e-13, res.Distance, 1e-13)
	assert.True(t, g.IsOnBoundary())
	assert.InDelta(t, -24, g.Pos()[0], 1e-10)
}

func TestPropagateTangentStuckBumps(t *testing.T) {
	// The track starts exactly on a surface with its momentum tangent to
	// it; the geometry keeps reporting an immediate re-hit, so every trial
	// classifies as stuck and halves until the loop gives up and bumps.
	opts := DefaultOptions()
	m := &mockGeo{
		pos:         real3.Real3{5, 0, 0},
		dir:         real3.Real3{0, 1, 0},
		onBoundary:  true,
		nextResults: []geo.Propagation{{Distance: 1e-9, Boundary: true}},
	}
	p := New(opts, fieldDriver(real3.Real3{0, 0, 1}), m, 1.0)

	res := p.Propagate(1.0)

	assert.Equal(t, opts.BumpDistance(), res.Distance)
	assert.False(t, res.Boundary)
	assert.False(t, res.Looping)
	assert.False(t, m.onBoundary)

	// The bump moved along the momentum direction, not a chord.
	require.NotEmpty(t, m.moveInternals)
	bumped := m.moveInternals[len(m.moveInternals)-1]
	want := real3.Real3{5, opts.BumpDistance(), 0}
	assert.InDelta(t, 0, real3.Distance(bumped, want), 1e-12)
}

func TestPropagateLoopingInStrongField(t *testing.T) {
	// Gyration radius 1e-4: far smaller than any surface distance, so the
	// substep budget expires long before the requested step.
	g := innerBoxWorld(t)
	g.Init(real3.Real3{0, 0, 0}, real3.Real3{1, 0, 0})
	p := NewFromDriver(fieldDriver(real3.Real3{0, 0, 1e4}), g, 1.0)

	res := p.Propagate(1e6)

	assert.True(t, res.Looping)
	assert.Greater(t, res.Distance, 0.0)
	assert.Less(t, res.Distance, 1e6)
	assert.False(t, res.Boundary)
	assert.ErrorIs(t, res.Err(), ErrLooping)
}

func TestPropagateDegenerateChord(t *testing.T) {
	// The driver comes back exactly where it started (a full turn) while
	// the geometry still reports a hit inside the overreach window.
	opts := DefaultOptions()
	m := &mockGeo{
		pos:         real3.Real3{1, 2, 3},
		dir:         real3.Real3{0, 1, 0},
		nextResults: []geo.Propagation{{Distance: 0.5 * opts.DeltaIntersection(), Boundary: true}},
	}
	drv := &mockDriver{opts: opts.Driver, fn: func(step float64, s field.OdeState) field.DriverResult {
		return field.DriverResult{Step: step, State: s}
	}}
	p := New(opts, drv, m, 1.0)

	res := p.Propagate(0.5)

	assert.Equal(t, 0.5, res.Distance)
	assert.True(t, res.Boundary)
	assert.Equal(t, 1, m.moveToBounds)
	// The degenerate chord must not overwrite the geometry direction.
	for _, d := range m.setDirs {
		assert.InDelta(t, 1, d.Norm(), 1e-12)
	}
}

func TestPropagateShortRequestBumps(t *testing.T) {
	g := innerBoxWorld(t)
	g.Init(real3.Real3{0, 0, 0}, real3.Real3{1, 0, 0})
	opts := DefaultOptions()
	p := New(opts, zeroFieldDriver(), g, 1.0)

	// Below the minimum substep the loop cannot iterate at all; the bump
	// heuristic still guarantees forward progress.
	req := 0.5 * opts.MinimumSubstep()
	res := p.Propagate(req)

	assert.Equal(t, req, res.Distance)
	assert.False(t, res.Boundary)
	assert.False(t, res.Looping)
}

func TestPropagateUpdateTrialShrinks(t *testing.T) {
	// The geometry reports a boundary far from the substep end: the trial
	// shrinks to the scaled intercept and the retry lands on it.
	opts := DefaultOptions()
	m := &mockGeo{
		pos:         real3.Real3{},
		dir:         real3.Real3{1, 0, 0},
		nextResults: []geo.Propagation{{Distance: 6, Boundary: true}, {Distance: 6, Boundary: true}},
	}
	p := New(opts, straightDriver(opts.Driver), m, 1.0)

	res := p.Propagate(10)

	assert.InDelta(t, 6.0, res.Distance, 1e-12)
	assert.True(t, res.Boundary)
	assert.Equal(t, 1, m.moveToBounds)
	// Two geometry queries: the rejected far hit, then the accepted one.
	assert.Len(t, m.findMaxes, 2)
}

func TestPropagateCrossBoundaryThenContinue(t *testing.T) {
	g := innerBoxWorld(t)
	g.Init(real3.Real3{-10, -2, -2}, real3.Real3{1, 0, 0})
	p := NewFromDriver(zeroFieldDriver(), g, 1.0)

	first := p.ToBoundary()
	require.True(t, first.Boundary)
	require.InDelta(t, 5.0, first.Distance, 1e-10)

	g.CrossBoundary()

	second := p.ToBoundary()
	assert.Greater(t, second.Distance, 0.0)
	assert.True(t, second.Boundary)
	assert.InDelta(t, 10.0, second.Distance, 1e-10)
	assert.InDelta(t, 5, g.Pos()[0], 1e-10)
}

func TestPropagateCurvedKeepsMomentumDirection(t *testing.T) {
	// Gentle curvature: radius 100, arc 3, all far from any surface. The
	// geometry direction after the call is the rotated momentum direction.
	g := innerBoxWorld(t)
	g.Init(real3.Real3{0, 0, 0}, real3.Real3{1, 0, 0})
	p := NewFromDriver(fieldDriver(real3.Real3{0, 0, 0.01}), g, 1.0)

	res := p.Propagate(3.0)

	assert.Equal(t, 3.0, res.Distance)
	assert.False(t, res.Boundary)

	d := g.Dir()
	assert.InDelta(t, 1, d.Norm(), 1e-9)
	// Positive charge in +z field: the direction rotates toward -y by the
	// arc over the gyration radius.
	assert.InDelta(t, math.Cos(0.03), d[0], 1e-4)
	assert.InDelta(t, -math.Sin(0.03), d[1], 1e-4)
}

func TestPropagatePanicsOnBadInput(t *testing.T) {
	g := innerBoxWorld(t)
	g.Init(real3.Real3{0, 0, 0}, real3.Real3{1, 0, 0})
	p := NewFromDriver(zeroFieldDriver(), g, 1.0)

	assert.Panics(t, func() { p.Propagate(0) })
	assert.Panics(t, func() { p.Propagate(-1) })
	assert.Panics(t, func() { New(DefaultOptions(), zeroFieldDriver(), g, 0) })
}

func TestOptionsValidate(t *testing.T) {
	opts := DefaultOptions()
	assert.NoError(t, opts.Validate())

	bad := opts
	bad.MaxSubsteps = 0
	assert.ErrorIs(t, bad.Validate(), ErrInvalidOptions)

	bad = opts
	bad.Driver.MinimumStep = -1
	assert.ErrorIs(t, bad.Validate(), ErrInvalidOptions)
}

func BenchmarkPropagateStraight(b *testing.B) {
	g, err := geo.NewNestedBoxes(5, 24)
	if err != nil {
		b.Fatal(err)
	}
	drv := zeroFieldDriver()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		g.Init(real3.Real3{-10, -2, -2}, real3.Real3{1, 0, 0})
		p := NewFromDriver(drv, g, 1.0)
		p.Propagate(4.0)
	}
}
