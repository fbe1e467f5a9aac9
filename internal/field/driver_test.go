package field

import (
	"math"
	"testing"

	"github.com/sethrj/celeritas/internal/real3"
)

func makeDriver(b real3.Real3) *Driver {
	eq := Equation{Field: Uniform{B: b}, Charge: 1}
	return NewDriver(DefaultDriverOptions(), eq)
}

func TestDriverZeroFieldIsExact(t *testing.T) {
	drv := makeDriver(real3.Real3{})
	state := OdeState{
		Pos: real3.Real3{1, 2, 3},
		Mom: real3.Real3{0, 10, 0},
	}

	res := drv.Advance(7.5, state)

	if res.Step != 7.5 {
		t.Errorf("zero-field advance shortened the step: %v", res.Step)
	}
	want := real3.Real3{1, 9.5, 3}
	if d := real3.Distance(res.State.Pos, want); d > 1e-12 {
		t.Errorf("end position %v, want %v (off by %g)", res.State.Pos, want, d)
	}
	if d := real3.Distance(res.State.Mom, state.Mom); d > 1e-12 {
		t.Errorf("momentum changed in zero field: %v", res.State.Mom)
	}
}

func TestDriverStepNeverZero(t *testing.T) {
	// Strong field: the requested arc is enormously longer than the
	// gyration radius, so the driver must shrink but still make progress.
	drv := makeDriver(real3.Real3{0, 0, 1e4})
	state := OdeState{Pos: real3.Real3{}, Mom: real3.Real3{1, 0, 0}}

	res := drv.Advance(1e6, state)

	if res.Step <= 0 {
		t.Fatalf("driver returned non-positive step %v", res.Step)
	}
	if res.Step > 1e6 {
		t.Errorf("driver exceeded requested arc: %v", res.Step)
	}
}

func TestDriverMomentumConservation(t *testing.T) {
	drv := makeDriver(real3.Real3{0, 0, 2})
	state := OdeState{Pos: real3.Real3{}, Mom: real3.Real3{3, 0, 4}}
	p0 := state.Mom.Norm()

	remaining := 20.0
	for remaining > 1e-10 {
		res := drv.Advance(remaining, state)
		state = res.State
		remaining -= res.Step
	}

	if drift := math.Abs(state.Mom.Norm()-p0) / p0; drift > 1e-6 {
		t.Errorf("momentum drift %g over 20 units of arc", drift)
	}
}

func TestDriverGyrationRadius(t *testing.T) {
	// charge 1, |p| 1, Bz 1: unit gyration radius. A positive charge
	// moving along +x curves toward -y, so after a half turn (arc pi)
	// the track sits at (0, -2, 0).
	drv := makeDriver(real3.Real3{0, 0, 1})
	state := OdeState{Pos: real3.Real3{}, Mom: real3.Real3{1, 0, 0}}

	remaining := math.Pi
	for remaining > 1e-10 {
		step := math.Min(remaining, 0.1)
		res := drv.Advance(step, state)
		state = res.State
		remaining -= res.Step
	}

	want := real3.Real3{0, -2, 0}
	if d := real3.Distance(state.Pos, want); d > 1e-4 {
		t.Errorf("half-turn end position %v, want %v (off by %g)", state.Pos, want, d)
	}
}

func TestDriverOptionsValidate(t *testing.T) {
	opts := DefaultDriverOptions()
	if err := opts.Validate(); err != nil {
		t.Errorf("default options invalid: %v", err)
	}

	bad := opts
	bad.MinimumStep = 0
	if err := bad.Validate(); err == nil {
		t.Error("zero minimum_step accepted")
	}

	bad = opts
	bad.DeltaIntersection = opts.MinimumStep / 2
	if err := bad.Validate(); err == nil {
		t.Error("delta_intersection below minimum_step accepted")
	}
}

func BenchmarkDriverAdvance(b *testing.B) {
	drv := makeDriver(real3.Real3{0, 0, 1})
	state := OdeState{Pos: real3.Real3{}, Mom: real3.Real3{1, 0, 0}}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		drv.Advance(0.1, state)
	}
}
