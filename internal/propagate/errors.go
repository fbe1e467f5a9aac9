package propagate

import "errors"

// Domain errors surfaced to callers. The substep loop itself never returns
// errors: every outcome is encoded in the Result.
var (
	// ErrInvalidOptions indicates a propagator configuration out of range.
	ErrInvalidOptions = errors.New("propagate: invalid options")

	// ErrLooping indicates the substep budget was exhausted before the
	// requested step was reached. Callers apply their long-track culling
	// policy; there is no local retry.
	ErrLooping = errors.New("propagate: track is looping")
)
