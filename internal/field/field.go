package field

import "github.com/sethrj/celeritas/internal/real3"

// Field evaluates the magnetic field vector at a spatial point.
type Field interface {
	At(pos real3.Real3) real3.Real3
}

// Uniform is a constant field.
type Uniform struct {
	B real3.Real3
}

// NewUniformZ returns a uniform field of the given strength along +z.
func NewUniformZ(strength float64) Uniform {
	return Uniform{B: real3.Real3{0, 0, strength}}
}

func (u Uniform) At(real3.Real3) real3.Real3 { return u.B }
