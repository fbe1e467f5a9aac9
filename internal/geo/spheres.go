package geo

import (
	"fmt"
	"math"
	"sort"

	"github.com/sethrj/celeritas/internal/real3"
)

// Spheres is a geometry of concentric spheres centered on the origin.
type Spheres struct {
	radii []float64

	pos real3.Real3
	dir real3.Real3
	vol int

	onBoundary bool
	cur        surfaceID
	hasCur     bool

	next     surfaceID
	nextDist float64
	hasNext  bool
}

// NewSpheres constructs the geometry from strictly increasing radii,
// innermost first.
func NewSpheres(radii ...float64) (*Spheres, error) {
	if len(radii) == 0 {
		return nil, fmt.Errorf("geo: spheres need at least one radius")
	}
	if !sort.Float64sAreSorted(radii) || radii[0] <= 0 {
		return nil, fmt.Errorf("geo: radii must be positive and increasing: %v", radii)
	}
	for i := 1; i < len(radii); i++ {
		if radii[i] == radii[i-1] {
			return nil, fmt.Errorf("geo: duplicate radius %g", radii[i])
		}
	}
	return &Spheres{radii: append([]float64(nil), radii...)}, nil
}

// Init places the track at a position with a direction, clearing any
// boundary state.
func (g *Spheres) Init(pos, dir real3.Real3) {
	g.pos = pos
	g.dir = dir
	g.vol = g.locate(pos)
	g.onBoundary = false
	g.hasCur = false
	g.hasNext = false
}

// locate returns the innermost sphere containing a point, or len(radii) for
// a point outside the world.
func (g *Spheres) locate(p real3.Real3) int {
	r := p.Norm()
	for i, radius := range g.radii {
		if r <= radius {
			return i
		}
	}
	return len(g.radii)
}

func (g *Spheres) Pos() real3.Real3   { return g.pos }
func (g *Spheres) Dir() real3.Real3   { return g.dir }
func (g *Spheres) IsOnBoundary() bool { return g.onBoundary }

// VolumeIndex returns the logical volume: the index of the innermost sphere
// enclosing the track, or len(radii) once the track has crossed out of the
// world.
func (g *Spheres) VolumeIndex() int { return g.vol }

// IsOutside reports whether the track has left the world volume.
func (g *Spheres) IsOutside() bool {
	return g.vol == len(g.radii)
}

func (g *Spheres) FindNextStep(max float64) Propagation {
	g.hasNext = false
	best := math.Inf(1)
	var bestSurf surfaceID

	b := g.pos.Dot(g.dir)
	c0 := g.pos.Dot(g.pos)
	for i, radius := range g.radii {
		disc := b*b - (c0 - radius*radius)
		if disc < 0 {
			continue
		}
		sq := math.Sqrt(disc)
		for _, t := range [2]float64{-b - sq, -b + sq} {
			if t <= 0 || t >= best {
				continue
			}
			surf := surfaceID{shape: i}
			if g.onBoundary && g.hasCur && surf == g.cur && t < sameSurfaceTol {
				continue
			}
			best = t
			bestSurf = surf
		}
	}

	if best > max {
		return Propagation{Distance: max, Boundary: false}
	}
	g.next = bestSurf
	g.nextDist = best
	g.hasNext = true
	return Propagation{Distance: best, Boundary: true}
}

func (g *Spheres) FindSafety(max float64) float64 {
	if g.onBoundary {
		return 0
	}
	r := g.pos.Norm()
	best := max
	for _, radius := range g.radii {
		if d := math.Abs(radius - r); d < best {
			best = d
		}
	}
	return best
}

func (g *Spheres) SetDir(d real3.Real3) {
	g.dir = d
	g.hasNext = false
}

func (g *Spheres) MoveInternal(p real3.Real3) {
	g.pos = p
	g.vol = g.locate(p)
	g.onBoundary = false
	g.hasCur = false
	g.hasNext = false
}

func (g *Spheres) MoveToBoundary() {
	if !g.hasNext {
		panic("geo: move_to_boundary without a prior find_next_step hit")
	}
	g.pos = real3.Axpy(g.nextDist, g.dir, g.pos)
	g.onBoundary = true
	g.cur = g.next
	g.hasCur = true
	g.hasNext = false
}

// CrossBoundary transitions the logical volume to the far side of the
// occupied sphere.
func (g *Spheres) CrossBoundary() {
	if !g.onBoundary || !g.hasCur {
		panic("geo: cross_boundary while not on a boundary")
	}
	if g.pos.Dot(g.dir) > 0 {
		g.vol = g.cur.shape + 1
	} else {
		g.vol = g.cur.shape
	}
}
