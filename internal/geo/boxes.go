package geo

import (
	"fmt"
	"math"
	"sort"

	"github.com/sethrj/celeritas/internal/real3"
)

// NestedBoxes is a geometry of concentric axis-aligned cubes centered on the
// origin. The innermost cube containing the track is the current volume; the
// outermost cube is the world.
type NestedBoxes struct {
	halves []float64

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

// NewNestedBoxes constructs the geometry from strictly increasing cube
// half-widths, innermost first.
func NewNestedBoxes(halfWidths ...float64) (*NestedBoxes, error) {
	if len(halfWidths) == 0 {
		return nil, fmt.Errorf("geo: nested boxes need at least one half-width")
	}
	if !sort.Float64sAreSorted(halfWidths) || halfWidths[0] <= 0 {
		return nil, fmt.Errorf("geo: half-widths must be positive and increasing: %v", halfWidths)
	}
	for i := 1; i < len(halfWidths); i++ {
		if halfWidths[i] == halfWidths[i-1] {
			return nil, fmt.Errorf("geo: duplicate half-width %g", halfWidths[i])
		}
	}
	return &NestedBoxes{halves: append([]float64(nil), halfWidths...)}, nil
}

// Init places the track at a position with a direction, clearing any
// boundary state.
func (g *NestedBoxes) Init(pos, dir real3.Real3) {
	g.pos = pos
	g.dir = dir
	g.vol = g.locate(pos)
	g.onBoundary = false
	g.hasCur = false
	g.hasNext = false
}

// locate returns the innermost box containing a point, or len(halves) for a
// point outside the world.
func (g *NestedBoxes) locate(p real3.Real3) int {
	for i, h := range g.halves {
		if math.Abs(p[0]) <= h && math.Abs(p[1]) <= h && math.Abs(p[2]) <= h {
			return i
		}
	}
	return len(g.halves)
}

func (g *NestedBoxes) Pos() real3.Real3   { return g.pos }
func (g *NestedBoxes) Dir() real3.Real3   { return g.dir }
func (g *NestedBoxes) IsOnBoundary() bool { return g.onBoundary }

// VolumeIndex returns the logical volume: the index of the innermost box
// enclosing the track, or len(halves) once the track has crossed out of the
// world.
func (g *NestedBoxes) VolumeIndex() int { return g.vol }

// IsOutside reports whether the track has left the world volume.
func (g *NestedBoxes) IsOutside() bool {
	return g.vol == len(g.halves)
}

func (g *NestedBoxes) FindNextStep(max float64) Propagation {
	g.hasNext = false
	best := math.Inf(1)
	var bestSurf surfaceID

	for b, h := range g.halves {
		for axis := 0; axis < 3; axis++ {
			if g.dir[axis] == 0 {
				continue
			}
			for side, plane := range [2]float64{-h, h} {
				t := (plane - g.pos[axis]) / g.dir[axis]
				if t <= 0 || t >= best {
					continue
				}
				surf := surfaceID{shape: b, axis: axis, side: side}
				if g.onBoundary && g.hasCur && surf == g.cur && t < sameSurfaceTol {
					continue
				}
				if !g.onFace(b, axis, t) {
					continue
				}
				best = t
				bestSurf = surf
			}
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

// onFace checks that the intersection with a face plane lands within the
// face's bounds in the other two axes.
func (g *NestedBoxes) onFace(box, axis int, t float64) bool {
	h := g.halves[box]
	bound := h * (1 + 1e-12)
	for a := 0; a < 3; a++ {
		if a == axis {
			continue
		}
		if math.Abs(g.pos[a]+t*g.dir[a]) > bound {
			return false
		}
	}
	return true
}

func (g *NestedBoxes) FindSafety(max float64) float64 {
	if g.onBoundary {
		return 0
	}
	best := max
	for _, h := range g.halves {
		if d := boxSurfaceDistance(g.pos, h); d < best {
			best = d
		}
	}
	return best
}

// boxSurfaceDistance is the distance from a point to the surface of a cube
// with the given half-width.
func boxSurfaceDistance(p real3.Real3, h float64) float64 {
	inside := true
	var outSq float64
	minInside := math.Inf(1)
	for a := 0; a < 3; a++ {
		excess := math.Abs(p[a]) - h
		if excess > 0 {
			inside = false
			outSq += excess * excess
		} else if -excess < minInside {
			minInside = -excess
		}
	}
	if inside {
		return minInside
	}
	return math.Sqrt(outSq)
}

func (g *NestedBoxes) SetDir(d real3.Real3) {
	g.dir = d
	g.hasNext = false
}

func (g *NestedBoxes) MoveInternal(p real3.Real3) {
	g.pos = p
	g.vol = g.locate(p)
	g.onBoundary = false
	g.hasCur = false
	g.hasNext = false
}

func (g *NestedBoxes) MoveToBoundary() {
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
// occupied surface. The position stays on the surface; subsequent queries
// resolve the far side because the occupied surface is excluded near zero
// distance.
func (g *NestedBoxes) CrossBoundary() {
	if !g.onBoundary || !g.hasCur {
		panic("geo: cross_boundary while not on a boundary")
	}
	// Outward normal of the -face points along -axis.
	outward := g.dir[g.cur.axis]
	if g.cur.side == 0 {
		outward = -outward
	}
	if outward > 0 {
		g.vol = g.cur.shape + 1
	} else {
		g.vol = g.cur.shape
	}
}
