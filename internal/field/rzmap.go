package field

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/sethrj/celeritas/internal/real3"
)

// RZMapInput is the on-disk JSON representation of an axially symmetric
// field map sampled on a uniform r-z grid.
type RZMapInput struct {
	NumGridZ  int       `json:"num_grid_z"`
	NumGridR  int       `json:"num_grid_r"`
	DeltaGrid float64   `json:"delta_grid"`
	OffsetZ   float64   `json:"offset_z"`
	FieldZ    []float64 `json:"field_z"`
	FieldR    []float64 `json:"field_r"`
}

// Validate checks grid dimensions against the sampled values.
func (in *RZMapInput) Validate() error {
	if in.NumGridZ < 2 || in.NumGridR < 2 {
		return fmt.Errorf("field map grid too small: %d x %d", in.NumGridZ, in.NumGridR)
	}
	if in.DeltaGrid <= 0 {
		return fmt.Errorf("field map grid spacing must be positive, got %g", in.DeltaGrid)
	}
	want := in.NumGridZ * in.NumGridR
	if len(in.FieldZ) != want || len(in.FieldR) != want {
		return fmt.Errorf("field map size mismatch: expected %d samples, got %d (z) and %d (r)",
			want, len(in.FieldZ), len(in.FieldR))
	}
	return nil
}

// RZMap is an axially symmetric field interpolated bilinearly from an r-z
// grid. Points outside the gridded region see zero field.
type RZMap struct {
	in RZMapInput
}

// NewRZMap constructs a map field from validated input.
func NewRZMap(in RZMapInput) (*RZMap, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return &RZMap{in: in}, nil
}

// LoadRZMap reads and validates a JSON field map.
func LoadRZMap(r io.Reader) (*RZMap, error) {
	var in RZMapInput
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return nil, fmt.Errorf("decode field map: %w", err)
	}
	return NewRZMap(in)
}

// LoadRZMapFile reads a JSON field map from a file path.
func LoadRZMapFile(path string) (*RZMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadRZMap(f)
}

// Input returns the raw gridded samples.
func (m *RZMap) Input() RZMapInput { return m.in }

// At evaluates the field by bilinear interpolation on the r-z grid and
// rotates the radial component back into Cartesian coordinates.
func (m *RZMap) At(pos real3.Real3) real3.Real3 {
	in := &m.in
	r := math.Hypot(pos[0], pos[1])
	z := pos[2] - in.OffsetZ

	fr := r / in.DeltaGrid
	fz := z / in.DeltaGrid
	if fr < 0 || fz < 0 || fr > float64(in.NumGridR-1) || fz > float64(in.NumGridZ-1) {
		return real3.Real3{}
	}

	ir := int(fr)
	iz := int(fz)
	if ir == in.NumGridR-1 {
		ir--
	}
	if iz == in.NumGridZ-1 {
		iz--
	}
	tr := fr - float64(ir)
	tz := fz - float64(iz)

	lerp := func(grid []float64) float64 {
		i00 := grid[iz*in.NumGridR+ir]
		i01 := grid[iz*in.NumGridR+ir+1]
		i10 := grid[(iz+1)*in.NumGridR+ir]
		i11 := grid[(iz+1)*in.NumGridR+ir+1]
		return (1-tz)*((1-tr)*i00+tr*i01) + tz*((1-tr)*i10+tr*i11)
	}

	bz := lerp(in.FieldZ)
	br := lerp(in.FieldR)

	result := real3.Real3{0, 0, bz}
	if r > 0 {
		result[0] = br * pos[0] / r
		result[1] = br * pos[1] / r
	}
	return result
}
