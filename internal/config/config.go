// Package config loads and saves run configuration.
package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sethrj/celeritas/internal/field"
	"github.com/sethrj/celeritas/internal/geo"
	"github.com/sethrj/celeritas/internal/propagate"
	"github.com/sethrj/celeritas/internal/real3"
	"github.com/sethrj/celeritas/internal/track"
)

// Config is the full run description.
type Config struct {
	Field       FieldConfig       `yaml:"field"`
	Geometry    GeometryConfig    `yaml:"geometry"`
	Particle    ParticleConfig    `yaml:"particle"`
	Propagation propagate.Options `yaml:"propagation"`
	Tracks      int               `yaml:"tracks"`
	Workers     int               `yaml:"workers"`
	SegmentStep float64           `yaml:"segment_step"`
	MaxSegments int               `yaml:"max_segments"`
}

// FieldConfig selects and parameterizes the magnetic field.
type FieldConfig struct {
	Type     string     `yaml:"type"`     // uniform or rzmap
	Strength [3]float64 `yaml:"strength"` // uniform field vector
	MapPath  string     `yaml:"map"`      // rzmap JSON document
}

// GeometryConfig selects and parameterizes the geometry.
type GeometryConfig struct {
	Type  string    `yaml:"type"`  // boxes or spheres
	Sizes []float64 `yaml:"sizes"` // half-widths or radii, increasing
}

// ParticleConfig describes the primary particle.
type ParticleConfig struct {
	Momentum  float64    `yaml:"momentum"`
	Charge    float64    `yaml:"charge"`
	Position  [3]float64 `yaml:"position"`
	Direction [3]float64 `yaml:"direction"`
}

// Default returns the reference configuration: a single positive unit-charge
// track in a uniform solenoidal field inside nested boxes.
func Default() *Config {
	return &Config{
		Field:    FieldConfig{Type: "uniform", Strength: [3]float64{0, 0, 0.1}},
		Geometry: GeometryConfig{Type: "boxes", Sizes: []float64{5, 24}},
		Particle: ParticleConfig{
			Momentum:  1,
			Charge:    1,
			Position:  [3]float64{-10, -2, -2},
			Direction: [3]float64{1, 0, 0},
		},
		Propagation: propagate.DefaultOptions(),
		Tracks:      1,
		Workers:     4,
		MaxSegments: 1000,
	}
}

// Load reads a yaml config over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config as yaml.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the pieces that do not need building to fail fast.
func (c *Config) Validate() error {
	if err := c.Propagation.Validate(); err != nil {
		return err
	}
	if c.Tracks < 1 {
		return fmt.Errorf("config: tracks must be at least 1, got %d", c.Tracks)
	}
	if c.Particle.Momentum <= 0 {
		return fmt.Errorf("config: particle momentum must be positive, got %g", c.Particle.Momentum)
	}
	dir := real3.Real3(c.Particle.Direction)
	if dir.Norm() == 0 {
		return fmt.Errorf("config: particle direction must be nonzero")
	}
	return nil
}

// BuildField constructs the configured field.
func (c *Config) BuildField() (field.Field, error) {
	switch c.Field.Type {
	case "uniform", "":
		return field.Uniform{B: real3.Real3(c.Field.Strength)}, nil
	case "rzmap":
		return field.LoadRZMapFile(c.Field.MapPath)
	default:
		return nil, fmt.Errorf("config: unknown field type %q", c.Field.Type)
	}
}

// GeometryFactory returns a constructor for per-worker geometry instances.
func (c *Config) GeometryFactory() (func() (track.Geometry, error), error) {
	sizes := c.Geometry.Sizes
	switch c.Geometry.Type {
	case "boxes", "":
		if _, err := geo.NewNestedBoxes(sizes...); err != nil {
			return nil, err
		}
		return func() (track.Geometry, error) { return geo.NewNestedBoxes(sizes...) }, nil
	case "spheres":
		if _, err := geo.NewSpheres(sizes...); err != nil {
			return nil, err
		}
		return func() (track.Geometry, error) { return geo.NewSpheres(sizes...) }, nil
	default:
		return nil, fmt.Errorf("config: unknown geometry type %q", c.Geometry.Type)
	}
}

// PrimaryTracks expands the configured particle into the requested number of
// primaries, offset slightly from each other so a bundle exercises distinct
// trajectories.
func (c *Config) PrimaryTracks() []track.Track {
	dir := real3.Real3(c.Particle.Direction).Unit()
	tracks := make([]track.Track, c.Tracks)
	for i := range tracks {
		offset := 0.0
		if c.Tracks > 1 {
			offset = 1e-3 * float64(i)
		}
		tracks[i] = track.Track{
			ID:       i,
			Pos:      real3.Real3(c.Particle.Position).Add(real3.Real3{0, offset, 0}),
			Dir:      dir,
			Momentum: c.Particle.Momentum,
			Charge:   c.Particle.Charge,
		}
	}
	return tracks
}

// SegmentLength is the per-call step request, +Inf when unset.
func (c *Config) SegmentLength() float64 {
	if c.SegmentStep <= 0 {
		return math.Inf(1)
	}
	return c.SegmentStep
}
