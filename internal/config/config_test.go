package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sethrj/celeritas/internal/real3"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	f, err := cfg.BuildField()
	require.NoError(t, err)
	assert.Equal(t, real3.Real3{0, 0, 0.1}, f.At(real3.Real3{}))

	factory, err := cfg.GeometryFactory()
	require.NoError(t, err)
	g, err := factory()
	require.NoError(t, err)
	assert.NotNil(t, g)

	assert.True(t, math.IsInf(cfg.SegmentLength(), 1))
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	doc := `
field:
  type: uniform
  strength: [0, 0, 2.5]
geometry:
  type: spheres
  sizes: [5, 10]
particle:
  momentum: 3.0
  charge: -1
tracks: 8
segment_step: 0.5
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "spheres", cfg.Geometry.Type)
	assert.Equal(t, 3.0, cfg.Particle.Momentum)
	assert.Equal(t, -1.0, cfg.Particle.Charge)
	assert.Equal(t, 8, cfg.Tracks)
	assert.Equal(t, 0.5, cfg.SegmentLength())
	// Untouched keys keep their defaults
	assert.Equal(t, int16(100), cfg.Propagation.MaxSubsteps)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	cfg := Default()
	cfg.Tracks = 3
	cfg.Field.Strength = [3]float64{1, 2, 3}

	require.NoError(t, Save(path, cfg))
	loaded, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, cfg.Tracks, loaded.Tracks)
	assert.Equal(t, cfg.Field.Strength, loaded.Field.Strength)
	assert.Equal(t, cfg.Propagation.Driver.DeltaIntersection,
		loaded.Propagation.Driver.DeltaIntersection)
}

func TestValidateRejectsBadConfig(t *testing.T) {
	cfg := Default()
	cfg.Tracks = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Particle.Momentum = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Particle.Direction = [3]float64{}
	assert.Error(t, cfg.Validate())
}

func TestBuildRejectsUnknownTypes(t *testing.T) {
	cfg := Default()
	cfg.Field.Type = "dipole"
	_, err := cfg.BuildField()
	assert.Error(t, err)

	cfg = Default()
	cfg.Geometry.Type = "torus"
	_, err = cfg.GeometryFactory()
	assert.Error(t, err)

	cfg = Default()
	cfg.Geometry.Sizes = []float64{10, 5}
	_, err = cfg.GeometryFactory()
	assert.Error(t, err)
}

func TestPrimaryTracks(t *testing.T) {
	cfg := Default()
	cfg.Tracks = 3

	tracks := cfg.PrimaryTracks()
	require.Len(t, tracks, 3)
	for i, tr := range tracks {
		assert.Equal(t, i, tr.ID)
		assert.InDelta(t, 1, tr.Dir.Norm(), 1e-12)
	}
	// Offsets keep the bundle from being degenerate
	assert.NotEqual(t, tracks[0].Pos, tracks[1].Pos)
}
