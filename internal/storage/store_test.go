package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sethrj/celeritas/internal/real3"
	"github.com/sethrj/celeritas/internal/track"
)

func sampleResults() []track.Result {
	return []track.Result{
		{
			ID:       0,
			Status:   "exited",
			Distance: 34,
			Segments: 3,
			Path: []track.Point{
				{S: 0, Pos: real3.Real3{-10, -2, -2}},
				{S: 5, Pos: real3.Real3{-5, -2, -2}},
				{S: 34, Pos: real3.Real3{24, -2, -2}},
			},
		},
		{
			ID:       1,
			Status:   "looping",
			Distance: 0.25,
			Segments: 1,
			Path: []track.Point{
				{S: 0, Pos: real3.Real3{0, 0, 0}},
				{S: 0.25, Pos: real3.Real3{0.1, 0.1, 0}},
			},
		},
	}
}

func TestStoreSaveAndLoad(t *testing.T) {
	s := New(t.TempDir())
	require.NoError(t, s.Init())

	runID, err := s.Save(RunMetadata{Field: "uniform", Geometry: "boxes", Momentum: 1, Charge: 1},
		sampleResults())
	require.NoError(t, err)
	require.NotEmpty(t, runID)

	meta, err := s.Load(runID)
	require.NoError(t, err)
	assert.Equal(t, runID, meta.ID)
	assert.Equal(t, "uniform", meta.Field)
	assert.Equal(t, 2, meta.Tracks)
	assert.Equal(t, 34.25, meta.Metrics["distance_total"])
	assert.Equal(t, 1.0, meta.Metrics["tracks_looping"])

	paths, err := s.LoadTracks(runID)
	require.NoError(t, err)
	require.Len(t, paths, 2)
	require.Len(t, paths[0], 3)
	assert.InDelta(t, -5, paths[0][1].Pos[0], 1e-9)
	assert.InDelta(t, 0.25, paths[1][1].S, 1e-9)
}

func TestStoreList(t *testing.T) {
	s := New(t.TempDir())
	require.NoError(t, s.Init())

	runs, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, runs)

	_, err = s.Save(RunMetadata{Field: "uniform", Geometry: "boxes"}, sampleResults())
	require.NoError(t, err)

	runs, err = s.List()
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestStoreListMissingDir(t *testing.T) {
	s := New(t.TempDir() + "/nope")
	runs, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, runs)
}
