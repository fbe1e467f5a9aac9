// Package storage persists propagation runs: one directory per run holding a
// JSON metadata document and a CSV of trajectory samples.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/sethrj/celeritas/internal/track"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Timestamp time.Time          `json:"timestamp"`
	Field     string             `json:"field"`
	Geometry  string             `json:"geometry"`
	Tracks    int                `json:"tracks"`
	Momentum  float64            `json:"momentum"`
	Charge    float64            `json:"charge"`
	Metrics   map[string]float64 `json:"metrics"`
}

// Save writes metadata and trajectories for one finished run and returns the
// run ID.
func (s *Store) Save(meta RunMetadata, results []track.Result) (string, error) {
	runID := fmt.Sprintf("run_%d", time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Timestamp = time.Now()
	meta.Tracks = len(results)
	if meta.Metrics == nil {
		meta.Metrics = summarize(results)
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "tracks.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	defer w.Flush()

	if err := w.Write([]string{"track", "status", "s", "x", "y", "z"}); err != nil {
		return "", err
	}
	for _, res := range results {
		for _, pt := range res.Path {
			row := []string{
				strconv.Itoa(res.ID),
				res.Status,
				strconv.FormatFloat(pt.S, 'g', 12, 64),
				strconv.FormatFloat(pt.Pos[0], 'g', 12, 64),
				strconv.FormatFloat(pt.Pos[1], 'g', 12, 64),
				strconv.FormatFloat(pt.Pos[2], 'g', 12, 64),
			}
			if err := w.Write(row); err != nil {
				return "", err
			}
		}
	}

	return runID, nil
}

func summarize(results []track.Result) map[string]float64 {
	var total float64
	byStatus := map[string]float64{}
	for _, res := range results {
		total += res.Distance
		byStatus["tracks_"+res.Status]++
	}
	byStatus["distance_total"] = total
	return byStatus
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadTracks reads the trajectory samples of a run, keyed by track ID.
func (s *Store) LoadTracks(runID string) (map[int][]track.Point, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "tracks.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	paths := make(map[int][]track.Point)
	for i := 1; i < len(records); i++ {
		rec := records[i]
		if len(rec) < 6 {
			continue
		}
		id, err := strconv.Atoi(rec[0])
		if err != nil {
			continue
		}
		var pt track.Point
		if pt.S, err = strconv.ParseFloat(rec[2], 64); err != nil {
			continue
		}
		for j := 0; j < 3; j++ {
			if pt.Pos[j], err = strconv.ParseFloat(rec[3+j], 64); err != nil {
				break
			}
		}
		if err != nil {
			continue
		}
		paths[id] = append(paths[id], pt)
	}
	return paths, nil
}
