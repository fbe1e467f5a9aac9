// Package track runs bundles of independent tracks through the propagation
// engine. Tracks are fanned out over a fixed pool of workers; each worker
// owns its geometry and driver state, so no track shares mutable state with
// another.
package track

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sethrj/celeritas/internal/field"
	"github.com/sethrj/celeritas/internal/geo"
	"github.com/sethrj/celeritas/internal/observability"
	"github.com/sethrj/celeritas/internal/propagate"
	"github.com/sethrj/celeritas/internal/real3"
)

// Geometry is a track view that can also be (re)initialized and asked
// whether the track has left the world. Both concrete geometries satisfy it.
type Geometry interface {
	geo.TrackView
	Init(pos, dir real3.Real3)
	IsOutside() bool
}

// Track is one primary particle to propagate.
type Track struct {
	ID       int
	Pos      real3.Real3
	Dir      real3.Real3
	Momentum float64
	Charge   float64
}

// Point is one trajectory sample: cumulative arc length and position.
type Point struct {
	S   float64
	Pos real3.Real3
}

// Result is the outcome of one fully transported track.
type Result struct {
	ID       int
	Status   string
	Distance float64
	Segments int
	Path     []Point
}

// Runner transports tracks concurrently.
type Runner struct {
	Workers     int
	SegmentStep float64 // arc length per propagation call; +Inf for to-boundary
	MaxSegments int

	Logger    *zap.Logger
	Collector *observability.Collector

	NewGeometry func() (Geometry, error)
	Field       field.Field
	Options     propagate.Options
}

// Run transports all tracks and returns their results in input order.
func (r *Runner) Run(ctx context.Context, tracks []Track) ([]Result, error) {
	if err := r.Options.Validate(); err != nil {
		return nil, err
	}
	if r.NewGeometry == nil || r.Field == nil {
		return nil, fmt.Errorf("track: runner needs a geometry factory and a field")
	}

	workers := r.Workers
	if workers < 1 {
		workers = 1
	}
	log := r.Logger
	if log == nil {
		log = zap.NewNop()
	}

	results := make([]Result, len(tracks))
	jobs := make(chan int)

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			gtv, err := r.NewGeometry()
			if err != nil {
				return err
			}
			for idx := range jobs {
				res, err := r.transport(ctx, gtv, tracks[idx], log)
				if err != nil {
					return err
				}
				results[idx] = res
			}
			return nil
		})
	}

	g.Go(func() error {
		defer close(jobs)
		for i := range tracks {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// transport runs one track serially on the calling worker until it exits the
// world, starts looping, or exhausts the segment budget.
func (r *Runner) transport(ctx context.Context, gtv Geometry, t Track, log *zap.Logger) (Result, error) {
	gtv.Init(t.Pos, t.Dir.Unit())
	drv := field.NewDriver(r.Options.Driver, field.Equation{Field: r.Field, Charge: t.Charge})
	prop := propagate.New(r.Options, drv, gtv, t.Momentum)

	maxSegments := r.MaxSegments
	if maxSegments <= 0 {
		maxSegments = 1000
	}
	segment := r.SegmentStep
	if segment <= 0 {
		segment = math.Inf(1)
	}

	out := Result{
		ID:     t.ID,
		Status: observability.StatusInternal,
		Path:   []Point{{S: 0, Pos: gtv.Pos()}},
	}

	for out.Segments < maxSegments {
		select {
		case <-ctx.Done():
			return out, ctx.Err()
		default:
		}

		res := prop.Propagate(segment)
		out.Segments++
		out.Distance += res.Distance
		out.Path = append(out.Path, Point{S: out.Distance, Pos: gtv.Pos()})

		switch {
		case res.Looping:
			// Long-track culling: stop transporting, report the track.
			out.Status = observability.StatusLooping
			r.Collector.ObserveSegment(res.Distance, observability.StatusLooping)
			log.Debug("track looping",
				zap.Int("track", t.ID),
				zap.Float64("distance", out.Distance),
				zap.Int("segments", out.Segments))
		case res.Boundary:
			r.Collector.ObserveSegment(res.Distance, observability.StatusBoundary)
			gtv.CrossBoundary()
			if gtv.IsOutside() {
				out.Status = observability.StatusExited
			}
		default:
			r.Collector.ObserveSegment(res.Distance, observability.StatusInternal)
		}

		if out.Status != observability.StatusInternal {
			break
		}
	}

	r.Collector.ObserveTrack(out.Status)
	log.Debug("track finished",
		zap.Int("track", t.ID),
		zap.String("status", out.Status),
		zap.Float64("distance", out.Distance),
		zap.Int("segments", out.Segments))
	return out, nil
}
