// Package observability bundles Prometheus metrics for the propagation
// engine and provides helpers to expose them over HTTP.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Terminal status labels for propagated track segments.
const (
	StatusBoundary = "boundary"
	StatusInternal = "internal"
	StatusLooping  = "looping"
	StatusExited   = "exited"
)

// Collector bundles the propagation metrics.
type Collector struct {
	gatherer prometheus.Gatherer

	SegmentsTotal     *prometheus.CounterVec
	TracksTotal       *prometheus.CounterVec
	BoundaryCrossings prometheus.Counter
	SegmentLengths    prometheus.Histogram
}

// NewCollector registers propagation metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	segments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "propagation_segments_total",
		Help: "Total number of propagated segments, labeled by terminal status.",
	}, []string{"status"})
	if err := reg.Register(segments); err != nil {
		return nil, err
	}

	tracks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "propagation_tracks_total",
		Help: "Total number of finished tracks, labeled by final status.",
	}, []string{"status"})
	if err := reg.Register(tracks); err != nil {
		return nil, err
	}

	crossings := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "propagation_boundary_crossings_total",
		Help: "Total number of volume boundary crossings.",
	})
	if err := reg.Register(crossings); err != nil {
		return nil, err
	}

	lengths := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "propagation_segment_length",
		Help:    "Arc length of propagated segments in code units.",
		Buckets: prometheus.ExponentialBuckets(1e-6, 10, 12),
	})
	if err := reg.Register(lengths); err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:          gatherer,
		SegmentsTotal:     segments,
		TracksTotal:       tracks,
		BoundaryCrossings: crossings,
		SegmentLengths:    lengths,
	}, nil
}

// ObserveSegment records one finished propagation segment.
func (c *Collector) ObserveSegment(distance float64, status string) {
	if c == nil {
		return
	}
	c.SegmentsTotal.WithLabelValues(status).Inc()
	c.SegmentLengths.Observe(distance)
	if status == StatusBoundary {
		c.BoundaryCrossings.Inc()
	}
}

// ObserveTrack records one finished track.
func (c *Collector) ObserveTrack(status string) {
	if c == nil {
		return
	}
	c.TracksTotal.WithLabelValues(status).Inc()
}

// Handler exposes the collector's registry over HTTP.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}
