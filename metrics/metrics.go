// Package metrics provides an optional, nil-safe Prometheus recorder
// for the engine's chunk-cache and pack/unpack hot path (spec §9,
// ambient stack: the engine itself must not require a Prometheus
// registry to run, so every method tolerates a nil *Recorder).
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder wraps a set of Prometheus collectors. A nil *Recorder is
// valid and every method becomes a no-op, so Handle can carry
// *metrics.Recorder without forcing every caller to register metrics.
type Recorder struct {
	cacheHits     prometheus.Counter
	cacheMisses   prometheus.Counter
	packSeconds   prometheus.Histogram
	unpackSeconds prometheus.Histogram
}

// NewRecorder constructs a Recorder and registers its collectors with
// reg. Pass prometheus.NewRegistry() in tests to avoid colliding with
// the global default registry.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ewf_chunk_cache_hits_total",
			Help: "Chunk table cache hits.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ewf_chunk_cache_misses_total",
			Help: "Chunk table cache misses.",
		}),
		packSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ewf_chunk_pack_seconds",
			Help:    "Time spent packing a chunk.",
			Buckets: prometheus.DefBuckets,
		}),
		unpackSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ewf_chunk_unpack_seconds",
			Help:    "Time spent unpacking a chunk.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	if reg != nil {
		reg.MustRegister(r.cacheHits, r.cacheMisses, r.packSeconds, r.unpackSeconds)
	}
	return r
}

func (r *Recorder) CacheHit() {
	if r == nil {
		return
	}
	r.cacheHits.Inc()
}

func (r *Recorder) CacheMiss() {
	if r == nil {
		return
	}
	r.cacheMisses.Inc()
}

func (r *Recorder) ObservePack(d time.Duration) {
	if r == nil {
		return
	}
	r.packSeconds.Observe(d.Seconds())
}

func (r *Recorder) ObserveUnpack(d time.Duration) {
	if r == nil {
		return
	}
	r.unpackSeconds.Observe(d.Seconds())
}
