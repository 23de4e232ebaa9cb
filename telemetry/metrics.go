package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exports simulation health as Prometheus collectors. Labels are
// limited to phase names and bookmark types so cardinality stays bounded.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	tickDuration  prometheus.Histogram
	phaseDuration *prometheus.HistogramVec
	ticks         prometheus.Counter
	agents        prometheus.Gauge
	spawns        prometheus.Counter
	despawns      prometheus.Counter
	polarization  prometheus.Gauge
	nnMedian      prometheus.Gauge
	bookmarks     *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on reg. Pass
// prometheus.DefaultRegisterer to expose them process-wide or a fresh
// registry to keep simulations apart.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		tickDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "flock_tick_duration_seconds",
			Help:    "Time spent in a simulation tick",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05},
		}),
		phaseDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "flock_phase_duration_seconds",
			Help:    "Time spent in each tick phase",
			Buckets: []float64{0.00001, 0.0001, 0.0005, 0.001, 0.005, 0.01},
		}, []string{"phase"}),
		ticks: f.NewCounter(prometheus.CounterOpts{
			Name: "flock_ticks_total",
			Help: "Simulation ticks completed",
		}),
		agents: f.NewGauge(prometheus.GaugeOpts{
			Name: "flock_agents",
			Help: "Current number of agents",
		}),
		spawns: f.NewCounter(prometheus.CounterOpts{
			Name: "flock_spawns_total",
			Help: "Agents added",
		}),
		despawns: f.NewCounter(prometheus.CounterOpts{
			Name: "flock_despawns_total",
			Help: "Agents removed",
		}),
		polarization: f.NewGauge(prometheus.GaugeOpts{
			Name: "flock_polarization",
			Help: "Magnitude of the mean unit velocity at the last stats window",
		}),
		nnMedian: f.NewGauge(prometheus.GaugeOpts{
			Name: "flock_nearest_neighbor_median",
			Help: "Median nearest-neighbor distance at the last stats window",
		}),
		bookmarks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "flock_bookmarks_total",
			Help: "Flock events detected",
		}, []string{"type"}),
	}
}

// ObserveTick records a completed tick.
func (m *Metrics) ObserveTick(d time.Duration) {
	if m == nil {
		return
	}
	m.ticks.Inc()
	m.tickDuration.Observe(d.Seconds())
}

// ObservePhase records the duration of one phase.
func (m *Metrics) ObservePhase(phase string, d time.Duration) {
	if m == nil {
		return
	}
	m.phaseDuration.WithLabelValues(phase).Observe(d.Seconds())
}

// SetAgents sets the live agent gauge.
func (m *Metrics) SetAgents(n int) {
	if m == nil {
		return
	}
	m.agents.Set(float64(n))
}

func (m *Metrics) RecordSpawn() {
	if m == nil {
		return
	}
	m.spawns.Inc()
}

func (m *Metrics) RecordDespawn() {
	if m == nil {
		return
	}
	m.despawns.Inc()
}

// ObserveWindow publishes the flock shape gauges from a flushed window.
func (m *Metrics) ObserveWindow(s WindowStats) {
	if m == nil {
		return
	}
	m.polarization.Set(s.Polarization)
	m.nnMedian.Set(s.NNP50)
}

func (m *Metrics) RecordBookmark(b Bookmark) {
	if m == nil {
		return
	}
	m.bookmarks.WithLabelValues(string(b.Type)).Inc()
}
