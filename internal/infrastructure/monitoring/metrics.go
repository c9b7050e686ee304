package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics.
//
// All recording methods are safe to call on a nil *Metrics, so components
// can be built without a collector.
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Descriptor metrics
	DescriptorsOpen  prometheus.Gauge
	PipesTotal       prometheus.Counter
	DescriptorErrors *prometheus.CounterVec

	// Process metrics
	SpawnsTotal   *prometheus.CounterVec
	ReapedTotal   *prometheus.CounterVec
	WaitDuration  *prometheus.HistogramVec
	ProcessStates *prometheus.GaugeVec

	// System metrics
	Uptime    prometheus.GaugeFunc
	startTime time.Time

	// Snapshot for JSON API - track current values
	snapshot MetricsSnapshot

	mu sync.RWMutex
}

// MetricsSnapshot holds current metric values for JSON API
type MetricsSnapshot struct {
	Spawned         int64 `json:"spawned"`
	SpawnFailures   int64 `json:"spawn_failures"`
	Reaped          int64 `json:"reaped"`
	DescriptorsOpen int64 `json:"descriptors_open"`
	TotalRequests   int64 `json:"total_requests"`
}

// NewMetrics creates a new metrics collector registered with reg.
// A nil reg registers with the default Prometheus registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	m := &Metrics{startTime: time.Now()}

	// HTTP metrics
	m.RequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "procfixture_http_requests_total",
			Help: "Total number of collaborator API requests",
		},
		[]string{"method", "path", "status"},
	)
	m.RequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "procfixture_http_request_duration_seconds",
			Help:    "Collaborator API request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Descriptor metrics
	m.DescriptorsOpen = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "procfixture_descriptors_open",
			Help: "Number of pipe descriptor handles currently open",
		},
	)
	m.PipesTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "procfixture_pipes_total",
			Help: "Total number of pipes created",
		},
	)
	m.DescriptorErrors = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "procfixture_descriptor_errors_total",
			Help: "Descriptor protocol errors by kind",
		},
		[]string{"op", "kind"},
	)

	// Process metrics
	m.SpawnsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "procfixture_spawns_total",
			Help: "Total number of spawn attempts",
		},
		[]string{"procedure", "status"},
	)
	m.ReapedTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "procfixture_reaped_total",
			Help: "Total number of children reaped",
		},
		[]string{"outcome"},
	)
	m.WaitDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "procfixture_wait_duration_seconds",
			Help:    "Time spent inside wait calls",
			Buckets: []float64{.0001, .001, .01, .1, .5, 1, 2.5, 5, 10},
		},
		[]string{"mode"},
	)
	m.ProcessStates = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "procfixture_processes",
			Help: "Tracked child processes by state",
		},
		[]string{"state"},
	)

	// System metrics
	m.Uptime = factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "procfixture_uptime_seconds",
			Help: "Process uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// RecordHTTPRequest records a collaborator API request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())

	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.mu.Unlock()
}

// RecordPipe records a new pipe (two open handles)
func (m *Metrics) RecordPipe() {
	if m == nil {
		return
	}
	m.PipesTotal.Inc()
	m.DescriptorsOpen.Add(2)

	m.mu.Lock()
	m.snapshot.DescriptorsOpen += 2
	m.mu.Unlock()
}

// RecordDescriptorClosed records a handle being closed
func (m *Metrics) RecordDescriptorClosed() {
	if m == nil {
		return
	}
	m.DescriptorsOpen.Dec()

	m.mu.Lock()
	m.snapshot.DescriptorsOpen--
	m.mu.Unlock()
}

// RecordDescriptorError records a descriptor protocol error
func (m *Metrics) RecordDescriptorError(op, kind string) {
	if m == nil {
		return
	}
	m.DescriptorErrors.WithLabelValues(op, kind).Inc()
}

// RecordSpawn records a spawn attempt
func (m *Metrics) RecordSpawn(procedure string, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.SpawnsTotal.WithLabelValues(procedure, status).Inc()

	m.mu.Lock()
	if err != nil {
		m.snapshot.SpawnFailures++
	} else {
		m.snapshot.Spawned++
	}
	m.mu.Unlock()
}

// RecordWait records time spent in a wait call
func (m *Metrics) RecordWait(mode string, duration time.Duration) {
	if m == nil {
		return
	}
	m.WaitDuration.WithLabelValues(mode).Observe(duration.Seconds())
}

// RecordReap records a child being reaped
func (m *Metrics) RecordReap(outcome string) {
	if m == nil {
		return
	}
	m.ReapedTotal.WithLabelValues(outcome).Inc()

	m.mu.Lock()
	m.snapshot.Reaped++
	m.mu.Unlock()
}

// MoveProcess moves one tracked process between state gauges. An empty
// from or to skips that side.
func (m *Metrics) MoveProcess(from, to string) {
	if m == nil {
		return
	}
	if from != "" {
		m.ProcessStates.WithLabelValues(from).Dec()
	}
	if to != "" {
		m.ProcessStates.WithLabelValues(to).Inc()
	}
}

// Snapshot returns current metric values
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}
