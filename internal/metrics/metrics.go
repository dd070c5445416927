// Package metrics provides Prometheus metrics for the telemetrix pipeline.
package metrics

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Fetch outcome labels.
const (
	FetchOK         = "ok"
	FetchHTTPError  = "http_error"
	FetchDecodeFail = "decode_error"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Registry is the Prometheus registry for this metrics instance
	Registry *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Feed metrics
	FeedFetchesTotal     *prometheus.CounterVec
	FeedFetchDuration    prometheus.Histogram
	VehiclesDecodedTotal prometheus.Counter
	VehiclesPushedTotal  prometheus.Counter
	VehiclesShedTotal    prometheus.Counter

	// Arena metrics
	ArenaUpdatesTotal    prometheus.Counter
	ResolveFailuresTotal prometheus.Counter
	QueueDepth           prometheus.Gauge
	ArenaOccupied        prometheus.Gauge

	logger *slog.Logger

	// collectorStarted prevents spawning multiple collector goroutines
	collectorStarted atomic.Bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates and registers all application metrics with a new registry.
func New() *Metrics {
	return NewWithLogger(nil)
}

// NewWithLogger creates metrics with a logger for error reporting.
func NewWithLogger(logger *slog.Logger) *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		Registry: registry,
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "telemetrix_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "telemetrix_http_request_duration_seconds",
				Help:    "HTTP request latency distribution",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		FeedFetchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "telemetrix_feed_fetches_total",
				Help: "Vehicle position feed fetches by outcome",
			},
			[]string{"result"},
		),
		FeedFetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "telemetrix_feed_fetch_duration_seconds",
			Help:    "Time spent downloading one vehicle position feed",
			Buckets: prometheus.DefBuckets,
		}),
		VehiclesDecodedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "telemetrix_vehicles_decoded_total",
			Help: "Vehicle entities decoded from the feed",
		}),
		VehiclesPushedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "telemetrix_vehicles_pushed_total",
			Help: "Vehicle records accepted by the ingestion queue",
		}),
		VehiclesShedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "telemetrix_vehicles_shed_total",
			Help: "Vehicle records dropped because the ingestion queue was full",
		}),
		ArenaUpdatesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "telemetrix_arena_updates_total",
			Help: "Samples written into the cell arena",
		}),
		ResolveFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "telemetrix_resolve_failures_total",
			Help: "Vehicle records whose position could not be mapped to a cell",
		}),
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "telemetrix_queue_depth",
			Help: "Records waiting in the ingestion queue",
		}),
		ArenaOccupied: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "telemetrix_arena_occupied_buckets",
			Help: "Arena buckets holding at least one sample",
		}),
		logger: logger,
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.FeedFetchesTotal,
		m.FeedFetchDuration,
		m.VehiclesDecodedTotal,
		m.VehiclesPushedTotal,
		m.VehiclesShedTotal,
		m.ArenaUpdatesTotal,
		m.ResolveFailuresTotal,
		m.QueueDepth,
		m.ArenaOccupied,
	)

	return m
}

// PipelineStats is sampled by the collector goroutine.
type PipelineStats interface {
	QueueLen() int
	OccupiedBuckets() int
}

// StartPipelineCollector starts a goroutine that periodically samples queue
// depth and arena occupancy. It is idempotent; call Shutdown to stop it.
func (m *Metrics) StartPipelineCollector(stats PipelineStats, interval time.Duration) {
	if stats == nil {
		return
	}

	if !m.collectorStarted.CompareAndSwap(false, true) {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())

	// Add to WaitGroup BEFORE exposing cancel to avoid race with Shutdown
	m.wg.Add(1)
	m.cancel = cancel

	go func() {
		defer m.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				if m.logger != nil {
					m.logger.Error("panic in pipeline stats collector", "error", r)
				}
			}
		}()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				m.Sample(stats)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Sample copies the current pipeline stats into the gauges.
func (m *Metrics) Sample(stats PipelineStats) {
	m.QueueDepth.Set(float64(stats.QueueLen()))
	m.ArenaOccupied.Set(float64(stats.OccupiedBuckets()))
}

// Shutdown stops the collector goroutine and waits for it to exit.
// This method is safe to call multiple times.
func (m *Metrics) Shutdown() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
}
