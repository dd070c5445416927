// Package ingest runs the two halves of the pipeline: a Coordinator that
// polls the feed and fills the queue, and a Writer that drains the queue
// into the cell arena.
package ingest

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"telemetrix.dev/internal/clock"
	"telemetrix.dev/internal/gtfs"
	"telemetrix.dev/internal/logging"
	"telemetrix.dev/internal/metrics"
	"telemetrix.dev/internal/models"
	"telemetrix.dev/internal/queue"
)

// Fetcher retrieves one raw feed payload.
type Fetcher interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// DecodeFunc parses a payload and pushes the records it carries.
type DecodeFunc func(payload []byte, q gtfs.Pusher) (gtfs.DecodeStats, error)

// CycleResult describes one fetch and decode cycle.
type CycleResult struct {
	Stats gtfs.DecodeStats
	Err   error
}

// Coordinator owns the producer loop.
type Coordinator struct {
	fetcher  Fetcher
	decode   DecodeFunc
	queue    *queue.Queue[models.VehicleRecord]
	interval time.Duration
	metrics  *metrics.Metrics
	clock    clock.Clock

	cycles      atomic.Uint64
	lastSuccess atomic.Int64 // unix nanos of the last successful cycle
}

// NewCoordinator builds a producer. A nil decode selects gtfs.Decode.
func NewCoordinator(fetcher Fetcher, decode DecodeFunc, q *queue.Queue[models.VehicleRecord],
	interval time.Duration, m *metrics.Metrics, c clock.Clock) *Coordinator {
	if decode == nil {
		decode = gtfs.Decode
	}
	if c == nil {
		c = clock.RealClock{}
	}
	return &Coordinator{
		fetcher:  fetcher,
		decode:   decode,
		queue:    q,
		interval: interval,
		metrics:  m,
		clock:    c,
	}
}

// Run repeats RunCycle until the queue is shut down or ctx is done,
// sleeping the configured interval after every cycle. Cycle failures are
// logged and never end the loop.
func (c *Coordinator) Run(ctx context.Context) error {
	logger := logging.FromContext(ctx).With(slog.String("component", "ingest_coordinator"))
	ctx = logging.WithLogger(ctx, logger)

	timer := time.NewTimer(c.interval)
	defer timer.Stop()

	for !c.queue.IsShutdown() && ctx.Err() == nil {
		c.RunCycle(ctx)

		timer.Reset(c.interval)
		select {
		case <-ctx.Done():
		case <-timer.C:
		}
	}

	logger.Info("ingest coordinator stopped", slog.Uint64("cycles", c.cycles.Load()))
	return nil
}

// RunCycle performs a single fetch and decode.
func (c *Coordinator) RunCycle(ctx context.Context) CycleResult {
	logger := logging.FromContext(ctx)
	defer c.cycles.Add(1)

	start := time.Now()
	payload, err := c.fetcher.Fetch(ctx)
	c.metrics.FeedFetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.FeedFetchesTotal.WithLabelValues(metrics.FetchHTTPError).Inc()
		logging.LogError(logger, "failed to fetch vehicle positions", err)
		return CycleResult{Err: err}
	}
	if len(payload) == 0 {
		c.metrics.FeedFetchesTotal.WithLabelValues(metrics.FetchOK).Inc()
		logger.Debug("vehicle positions feed returned an empty payload")
		c.lastSuccess.Store(c.clock.Now().UnixNano())
		return CycleResult{}
	}

	stats, err := c.decode(payload, c.queue)
	if err != nil {
		c.metrics.FeedFetchesTotal.WithLabelValues(metrics.FetchDecodeFail).Inc()
		logging.LogError(logger, "failed to decode vehicle positions", err,
			slog.Int("payload_bytes", len(payload)))
		return CycleResult{Err: err}
	}

	c.metrics.FeedFetchesTotal.WithLabelValues(metrics.FetchOK).Inc()
	c.metrics.VehiclesDecodedTotal.Add(float64(stats.Decoded))
	c.metrics.VehiclesPushedTotal.Add(float64(stats.Pushed))
	c.metrics.VehiclesShedTotal.Add(float64(stats.Shed))
	c.lastSuccess.Store(c.clock.Now().UnixNano())

	if stats.Shed > 0 {
		logger.Warn("ingestion queue full, shedding vehicles",
			slog.Int("shed", stats.Shed),
			slog.Int("queue_capacity", c.queue.Cap()))
	}
	logging.LogOperation(logger, "pushed_vehicles",
		slog.Int("entities", stats.Entities),
		slog.Int("pushed", stats.Pushed))

	return CycleResult{Stats: stats}
}

// Cycles reports how many cycles have completed.
func (c *Coordinator) Cycles() uint64 {
	return c.cycles.Load()
}

// LastSuccess returns the time of the last cycle that fetched and decoded
// without error, and false if none has.
func (c *Coordinator) LastSuccess() (time.Time, bool) {
	ns := c.lastSuccess.Load()
	if ns == 0 {
		return time.Time{}, false
	}
	return time.Unix(0, ns), true
}
