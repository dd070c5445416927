package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"telemetrix.dev/internal/appconf"
	"telemetrix.dev/internal/arena"
	"telemetrix.dev/internal/clock"
	"telemetrix.dev/internal/logging"
	"telemetrix.dev/internal/metrics"
	"telemetrix.dev/internal/models"
	"telemetrix.dev/internal/queue"
	"telemetrix.dev/internal/spatial"
)

// Pipeline owns the storage structures and both goroutines that use them.
// The arena is created once and lives for the whole process.
type Pipeline struct {
	Arena    *arena.Arena
	Queue    *queue.Queue[models.VehicleRecord]
	Resolver *spatial.Resolver

	coordinator *Coordinator
	writer      *Writer
}

// NewPipeline allocates the arena and queue described by cfg. Any error
// here is fatal to the process.
func NewPipeline(cfg appconf.PipelineConfig, fetcher Fetcher, m *metrics.Metrics, c clock.Clock) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pipeline configuration: %w", err)
	}

	a, err := arena.New(cfg.ArenaCapacity, cfg.WindowLength)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate arena: %w", err)
	}
	q, err := queue.New[models.VehicleRecord](cfg.QueueCapacity)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate queue: %w", err)
	}
	r, err := spatial.NewResolver(cfg.H3Resolution)
	if err != nil {
		return nil, fmt.Errorf("failed to create resolver: %w", err)
	}

	return &Pipeline{
		Arena:       a,
		Queue:       q,
		Resolver:    r,
		coordinator: NewCoordinator(fetcher, nil, q, cfg.FetchInterval, m, c),
		writer:      NewWriter(q, r, a, m),
	}, nil
}

// Run starts the producer and consumer and returns once both have
// stopped. Cancelling ctx signals queue shutdown; the consumer then drains
// whatever is still queued.
func (p *Pipeline) Run(ctx context.Context) error {
	logger := logging.FromContext(ctx)
	stop := context.AfterFunc(ctx, p.Queue.SignalShutdown)
	defer stop()

	logger.Info("ingest pipeline started",
		slog.Int("arena_capacity", p.Arena.Capacity()),
		slog.Int("queue_capacity", p.Queue.Cap()),
		slog.Int("window_length", p.Arena.WindowLength()),
		slog.Int("h3_resolution", p.Resolver.Resolution()))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer p.Queue.SignalShutdown()
		return p.coordinator.Run(gctx)
	})
	g.Go(func() error {
		return p.writer.Run(gctx)
	})
	return g.Wait()
}

// Ready reports whether at least one feed cycle has completed.
func (p *Pipeline) Ready() bool {
	return p.coordinator.Cycles() > 0
}

// LastSuccess returns the time of the last successful feed cycle.
func (p *Pipeline) LastSuccess() (time.Time, bool) {
	return p.coordinator.LastSuccess()
}

func (p *Pipeline) QueueLen() int {
	return p.Queue.Len()
}

func (p *Pipeline) OccupiedBuckets() int {
	return p.Arena.Occupied()
}

// FetchInterval is the pause between feed cycles.
func (p *Pipeline) FetchInterval() time.Duration {
	return p.coordinator.interval
}
