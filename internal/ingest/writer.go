package ingest

import (
	"context"
	"log/slog"

	"telemetrix.dev/internal/arena"
	"telemetrix.dev/internal/logging"
	"telemetrix.dev/internal/metrics"
	"telemetrix.dev/internal/models"
	"telemetrix.dev/internal/queue"
	"telemetrix.dev/internal/spatial"
)

// Writer is the consumer: it pops records, resolves their cell and writes
// one sample into that cell's bucket.
type Writer struct {
	queue    *queue.Queue[models.VehicleRecord]
	resolver *spatial.Resolver
	arena    *arena.Arena
	metrics  *metrics.Metrics
}

func NewWriter(q *queue.Queue[models.VehicleRecord], r *spatial.Resolver, a *arena.Arena, m *metrics.Metrics) *Writer {
	return &Writer{queue: q, resolver: r, arena: a, metrics: m}
}

// Run blocks in Pop until the queue is shut down and drained.
func (w *Writer) Run(ctx context.Context) error {
	logger := logging.FromContext(ctx).With(slog.String("component", "arena_writer"))

	var written, failed int
	for {
		rec, ok := w.queue.Pop()
		if !ok {
			logger.Info("arena writer drained",
				slog.Int("written", written),
				slog.Int("unresolved", failed))
			return nil
		}
		if w.Apply(logger, rec) {
			written++
		} else {
			failed++
		}
	}
}

// Apply writes rec into the arena. It returns false when the record's
// position has no cell.
func (w *Writer) Apply(logger *slog.Logger, rec models.VehicleRecord) bool {
	if logger == nil {
		logger = slog.Default()
	}
	key, err := w.resolver.Resolve(rec.Lat, rec.Lon)
	if err != nil {
		w.metrics.ResolveFailuresTotal.Inc()
		logger.Debug("dropping vehicle without a valid position",
			slog.String("fleet_number", rec.FleetNumber()),
			slog.String("error", err.Error()))
		return false
	}
	w.arena.Update(key, rec.Speed, rec.Timestamp)
	w.metrics.ArenaUpdatesTotal.Inc()
	return true
}
