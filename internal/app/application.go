package app

import (
	"log/slog"

	"telemetrix.dev/internal/appconf"
	"telemetrix.dev/internal/clock"
	"telemetrix.dev/internal/gtfs"
	"telemetrix.dev/internal/ingest"
	"telemetrix.dev/internal/metrics"
)

// Application holds the dependencies shared by the HTTP handlers,
// middleware and the ingest pipeline.
type Application struct {
	Config     appconf.Config
	FeedConfig gtfs.Config
	Logger     *slog.Logger
	Pipeline   *ingest.Pipeline
	Clock      clock.Clock
	Metrics    *metrics.Metrics
}
