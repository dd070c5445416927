package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"telemetrix.dev/internal/app"
	"telemetrix.dev/internal/appconf"
	"telemetrix.dev/internal/clock"
	"telemetrix.dev/internal/gtfs"
	"telemetrix.dev/internal/ingest"
	"telemetrix.dev/internal/logging"
	"telemetrix.dev/internal/metrics"
	"telemetrix.dev/internal/restapi"
	"telemetrix.dev/internal/webui"
)

const (
	shutdownTimeout        = 30 * time.Second
	statsCollectorInterval = 15 * time.Second
)

// ParseAPIKeys splits a comma-separated key list, trimming each entry.
func ParseAPIKeys(apiKeysFlag string) []string {
	if apiKeysFlag == "" {
		return []string{}
	}
	keys := strings.Split(apiKeysFlag, ",")
	for i, key := range keys {
		keys[i] = strings.TrimSpace(key)
	}
	return keys
}

func newLogger(cfg appconf.Config) *slog.Logger {
	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	return logging.New(os.Stdout, cfg.Env == appconf.Production, level)
}

// BuildApplication allocates the pipeline and wires every shared
// dependency. A failure here must stop the process.
func BuildApplication(cfg appconf.Config, feedCfg gtfs.Config, pipelineCfg appconf.PipelineConfig) (*app.Application, error) {
	logger := newLogger(cfg)
	m := metrics.NewWithLogger(logger)
	clk := clock.RealClock{}

	fetcher := gtfs.NewFetcher(feedCfg, nil)
	pipeline, err := ingest.NewPipeline(pipelineCfg, fetcher, m, clk)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ingest pipeline: %w", err)
	}
	logger.Info("vehicle positions feed configured",
		slog.String("url", fetcher.URL()),
		slog.Duration("interval", pipelineCfg.FetchInterval))

	return &app.Application{
		Config:     cfg,
		FeedConfig: feedCfg,
		Logger:     logger,
		Pipeline:   pipeline,
		Clock:      clk,
		Metrics:    m,
	}, nil
}

// CreateServer builds the HTTP server. The caller must call Shutdown on
// the returned API.
func CreateServer(coreApp *app.Application, cfg appconf.Config) (*http.Server, *restapi.RestAPI) {
	api := restapi.NewRestAPI(coreApp)
	webUI := &webui.WebUI{Application: coreApp}

	mux := http.NewServeMux()
	api.SetRoutes(mux)
	webUI.SetWebUIRoutes(mux)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      api.Handler(mux),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		ErrorLog:     slog.NewLogLogger(coreApp.Logger.Handler(), slog.LevelError),
	}
	return srv, api
}

// Run serves HTTP and runs the pipeline until ctx is cancelled, then shuts
// both down. The pipeline drains its queue before Run returns.
func Run(ctx context.Context, coreApp *app.Application, srv *http.Server) error {
	logger := coreApp.Logger
	ctx = logging.WithLogger(ctx, logger)

	coreApp.Metrics.StartPipelineCollector(coreApp.Pipeline, statsCollectorInterval)
	defer coreApp.Metrics.Shutdown()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return coreApp.Pipeline.Run(gctx)
	})

	g.Go(func() error {
		logger.Info("starting server", slog.String("addr", srv.Addr), slog.String("env", coreApp.Config.Env.String()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	})

	err := g.Wait()
	logger.Info("telemetrix stopped")
	return err
}
