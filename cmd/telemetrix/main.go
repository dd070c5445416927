package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"telemetrix.dev/internal/appconf"
	"telemetrix.dev/internal/gtfs"
	"telemetrix.dev/internal/logging"
)

// options is everything the command line and environment can set.
type options struct {
	app      appconf.Config
	feed     gtfs.Config
	pipeline appconf.PipelineConfig
}

func envString(name, fallback string) string {
	if v, ok := os.LookupEnv(name); ok {
		return v
	}
	return fallback
}

func envInt(name string, fallback int) int {
	if v, ok := os.LookupEnv(name); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func parseOptions(args []string) (options, error) {
	fsFlags := flag.NewFlagSet("telemetrix", flag.ContinueOnError)
	defaults := appconf.DefaultPipelineConfig()

	configFile := fsFlags.String("config", envString("TELEMETRIX_CONFIG", ""), "path to a JSON configuration file")
	port := fsFlags.Int("port", envInt("PORT", 4000), "API server port")
	env := fsFlags.String("env", envString("TELEMETRIX_ENV", "development"), "environment (development|test|production)")
	apiKeys := fsFlags.String("api-keys", envString("TELEMETRIX_API_KEYS", "test"), "comma-separated API keys")
	exemptKeys := fsFlags.String("exempt-api-keys", envString("TELEMETRIX_EXEMPT_API_KEYS", ""), "comma-separated API keys exempt from rate limiting")
	rateLimit := fsFlags.Int("rate-limit", envInt("TELEMETRIX_RATE_LIMIT", 100), "requests per second per API key")
	verbose := fsFlags.Bool("verbose", os.Getenv("TELEMETRIX_VERBOSE") == "true", "enable debug logging")

	feedURL := fsFlags.String("vehicle-positions-url", envString("VEHICLE_POSITIONS_URL", ""), "GTFS-RT vehicle positions URL")
	authKey := fsFlags.String("auth-header-key", envString("FEED_AUTH_HEADER_KEY", ""), "feed auth header name")
	authValue := fsFlags.String("auth-header-value", envString("FEED_AUTH_HEADER_VALUE", ""), "feed auth header value")
	interval := fsFlags.Duration("fetch-interval",
		time.Duration(envInt("FETCH_INTERVAL_SECONDS", int(defaults.FetchInterval/time.Second)))*time.Second,
		"time between feed fetches")

	arenaCap := fsFlags.Int("arena-capacity", envInt("ARENA_CAPACITY", defaults.ArenaCapacity), "arena buckets, a power of two")
	queueCap := fsFlags.Int("queue-capacity", envInt("QUEUE_CAPACITY", defaults.QueueCapacity), "ingestion queue capacity")
	windowLen := fsFlags.Int("window-length", envInt("WINDOW_LENGTH", defaults.WindowLength), "samples kept per cell (1-60)")
	resolution := fsFlags.Int("h3-resolution", envInt("H3_RESOLUTION", defaults.H3Resolution), "H3 resolution of arena cells")

	if err := fsFlags.Parse(args); err != nil {
		return options{}, err
	}

	if *configFile != "" {
		return optionsFromFile(*configFile)
	}

	environment, err := appconf.EnvFlagToEnvironment(*env)
	if err != nil {
		return options{}, err
	}

	opts := options{
		app: appconf.Config{
			Port:          *port,
			Env:           environment,
			ApiKeys:       ParseAPIKeys(*apiKeys),
			ExemptApiKeys: ParseAPIKeys(*exemptKeys),
			Verbose:       *verbose,
			RateLimit:     *rateLimit,
		},
		feed: gtfs.Config{
			VehiclePositionsURL: *feedURL,
			AuthHeaderKey:       *authKey,
			AuthHeaderValue:     *authValue,
			Env:                 environment,
			Verbose:             *verbose,
		},
		pipeline: appconf.PipelineConfig{
			ArenaCapacity: *arenaCap,
			QueueCapacity: *queueCap,
			WindowLength:  *windowLen,
			H3Resolution:  *resolution,
			FetchInterval: *interval,
		},
	}
	if opts.feed.VehiclePositionsURL == "" {
		return options{}, errors.New("a vehicle positions URL is required (-vehicle-positions-url or VEHICLE_POSITIONS_URL)")
	}
	return opts, nil
}

func optionsFromFile(path string) (options, error) {
	jsonCfg, err := appconf.LoadFromFile(path)
	if err != nil {
		return options{}, err
	}
	appCfg := jsonCfg.ToAppConfig()
	feedData := jsonCfg.ToFeedConfigData()
	if feedData.VehiclePositionsURL == "" {
		return options{}, errors.New("config file does not set vehicle-positions-url")
	}
	return options{
		app: appCfg,
		feed: gtfs.Config{
			VehiclePositionsURL: feedData.VehiclePositionsURL,
			AuthHeaderKey:       feedData.AuthHeaderKey,
			AuthHeaderValue:     feedData.AuthHeaderValue,
			Env:                 appCfg.Env,
			Verbose:             appCfg.Verbose,
		},
		pipeline: jsonCfg.ToPipelineConfig(),
	}, nil
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
		os.Exit(1)
	}

	opts, err := parseOptions(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(2)
	}

	coreApp, err := BuildApplication(opts.app, opts.feed, opts.pipeline)
	if err != nil {
		logging.LogError(slog.Default(), "failed to build application", err)
		os.Exit(1)
	}

	srv, api := CreateServer(coreApp, opts.app)
	defer api.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	if err := Run(ctx, coreApp, srv); err != nil {
		logging.LogError(coreApp.Logger, "telemetrix exited with error", err,
			slog.Duration("uptime", time.Since(start)))
		api.Shutdown()
		os.Exit(1)
	}
}
