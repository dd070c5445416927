package restapi

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"telemetrix.dev/internal/app"
	"telemetrix.dev/internal/appconf"
	"telemetrix.dev/internal/clock"
	"telemetrix.dev/internal/ingest"
	"telemetrix.dev/internal/logging"
	"telemetrix.dev/internal/metrics"
	"telemetrix.dev/internal/models"
)

var testNow = time.Date(2024, 6, 15, 14, 30, 0, 0, time.UTC)

func createTestApiWithClock(t *testing.T, c clock.Clock) *RestAPI {
	t.Helper()
	cfg := appconf.DefaultPipelineConfig()
	cfg.ArenaCapacity = 1 << 12
	cfg.QueueCapacity = 16

	m := metrics.New()
	p, err := ingest.NewPipeline(cfg, nil, m, c)
	require.NoError(t, err)

	api := NewRestAPI(&app.Application{
		Config: appconf.Config{
			Env:       appconf.Test,
			ApiKeys:   []string{"TEST"},
			RateLimit: 100,
		},
		Logger:   logging.New(io.Discard, true, slog.LevelInfo),
		Pipeline: p,
		Clock:    c,
		Metrics:  m,
	})
	t.Cleanup(api.Shutdown)
	return api
}

func createTestApi(t *testing.T) *RestAPI {
	return createTestApiWithClock(t, clock.NewMockClock(testNow))
}

func (api *RestAPI) testHandler() http.Handler {
	mux := http.NewServeMux()
	api.SetRoutes(mux)
	return api.Handler(mux)
}

// serveApiAndRetrieveEndpoint issues a GET against the full middleware
// chain and decodes the response envelope.
func serveApiAndRetrieveEndpoint(t *testing.T, api *RestAPI, endpoint string) (*http.Response, models.ResponseModel) {
	t.Helper()
	server := httptest.NewServer(api.testHandler())
	defer server.Close()

	resp, err := http.Get(server.URL + endpoint)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var model models.ResponseModel
	if len(bytes.TrimSpace(body)) > 0 && resp.Header.Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(body, &model), string(body))
	}
	return resp, model
}

// addSample writes one sample for the cell containing (lat, lon).
func addSample(t *testing.T, api *RestAPI, lat, lon float64, speed float32, ts time.Time) uint64 {
	t.Helper()
	key, err := api.Pipeline.Resolver.Resolve(lat, lon)
	require.NoError(t, err)
	api.Pipeline.Arena.Update(key, speed, uint32(ts.Unix()))
	return key
}

const (
	timeoutShort = 2 * time.Second
	tick         = 5 * time.Millisecond
)
