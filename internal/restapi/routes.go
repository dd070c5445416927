package restapi

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetRoutes registers every endpoint on mux. API routes require a valid key
// and are rate limited per key.
func (api *RestAPI) SetRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", api.healthHandler)
	if api.Metrics != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(api.Metrics.Registry, promhttp.HandlerOpts{}))
	}

	protected := func(h http.HandlerFunc) http.Handler {
		return api.rateLimiter.Handler()(api.requireAPIKey(h))
	}
	var maxAge time.Duration
	if api.Pipeline != nil {
		maxAge = api.Pipeline.FetchInterval()
	}
	mux.Handle("GET /api/where/current-time.json", CacheControlMiddleware(0, protected(api.currentTimeHandler)))
	mux.Handle("GET /api/where/traffic-for-location.json", CacheControlMiddleware(maxAge, protected(api.trafficForLocationHandler)))
	mux.Handle("GET /api/where/traffic-for-cell/{cell}", CacheControlMiddleware(maxAge, protected(api.trafficForCellHandler)))
}

// Handler wraps mux with the middleware chain every request passes through.
func (api *RestAPI) Handler(mux http.Handler) http.Handler {
	var h http.Handler = mux
	h = MetricsHandler(api.Metrics)(h)
	h = NewRequestLoggingMiddleware(api.Logger)(h)
	h = RequestIDMiddleware(h)
	return h
}

func (api *RestAPI) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if api.RequestHasInvalidAPIKey(r) {
			api.sendUnauthorized(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
