package restapi

import (
	"time"

	"telemetrix.dev/internal/app"
)

// RestAPI serves the traffic read surface over the pipeline's arena.
type RestAPI struct {
	*app.Application
	rateLimiter   *RateLimitMiddleware
	staleDetector *StaleDetector
}

// NewRestAPI creates the API and starts its rate limiter's cleanup
// goroutine; call Shutdown to stop it.
func NewRestAPI(application *app.Application) *RestAPI {
	detector := NewStaleDetector()
	if application.Pipeline != nil {
		detector.WithThreshold(staleIntervals * application.Pipeline.FetchInterval())
	}
	return &RestAPI{
		Application: application,
		rateLimiter: NewRateLimitMiddleware(
			application.Config.RateLimit,
			time.Second,
			application.Config.ExemptApiKeys,
			application.Clock,
		),
		staleDetector: detector,
	}
}

// Shutdown releases background resources held by the API.
func (api *RestAPI) Shutdown() {
	if api.rateLimiter != nil {
		api.rateLimiter.Stop()
	}
}

func (api *RestAPI) now() time.Time {
	if api.Application != nil && api.Clock != nil {
		return api.Clock.Now()
	}
	return time.Now()
}
