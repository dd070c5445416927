package restapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCacheControlMiddleware(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{}"))
	})
	notFound := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	tests := []struct {
		name     string
		maxAge   time.Duration
		handler  http.Handler
		expected string
	}{
		{"Feed interval", 15 * time.Second, ok, "public, max-age=15"},
		{"Sub-second rounds to no cache", 500 * time.Millisecond, ok, noStore},
		{"Zero", 0, ok, noStore},
		{"Error response", 15 * time.Second, notFound, noStore},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			CacheControlMiddleware(tt.maxAge, tt.handler).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Equal(t, tt.expected, rr.Header().Get("Cache-Control"))
		})
	}
}

func TestCacheControlHeadersOnRoutes(t *testing.T) {
	api := createTestApi(t)
	server := httptest.NewServer(api.testHandler())
	defer server.Close()

	tests := []struct {
		name     string
		endpoint string
		expected string
	}{
		{"Traffic", "/api/where/traffic-for-location.json?key=TEST&lat=43.65&lon=-79.38", "public, max-age=15"},
		{"Current time", "/api/where/current-time.json?key=TEST", noStore},
		{"Missing cell", "/api/where/traffic-for-cell/8928308280fffff.json?key=TEST", noStore},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Get(server.URL + tt.endpoint)
			assert.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.expected, resp.Header.Get("Cache-Control"))
		})
	}
}
