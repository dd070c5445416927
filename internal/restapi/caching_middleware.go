package restapi

import (
	"fmt"
	"net/http"
	"time"
)

const noStore = "no-cache, no-store, must-revalidate"

// CacheControlMiddleware sets Cache-Control on successful responses to a
// public max-age of maxAge, rounded down to whole seconds. Errors and a
// zero maxAge are never cached.
func CacheControlMiddleware(maxAge time.Duration, next http.Handler) http.Handler {
	headerValue := noStore
	if seconds := int(maxAge / time.Second); seconds > 0 {
		headerValue = fmt.Sprintf("public, max-age=%d", seconds)
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(&cacheControlWriter{ResponseWriter: w, success: headerValue}, r)
	})
}

type cacheControlWriter struct {
	http.ResponseWriter
	success       string
	headerWritten bool
}

func (w *cacheControlWriter) WriteHeader(code int) {
	if !w.headerWritten {
		w.headerWritten = true
		value := noStore
		if code >= 200 && code < 300 {
			value = w.success
		}
		w.ResponseWriter.Header().Set("Cache-Control", value)
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *cacheControlWriter) Write(b []byte) (int, error) {
	if !w.headerWritten {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

func (w *cacheControlWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
