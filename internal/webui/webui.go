// Package webui serves HTML debugging pages over the running pipeline.
package webui

import (
	"net/http"

	"telemetrix.dev/internal/app"
)

type WebUI struct {
	*app.Application
}

// SetWebUIRoutes registers the debug pages on mux.
func (webUI *WebUI) SetWebUIRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /debug/arena", webUI.debugArenaHandler)
}
