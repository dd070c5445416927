package restapi

import (
	"encoding/json"
	"net/http"
	"time"
)

// HealthResponse represents the JSON response from the health endpoint.
type HealthResponse struct {
	Status          string `json:"status"`
	Detail          string `json:"detail,omitempty"`
	LastFeedSuccess string `json:"lastFeedSuccess,omitempty"`
	QueueDepth      int    `json:"queueDepth"`
}

// healthHandler returns 503 until the pipeline exists and has completed
// its first feed cycle, and again whenever the feed has gone stale.
func (api *RestAPI) healthHandler(w http.ResponseWriter, r *http.Request) {
	setJSONResponseType(w)

	if api.Application == nil || api.Pipeline == nil {
		writeHealth(w, http.StatusServiceUnavailable, HealthResponse{
			Status: "unavailable",
			Detail: "ingest pipeline not initialized",
		})
		return
	}

	resp := HealthResponse{QueueDepth: api.Pipeline.QueueLen()}
	last, ok := api.Pipeline.LastSuccess()
	if ok {
		resp.LastFeedSuccess = last.UTC().Format(time.RFC3339)
	}

	if !api.Pipeline.Ready() {
		resp.Status = "starting"
		resp.Detail = "waiting for the first vehicle positions fetch"
		writeHealth(w, http.StatusServiceUnavailable, resp)
		return
	}

	detector := api.staleDetector
	if detector == nil {
		detector = NewStaleDetector()
	}
	if detector.Check(last, ok, api.now()) {
		resp.Status = "stale"
		resp.Detail = "no successful vehicle positions fetch within " + detector.Threshold().String()
		writeHealth(w, http.StatusServiceUnavailable, resp)
		return
	}

	resp.Status = "ok"
	writeHealth(w, http.StatusOK, resp)
}

func writeHealth(w http.ResponseWriter, code int, resp HealthResponse) {
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}
