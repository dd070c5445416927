package restapi

import (
	"net/http"

	"telemetrix.dev/internal/models"
)

// currentTimeHandler reports the server clock so clients can compute sample
// ages against the same time base the maxAge filter uses.
func (api *RestAPI) currentTimeHandler(w http.ResponseWriter, r *http.Request) {
	timeData := models.NewCurrentTimeData(api.Clock.Now())
	api.sendResponse(w, r, models.NewEntryResponse(timeData, api.Clock))
}
