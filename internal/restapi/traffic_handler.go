package restapi

import (
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"telemetrix.dev/internal/models"
	"telemetrix.dev/internal/spatial"
	"telemetrix.dev/internal/utils"
)

// trafficForLocationHandler returns every non-empty cell whose center lies
// within radius meters of (lat, lon), nearest first.
func (api *RestAPI) trafficForLocationHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	lat, err := parseFloatParam(q, "lat", true, 0)
	if err != nil {
		api.sendBadRequest(w, r, err.Error())
		return
	}
	lon, err := parseFloatParam(q, "lon", true, 0)
	if err != nil {
		api.sendBadRequest(w, r, err.Error())
		return
	}
	if !spatial.ValidCoordinate(lat, lon) {
		api.sendBadRequest(w, r, "lat/lon out of range")
		return
	}
	radius, err := parseFloatParam(q, "radius", false, defaultRadiusMeters)
	if err != nil || radius < 0 || radius > maxRadiusMeters {
		api.sendBadRequest(w, r, "radius must be between 0 and 10000 meters")
		return
	}
	maxAge, err := parseIntParam(q, "maxAge", 0)
	if err != nil {
		api.sendBadRequest(w, r, err.Error())
		return
	}

	resolver := api.Pipeline.Resolver
	k := resolver.RingsForRadius(radius)
	keys, err := resolver.Neighbors(lat, lon, k)
	if err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}

	minTS := minTimestamp(api.Clock.NowUnix(), maxAge)
	// A cell counts when any part of it may fall inside the radius.
	reach := radius + resolver.EdgeLengthMeters()

	cells := make([]models.CellTraffic, 0, len(keys))
	for i, key := range keys {
		snap, ok := api.Pipeline.Arena.Snapshot(key)
		if !ok {
			continue
		}
		traffic, ok := cellTraffic(snap, minTS, lat, lon)
		if !ok {
			continue
		}
		if i > 0 && !utils.WithinRadius(lat, lon, traffic.Lat, traffic.Lon, reach) {
			continue
		}
		cells = append(cells, traffic)
	}
	slices.SortStableFunc(cells, func(a, b models.CellTraffic) int {
		switch {
		case a.Distance < b.Distance:
			return -1
		case a.Distance > b.Distance:
			return 1
		}
		return 0
	})

	api.requestLogger(r).Debug("traffic for location",
		slog.Float64("lat", lat),
		slog.Float64("lon", lon),
		slog.Int("rings", k),
		slog.Int("cells", len(cells)))

	api.sendResponse(w, r, models.NewListResponse(cells, k == spatial.MaxRings && radius > 0, api.Clock))
}

// trafficForCellHandler returns the window of one H3 cell given in its
// hexadecimal form, with or without a .json suffix.
func (api *RestAPI) trafficForCellHandler(w http.ResponseWriter, r *http.Request) {
	cellID := strings.TrimSuffix(r.PathValue("cell"), ".json")

	key, err := api.Pipeline.Resolver.KeyForCellString(cellID)
	if err != nil {
		if errors.Is(err, spatial.ErrInvalidCell) || errors.Is(err, spatial.ErrResolutionMismatch) {
			api.sendBadRequest(w, r, err.Error())
			return
		}
		api.serverErrorResponse(w, r, err)
		return
	}

	maxAge, err := parseIntParam(r.URL.Query(), "maxAge", 0)
	if err != nil {
		api.sendBadRequest(w, r, err.Error())
		return
	}

	snap, ok := api.Pipeline.Arena.Snapshot(key)
	if !ok {
		api.sendNotFound(w, r)
		return
	}

	lat, lon, err := spatial.CellCenter(key)
	if err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}
	traffic, ok := cellTraffic(snap, minTimestamp(api.Clock.NowUnix(), maxAge), lat, lon)
	if !ok {
		api.sendNotFound(w, r)
		return
	}
	api.sendResponse(w, r, models.NewEntryResponse(traffic, api.Clock))
}
