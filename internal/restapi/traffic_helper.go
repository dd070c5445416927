package restapi

import (
	"fmt"
	"net/url"
	"strconv"

	"telemetrix.dev/internal/arena"
	"telemetrix.dev/internal/models"
	"telemetrix.dev/internal/spatial"
	"telemetrix.dev/internal/utils"
)

const (
	defaultRadiusMeters = 500.0
	maxRadiusMeters     = 10000.0
)

// cellTraffic summarizes snap, keeping samples no older than minTimestamp.
// It reports false when nothing survives the filter.
func cellTraffic(snap arena.WindowSnapshot, minTimestamp uint32, queryLat, queryLon float64) (models.CellTraffic, bool) {
	out := models.CellTraffic{
		Cell:        spatial.CellString(snap.Key),
		BucketIndex: snap.Index,
	}
	if lat, lon, err := spatial.CellCenter(snap.Key); err == nil {
		out.Lat, out.Lon = lat, lon
		out.Distance = utils.Distance(queryLat, queryLon, lat, lon)
	}

	var sum float64
	var latest uint32
	for _, s := range snap.Samples {
		if s.Timestamp < minTimestamp {
			continue
		}
		out.Samples = append(out.Samples, models.TrafficSample{
			Time:  int64(s.Timestamp) * 1000,
			Speed: s.Speed,
		})
		sum += float64(s.Speed)
		if s.Timestamp > latest {
			latest = s.Timestamp
		}
	}
	out.SampleCount = len(out.Samples)
	if !out.HasSamples() {
		return out, false
	}
	out.MeanSpeed = sum / float64(out.SampleCount)
	out.LastUpdateTime = int64(latest) * 1000
	return out, true
}

// minTimestamp converts a maxAge in seconds into the oldest timestamp a
// sample may carry. Zero means no age limit.
func minTimestamp(now uint32, maxAge int) uint32 {
	if maxAge <= 0 || uint32(maxAge) >= now {
		return 0
	}
	return now - uint32(maxAge)
}

func parseFloatParam(q url.Values, name string, required bool, fallback float64) (float64, error) {
	raw := q.Get(name)
	if raw == "" {
		if required {
			return 0, fmt.Errorf("missing required parameter %s", name)
		}
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return v, nil
}

func parseIntParam(q url.Values, name string, fallback int) (int, error) {
	raw := q.Get(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return v, nil
}
