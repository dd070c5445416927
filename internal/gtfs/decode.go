package gtfs

import (
	"errors"
	"fmt"

	gtfsrt "github.com/OneBusAway/go-gtfs/proto"
	"google.golang.org/protobuf/proto"

	"telemetrix.dev/internal/models"
)

// UnknownField fills identifier fields the feed left empty.
const UnknownField = "UNKNOWN"

var ErrEmptyPayload = errors.New("empty GTFS-RT payload")

// Pusher accepts decoded records. Push reports false when the record was
// dropped, after which the decoder stops pushing.
type Pusher interface {
	Push(models.VehicleRecord) bool
}

// DecodeStats summarizes one decoded payload.
type DecodeStats struct {
	Entities int // entities in the feed message
	Decoded  int // entities carrying a vehicle position
	Pushed   int // records accepted by the Pusher
	Shed     int // decoded records discarded after the first rejected push
}

// Decode parses a GTFS-RT FeedMessage and pushes one record per vehicle
// position entity. A payload that fails to parse pushes nothing.
func Decode(payload []byte, q Pusher) (DecodeStats, error) {
	if len(payload) == 0 {
		return DecodeStats{}, ErrEmptyPayload
	}

	var msg gtfsrt.FeedMessage
	if err := proto.Unmarshal(payload, &msg); err != nil {
		return DecodeStats{}, fmt.Errorf("failed to parse GTFS-RT feed message: %w", err)
	}

	records := make([]models.VehicleRecord, 0, len(msg.GetEntity()))
	for _, entity := range msg.GetEntity() {
		vp := entity.GetVehicle()
		if vp == nil || vp.GetPosition() == nil {
			continue
		}
		records = append(records, vehicleRecord(entity.GetId(), vp))
	}

	stats := DecodeStats{Entities: len(msg.GetEntity()), Decoded: len(records)}
	for _, rec := range records {
		if !q.Push(rec) {
			break
		}
		stats.Pushed++
	}
	stats.Shed = stats.Decoded - stats.Pushed
	return stats, nil
}

func vehicleRecord(entityID string, vp *gtfsrt.VehiclePosition) models.VehicleRecord {
	rec := models.NewVehicleRecord()

	descriptor := vp.GetVehicle()
	rec.SetFleetNumber(firstNonEmpty(descriptor.GetLabel(), entityID, UnknownField))
	rec.SetInternalID(firstNonEmpty(descriptor.GetId(), UnknownField))
	rec.SetRouteID(firstNonEmpty(vp.GetTrip().GetRouteId(), UnknownField))
	rec.SetStopID(firstNonEmpty(vp.GetStopId(), UnknownField))

	pos := vp.GetPosition()
	rec.Lat = float64(pos.GetLatitude())
	rec.Lon = float64(pos.GetLongitude())
	rec.Speed = pos.GetSpeed()
	rec.Bearing = pos.GetBearing()
	rec.Timestamp = uint32(vp.GetTimestamp())

	if vp.OccupancyStatus != nil {
		rec.OccupancyStatus = models.OccupancyStatus(vp.GetOccupancyStatus())
	}
	if vp.OccupancyPercentage != nil {
		rec.OccupancyPercentage = int32(vp.GetOccupancyPercentage())
	}
	if vp.CurrentStatus != nil {
		rec.CurrentStatus = models.CurrentStatus(vp.GetCurrentStatus())
	}
	if vp.CongestionLevel != nil {
		rec.CongestionLevel = models.CongestionLevel(vp.GetCongestionLevel())
	}
	return rec
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
