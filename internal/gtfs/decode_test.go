package gtfs

import (
	"testing"

	gtfsrt "github.com/OneBusAway/go-gtfs/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"

	"telemetrix.dev/internal/models"
	"telemetrix.dev/internal/queue"
)

// recordingPusher accepts up to limit records.
type recordingPusher struct {
	limit   int
	records []models.VehicleRecord
}

func (p *recordingPusher) Push(rec models.VehicleRecord) bool {
	if len(p.records) >= p.limit {
		return false
	}
	p.records = append(p.records, rec)
	return true
}

func vehicleEntity(id string, lat, lon, speed float32, ts uint64) *gtfsrt.FeedEntity {
	return &gtfsrt.FeedEntity{
		Id: proto.String(id),
		Vehicle: &gtfsrt.VehiclePosition{
			Vehicle: &gtfsrt.VehicleDescriptor{
				Id:    proto.String("veh-" + id),
				Label: proto.String("fleet-" + id),
			},
			Trip: &gtfsrt.TripDescriptor{
				RouteId: proto.String("504"),
			},
			Position: &gtfsrt.Position{
				Latitude:  proto.Float32(lat),
				Longitude: proto.Float32(lon),
				Speed:     proto.Float32(speed),
				Bearing:   proto.Float32(90),
			},
			StopId:    proto.String("stop-" + id),
			Timestamp: proto.Uint64(ts),
		},
	}
}

func feedPayload(t testing.TB, entities ...*gtfsrt.FeedEntity) []byte {
	t.Helper()
	msg := &gtfsrt.FeedMessage{
		Header: &gtfsrt.FeedHeader{
			GtfsRealtimeVersion: proto.String("2.0"),
			Timestamp:           proto.Uint64(1718438400),
		},
		Entity: entities,
	}
	data, err := proto.Marshal(msg)
	require.NoError(t, err)
	return data
}

func TestDecodeVehiclePositions(t *testing.T) {
	full := vehicleEntity("1", 43.6532, -79.3832, 8.5, 1718438400)
	full.Vehicle.CurrentStatus = gtfsrt.VehiclePosition_STOPPED_AT.Enum()
	full.Vehicle.CongestionLevel = gtfsrt.VehiclePosition_STOP_AND_GO.Enum()
	full.Vehicle.OccupancyStatus = gtfsrt.VehiclePosition_FEW_SEATS_AVAILABLE.Enum()
	full.Vehicle.OccupancyPercentage = proto.Uint32(40)

	payload := feedPayload(t, full, vehicleEntity("2", 43.66, -79.39, 3, 1718438401))
	pusher := &recordingPusher{limit: 10}

	stats, err := Decode(payload, pusher)
	require.NoError(t, err)
	assert.Equal(t, DecodeStats{Entities: 2, Decoded: 2, Pushed: 2}, stats)
	require.Len(t, pusher.records, 2)

	rec := pusher.records[0]
	assert.Equal(t, "fleet-1", rec.FleetNumber())
	assert.Equal(t, "veh-1", rec.InternalID())
	assert.Equal(t, "504", rec.RouteID())
	assert.Equal(t, "stop-1", rec.StopID())
	assert.InDelta(t, 43.6532, rec.Lat, 1e-5)
	assert.InDelta(t, -79.3832, rec.Lon, 1e-5)
	assert.Equal(t, float32(8.5), rec.Speed)
	assert.Equal(t, float32(90), rec.Bearing)
	assert.Equal(t, uint32(1718438400), rec.Timestamp)
	assert.Equal(t, models.StatusStoppedAt, rec.CurrentStatus)
	assert.Equal(t, models.CongestionStopAndGo, rec.CongestionLevel)
	assert.Equal(t, models.OccupancyFewSeatsAvailable, rec.OccupancyStatus)
	assert.Equal(t, int32(40), rec.OccupancyPercentage)

	assert.Equal(t, "fleet-2", pusher.records[1].FleetNumber())
}

func TestDecodeAppliesDefaults(t *testing.T) {
	bare := &gtfsrt.FeedEntity{
		Id: proto.String("entity-7"),
		Vehicle: &gtfsrt.VehiclePosition{
			Position: &gtfsrt.Position{
				Latitude:  proto.Float32(45.5),
				Longitude: proto.Float32(-73.6),
			},
		},
	}
	pusher := &recordingPusher{limit: 10}

	_, err := Decode(feedPayload(t, bare), pusher)
	require.NoError(t, err)
	require.Len(t, pusher.records, 1)

	rec := pusher.records[0]
	assert.Equal(t, "entity-7", rec.FleetNumber())
	assert.Equal(t, UnknownField, rec.InternalID())
	assert.Equal(t, UnknownField, rec.RouteID())
	assert.Equal(t, UnknownField, rec.StopID())
	assert.Zero(t, rec.Speed)
	assert.Zero(t, rec.Bearing)
	assert.Zero(t, rec.Timestamp)
	assert.Equal(t, models.OccupancyNoDataAvailable, rec.OccupancyStatus)
	assert.Equal(t, models.UnknownOccupancyPercentage, rec.OccupancyPercentage)
	assert.Equal(t, models.StatusInTransitTo, rec.CurrentStatus)
	assert.Equal(t, models.CongestionUnknown, rec.CongestionLevel)
}

func TestDecodeFleetFallsBackToUnknown(t *testing.T) {
	anonymous := &gtfsrt.FeedEntity{
		Id: proto.String(""),
		Vehicle: &gtfsrt.VehiclePosition{
			Position: &gtfsrt.Position{Latitude: proto.Float32(1), Longitude: proto.Float32(1)},
		},
	}
	pusher := &recordingPusher{limit: 1}

	_, err := Decode(feedPayload(t, anonymous), pusher)
	require.NoError(t, err)
	require.Len(t, pusher.records, 1)
	assert.Equal(t, UnknownField, pusher.records[0].FleetNumber())
}

func TestDecodeTruncatesLongIdentifiers(t *testing.T) {
	entity := vehicleEntity("1", 10, 10, 1, 1)
	entity.Vehicle.Vehicle.Label = proto.String("a-very-long-fleet-label-indeed")
	pusher := &recordingPusher{limit: 1}

	_, err := Decode(feedPayload(t, entity), pusher)
	require.NoError(t, err)
	assert.Equal(t, "a-very-long-fle", pusher.records[0].FleetNumber())
}

func TestDecodeSkipsEntitiesWithoutPosition(t *testing.T) {
	noPosition := &gtfsrt.FeedEntity{
		Id:      proto.String("x"),
		Vehicle: &gtfsrt.VehiclePosition{Timestamp: proto.Uint64(5)},
	}
	tripOnly := &gtfsrt.FeedEntity{
		Id:         proto.String("y"),
		TripUpdate: &gtfsrt.TripUpdate{Trip: &gtfsrt.TripDescriptor{TripId: proto.String("t1")}},
	}
	pusher := &recordingPusher{limit: 10}

	stats, err := Decode(feedPayload(t, noPosition, tripOnly, vehicleEntity("3", 1, 2, 3, 4)), pusher)
	require.NoError(t, err)
	assert.Equal(t, DecodeStats{Entities: 3, Decoded: 1, Pushed: 1}, stats)
}

func TestDecodeStopsOnFirstRejectedPush(t *testing.T) {
	payload := feedPayload(t,
		vehicleEntity("1", 1, 1, 1, 1),
		vehicleEntity("2", 2, 2, 2, 2),
		vehicleEntity("3", 3, 3, 3, 3),
		vehicleEntity("4", 4, 4, 4, 4),
	)
	q, err := queue.New[models.VehicleRecord](2)
	require.NoError(t, err)

	stats, err := Decode(payload, q)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Pushed)
	assert.Equal(t, 2, stats.Shed)
	assert.Equal(t, 2, q.Len())

	first, ok := q.TryPop()
	require.True(t, ok)
	assert.Equal(t, "fleet-1", first.FleetNumber())
}

func TestDecodeMalformedPayloadPushesNothing(t *testing.T) {
	payload := feedPayload(t, vehicleEntity("1", 1, 1, 1, 1), vehicleEntity("2", 2, 2, 2, 2))
	truncated := payload[:len(payload)-3]
	pusher := &recordingPusher{limit: 10}

	stats, err := Decode(truncated, pusher)
	assert.Error(t, err)
	assert.Zero(t, stats)
	assert.Empty(t, pusher.records)

	_, err = Decode([]byte{0xff, 0xff, 0xff}, pusher)
	assert.Error(t, err)
	assert.Empty(t, pusher.records)
}

func TestDecodeEmptyPayload(t *testing.T) {
	_, err := Decode(nil, &recordingPusher{})
	assert.ErrorIs(t, err, ErrEmptyPayload)
}
