package models

import (
	"bytes"
	"unicode/utf8"
)

// Field capacities include the terminating zero byte, so each field holds
// at most capacity-1 bytes of text.
const (
	FleetNumberCap = 16
	InternalIDCap  = 32
	RouteIDCap     = 16
	StopIDCap      = 16
)

// UnknownOccupancyPercentage marks a record whose feed omitted the exact
// occupancy percentage.
const UnknownOccupancyPercentage int32 = -1

// OccupancyStatus mirrors GTFS-RT VehiclePosition.OccupancyStatus.
type OccupancyStatus uint8

const (
	OccupancyEmpty OccupancyStatus = iota
	OccupancyManySeatsAvailable
	OccupancyFewSeatsAvailable
	OccupancyStandingRoomOnly
	OccupancyCrushedStandingRoomOnly
	OccupancyFull
	OccupancyNotAcceptingPassengers
	OccupancyNoDataAvailable
	OccupancyNotBoardable
)

var occupancyStatusNames = [...]string{
	"EMPTY",
	"MANY_SEATS_AVAILABLE",
	"FEW_SEATS_AVAILABLE",
	"STANDING_ROOM_ONLY",
	"CRUSHED_STANDING_ROOM_ONLY",
	"FULL",
	"NOT_ACCEPTING_PASSENGERS",
	"NO_DATA_AVAILABLE",
	"NOT_BOARDABLE",
}

func (s OccupancyStatus) String() string {
	if int(s) < len(occupancyStatusNames) {
		return occupancyStatusNames[s]
	}
	return "UNKNOWN"
}

// CurrentStatus mirrors GTFS-RT VehiclePosition.VehicleStopStatus.
type CurrentStatus uint8

const (
	StatusIncomingAt CurrentStatus = iota
	StatusStoppedAt
	StatusInTransitTo
)

func (s CurrentStatus) String() string {
	switch s {
	case StatusIncomingAt:
		return "INCOMING_AT"
	case StatusStoppedAt:
		return "STOPPED_AT"
	case StatusInTransitTo:
		return "IN_TRANSIT_TO"
	default:
		return "UNKNOWN"
	}
}

// CongestionLevel mirrors GTFS-RT VehiclePosition.CongestionLevel.
type CongestionLevel uint8

const (
	CongestionUnknown CongestionLevel = iota
	CongestionRunningSmoothly
	CongestionStopAndGo
	CongestionCongestion
	CongestionSevere
)

func (c CongestionLevel) String() string {
	switch c {
	case CongestionRunningSmoothly:
		return "RUNNING_SMOOTHLY"
	case CongestionStopAndGo:
		return "STOP_AND_GO"
	case CongestionCongestion:
		return "CONGESTION"
	case CongestionSevere:
		return "SEVERE_CONGESTION"
	default:
		return "UNKNOWN_CONGESTION_LEVEL"
	}
}

// VehicleRecord is one decoded vehicle position. It is a plain value with
// no pointers so it can be copied through the queue without allocation.
type VehicleRecord struct {
	fleetNumber [FleetNumberCap]byte
	internalID  [InternalIDCap]byte
	routeID     [RouteIDCap]byte
	stopID      [StopIDCap]byte

	Lat       float64
	Lon       float64
	Speed     float32 // meters per second
	Bearing   float32 // degrees clockwise from north
	Timestamp uint32  // POSIX seconds

	OccupancyPercentage int32
	OccupancyStatus     OccupancyStatus
	CurrentStatus       CurrentStatus
	CongestionLevel     CongestionLevel
}

// NewVehicleRecord returns a record carrying the feed defaults for every
// field that an upstream message may omit.
func NewVehicleRecord() VehicleRecord {
	return VehicleRecord{
		OccupancyPercentage: UnknownOccupancyPercentage,
		OccupancyStatus:     OccupancyNoDataAvailable,
		CurrentStatus:       StatusInTransitTo,
		CongestionLevel:     CongestionUnknown,
	}
}

func (v *VehicleRecord) SetFleetNumber(s string) { putFixed(v.fleetNumber[:], s) }
func (v *VehicleRecord) SetInternalID(s string)  { putFixed(v.internalID[:], s) }
func (v *VehicleRecord) SetRouteID(s string)     { putFixed(v.routeID[:], s) }
func (v *VehicleRecord) SetStopID(s string)      { putFixed(v.stopID[:], s) }

func (v *VehicleRecord) FleetNumber() string { return getFixed(v.fleetNumber[:]) }
func (v *VehicleRecord) InternalID() string  { return getFixed(v.internalID[:]) }
func (v *VehicleRecord) RouteID() string     { return getFixed(v.routeID[:]) }
func (v *VehicleRecord) StopID() string      { return getFixed(v.stopID[:]) }

// putFixed copies s into dst, truncating silently so that a zero byte always
// terminates the field. Truncation never splits a UTF-8 sequence.
func putFixed(dst []byte, s string) {
	n := len(dst) - 1
	if len(s) > n {
		s = s[:n]
		for i := 0; i < utf8.UTFMax-1 && len(s) > 0; i++ {
			if r, size := utf8.DecodeLastRuneInString(s); r != utf8.RuneError || size != 1 {
				break
			}
			s = s[:len(s)-1]
		}
	}
	copied := copy(dst, s)
	clear(dst[copied:])
}

func getFixed(src []byte) string {
	if i := bytes.IndexByte(src, 0); i >= 0 {
		return string(src[:i])
	}
	return string(src)
}
