// Package spatial turns coordinates into the 64-bit keys that address the
// arena. A key identifies one H3 cell at the resolver's fixed resolution.
package spatial

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/uber/h3-go/v4"
)

// DefaultResolution yields roughly 0.1 km² hexagons; a metropolitan region
// of a few thousand km² holds on the order of 10^5 of them.
const DefaultResolution = 9

var (
	ErrInvalidCoordinate = errors.New("coordinate out of range")
	ErrInvalidResolution = errors.New("h3 resolution must be between 0 and 15")
	ErrInvalidCell       = errors.New("invalid h3 cell")
)

// Resolver computes spatial keys at one H3 resolution. It holds no mutable
// state and is safe for concurrent use.
type Resolver struct {
	resolution int
}

func NewResolver(resolution int) (*Resolver, error) {
	if resolution < 0 || resolution > 15 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidResolution, resolution)
	}
	return &Resolver{resolution: resolution}, nil
}

func (r *Resolver) Resolution() int {
	return r.resolution
}

// Cell returns the H3 cell containing (lat, lon), both in degrees.
func (r *Resolver) Cell(lat, lon float64) (h3.Cell, error) {
	if !ValidCoordinate(lat, lon) {
		return 0, fmt.Errorf("%w: (%f, %f)", ErrInvalidCoordinate, lat, lon)
	}
	cell, err := h3.LatLngToCell(h3.NewLatLng(lat, lon), r.resolution)
	if err != nil {
		return 0, fmt.Errorf("failed to index (%f, %f): %w", lat, lon, err)
	}
	return cell, nil
}

// Resolve returns the spatial key of the cell containing (lat, lon).
// The result depends only on its inputs and the resolution.
func (r *Resolver) Resolve(lat, lon float64) (uint64, error) {
	cell, err := r.Cell(lat, lon)
	if err != nil {
		return 0, err
	}
	return KeyForCell(cell), nil
}

// Neighbors returns the keys of every cell within grid distance k of the
// cell containing (lat, lon), the origin cell first.
func (r *Resolver) Neighbors(lat, lon float64, k int) ([]uint64, error) {
	origin, err := r.Cell(lat, lon)
	if err != nil {
		return nil, err
	}
	disk, err := h3.GridDisk(origin, k)
	if err != nil {
		return nil, fmt.Errorf("failed to expand cell %s by %d: %w", origin, k, err)
	}

	keys := make([]uint64, 0, len(disk))
	keys = append(keys, KeyForCell(origin))
	for _, c := range disk {
		if c != origin && c != 0 {
			keys = append(keys, KeyForCell(c))
		}
	}
	return keys, nil
}

// KeyForCell maps an H3 cell to its spatial key.
func KeyForCell(c h3.Cell) uint64 {
	return mix(uint64(c))
}

// CellForKey recovers the H3 cell a key was derived from.
func CellForKey(key uint64) h3.Cell {
	return h3.Cell(unmix(key))
}

// ParseCell parses the hexadecimal form of an H3 cell, e.g. "892b9bc3c3bffff".
func ParseCell(s string) (h3.Cell, error) {
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCell, s)
	}
	c := h3.Cell(v)
	if !c.IsValid() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCell, s)
	}
	return c, nil
}

// Slot maps a key into an array of capacity slots; capacity must be a power
// of two.
func Slot(key uint64, capacity int) int {
	return int(key & uint64(capacity-1))
}

// ValidCoordinate reports whether lat and lon are finite degrees within
// the WGS84 range.
func ValidCoordinate(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
