package spatial

import (
	"errors"
	"fmt"
)

var ErrResolutionMismatch = errors.New("cell resolution does not match resolver")

// CellCenter returns the center of the cell a key was derived from.
func CellCenter(key uint64) (lat, lon float64, err error) {
	ll, err := CellForKey(key).LatLng()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to locate cell center: %w", err)
	}
	return ll.Lat, ll.Lng, nil
}

// CellString returns the hexadecimal H3 form of a key's cell.
func CellString(key uint64) string {
	return CellForKey(key).String()
}

// KeyForCellString parses an H3 cell and returns its key, rejecting cells
// at another resolution than r's.
func (r *Resolver) KeyForCellString(s string) (uint64, error) {
	c, err := ParseCell(s)
	if err != nil {
		return 0, err
	}
	if c.Resolution() != r.resolution {
		return 0, fmt.Errorf("%w: %s is resolution %d, want %d", ErrResolutionMismatch, s, c.Resolution(), r.resolution)
	}
	return KeyForCell(c), nil
}

