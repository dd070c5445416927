package spatial

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestResolver(t *testing.T) *Resolver {
	t.Helper()
	r, err := NewResolver(DefaultResolution)
	require.NoError(t, err)
	return r
}

func TestNewResolverRejectsBadResolution(t *testing.T) {
	for _, res := range []int{-1, 16} {
		r, err := NewResolver(res)
		assert.Nil(t, r)
		assert.ErrorIs(t, err, ErrInvalidResolution)
	}
}

func TestResolveIsDeterministic(t *testing.T) {
	r := newTestResolver(t)
	points := [][2]float64{
		{43.6532, -79.3832}, // Toronto City Hall
		{43.7615, -79.4111}, // North York
		{43.5890, -79.6441}, // Mississauga
		{-33.8688, 151.2093},
		{0, 0},
		{89.9, 179.9},
	}

	for _, p := range points {
		first, err := r.Resolve(p[0], p[1])
		require.NoError(t, err)
		assert.NotZero(t, first)
		for i := 0; i < 10; i++ {
			again, err := r.Resolve(p[0], p[1])
			require.NoError(t, err)
			assert.Equal(t, first, again)
		}

		other := newTestResolver(t)
		fromOther, err := other.Resolve(p[0], p[1])
		require.NoError(t, err)
		assert.Equal(t, first, fromOther, "separate resolvers must agree")
	}
}

func TestResolveMatchesCell(t *testing.T) {
	r := newTestResolver(t)
	cell, err := r.Cell(43.6532, -79.3832)
	require.NoError(t, err)
	assert.Equal(t, DefaultResolution, cell.Resolution())

	key, err := r.Resolve(43.6532, -79.3832)
	require.NoError(t, err)
	assert.Equal(t, cell, CellForKey(key))
	assert.Equal(t, key, KeyForCell(cell))
}

func TestResolveRejectsInvalidCoordinates(t *testing.T) {
	r := newTestResolver(t)
	tests := []struct {
		name     string
		lat, lon float64
	}{
		{"Latitude too large", 91, 0},
		{"Latitude too small", -90.5, 0},
		{"Longitude too large", 0, 180.01},
		{"NaN latitude", math.NaN(), 0},
		{"NaN longitude", 0, math.NaN()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Resolve(tt.lat, tt.lon)
			assert.ErrorIs(t, err, ErrInvalidCoordinate)
		})
	}
}

func TestMixRoundTrip(t *testing.T) {
	values := []uint64{0, 1, 2, 0x89283082803ffff, 0x8f2830828052d25, math.MaxUint64}
	for _, v := range values {
		assert.Equal(t, v, unmix(mix(v)), "value %#x", v)
	}
	assert.Zero(t, mix(0))
}

func TestInverseOdd(t *testing.T) {
	assert.Equal(t, uint64(1), uint64(mixMul1)*mixInv1)
	assert.Equal(t, uint64(1), uint64(mixMul2)*mixInv2)
}

// Nearby resolution-9 cells share their raw low bits; their keys must not.
func TestKeysSpreadAcrossSlots(t *testing.T) {
	r := newTestResolver(t)
	keys, err := r.Neighbors(43.6532, -79.3832, 10)
	require.NoError(t, err)

	const capacity = 1 << 17
	slots := make(map[int]struct{}, len(keys))
	rawSlots := make(map[int]struct{}, len(keys))
	for _, k := range keys {
		slots[Slot(k, capacity)] = struct{}{}
		rawSlots[Slot(uint64(CellForKey(k)), capacity)] = struct{}{}
	}

	assert.Len(t, rawSlots, 1, "raw H3 indexes collapse into one slot")
	assert.Greater(t, len(slots), len(keys)*9/10)
}

func TestNeighbors(t *testing.T) {
	r := newTestResolver(t)
	origin, err := r.Resolve(43.6532, -79.3832)
	require.NoError(t, err)

	keys, err := r.Neighbors(43.6532, -79.3832, 1)
	require.NoError(t, err)
	require.Len(t, keys, 7)
	assert.Equal(t, origin, keys[0])

	only, err := r.Neighbors(43.6532, -79.3832, 0)
	require.NoError(t, err)
	assert.Equal(t, []uint64{origin}, only)
}

func TestParseCell(t *testing.T) {
	r := newTestResolver(t)
	cell, err := r.Cell(43.6532, -79.3832)
	require.NoError(t, err)

	parsed, err := ParseCell(cell.String())
	require.NoError(t, err)
	assert.Equal(t, cell, parsed)

	_, err = ParseCell("not-hex")
	assert.ErrorIs(t, err, ErrInvalidCell)
	_, err = ParseCell("0")
	assert.ErrorIs(t, err, ErrInvalidCell)
}

func TestSlot(t *testing.T) {
	assert.Equal(t, 7, Slot(0xff, 8))
	assert.Equal(t, 0, Slot(0x100, 8))
	assert.Equal(t, 0, Slot(12345, 1))
}

func TestValidCoordinate(t *testing.T) {
	assert.True(t, ValidCoordinate(-90, -180))
	assert.True(t, ValidCoordinate(90, 180))
	assert.False(t, ValidCoordinate(math.Inf(1), 0))
}
