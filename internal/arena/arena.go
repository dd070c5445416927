// Package arena stores recent speed samples for spatial cells in a fixed,
// cache-line aligned array of buckets. Each bucket carries its own lock, so
// writers to different cells never contend with each other.
package arena

import (
	"errors"
	"fmt"
	"unsafe"
)

const (
	// CacheLineSize is the alignment of the bucket array base.
	CacheLineSize = 64

	// BucketSize is the exact size of a Bucket, a multiple of CacheLineSize
	// so no two buckets share a cache line.
	BucketSize = 512

	// DefaultCapacity covers roughly 82k resolution-9 H3 cells with headroom.
	DefaultCapacity = 1 << 17
)

var (
	ErrCapacityNotPowerOfTwo = errors.New("arena capacity must be a positive power of two")
	ErrWindowLength          = fmt.Errorf("window length must be between 1 and %d", WindowSlots)
)

// Bucket holds the time window of the cell that most recently wrote to it.
// A zero key marks a bucket that has never been written.
type Bucket struct {
	key    uint64
	window TimeWindow
	lock   spinLock
	_      [BucketSize - 8 - unsafe.Sizeof(TimeWindow{}) - unsafe.Sizeof(spinLock{})]byte
}

// Arena is a fixed array of buckets addressed by key & (capacity-1).
// It is created once and shared by pointer; it never grows.
type Arena struct {
	buckets   []Bucket
	mask      uint64
	windowLen uint8
}

// New allocates an arena of capacity zeroed buckets whose windows keep the
// most recent windowLength samples.
func New(capacity, windowLength int) (*Arena, error) {
	if capacity <= 0 || capacity&(capacity-1) != 0 {
		return nil, fmt.Errorf("%w: got %d", ErrCapacityNotPowerOfTwo, capacity)
	}
	if windowLength < 1 || windowLength > WindowSlots {
		return nil, fmt.Errorf("%w: got %d", ErrWindowLength, windowLength)
	}

	return &Arena{
		buckets:   allocBuckets(capacity),
		mask:      uint64(capacity - 1),
		windowLen: uint8(windowLength),
	}, nil
}

// allocBuckets carves n buckets out of a byte slab starting on a cache line
// boundary. Bucket holds no pointers, so backing it with []byte is safe for
// the garbage collector; the slice keeps the slab alive.
func allocBuckets(n int) []Bucket {
	slab := make([]byte, n*BucketSize+CacheLineSize)
	base := uintptr(unsafe.Pointer(&slab[0]))
	off := alignOffset(base, CacheLineSize) - base
	return unsafe.Slice((*Bucket)(unsafe.Pointer(&slab[off])), n)
}

func alignOffset(offset, alignment uintptr) uintptr {
	return (offset + alignment - 1) &^ (alignment - 1)
}

// Capacity returns the number of buckets.
func (a *Arena) Capacity() int { return len(a.buckets) }

// WindowLength returns the number of samples each window retains.
func (a *Arena) WindowLength() int { return int(a.windowLen) }

// Index maps a spatial key to its bucket slot.
func (a *Arena) Index(key uint64) int {
	return int(key & a.mask)
}

// Update records one speed sample for key. If the bucket currently belongs
// to a different key, that key's history is discarded and the bucket is
// taken over. Key 0 is reserved for empty buckets and is ignored.
func (a *Arena) Update(key uint64, speed float32, ts uint32) {
	if key == 0 {
		return
	}
	b := &a.buckets[key&a.mask]

	b.lock.Lock()
	if b.key != key {
		b.window.reset()
		b.key = key
	}
	b.window.push(ts, speed, a.windowLen)
	b.lock.Unlock()
}

// WindowSnapshot is a copy of one bucket taken under its lock.
type WindowSnapshot struct {
	Key     uint64   `json:"key"`
	Index   int      `json:"index"`
	Head    int      `json:"head"`
	Samples []Sample `json:"samples"` // oldest first
}

// Snapshot copies the window owned by key. It reports false when the bucket
// is empty or has been taken over by a colliding key.
func (a *Arena) Snapshot(key uint64) (WindowSnapshot, bool) {
	if key == 0 {
		return WindowSnapshot{}, false
	}
	snap, ok := a.SnapshotIndex(a.Index(key))
	if !ok || snap.Key != key {
		return WindowSnapshot{}, false
	}
	return snap, true
}

// SnapshotIndex copies the window stored in slot i regardless of owner.
func (a *Arena) SnapshotIndex(i int) (WindowSnapshot, bool) {
	if i < 0 || i >= len(a.buckets) {
		return WindowSnapshot{}, false
	}
	b := &a.buckets[i]
	samples := make([]Sample, 0, a.windowLen)

	b.lock.Lock()
	key := b.key
	head := int(b.window.Head)
	samples = b.window.samples(samples, a.windowLen)
	b.lock.Unlock()

	if key == 0 {
		return WindowSnapshot{}, false
	}
	return WindowSnapshot{Key: key, Index: i, Head: head, Samples: samples}, true
}

// Occupied counts buckets that have been written at least once. Each bucket
// is inspected under its own lock; the total is not an atomic snapshot.
func (a *Arena) Occupied() int {
	n := 0
	for i := range a.buckets {
		b := &a.buckets[i]
		b.lock.Lock()
		if b.key != 0 {
			n++
		}
		b.lock.Unlock()
	}
	return n
}
