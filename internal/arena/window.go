package arena

// WindowSlots is the physical number of samples a bucket can hold. The
// configured window length may be shorter but never longer.
const WindowSlots = 60

// TimeWindow is a fixed circular buffer of (timestamp, speed) samples.
// Timestamps and speeds live in parallel arrays so the window is 484 bytes.
type TimeWindow struct {
	Timestamps [WindowSlots]uint32
	Speeds     [WindowSlots]float32
	Head       uint8 // next slot to overwrite
	Filled     uint8 // samples written since the last reset, capped at the window length
	_          [2]byte
}

// push overwrites the oldest sample. length must be in [1, WindowSlots].
func (w *TimeWindow) push(ts uint32, speed float32, length uint8) {
	w.Timestamps[w.Head] = ts
	w.Speeds[w.Head] = speed
	w.Head++
	if w.Head == length {
		w.Head = 0
	}
	if w.Filled < length {
		w.Filled++
	}
}

func (w *TimeWindow) reset() {
	*w = TimeWindow{}
}

// Sample is one (timestamp, speed) observation copied out of a window.
type Sample struct {
	Timestamp uint32  `json:"timestamp"`
	Speed     float32 `json:"speed"`
}

// samples appends the window contents to dst, oldest first.
func (w *TimeWindow) samples(dst []Sample, length uint8) []Sample {
	start := 0
	if w.Filled == length {
		start = int(w.Head)
	}
	for i := 0; i < int(w.Filled); i++ {
		j := (start + i) % int(length)
		dst = append(dst, Sample{Timestamp: w.Timestamps[j], Speed: w.Speeds[j]})
	}
	return dst
}
