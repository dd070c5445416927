package restapi

import (
	"time"
)

const staleIntervals = 10

// StaleDetector decides whether the last successful feed fetch is too old
// for the arena contents to be trusted.
type StaleDetector struct {
	threshold time.Duration
}

func NewStaleDetector() *StaleDetector {
	return &StaleDetector{
		threshold: 15 * time.Minute,
	}
}

func (d *StaleDetector) WithThreshold(threshold time.Duration) *StaleDetector {
	if threshold > 0 {
		d.threshold = threshold
	}
	return d
}

func (d *StaleDetector) Threshold() time.Duration {
	return d.threshold
}

// Check reports true when there was no success or it is older than the
// threshold.
func (d *StaleDetector) Check(lastSuccess time.Time, ok bool, now time.Time) bool {
	if !ok {
		return true
	}
	return d.Age(lastSuccess, now) > d.threshold
}

func (d *StaleDetector) Age(lastSuccess, now time.Time) time.Duration {
	return now.Sub(lastSuccess)
}
