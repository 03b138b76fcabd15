// Package ticks converts between media server ticks and seconds.
//
// The server counts time in ticks of 100ns: 10,000,000 ticks per second.
package ticks

import (
	"fmt"
	"math"
	"time"
)

// PerSecond is the number of server ticks in one second.
const PerSecond int64 = 10_000_000

// ToSeconds converts ticks to seconds.
func ToSeconds(t int64) float64 {
	return float64(t) / float64(PerSecond)
}

// FromSeconds converts seconds to ticks, flooring any sub-tick remainder.
func FromSeconds(s float64) int64 {
	return int64(math.Floor(s * float64(PerSecond)))
}

// ToDuration converts ticks to a time.Duration.
func ToDuration(t int64) time.Duration {
	return time.Duration(t) * 100 * time.Nanosecond
}

// FromDuration converts a time.Duration to ticks.
func FromDuration(d time.Duration) int64 {
	return int64(d / (100 * time.Nanosecond))
}

// Format renders seconds as m:ss, or h:mm:ss past the hour. Negative and NaN
// values render as 0:00.
func Format(seconds float64) string {
	if math.IsNaN(seconds) || seconds < 0 {
		seconds = 0
	}

	total := int64(seconds)
	h, m, s := total/3600, total%3600/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
