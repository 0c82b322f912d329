package secio

import "time"

// fallbackSeed returns a time-derived seed for the last-resort weak RNG.
// Only reached if crypto/rand.Read fails, which practically never happens
// on any supported platform.
func fallbackSeed() uint64 {
	return uint64(time.Now().UnixNano())
}
