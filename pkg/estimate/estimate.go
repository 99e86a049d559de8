// Package estimate computes search difficulty and time estimates for
// progress reporting. Nothing here is used by the search loop itself.
package estimate

import (
	"math"
	"math/bits"
)

const (
	// hex digits per position when casing is ignored
	caseInsensitiveBase = 16
	// approximate effective symbols per position when checksum casing counts
	caseSensitiveBase = 22
)

// Difficulty returns the expected number of attempts to match pattern:
// 22^len when case-sensitive, 16^len otherwise. Saturates at MaxUint64.
func Difficulty(pattern string, caseSensitive bool) uint64 {
	base := uint64(caseInsensitiveBase)
	if caseSensitive {
		base = caseSensitiveBase
	}

	d := uint64(1)
	for i := 0; i < len(pattern); i++ {
		hi, lo := bits.Mul64(d, base)
		if hi != 0 {
			return math.MaxUint64
		}
		d = lo
	}
	return d
}

// EstimatedTotal returns the expected total search time in seconds at
// throughputPerSecond attempts per second. Zero throughput yields 0,
// meaning unknown.
func EstimatedTotal(throughputPerSecond, difficulty uint64) uint64 {
	if throughputPerSecond == 0 {
		return 0
	}
	return difficulty / throughputPerSecond
}

// TimeRemaining returns estimatedTotal - elapsed, or 0 once overdue.
func TimeRemaining(estimatedTotal, elapsed uint64) uint64 {
	if elapsed > estimatedTotal {
		return 0
	}
	return estimatedTotal - elapsed
}

// Probability returns the chance that at least one of attempts random
// candidates matched a pattern of the given difficulty.
func Probability(attempts, difficulty uint64) float64 {
	if difficulty <= 1 {
		if attempts == 0 {
			return 0
		}
		return 1
	}
	return -math.Expm1(-float64(attempts) / float64(difficulty))
}
