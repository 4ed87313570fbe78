package valueobjects

import "math"

const (
	// Bias shifts every year into the positive range used by the interval tree.
	// The earliest representable year (-13,700,000,000) becomes 1.
	Bias int64 = 13700000001

	// MinYear is the earliest year the encoder accepts without clamping.
	MinYear int64 = 1 - Bias

	// MaxYear is the latest year that still leaves the biased value signed-positive.
	MaxYear int64 = math.MaxInt64 - Bias
)

// ForkNode maps the closed year interval [fromYear, toYear] onto the fork node
// of an implicit binary interval tree: the end point with every bit below the
// highest bit in which (start-1) and end differ cleared.
//
// ForkNode is total. Years outside [MinYear, MaxYear] are clamped and a
// reversed pair is swapped, so the result is always defined.
func ForkNode(fromYear, toYear int64) uint64 {
	start, end := BiasedRange(fromYear, toYear)

	diff := (start - 1) ^ end
	diff |= diff >> 1
	diff |= diff >> 2
	diff |= diff >> 4
	diff |= diff >> 8
	diff |= diff >> 16
	diff |= diff >> 32

	return end &^ diff
}

// BiasedRange clamps and orders a year pair and returns its biased bounds.
func BiasedRange(fromYear, toYear int64) (uint64, uint64) {
	if fromYear > toYear {
		fromYear, toYear = toYear, fromYear
	}
	return BiasYear(fromYear), BiasYear(toYear)
}

// BiasYear clamps a year into [MinYear, MaxYear] and adds Bias.
func BiasYear(year int64) uint64 {
	return uint64(ClampYear(year) + Bias)
}

// ClampYear limits a year to the range the encoder can represent.
func ClampYear(year int64) int64 {
	switch {
	case year < MinYear:
		return MinYear
	case year > MaxYear:
		return MaxYear
	default:
		return year
	}
}
