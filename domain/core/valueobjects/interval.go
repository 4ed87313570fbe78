package valueobjects

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

var (
	minYearDecimal = decimal.NewFromInt(MinYear)
	maxYearDecimal = decimal.NewFromInt(MaxYear)
)

// Interval is a closed range of decimal years, From <= To.
type Interval struct {
	From decimal.Decimal `json:"from"`
	To   decimal.Decimal `json:"to"`
}

// NewInterval builds an interval, returning an error for reversed bounds.
func NewInterval(from, to decimal.Decimal) (Interval, error) {
	if from.GreaterThan(to) {
		return Interval{}, fmt.Errorf("interval start %s is after end %s", from, to)
	}
	return Interval{From: from, To: to}, nil
}

// UnboundedInterval covers every representable year.
func UnboundedInterval() Interval {
	return Interval{From: minYearDecimal, To: maxYearDecimal}
}

// Span is To - From.
func (i Interval) Span() decimal.Decimal {
	return i.To.Sub(i.From)
}

// Overlaps reports whether the two closed intervals share at least one point.
func (i Interval) Overlaps(other Interval) bool {
	return i.From.LessThanOrEqual(other.To) && i.To.GreaterThanOrEqual(other.From)
}

// Contains reports whether year lies inside the interval.
func (i Interval) Contains(year decimal.Decimal) bool {
	return i.From.LessThanOrEqual(year) && i.To.GreaterThanOrEqual(year)
}

// InRange reports whether both bounds lie within [MinYear, MaxYear].
func (i Interval) InRange() bool {
	return i.From.GreaterThanOrEqual(minYearDecimal) && i.To.LessThanOrEqual(maxYearDecimal)
}

// BiasedBounds floors both ends to whole years, clamps and biases them.
// Flooring is monotone, so a row overlapping the decimal interval also
// overlaps the integer one.
func (i Interval) BiasedBounds() (uint64, uint64) {
	return BiasedRange(FloorYear(i.From), FloorYear(i.To))
}

// ForkNode encodes the interval.
func (i Interval) ForkNode() uint64 {
	return IntervalForkNode(i.From, i.To)
}

// IntervalForkNode floors decimal years and encodes them with ForkNode.
func IntervalForkNode(from, to decimal.Decimal) uint64 {
	return ForkNode(FloorYear(from), FloorYear(to))
}

// FloorYear truncates a decimal year toward negative infinity, saturating at
// the int64 limits before clamping happens in the encoder.
func FloorYear(year decimal.Decimal) int64 {
	f := year.Floor()
	if f.LessThan(minYearDecimal) {
		return math.MinInt64
	}
	if f.GreaterThan(maxYearDecimal) {
		return math.MaxInt64
	}
	return f.IntPart()
}

func (i Interval) String() string {
	return fmt.Sprintf("[%s, %s]", i.From, i.To)
}
