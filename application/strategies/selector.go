package strategies

// FlagSource reports whether the interval tree query is enabled.
type FlagSource interface {
	UseRITree() bool
}

// Selector picks a strategy per call so a runtime flag flip takes effect
// on the next query.
type Selector struct {
	naive   Strategy
	bitmask Strategy
	flags   FlagSource
}

// NewSelector creates a strategy selector
func NewSelector(naive *NaiveStrategy, bitmask *BitmaskStrategy, flags FlagSource) *Selector {
	return &Selector{naive: naive, bitmask: bitmask, flags: flags}
}

// Select returns the strategy the flag currently asks for.
func (s *Selector) Select() Strategy {
	if s.flags != nil && s.flags.UseRITree() {
		return s.bitmask
	}
	return s.naive
}

// StaticFlag is a FlagSource with a fixed value.
type StaticFlag bool

func (f StaticFlag) UseRITree() bool { return bool(f) }
