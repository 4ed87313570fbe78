package aggregates

// Budget is the element cap shared by every stage of one logical query.
// Timelines and exhibits each consume one unit; it never goes negative.
type Budget struct {
	remaining int
	consumed  int
	unlimited bool
}

// NewBudget creates a budget of max elements. max <= 0 means unbounded.
func NewBudget(max int) *Budget {
	if max <= 0 {
		return &Budget{unlimited: true}
	}
	return &Budget{remaining: max}
}

// Consume takes one unit. It returns false, without changing state, when
// the budget is exhausted.
func (b *Budget) Consume() bool {
	if b.unlimited {
		b.consumed++
		return true
	}
	if b.remaining == 0 {
		return false
	}
	b.remaining--
	b.consumed++
	return true
}

// Remaining is the number of units left. Unbounded budgets report 0;
// check Unlimited first.
func (b *Budget) Remaining() int {
	return b.remaining
}

// Limit is what a store call may fetch: Remaining for bounded budgets,
// 0 (no limit) for unbounded ones.
func (b *Budget) Limit() int {
	if b.unlimited {
		return 0
	}
	return b.remaining
}

// Consumed is the number of units taken so far.
func (b *Budget) Consumed() int {
	return b.consumed
}

// Unlimited reports whether the budget has no cap.
func (b *Budget) Unlimited() bool {
	return b.unlimited
}

// Exhausted reports whether no further rows may be accepted.
func (b *Budget) Exhausted() bool {
	return !b.unlimited && b.remaining == 0
}
