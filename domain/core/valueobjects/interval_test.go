package valueobjects

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func year(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestNewInterval(t *testing.T) {
	i, err := NewInterval(year("1900"), year("2000.5"))
	require.NoError(t, err)
	assert.True(t, i.Span().Equal(year("100.5")))

	_, err = NewInterval(year("2000"), year("1900"))
	assert.Error(t, err)
}

func TestInterval_Overlaps(t *testing.T) {
	base := Interval{From: year("1900"), To: year("2000")}

	tests := []struct {
		name  string
		other Interval
		want  bool
	}{
		{"inside", Interval{From: year("1950"), To: year("1960")}, true},
		{"covering", Interval{From: year("1000"), To: year("3000")}, true},
		{"touching end", Interval{From: year("2000"), To: year("2100")}, true},
		{"touching start", Interval{From: year("1800"), To: year("1900")}, true},
		{"before", Interval{From: year("1800"), To: year("1899.99")}, false},
		{"after", Interval{From: year("2000.01"), To: year("2100")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, base.Overlaps(tt.other))
			assert.Equal(t, tt.want, tt.other.Overlaps(base))
		})
	}
}

func TestInterval_ContainsAndRange(t *testing.T) {
	i := Interval{From: year("-500"), To: year("500")}
	assert.True(t, i.Contains(year("0")))
	assert.False(t, i.Contains(year("500.1")))
	assert.True(t, i.InRange())
	assert.True(t, UnboundedInterval().InRange())

	outside := Interval{From: year("-13700000001"), To: year("0")}
	assert.False(t, outside.InRange())
}

func TestInterval_BiasedBounds(t *testing.T) {
	lower, upper := Interval{From: year("-0.5"), To: year("10.9")}.BiasedBounds()
	assert.Equal(t, uint64(Bias-1), lower)
	assert.Equal(t, uint64(Bias+10), upper)
	assert.Equal(t, "[-0.5, 10.9]", Interval{From: year("-0.5"), To: year("10.9")}.String())
}
