package report

import (
	"encoding/json"
	"math"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Change is a period-over-period percentage. OK is false when there is no
// meaningful previous value to compare against.
type Change struct {
	Percent float64
	OK      bool
}

// NoData is the Change reported when the previous value is zero.
var NoData = Change{}

// PercentChange returns (current-previous)/previous*100. A zero previous
// yields NoData instead of an infinite or undefined ratio.
func PercentChange(current, previous decimal.Decimal) Change {
	if previous.IsZero() {
		return NoData
	}
	pct, _ := current.Sub(previous).Div(previous).Mul(hundred).Float64()
	return changeOf(pct)
}

// PercentChangeFloat is PercentChange for ratios already in float64.
func PercentChangeFloat(current, previous float64) Change {
	if previous == 0 || math.IsNaN(previous) || math.IsInf(previous, 0) {
		return NoData
	}
	return changeOf((current - previous) / previous * 100)
}

func changeOf(pct float64) Change {
	if math.IsNaN(pct) || math.IsInf(pct, 0) {
		return NoData
	}
	return Change{Percent: pct, OK: true}
}

// MarshalJSON encodes NoData as null.
func (c Change) MarshalJSON() ([]byte, error) {
	if !c.OK {
		return []byte("null"), nil
	}
	return json.Marshal(c.Percent)
}

// UnmarshalJSON reads what MarshalJSON writes.
func (c *Change) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*c = NoData
		return nil
	}
	var pct float64
	if err := json.Unmarshal(b, &pct); err != nil {
		return err
	}
	*c = changeOf(pct)
	return nil
}

// Trend is the direction shown next to a stat card.
type Trend string

const (
	TrendUp   Trend = "up"
	TrendDown Trend = "down"
)

// TrendOf returns TrendUp when current is at least previous. With
// lowerIsBetter the comparison is reversed, as for spending.
func TrendOf(current, previous decimal.Decimal, lowerIsBetter bool) Trend {
	better := current.GreaterThanOrEqual(previous)
	if lowerIsBetter {
		better = current.LessThanOrEqual(previous)
	}
	if better {
		return TrendUp
	}
	return TrendDown
}
