// Package core provides the domain types and the pure helpers shared by
// every other package.
//
// This file contains the lenient numeric coercion applied to money fields
// coming from stores and forms.
package core

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Coerce converts s to a decimal. Empty, non-numeric and non-finite input
// yields zero instead of an error.
//
// Examples:
//
//	Coerce("12.34") -> 12.34
//	Coerce(" 7 ")   -> 7
//	Coerce("abc")   -> 0
//	Coerce("")      -> 0
func Coerce(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// CoerceAmount is Coerce without a sign: amounts carry direction through
// their type, never through their sign.
func CoerceAmount(s string) decimal.Decimal {
	return Coerce(s).Abs()
}

// LooseNumber is a numeric column as received from a store: a JSON number,
// a quoted number, null or garbage. It is coerced only when read.
type LooseNumber string

// NumberOf wraps a decimal as a LooseNumber.
func NumberOf(d decimal.Decimal) LooseNumber {
	return LooseNumber(d.String())
}

// Decimal returns the coerced value.
func (n LooseNumber) Decimal() decimal.Decimal {
	return Coerce(string(n))
}

func (n *LooseNumber) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	switch {
	case raw == "null":
		*n = ""
	case strings.HasPrefix(raw, `"`):
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = LooseNumber(s)
	default:
		*n = LooseNumber(raw)
	}
	return nil
}

func (n LooseNumber) MarshalJSON() ([]byte, error) {
	return []byte(n.Decimal().String()), nil
}

var hundred = decimal.NewFromInt(100)

// Progress returns part/whole as a percentage clamped to [0,100]. A zero or
// negative whole yields 0. The result is not rounded.
func Progress(part, whole decimal.Decimal) float64 {
	if !whole.IsPositive() {
		return 0
	}
	pct, _ := part.Div(whole).Mul(hundred).Float64()
	switch {
	case pct < 0:
		return 0
	case pct > 100:
		return 100
	}
	return pct
}
