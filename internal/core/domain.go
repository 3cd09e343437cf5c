package core

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	NatureIncome  Nature = "income"
	NatureExpense Nature = "expense"
	NatureUnknown Nature = ""
)

// FallbackColor is the display colour of anything without a category colour.
const FallbackColor = "#94a3b8"

type (
	// Nature is the income/expense polarity of a type or category.
	Nature string

	Type struct {
		ID     int64  `json:"id"`
		Name   string `json:"name"`
		Slug   string `json:"slug"`
		Nature Nature `json:"nature"`
	}

	Status struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
		Slug string `json:"slug"`
	}

	Category struct {
		ID        string `json:"id"`
		Name      string `json:"name"`
		TypeID    int64  `json:"typeId"`
		Type      Nature `json:"type"`
		TypeKey   string `json:"typeKey"`
		Color     string `json:"color"`
		CreatedAt string `json:"createdAt,omitempty"`
	}

	// Transaction is the view entity of an operation. Amount is never
	// negative; direction is carried by Type.
	Transaction struct {
		ID         string          `json:"id"`
		Title      string          `json:"title"`
		Amount     decimal.Decimal `json:"amount"`
		Date       string          `json:"date"`
		CategoryID string          `json:"categoryId,omitempty"`
		Category   string          `json:"category,omitempty"`
		TypeID     int64           `json:"typeId"`
		Type       Nature          `json:"type"`
		TypeKey    string          `json:"typeKey"`
		StatusID   int64           `json:"statusId,omitempty"`
		Status     string          `json:"status,omitempty"`
		CreatedAt  string          `json:"createdAt,omitempty"`
	}

	Goal struct {
		ID        string          `json:"id"`
		Title     string          `json:"title"`
		Target    decimal.Decimal `json:"target"`
		Saved     decimal.Decimal `json:"saved"`
		Due       string          `json:"due,omitempty"`
		CreatedAt string          `json:"createdAt,omitempty"`
	}

	// Budget only exists in stores that support it.
	Budget struct {
		ID    string          `json:"id"`
		Title string          `json:"title"`
		Limit decimal.Decimal `json:"limit"`
		Spent decimal.Decimal `json:"spent"`
	}
)

// Valid reports whether n is one of the two known natures.
func (n Nature) Valid() bool {
	return n == NatureIncome || n == NatureExpense
}

// IsIncome reports whether the transaction counts towards income. Anything
// else, including an unknown nature, counts as expense.
func (t Transaction) IsIncome() bool {
	return t.Type == NatureIncome
}

// ParsedDate parses the transaction date.
func (t Transaction) ParsedDate() (time.Time, bool) {
	return ParseDate(t.Date)
}

// HasCategory reports whether the category reference resolved.
func (t Transaction) HasCategory() bool {
	return t.Category != ""
}

// Progress returns saved/target as a percentage clamped to [0,100].
func (g Goal) Progress() float64 {
	return Progress(g.Saved, g.Target)
}

// Remaining returns how much is left to reach the target, never negative.
func (g Goal) Remaining() decimal.Decimal {
	left := g.Target.Sub(g.Saved)
	if left.IsNegative() {
		return decimal.Zero
	}
	return left
}

// Progress returns spent/limit as a percentage clamped to [0,100].
func (b Budget) Progress() float64 {
	return Progress(b.Spent, b.Limit)
}

// Exceeded reports whether spending went over the limit.
func (b Budget) Exceeded() bool {
	return b.Limit.IsPositive() && b.Spent.GreaterThan(b.Limit)
}
