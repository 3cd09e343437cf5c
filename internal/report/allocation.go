package report

import (
	"github.com/shopspring/decimal"

	"ebudget/internal/core"
)

// Uncategorized is the group name of transactions without a category.
const Uncategorized = "uncategorized"

type (
	// CategoryMeta supplies display data for category names. Both lookups
	// may miss.
	CategoryMeta interface {
		CategoryColor(name string) string
		CategoryNature(name string) core.Nature
	}

	// CategoryShare is one group of Allocate.
	CategoryShare struct {
		Name       string          `json:"name"`
		Income     decimal.Decimal `json:"income"`
		Expense    decimal.Decimal `json:"expense"`
		Net        decimal.Decimal `json:"net"`
		Color      string          `json:"color"`
		Type       core.Nature     `json:"type"`
		ChartValue decimal.Decimal `json:"chartValue"`
	}
)

// Allocate groups transactions by category name, in first-seen order.
//
// A group takes its category's nature when known. Otherwise it is expense
// when expense >= income, income otherwise. ChartValue is the income of
// income groups and the negated expense of expense groups.
func Allocate(txs []core.Transaction, meta CategoryMeta) []CategoryShare {
	index := make(map[string]int)
	var shares []CategoryShare
	for _, tx := range txs {
		name := tx.Category
		if name == "" {
			name = Uncategorized
		}
		i, ok := index[name]
		if !ok {
			i = len(shares)
			index[name] = i
			shares = append(shares, CategoryShare{Name: name})
		}
		if tx.IsIncome() {
			shares[i].Income = shares[i].Income.Add(tx.Amount)
		} else {
			shares[i].Expense = shares[i].Expense.Add(tx.Amount)
		}
	}

	for i := range shares {
		s := &shares[i]
		s.Net = s.Income.Sub(s.Expense)
		s.Color = core.FallbackColor
		s.Type = core.NatureUnknown
		if meta != nil && s.Name != Uncategorized {
			s.Color = meta.CategoryColor(s.Name)
			s.Type = meta.CategoryNature(s.Name)
		}
		if !s.Type.Valid() {
			s.Type = core.NatureIncome
			if s.Expense.GreaterThanOrEqual(s.Income) {
				s.Type = core.NatureExpense
			}
		}
		if s.Type == core.NatureIncome {
			s.ChartValue = s.Income
		} else {
			s.ChartValue = s.Expense.Neg()
		}
	}
	return shares
}
