package report

import (
	"time"

	"github.com/shopspring/decimal"

	"ebudget/internal/core"
)

type (
	// DayCount is the busiest calendar day and how many transactions it has.
	DayCount struct {
		Day   string `json:"day"`
		Count int    `json:"count"`
	}

	// CategoryAmount is a category name with an amount.
	CategoryAmount struct {
		Name   string          `json:"name"`
		Amount decimal.Decimal `json:"amount"`
	}

	// Insights are the headline facts of a set of transactions. Nil fields
	// mean there was nothing to report.
	Insights struct {
		BiggestExpense *core.Transaction `json:"biggestExpense"`
		BiggestIncome  *core.Transaction `json:"biggestIncome"`
		BusiestDay     *DayCount         `json:"busiestDay"`
		TopCategory    *CategoryAmount   `json:"topCategory"`
	}
)

// Extract computes insights over txs and the allocation computed from the
// same transactions. Ties always go to the first occurrence.
func Extract(txs []core.Transaction, shares []CategoryShare) Insights {
	var out Insights
	for i := range txs {
		tx := txs[i]
		// Anything that is not income counts as expense, as in Aggregate.
		if tx.IsIncome() {
			if out.BiggestIncome == nil || tx.Amount.GreaterThan(out.BiggestIncome.Amount) {
				out.BiggestIncome = &tx
			}
		} else if out.BiggestExpense == nil || tx.Amount.GreaterThan(out.BiggestExpense.Amount) {
			out.BiggestExpense = &tx
		}
	}
	out.BusiestDay = busiestDay(txs)

	for _, s := range shares {
		if !s.Expense.IsPositive() {
			continue
		}
		if out.TopCategory == nil || s.Expense.GreaterThan(out.TopCategory.Amount) {
			out.TopCategory = &CategoryAmount{Name: s.Name, Amount: s.Expense}
		}
	}
	return out
}

func busiestDay(txs []core.Transaction) *DayCount {
	counts := make(map[time.Time]int)
	var order []time.Time
	for _, tx := range txs {
		t, ok := tx.ParsedDate()
		if !ok {
			continue
		}
		day := core.CalendarDay(t)
		if _, seen := counts[day]; !seen {
			order = append(order, day)
		}
		counts[day]++
	}
	var best *DayCount
	for _, day := range order {
		if best == nil || counts[day] > best.Count {
			best = &DayCount{Day: core.FormatDate(day), Count: counts[day]}
		}
	}
	return best
}
