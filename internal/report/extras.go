package report

import (
	"slices"

	"github.com/shopspring/decimal"

	"ebudget/internal/core"
)

// DefaultStatus is the status of transactions that have none.
const DefaultStatus = "cleared"

type (
	// NetPoint is one month of NetSeries.
	NetPoint struct {
		Period
		Net decimal.Decimal `json:"net"`
	}

	// StatusGroup counts and sums the transactions of one status.
	StatusGroup struct {
		Status string          `json:"status"`
		Count  int             `json:"count"`
		Amount decimal.Decimal `json:"amount"`
	}

	// YearTotal is the income and expense of one calendar year.
	YearTotal struct {
		Year    int             `json:"year"`
		Income  decimal.Decimal `json:"income"`
		Expense decimal.Decimal `json:"expense"`
	}

	// CategoryTotal is the income and expense booked on one category.
	CategoryTotal struct {
		Name    string          `json:"name"`
		Count   int             `json:"count"`
		Income  decimal.Decimal `json:"income"`
		Expense decimal.Decimal `json:"expense"`
	}
)

// NetSeries returns the monthly net, ascending.
func NetSeries(txs []core.Transaction) []NetPoint {
	series := Aggregate(txs, Monthly)
	out := make([]NetPoint, 0, series.Len())
	for b := range series.All() {
		out = append(out, NetPoint{Period: b.Period, Net: b.Net})
	}
	return out
}

// StatusBreakdown groups transactions by status slug in first-seen order.
// Transactions without a status count as DefaultStatus.
func StatusBreakdown(txs []core.Transaction) []StatusGroup {
	index := make(map[string]int)
	var out []StatusGroup
	for _, tx := range txs {
		status := tx.Status
		if status == "" {
			status = DefaultStatus
		}
		i, ok := index[status]
		if !ok {
			i = len(out)
			index[status] = i
			out = append(out, StatusGroup{Status: status})
		}
		out[i].Count++
		out[i].Amount = out[i].Amount.Add(tx.Amount)
	}
	return out
}

// YearlyTotals sums income and expense per year, ascending. Transactions
// without a valid date are skipped.
func YearlyTotals(txs []core.Transaction) []YearTotal {
	index := make(map[int]int)
	var out []YearTotal
	for _, tx := range txs {
		t, ok := tx.ParsedDate()
		if !ok {
			continue
		}
		y := t.Year()
		i, ok := index[y]
		if !ok {
			i = len(out)
			index[y] = i
			out = append(out, YearTotal{Year: y})
		}
		if tx.IsIncome() {
			out[i].Income = out[i].Income.Add(tx.Amount)
		} else {
			out[i].Expense = out[i].Expense.Add(tx.Amount)
		}
	}
	slices.SortFunc(out, func(a, b YearTotal) int { return a.Year - b.Year })
	return out
}

// CategoryTotals sums transactions per category name in first-seen order.
// Uncategorized transactions are left out.
func CategoryTotals(txs []core.Transaction) []CategoryTotal {
	index := make(map[string]int)
	var out []CategoryTotal
	for _, tx := range txs {
		if !tx.HasCategory() {
			continue
		}
		i, ok := index[tx.Category]
		if !ok {
			i = len(out)
			index[tx.Category] = i
			out = append(out, CategoryTotal{Name: tx.Category})
		}
		out[i].Count++
		if tx.IsIncome() {
			out[i].Income = out[i].Income.Add(tx.Amount)
		} else {
			out[i].Expense = out[i].Expense.Add(tx.Amount)
		}
	}
	return out
}
