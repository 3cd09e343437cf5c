// Package report computes the aggregated view models shown on dashboards:
// time series, totals, category allocation, rankings and insights.
//
// Every function is a pure function of the transactions it is given. Sums
// are exact decimals and are never rounded here; ratios are float64 and are
// rounded only when formatted for display.
package report

import (
	"fmt"
	"iter"
	"slices"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"ebudget/internal/core"
)

const (
	Daily     Granularity = "daily"
	Weekly    Granularity = "weekly"
	Monthly   Granularity = "monthly"
	Quarterly Granularity = "quarterly"
	Yearly    Granularity = "yearly"
)

type (
	// Granularity is the width of a time bucket.
	Granularity string

	// Period identifies the bucket a date falls into. SortIndex orders
	// periods of the same granularity chronologically.
	Period struct {
		Key       string `json:"key"`
		Label     string `json:"label"`
		SortIndex int    `json:"sortIndex"`
	}

	// Bucket holds the sums of one period. Net is always Income-Expense.
	Bucket struct {
		Period
		Income  decimal.Decimal `json:"income"`
		Expense decimal.Decimal `json:"expense"`
		Net     decimal.Decimal `json:"net"`
	}

	// Series is the ordered result of Aggregate.
	Series struct {
		Granularity Granularity `json:"granularity"`
		Buckets     []Bucket    `json:"buckets"`
	}

	// Stats are plain totals over a set of transactions.
	Stats struct {
		Income  decimal.Decimal `json:"income"`
		Expense decimal.Decimal `json:"expense"`
		Net     decimal.Decimal `json:"net"`
		Count   int             `json:"count"`
	}
)

// Granularities lists the supported granularities from finest to coarsest.
func Granularities() []Granularity {
	return []Granularity{Daily, Weekly, Monthly, Quarterly, Yearly}
}

// ParseGranularity returns the granularity named s, or Monthly.
func ParseGranularity(s string) Granularity {
	g := Granularity(s)
	if slices.Contains(Granularities(), g) {
		return g
	}
	return Monthly
}

// WeekOfYear numbers weeks from 1 starting on the Sunday on or before
// January 1st.
func WeekOfYear(t time.Time) int {
	jan1 := time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
	past := t.YearDay() - 1 + int(jan1.Weekday())
	return (past + 7) / 7
}

// PeriodOf returns the period of t at granularity g. Unknown granularities
// are treated as Monthly.
func PeriodOf(t time.Time, g Granularity) Period {
	y, m, d := t.Date()
	switch g {
	case Daily:
		return Period{
			Key:       fmt.Sprintf("%04d-%02d-%02d", y, m, d),
			Label:     t.Format("02 Jan"),
			SortIndex: y*10000 + int(m)*100 + d,
		}
	case Weekly:
		w := WeekOfYear(t)
		return Period{
			Key:       fmt.Sprintf("%04d-W%02d", y, w),
			Label:     fmt.Sprintf("W%d %d", w, y),
			SortIndex: y*100 + w,
		}
	case Quarterly:
		q := (int(m)-1)/3 + 1
		return Period{
			Key:       fmt.Sprintf("%04d-Q%d", y, q),
			Label:     fmt.Sprintf("Q%d %d", q, y),
			SortIndex: y*10 + q,
		}
	case Yearly:
		return Period{
			Key:       fmt.Sprintf("%04d", y),
			Label:     fmt.Sprintf("%d", y),
			SortIndex: y,
		}
	}
	return Period{
		Key:       fmt.Sprintf("%04d-%02d", y, m),
		Label:     t.Format("Jan 2006"),
		SortIndex: y*100 + int(m),
	}
}

// Year returns the calendar year of the period. Weeks belong to the year
// of the date that opened them.
func (p Period) Year() int {
	y, _ := strconv.Atoi(p.Key[:min(4, len(p.Key))])
	return y
}

func (b *Bucket) add(tx core.Transaction) {
	if tx.IsIncome() {
		b.Income = b.Income.Add(tx.Amount)
	} else {
		b.Expense = b.Expense.Add(tx.Amount)
	}
	b.Net = b.Income.Sub(b.Expense)
}

// Aggregate groups transactions into one bucket per period present in the
// input, ascending by SortIndex. Transactions without a valid date are
// skipped.
func Aggregate(txs []core.Transaction, g Granularity) Series {
	g = ParseGranularity(string(g))
	index := make(map[string]int)
	var buckets []Bucket
	for _, tx := range txs {
		t, ok := tx.ParsedDate()
		if !ok {
			continue
		}
		p := PeriodOf(t, g)
		i, ok := index[p.Key]
		if !ok {
			i = len(buckets)
			index[p.Key] = i
			buckets = append(buckets, Bucket{Period: p})
		}
		buckets[i].add(tx)
	}
	slices.SortStableFunc(buckets, func(a, b Bucket) int {
		return a.SortIndex - b.SortIndex
	})
	return Series{Granularity: g, Buckets: buckets}
}

// All yields the buckets in order. It can be ranged over any number of
// times.
func (s Series) All() iter.Seq[Bucket] {
	return func(yield func(Bucket) bool) {
		for _, b := range s.Buckets {
			if !yield(b) {
				return
			}
		}
	}
}

// ByYear yields the buckets of each calendar year as its own series,
// oldest year first.
func (s Series) ByYear() iter.Seq2[int, Series] {
	return func(yield func(int, Series) bool) {
		start := 0
		for i := 1; i <= len(s.Buckets); i++ {
			if i < len(s.Buckets) && s.Buckets[i].Year() == s.Buckets[start].Year() {
				continue
			}
			part := Series{Granularity: s.Granularity, Buckets: s.Buckets[start:i]}
			if !yield(s.Buckets[start].Year(), part) {
				return
			}
			start = i
		}
	}
}

// Len returns the number of buckets.
func (s Series) Len() int {
	return len(s.Buckets)
}

// Last returns the latest n buckets, or all of them when there are fewer.
func (s Series) Last(n int) Series {
	if n < 0 || n >= len(s.Buckets) {
		return s
	}
	return Series{Granularity: s.Granularity, Buckets: s.Buckets[len(s.Buckets)-n:]}
}

// Totals sums income and expense over all transactions, dated or not.
func Totals(txs []core.Transaction) Stats {
	var s Stats
	for _, tx := range txs {
		if tx.IsIncome() {
			s.Income = s.Income.Add(tx.Amount)
		} else {
			s.Expense = s.Expense.Add(tx.Amount)
		}
		s.Count++
	}
	s.Net = s.Income.Sub(s.Expense)
	return s
}

// Dated keeps the transactions whose date parses, in order.
func Dated(txs []core.Transaction) []core.Transaction {
	out := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if _, ok := tx.ParsedDate(); ok {
			out = append(out, tx)
		}
	}
	return out
}
