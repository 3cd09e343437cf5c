// Package query filters, sorts and pages transaction lists for tables.
package query

import (
	"strings"
	"time"

	"ebudget/internal/core"
)

// All matches any value of a Type or Category criterion.
const All = "all"

// Criteria selects transactions. Every non-empty field must match.
type Criteria struct {
	Query     string
	Type      string
	Category  string
	StartDate string
	EndDate   string
}

// Apply keeps the transactions matching c, in input order.
//
// Query is a case-insensitive substring of the title, Type is a type slug
// and Category a category name; "all" and "" match anything. The date
// range is inclusive by calendar day and an empty bound is open. A
// transaction with an invalid date only passes when both bounds are empty.
// Unparsable bounds are treated as empty.
func Apply(txs []core.Transaction, c Criteria) []core.Transaction {
	m := c.matcher()
	out := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if m.match(tx) {
			out = append(out, tx)
		}
	}
	return out
}

type matcher struct {
	query      string
	typeKey    string
	category   string
	start, end time.Time
	hasStart   bool
	hasEnd     bool
}

func (c Criteria) matcher() matcher {
	m := matcher{
		query:    strings.ToLower(c.Query),
		typeKey:  wildcard(c.Type),
		category: wildcard(c.Category),
	}
	if t, ok := core.ParseDate(c.StartDate); ok {
		m.start, m.hasStart = core.CalendarDay(t), true
	}
	if t, ok := core.ParseDate(c.EndDate); ok {
		m.end, m.hasEnd = core.CalendarDay(t), true
	}
	return m
}

func wildcard(v string) string {
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, All) {
		return ""
	}
	return v
}

func (m matcher) match(tx core.Transaction) bool {
	if m.query != "" && !strings.Contains(strings.ToLower(tx.Title), m.query) {
		return false
	}
	if m.typeKey != "" && tx.TypeKey != m.typeKey {
		return false
	}
	if !m.inRange(tx) {
		return false
	}
	if m.category != "" && tx.Category != m.category {
		return false
	}
	return true
}

func (m matcher) inRange(tx core.Transaction) bool {
	if !m.hasStart && !m.hasEnd {
		return true
	}
	t, ok := tx.ParsedDate()
	if !ok {
		return false
	}
	day := core.CalendarDay(t)
	if m.hasStart && day.Before(m.start) {
		return false
	}
	if m.hasEnd && day.After(m.end) {
		return false
	}
	return true
}

// IsEmpty reports whether c matches everything.
func (c Criteria) IsEmpty() bool {
	return c.Query == "" && wildcard(c.Type) == "" && wildcard(c.Category) == "" &&
		strings.TrimSpace(c.StartDate) == "" && strings.TrimSpace(c.EndDate) == ""
}
