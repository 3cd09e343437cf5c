package query

import (
	"cmp"
	"slices"
	"strings"

	"ebudget/internal/core"
)

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Sortable columns.
const (
	ByTitle    = "title"
	ByDate     = "date"
	ByAmount   = "amount"
	ByCategory = "category"
	ByType     = "type"
	ByStatus   = "status"
)

type (
	Direction string

	// SortState is the current column and direction of a table.
	SortState struct {
		Key       string    `json:"key"`
		Direction Direction `json:"direction"`
	}
)

// DefaultSort lists the newest transactions first.
var DefaultSort = SortState{Key: ByDate, Direction: Desc}

// Columns returns the sortable column names.
func Columns() []string {
	return []string{ByTitle, ByDate, ByAmount, ByCategory, ByType, ByStatus}
}

// ParseDirection returns Asc for "asc" and Desc for anything else.
func ParseDirection(s string) Direction {
	if strings.EqualFold(s, string(Asc)) {
		return Asc
	}
	return Desc
}

// Request returns the state after the user picks column key: the same
// column flips direction, a new column starts descending.
func (s SortState) Request(key string) SortState {
	if key == s.Key {
		if s.Direction == Asc {
			return SortState{Key: key, Direction: Desc}
		}
		return SortState{Key: key, Direction: Asc}
	}
	return SortState{Key: key, Direction: Desc}
}

// Sort returns a sorted copy of txs. The sort is stable. Amounts compare as
// numbers and dates as timestamps, with invalid dates before valid ones.
// Other columns compare as lowercased strings; unknown columns keep the
// input order.
func Sort(txs []core.Transaction, s SortState) []core.Transaction {
	out := slices.Clone(txs)
	compare := comparator(s.Key)
	if compare == nil {
		return out
	}
	slices.SortStableFunc(out, func(a, b core.Transaction) int {
		c := compare(a, b)
		if s.Direction == Asc {
			return c
		}
		return -c
	})
	return out
}

func comparator(key string) func(a, b core.Transaction) int {
	switch key {
	case ByAmount:
		return func(a, b core.Transaction) int { return a.Amount.Cmp(b.Amount) }
	case ByDate:
		return compareDates
	case ByTitle:
		return byString(func(t core.Transaction) string { return t.Title })
	case ByCategory:
		return byString(func(t core.Transaction) string { return t.Category })
	case ByType:
		return byString(func(t core.Transaction) string { return t.TypeKey })
	case ByStatus:
		return byString(func(t core.Transaction) string { return t.Status })
	}
	return nil
}

func compareDates(a, b core.Transaction) int {
	ta, okA := a.ParsedDate()
	tb, okB := b.ParsedDate()
	switch {
	case !okA && !okB:
		return 0
	case !okA:
		return -1
	case !okB:
		return 1
	}
	return ta.Compare(tb)
}

func byString(field func(core.Transaction) string) func(a, b core.Transaction) int {
	return func(a, b core.Transaction) int {
		return cmp.Compare(strings.ToLower(field(a)), strings.ToLower(field(b)))
	}
}
