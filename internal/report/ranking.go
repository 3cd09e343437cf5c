package report

import (
	"slices"

	"ebudget/internal/core"
)

// DefaultTopN is the size of the top transactions list.
const DefaultTopN = 6

// TopN returns the n largest transactions by absolute amount. Equal
// amounts keep their input order. n <= 0 means DefaultTopN.
func TopN(txs []core.Transaction, n int) []core.Transaction {
	if n <= 0 {
		n = DefaultTopN
	}
	ranked := slices.Clone(txs)
	slices.SortStableFunc(ranked, func(a, b core.Transaction) int {
		return b.Amount.Abs().Cmp(a.Amount.Abs())
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
