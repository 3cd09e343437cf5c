package query

import "ebudget/internal/core"

// Table filters, sorts and pages transactions in one go.
func Table(txs []core.Transaction, c Criteria, s SortState, page int) Page[core.Transaction] {
	return Paginate(Sort(Apply(txs, c), s), page, PageSize)
}
