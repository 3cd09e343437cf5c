package projection

import (
	"encoding/json"
	"hash/fnv"
	"strconv"

	"ebudget/internal/core"
)

// RawSnapshot is everything loaded for one user, as stored.
type RawSnapshot struct {
	Types      []core.TypeRow
	Statuses   []core.StatusRow
	Categories []core.CategoryRow
	Operations []core.OperationRow
	Goals      []core.GoalRow
	Budgets    []core.BudgetRow
}

// Snapshot is the projected, read-only view of a RawSnapshot. Version
// changes whenever the raw content does.
type Snapshot struct {
	Version      string
	Types        []core.Type
	Statuses     []core.Status
	Categories   []core.Category
	Transactions []core.Transaction
	Goals        []core.Goal
	Budgets      []core.Budget
	Lookups      *Lookups
}

// Project normalizes the reference data and projects every entity once.
func Project(raw RawSnapshot) *Snapshot {
	types := core.NormalizeTypes(raw.Types)
	statuses := core.NormalizeStatuses(raw.Statuses)

	l := NewLookups(types, statuses, nil)
	categories := ProjectCategories(raw.Categories, l)
	l.indexCategories(categories)

	return &Snapshot{
		Version:      ContentVersion(raw),
		Types:        types,
		Statuses:     statuses,
		Categories:   categories,
		Transactions: ProjectTransactions(raw.Operations, l),
		Goals:        ProjectGoals(raw.Goals),
		Budgets:      ProjectBudgets(raw.Budgets),
		Lookups:      l,
	}
}

// ContentVersion hashes the raw content. Equal content always yields the
// same version.
func ContentVersion(raw RawSnapshot) string {
	h := fnv.New64a()
	// Encoding plain rows cannot fail.
	_ = json.NewEncoder(h).Encode(raw)
	return strconv.FormatUint(h.Sum64(), 16)
}

// ProjectCategories resolves each category's type. An unknown type leaves
// the category an expense one with an empty TypeKey.
func ProjectCategories(rows []core.CategoryRow, l *Lookups) []core.Category {
	out := make([]core.Category, 0, len(rows))
	for _, row := range rows {
		c := core.Category{
			ID:        row.ID,
			Name:      row.Name,
			TypeID:    row.TypeID,
			Type:      core.NatureExpense,
			Color:     row.ColorCode,
			CreatedAt: row.CreatedAt,
		}
		if t, ok := l.Type(row.TypeID); ok {
			c.TypeKey = t.Slug
			if t.Nature.Valid() {
				c.Type = t.Nature
			}
		}
		if c.Color == "" {
			c.Color = core.FallbackColor
		}
		out = append(out, c)
	}
	return out
}

// ProjectTransactions maps operation rows to transactions.
func ProjectTransactions(rows []core.OperationRow, l *Lookups) []core.Transaction {
	out := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		tx := core.Transaction{
			ID:         row.ID,
			Title:      row.Name,
			Amount:     row.Money.Decimal().Abs(),
			Date:       row.Date,
			CategoryID: row.CategoryID,
			TypeID:     row.TypeID,
			Type:       core.NatureExpense,
			StatusID:   row.StatusID,
			CreatedAt:  row.CreatedAt,
		}
		if t, ok := l.Type(row.TypeID); ok {
			tx.TypeKey = t.Slug
			if t.Nature.Valid() {
				tx.Type = t.Nature
			}
		}
		if c, ok := l.Category(row.CategoryID); ok {
			tx.Category = c.Name
		}
		if s, ok := l.Status(row.StatusID); ok {
			tx.Status = s.Slug
		}
		out = append(out, tx)
	}
	return out
}

// ProjectGoals maps goal rows to goals.
func ProjectGoals(rows []core.GoalRow) []core.Goal {
	out := make([]core.Goal, 0, len(rows))
	for _, row := range rows {
		out = append(out, core.Goal{
			ID:        row.ID,
			Title:     row.Name,
			Target:    row.FullMoney.Decimal(),
			Saved:     row.Collected.Decimal(),
			Due:       row.Deadline,
			CreatedAt: row.CreatedAt,
		})
	}
	return out
}

// ProjectBudgets maps budget rows to budgets.
func ProjectBudgets(rows []core.BudgetRow) []core.Budget {
	out := make([]core.Budget, 0, len(rows))
	for _, row := range rows {
		out = append(out, core.Budget{
			ID:    row.ID,
			Title: row.Title,
			Limit: row.Limit.Decimal(),
			Spent: row.Spent.Decimal(),
		})
	}
	return out
}

// ColorOf returns the display colour of a transaction's category.
func (s *Snapshot) ColorOf(tx core.Transaction) string {
	if !tx.HasCategory() {
		return core.FallbackColor
	}
	return s.Lookups.CategoryColor(tx.Category)
}

// CategoryInUse reports whether any transaction references the category.
func (s *Snapshot) CategoryInUse(id string) bool {
	for _, tx := range s.Transactions {
		if tx.CategoryID == id {
			return true
		}
	}
	return false
}
