package core

import (
	"cmp"
	"slices"
	"strings"
)

// Slugify trims and lowercases name and collapses whitespace runs to "_".
func Slugify(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "_")
}

// NormalizeTypes derives a slug and a nature for every type row.
//
// Slugs containing "income" or "expense" get that nature. If either nature
// is still missing afterwards, unassigned rows are filled in ascending id
// order: first the missing income, then the missing expense, then expense
// for everything left. With at least two rows both natures end up present.
// The output keeps the input order.
func NormalizeTypes(rows []TypeRow) []Type {
	out := make([]Type, len(rows))
	var hasIncome, hasExpense bool
	for i, row := range rows {
		slug := row.Slug
		if slug == "" {
			slug = Slugify(row.Name)
		}
		t := Type{ID: row.ID, Name: row.Name, Slug: slug}
		switch {
		case strings.Contains(slug, "income"):
			t.Nature = NatureIncome
			hasIncome = true
		case strings.Contains(slug, "expense"):
			t.Nature = NatureExpense
			hasExpense = true
		}
		out[i] = t
	}
	if hasIncome && hasExpense {
		return out
	}

	order := make([]int, len(out))
	for i := range order {
		order[i] = i
	}
	// Slug and name break id ties so the result never depends on input order.
	slices.SortFunc(order, func(a, b int) int {
		return cmp.Or(
			cmp.Compare(out[a].ID, out[b].ID),
			strings.Compare(out[a].Slug, out[b].Slug),
			strings.Compare(out[a].Name, out[b].Name),
		)
	})
	for _, i := range order {
		if out[i].Nature != NatureUnknown {
			continue
		}
		switch {
		case !hasIncome:
			out[i].Nature = NatureIncome
			hasIncome = true
		case !hasExpense:
			out[i].Nature = NatureExpense
			hasExpense = true
		default:
			out[i].Nature = NatureExpense
		}
	}
	return out
}

// NormalizeStatuses derives a slug for every status row.
func NormalizeStatuses(rows []StatusRow) []Status {
	out := make([]Status, len(rows))
	for i, row := range rows {
		slug := row.Slug
		if slug == "" {
			slug = Slugify(row.Name)
		}
		out[i] = Status{ID: row.ID, Name: row.Name, Slug: slug}
	}
	return out
}
