package mutation

import (
	"strings"

	"github.com/shopspring/decimal"

	"ebudget/internal/core"
)

type (
	TransactionIntent struct {
		ID         string           `json:"id"`
		Title      string           `json:"title"`
		Amount     core.LooseNumber `json:"amount"`
		Date       string           `json:"date"`
		CategoryID string           `json:"categoryId"`
		Type       core.Ref         `json:"type"`
		Status     core.Ref         `json:"status"`
	}

	CategoryIntent struct {
		ID    string   `json:"id"`
		Name  string   `json:"name"`
		Type  core.Ref `json:"type"`
		Color string   `json:"color"`
	}

	GoalIntent struct {
		ID     string           `json:"id"`
		Title  string           `json:"title"`
		Target core.LooseNumber `json:"target"`
		Saved  core.LooseNumber `json:"saved"`
		Due    string           `json:"due"`
	}

	BudgetIntent struct {
		ID    string           `json:"id"`
		Title string           `json:"title"`
		Limit core.LooseNumber `json:"limit"`
		Spent core.LooseNumber `json:"spent"`
	}
)

// BuildTransaction validates a transaction form. The type must resolve and
// title and date must be present. Amount is coerced leniently and loses its
// sign; a status that does not resolve is dropped.
func BuildTransaction(in TransactionIntent, r Resolver) (Request[core.OperationPayload], error) {
	typeID, ok := in.Type.Resolve(r.TypeSlugs())
	if !ok {
		return Request[core.OperationPayload]{}, core.ErrTypeRequired
	}
	title := strings.TrimSpace(in.Title)
	date := strings.TrimSpace(in.Date)
	if title == "" || date == "" {
		return Request[core.OperationPayload]{}, core.ErrTitleAndDateMissing
	}

	p := core.OperationPayload{
		Name:       title,
		Money:      core.CoerceAmount(string(in.Amount)),
		Date:       date,
		CategoryID: optional(in.CategoryID),
		TypeID:     typeID,
	}
	if statusID, ok := in.Status.Resolve(r.StatusSlugs()); ok {
		p.StatusID = &statusID
	}
	return newRequest(in.ID, p), nil
}

// BuildCategory validates a category form.
func BuildCategory(in CategoryIntent, r Resolver) (Request[core.CategoryPayload], error) {
	typeID, ok := in.Type.Resolve(r.TypeSlugs())
	if !ok {
		return Request[core.CategoryPayload]{}, core.ErrTypeRequired
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Request[core.CategoryPayload]{}, core.ErrNameRequired
	}
	return newRequest(in.ID, core.CategoryPayload{
		Name:      name,
		TypeID:    typeID,
		ColorCode: optional(in.Color),
	}), nil
}

// BuildGoal validates a goal form. Target and saved are coerced leniently.
func BuildGoal(in GoalIntent) (Request[core.GoalPayload], error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return Request[core.GoalPayload]{}, core.ErrTitleRequired
	}
	return newRequest(in.ID, core.GoalPayload{
		Name:      title,
		FullMoney: core.CoerceAmount(string(in.Target)),
		Collected: core.CoerceAmount(string(in.Saved)),
		Deadline:  optional(in.Due),
	}), nil
}

// BuildBudget validates a budget form.
func BuildBudget(in BudgetIntent) (Request[core.BudgetPayload], error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return Request[core.BudgetPayload]{}, core.ErrTitleRequired
	}
	return newRequest(in.ID, core.BudgetPayload{
		Title: title,
		Limit: core.CoerceAmount(string(in.Limit)),
		Spent: core.CoerceAmount(string(in.Spent)),
	}), nil
}

// AdjustGoal adds delta to what has been saved for g. Savings never go
// below zero.
func AdjustGoal(g core.Goal, delta decimal.Decimal) GoalIntent {
	return GoalIntent{
		ID:     g.ID,
		Title:  g.Title,
		Target: core.NumberOf(g.Target),
		Saved:  core.NumberOf(decimal.Max(g.Saved.Add(delta), decimal.Zero)),
		Due:    g.Due,
	}
}

// AddBudgetSpending books amount on b. Spending never goes below zero.
func AddBudgetSpending(b core.Budget, amount decimal.Decimal) BudgetIntent {
	return BudgetIntent{
		ID:    b.ID,
		Title: b.Title,
		Limit: core.NumberOf(b.Limit),
		Spent: core.NumberOf(decimal.Max(b.Spent.Add(amount), decimal.Zero)),
	}
}
