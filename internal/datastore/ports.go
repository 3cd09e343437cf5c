// Package datastore declares the boundary between the ledger service and
// the stores that persist user records.
//
// Stores speak in boundary rows (core.*Row) and write payloads
// (core.*Payload). Every user-owned call is scoped by the user id; stores
// never return another user's rows.
package datastore

import (
	"context"
	"errors"

	"ebudget/internal/core"
)

// ErrNotFound is returned when an update or delete targets a record the
// user does not own.
var ErrNotFound = errors.New("record not found")

// Ports for outbound adapters.
type (
	Reader interface {
		Types(ctx context.Context) ([]core.TypeRow, error)
		Statuses(ctx context.Context) ([]core.StatusRow, error)
		Operations(ctx context.Context, userID string) ([]core.OperationRow, error)
		Categories(ctx context.Context, userID string) ([]core.CategoryRow, error)
		Goals(ctx context.Context, userID string) ([]core.GoalRow, error)
	}

	OperationWriter interface {
		CreateOperation(ctx context.Context, userID string, p core.OperationPayload) (core.OperationRow, error)
		UpdateOperation(ctx context.Context, userID, id string, p core.OperationPayload) (core.OperationRow, error)
		DeleteOperation(ctx context.Context, userID, id string) error
	}

	CategoryWriter interface {
		CreateCategory(ctx context.Context, userID string, p core.CategoryPayload) (core.CategoryRow, error)
		UpdateCategory(ctx context.Context, userID, id string, p core.CategoryPayload) (core.CategoryRow, error)
		DeleteCategory(ctx context.Context, userID, id string) error
	}

	GoalWriter interface {
		CreateGoal(ctx context.Context, userID string, p core.GoalPayload) (core.GoalRow, error)
		UpdateGoal(ctx context.Context, userID, id string, p core.GoalPayload) (core.GoalRow, error)
		DeleteGoal(ctx context.Context, userID, id string) error
	}

	// BudgetStore is implemented only by stores that keep budgets.
	BudgetStore interface {
		Budgets(ctx context.Context, userID string) ([]core.BudgetRow, error)
		CreateBudget(ctx context.Context, userID string, p core.BudgetPayload) (core.BudgetRow, error)
		UpdateBudget(ctx context.Context, userID, id string, p core.BudgetPayload) (core.BudgetRow, error)
		DeleteBudget(ctx context.Context, userID, id string) error
	}

	// Store is a complete ledger store.
	Store interface {
		Reader
		OperationWriter
		CategoryWriter
		GoalWriter
	}
)

// Budgets returns s as a BudgetStore when it keeps budgets.
func Budgets(s Store) (BudgetStore, bool) {
	b, ok := s.(BudgetStore)
	return b, ok
}
