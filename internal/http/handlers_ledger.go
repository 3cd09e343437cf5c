package http

import (
	"net/http"

	"ebudget/internal/core"
	"ebudget/internal/log"
	"ebudget/internal/middleware/auth"
	"ebudget/internal/mutation"
	"ebudget/internal/query"
	"ebudget/internal/services"
)

// Entity path segments.
const (
	pathTransactions = "transactions"
	pathCategories   = "categories"
	pathGoals        = "goals"
	pathBudgets      = "budgets"
)

func (s *Server) registerLedgerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/types", s.handleTypes)
	mux.HandleFunc("GET /api/statuses", s.handleStatuses)
	mux.HandleFunc("GET /api/categories", s.handleCategories)
	mux.HandleFunc("GET /api/goals", s.handleGoals)
	mux.HandleFunc("GET /api/budgets", s.handleBudgets)
	mux.HandleFunc("GET /api/transactions", s.handleTransactions)

	mux.HandleFunc("POST /api/transactions", s.handleSaveTransaction)
	mux.HandleFunc("POST /api/transactions/{id}", s.handleSaveTransaction)
	mux.HandleFunc("POST /api/categories", s.handleSaveCategory)
	mux.HandleFunc("POST /api/categories/{id}", s.handleSaveCategory)
	mux.HandleFunc("POST /api/goals", s.handleSaveGoal)
	mux.HandleFunc("POST /api/goals/{id}", s.handleSaveGoal)
	mux.HandleFunc("POST /api/budgets", s.handleSaveBudget)
	mux.HandleFunc("POST /api/budgets/{id}", s.handleSaveBudget)

	mux.HandleFunc("POST /api/goals/{id}/adjust", s.handleAdjustGoal)
	mux.HandleFunc("POST /api/budgets/{id}/spend", s.handleBudgetSpending)

	mux.HandleFunc("DELETE /api/{entity}/{id}", s.handleDelete)
}

func (s *Server) handleTypes(w http.ResponseWriter, r *http.Request) {
	if snap, ok := s.snapshot(w, r); ok {
		NewJSONResponse().Data(snap.Types).Write(w)
	}
}

func (s *Server) handleStatuses(w http.ResponseWriter, r *http.Request) {
	if snap, ok := s.snapshot(w, r); ok {
		NewJSONResponse().Data(snap.Statuses).Write(w)
	}
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	if snap, ok := s.snapshot(w, r); ok {
		NewJSONResponse().Data(snap.Categories).Write(w)
	}
}

func (s *Server) handleGoals(w http.ResponseWriter, r *http.Request) {
	if snap, ok := s.snapshot(w, r); ok {
		NewJSONResponse().Data(snap.Goals).Write(w)
	}
}

func (s *Server) handleBudgets(w http.ResponseWriter, r *http.Request) {
	if !s.ledger.SupportsBudgets() {
		s.fail(w, r, log.OpRead, services.ErrBudgetsUnsupported)
		return
	}
	if snap, ok := s.snapshot(w, r); ok {
		NewJSONResponse().Data(snap.Budgets).Write(w)
	}
}

// TransactionTable is the response of GET /api/transactions.
type TransactionTable struct {
	query.Page[core.Transaction]
	Sort    query.SortState `json:"sort"`
	Columns []string        `json:"columns"`
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	values := r.URL.Query()
	sort := ParseSort(values)
	page := query.Table(snap.Transactions, ParseCriteria(values), sort, ParsePage(values))
	NewJSONResponse().Data(TransactionTable{Page: page, Sort: sort, Columns: query.Columns()}).Write(w)
}

// saved writes the result of a save: 201 for creations, 200 for updates.
func saved[T any](s *Server, w http.ResponseWriter, r *http.Request, id string, v T, err error) {
	op, status := log.OpUpdate, http.StatusOK
	if id == "" {
		op, status = log.OpCreate, http.StatusCreated
	}
	if err != nil {
		s.fail(w, r, op, err)
		return
	}
	NewJSONResponse().Status(status).Data(v).Write(w)
}

func (s *Server) handleSaveTransaction(w http.ResponseWriter, r *http.Request) {
	var in mutation.TransactionIntent
	if err := DecodeJSON(w, r, &in); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	in.ID = withID(in.ID, r.PathValue("id"))
	tx, err := s.ledger.SaveTransaction(r.Context(), auth.UserID(r.Context()), in)
	saved(s, w, r, in.ID, tx, err)
}

func (s *Server) handleSaveCategory(w http.ResponseWriter, r *http.Request) {
	var in mutation.CategoryIntent
	if err := DecodeJSON(w, r, &in); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	in.ID = withID(in.ID, r.PathValue("id"))
	c, err := s.ledger.SaveCategory(r.Context(), auth.UserID(r.Context()), in)
	saved(s, w, r, in.ID, c, err)
}

func (s *Server) handleSaveGoal(w http.ResponseWriter, r *http.Request) {
	var in mutation.GoalIntent
	if err := DecodeJSON(w, r, &in); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	in.ID = withID(in.ID, r.PathValue("id"))
	g, err := s.ledger.SaveGoal(r.Context(), auth.UserID(r.Context()), in)
	saved(s, w, r, in.ID, g, err)
}

func (s *Server) handleSaveBudget(w http.ResponseWriter, r *http.Request) {
	var in mutation.BudgetIntent
	if err := DecodeJSON(w, r, &in); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	in.ID = withID(in.ID, r.PathValue("id"))
	b, err := s.ledger.SaveBudget(r.Context(), auth.UserID(r.Context()), in)
	saved(s, w, r, in.ID, b, err)
}

func (s *Server) handleAdjustGoal(w http.ResponseWriter, r *http.Request) {
	var body AmountBody
	if err := DecodeJSON(w, r, &body); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	g, err := s.ledger.AdjustGoal(r.Context(), auth.UserID(r.Context()), r.PathValue("id"), body.Decimal())
	if err != nil {
		s.fail(w, r, log.OpAdjust, err)
		return
	}
	NewJSONResponse().Data(g).Write(w)
}

func (s *Server) handleBudgetSpending(w http.ResponseWriter, r *http.Request) {
	var body AmountBody
	if err := DecodeJSON(w, r, &body); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	b, err := s.ledger.AddBudgetSpending(r.Context(), auth.UserID(r.Context()), r.PathValue("id"), body.Decimal())
	if err != nil {
		s.fail(w, r, log.OpAdjust, err)
		return
	}
	NewJSONResponse().Data(b).Write(w)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, user, id := r.Context(), auth.UserID(r.Context()), r.PathValue("id")

	var err error
	switch r.PathValue("entity") {
	case pathTransactions:
		err = s.ledger.DeleteTransaction(ctx, user, id)
	case pathCategories:
		err = s.ledger.DeleteCategory(ctx, user, id)
	case pathGoals:
		err = s.ledger.DeleteGoal(ctx, user, id)
	case pathBudgets:
		err = s.ledger.DeleteBudget(ctx, user, id)
	default:
		NotFoundError("unknown entity").Write(w)
		return
	}
	if err != nil {
		s.fail(w, r, log.OpDelete, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}
