// Package memory is an in-process ledger store. Ids are generated client
// side and budgets are supported. Reference types and statuses are seeded
// from text files in a data directory.
package memory

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"ebudget/internal/core"
	"ebudget/internal/datastore"
)

const (
	TypesSeedFile    = "seed_types.txt"
	StatusesSeedFile = "seed_statuses.txt"
)

var (
	defaultTypes    = []string{"Income", "Expense"}
	defaultStatuses = []string{"Pending", "Cleared"}
)

type ledger struct {
	operations []core.OperationRow
	categories []core.CategoryRow
	goals      []core.GoalRow
	budgets    []core.BudgetRow
}

type Store struct {
	mu       sync.RWMutex
	types    []core.TypeRow
	statuses []core.StatusRow
	users    map[string]*ledger
	newID    func() string
	now      func() time.Time
}

var (
	_ datastore.Store       = (*Store)(nil)
	_ datastore.BudgetStore = (*Store)(nil)
)

// New returns a store with the given type and status names. Ids are
// assigned from 1 in order.
func New(types, statuses []string) *Store {
	s := &Store{
		users: make(map[string]*ledger),
		newID: uuid.NewString,
		now:   time.Now,
	}
	for i, name := range dedupe(types) {
		s.types = append(s.types, core.TypeRow{ID: int64(i + 1), Name: name, Slug: core.Slugify(name)})
	}
	for i, name := range dedupe(statuses) {
		s.statuses = append(s.statuses, core.StatusRow{ID: int64(i + 1), Name: name, Slug: core.Slugify(name)})
	}
	return s
}

// NewFromFiles seeds types and statuses from base. Missing or empty files
// fall back to Income/Expense and Pending/Cleared.
func NewFromFiles(base string) *Store {
	types := readLines(filepath.Join(base, TypesSeedFile))
	statuses := readLines(filepath.Join(base, StatusesSeedFile))
	if len(types) == 0 {
		types = defaultTypes
	}
	if len(statuses) == 0 {
		statuses = defaultStatuses
	}
	return New(types, statuses)
}

func (s *Store) Types(_ context.Context) ([]core.TypeRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.types), nil
}

func (s *Store) Statuses(_ context.Context) ([]core.StatusRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.statuses), nil
}

func (s *Store) Operations(_ context.Context, userID string) ([]core.OperationRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if l, ok := s.users[userID]; ok {
		return slices.Clone(l.operations), nil
	}
	return nil, nil
}

func (s *Store) Categories(_ context.Context, userID string) ([]core.CategoryRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if l, ok := s.users[userID]; ok {
		return slices.Clone(l.categories), nil
	}
	return nil, nil
}

func (s *Store) Goals(_ context.Context, userID string) ([]core.GoalRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if l, ok := s.users[userID]; ok {
		return slices.Clone(l.goals), nil
	}
	return nil, nil
}

func (s *Store) Budgets(_ context.Context, userID string) ([]core.BudgetRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if l, ok := s.users[userID]; ok {
		return slices.Clone(l.budgets), nil
	}
	return nil, nil
}

// ledger returns the user's ledger, creating it. Callers hold the write lock.
func (s *Store) ledger(userID string) *ledger {
	l, ok := s.users[userID]
	if !ok {
		l = &ledger{}
		s.users[userID] = l
	}
	return l
}

func (s *Store) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}

func operationRow(id, userID, createdAt string, p core.OperationPayload) core.OperationRow {
	row := core.OperationRow{
		ID:        id,
		UserID:    userID,
		Name:      p.Name,
		Money:     core.NumberOf(p.Money),
		Date:      p.Date,
		TypeID:    p.TypeID,
		CreatedAt: createdAt,
	}
	if p.CategoryID != nil {
		row.CategoryID = *p.CategoryID
	}
	if p.StatusID != nil {
		row.StatusID = *p.StatusID
	}
	return row
}

func (s *Store) CreateOperation(_ context.Context, userID string, p core.OperationPayload) (core.OperationRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.ledger(userID)
	row := operationRow(s.newID(), userID, s.timestamp(), p)
	l.operations = append(l.operations, row)
	return row, nil
}

func (s *Store) UpdateOperation(_ context.Context, userID, id string, p core.OperationPayload) (core.OperationRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.ledger(userID)
	i := slices.IndexFunc(l.operations, func(r core.OperationRow) bool { return r.ID == id })
	if i < 0 {
		return core.OperationRow{}, datastore.ErrNotFound
	}
	l.operations[i] = operationRow(id, userID, l.operations[i].CreatedAt, p)
	return l.operations[i], nil
}

func (s *Store) DeleteOperation(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.ledger(userID)
	return remove(&l.operations, func(r core.OperationRow) bool { return r.ID == id })
}

func categoryRow(id, userID, createdAt string, p core.CategoryPayload) core.CategoryRow {
	row := core.CategoryRow{ID: id, UserID: userID, Name: p.Name, TypeID: p.TypeID, CreatedAt: createdAt}
	if p.ColorCode != nil {
		row.ColorCode = *p.ColorCode
	}
	return row
}

func (s *Store) CreateCategory(_ context.Context, userID string, p core.CategoryPayload) (core.CategoryRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.ledger(userID)
	row := categoryRow(s.newID(), userID, s.timestamp(), p)
	l.categories = append(l.categories, row)
	return row, nil
}

func (s *Store) UpdateCategory(_ context.Context, userID, id string, p core.CategoryPayload) (core.CategoryRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.ledger(userID)
	i := slices.IndexFunc(l.categories, func(r core.CategoryRow) bool { return r.ID == id })
	if i < 0 {
		return core.CategoryRow{}, datastore.ErrNotFound
	}
	l.categories[i] = categoryRow(id, userID, l.categories[i].CreatedAt, p)
	return l.categories[i], nil
}

func (s *Store) DeleteCategory(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.ledger(userID)
	return remove(&l.categories, func(r core.CategoryRow) bool { return r.ID == id })
}

func goalRow(id, userID, createdAt string, p core.GoalPayload) core.GoalRow {
	row := core.GoalRow{
		ID:        id,
		UserID:    userID,
		Name:      p.Name,
		FullMoney: core.NumberOf(p.FullMoney),
		Collected: core.NumberOf(p.Collected),
		CreatedAt: createdAt,
	}
	if p.Deadline != nil {
		row.Deadline = *p.Deadline
	}
	return row
}

func (s *Store) CreateGoal(_ context.Context, userID string, p core.GoalPayload) (core.GoalRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.ledger(userID)
	row := goalRow(s.newID(), userID, s.timestamp(), p)
	l.goals = append(l.goals, row)
	return row, nil
}

func (s *Store) UpdateGoal(_ context.Context, userID, id string, p core.GoalPayload) (core.GoalRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.ledger(userID)
	i := slices.IndexFunc(l.goals, func(r core.GoalRow) bool { return r.ID == id })
	if i < 0 {
		return core.GoalRow{}, datastore.ErrNotFound
	}
	l.goals[i] = goalRow(id, userID, l.goals[i].CreatedAt, p)
	return l.goals[i], nil
}

func (s *Store) DeleteGoal(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.ledger(userID)
	return remove(&l.goals, func(r core.GoalRow) bool { return r.ID == id })
}

func budgetRow(id, userID string, p core.BudgetPayload) core.BudgetRow {
	return core.BudgetRow{
		ID:     id,
		UserID: userID,
		Title:  p.Title,
		Limit:  core.NumberOf(p.Limit),
		Spent:  core.NumberOf(p.Spent),
	}
}

func (s *Store) CreateBudget(_ context.Context, userID string, p core.BudgetPayload) (core.BudgetRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.ledger(userID)
	row := budgetRow(s.newID(), userID, p)
	l.budgets = append(l.budgets, row)
	return row, nil
}

func (s *Store) UpdateBudget(_ context.Context, userID, id string, p core.BudgetPayload) (core.BudgetRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.ledger(userID)
	i := slices.IndexFunc(l.budgets, func(r core.BudgetRow) bool { return r.ID == id })
	if i < 0 {
		return core.BudgetRow{}, datastore.ErrNotFound
	}
	l.budgets[i] = budgetRow(id, userID, p)
	return l.budgets[i], nil
}

func (s *Store) DeleteBudget(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.ledger(userID)
	return remove(&l.budgets, func(r core.BudgetRow) bool { return r.ID == id })
}

func remove[T any](rows *[]T, match func(T) bool) error {
	i := slices.IndexFunc(*rows, match)
	if i < 0 {
		return datastore.ErrNotFound
	}
	*rows = slices.Delete(*rows, i, i+1)
	return nil
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return dedupe(out)
}

// dedupe drops blanks and repeated names, keeping the first occurrence.
func dedupe(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
