package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"ebudget/internal/cache"
	"ebudget/internal/core"
	"ebudget/internal/datastore"
	"ebudget/internal/log"
	"ebudget/internal/mutation"
	"ebudget/internal/projection"
)

// Entities named in change events.
const (
	EntityTransaction = "transaction"
	EntityCategory    = "category"
	EntityGoal        = "goal"
	EntityBudget      = "budget"
)

// OpDelete completes mutation.OpCreate and mutation.OpUpdate in change
// events.
const OpDelete = "delete"

const (
	DefaultCacheSize = 128
	DefaultCacheTTL  = 5 * time.Minute
)

var (
	ErrNoUser             = errors.New("user id required")
	ErrCategoryInUse      = errors.New("category is referenced by transactions")
	ErrBudgetsUnsupported = errors.New("budgets are not supported by this store")
)

// ChangePublisher announces writes to a user's ledger.
type ChangePublisher interface {
	PublishLedgerChange(ctx context.Context, userID, entity, op, id string) error
}

// LedgerService orchestrates reads and writes of one user's ledger across
// the store, the snapshot cache and the change publisher.
type LedgerService struct {
	store     datastore.Store
	budgets   datastore.BudgetStore
	publisher ChangePublisher
	snapshots *cache.LRU[*projection.Snapshot]
	logger    *log.Logger
	events    *log.StructuredLogger

	// generations counts the writes of each user. A load only caches its
	// snapshot when no write landed while it ran.
	mu          sync.Mutex
	generations map[string]uint64
}

type Option func(*LedgerService)

// WithPublisher sets the change publisher. Without one, writes are not
// announced.
func WithPublisher(p ChangePublisher) Option {
	return func(s *LedgerService) { s.publisher = p }
}

// WithSnapshotCache replaces the default snapshot cache.
func WithSnapshotCache(c *cache.LRU[*projection.Snapshot]) Option {
	return func(s *LedgerService) { s.snapshots = c }
}

func WithLogger(l *log.Logger) Option {
	return func(s *LedgerService) { s.logger = l }
}

func NewLedgerService(store datastore.Store, opts ...Option) *LedgerService {
	s := &LedgerService{store: store, generations: make(map[string]uint64)}
	s.budgets, _ = datastore.Budgets(store)
	for _, opt := range opts {
		opt(s)
	}
	if s.snapshots == nil {
		s.snapshots = cache.NewLRU[*projection.Snapshot](DefaultCacheSize, DefaultCacheTTL)
	}
	if s.logger == nil {
		s.logger = log.New(log.DefaultConfig())
	}
	s.logger = s.logger.WithComponent(log.ComponentLedger)
	s.events = log.NewStructuredLogger(s.logger)
	return s
}

// SupportsBudgets reports whether the store keeps budgets.
func (s *LedgerService) SupportsBudgets() bool {
	return s.budgets != nil
}

// SnapshotCache exposes the cache so it can be registered with a
// cache.Manager.
func (s *LedgerService) SnapshotCache() *cache.LRU[*projection.Snapshot] {
	return s.snapshots
}

// Snapshot returns the projected ledger of userID. Reference data is
// loaded first, then the user's records, each group in parallel.
func (s *LedgerService) Snapshot(ctx context.Context, userID string) (*projection.Snapshot, error) {
	userID, err := userKey(userID)
	if err != nil {
		return nil, err
	}
	if snap, ok := s.snapshots.Get(userID); ok {
		s.logger.DebugContext(ctx, "Snapshot served from cache", log.FieldUserID, userID, log.FieldCacheHit, true)
		return snap, nil
	}

	gen := s.generation(userID)
	var raw projection.RawSnapshot

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		raw.Types, err = s.store.Types(gctx)
		return wrap("load types", err)
	})
	g.Go(func() (err error) {
		raw.Statuses, err = s.store.Statuses(gctx)
		return wrap("load statuses", err)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	g, gctx = errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		raw.Categories, err = s.store.Categories(gctx, userID)
		return wrap("load categories", err)
	})
	g.Go(func() (err error) {
		raw.Operations, err = s.store.Operations(gctx, userID)
		return wrap("load operations", err)
	})
	g.Go(func() (err error) {
		raw.Goals, err = s.store.Goals(gctx, userID)
		return wrap("load goals", err)
	})
	if s.budgets != nil {
		g.Go(func() (err error) {
			raw.Budgets, err = s.budgets.Budgets(gctx, userID)
			return wrap("load budgets", err)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap := projection.Project(raw)
	cached := s.keep(userID, gen, snap)
	s.logger.DebugContext(ctx, "Snapshot loaded",
		log.FieldUserID, userID,
		log.FieldVersion, snap.Version,
		log.FieldCount, len(snap.Transactions),
		"cached", cached)
	return snap, nil
}

// userKey is the canonical form of a user id, used for the store, the cache
// and change events alike.
func userKey(userID string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", ErrNoUser
	}
	return userID, nil
}

func (s *LedgerService) generation(userID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generations[userID]
}

// keep caches snap unless userID was written to after gen was read.
func (s *LedgerService) keep(userID string, gen uint64, snap *projection.Snapshot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generations[userID] != gen {
		return false
	}
	s.snapshots.Set(userID, snap)
	return true
}

func wrap(what string, err error) error {
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	return nil
}

// Invalidate drops the cached snapshot of userID. Loads already running
// for that user will not cache their result.
func (s *LedgerService) Invalidate(userID string) {
	userID, err := userKey(userID)
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generations[userID]++
	s.snapshots.Delete(userID)
}

// SaveTransaction validates in and creates or updates the operation.
func (s *LedgerService) SaveTransaction(ctx context.Context, userID string, in mutation.TransactionIntent) (core.Transaction, error) {
	userID, err := userKey(userID)
	if err != nil {
		return core.Transaction{}, err
	}
	snap, err := s.Snapshot(ctx, userID)
	if err != nil {
		return core.Transaction{}, err
	}
	req, err := mutation.BuildTransaction(in, snap.Lookups)
	if err != nil {
		return core.Transaction{}, err
	}

	var row core.OperationRow
	if req.IsCreate() {
		row, err = s.store.CreateOperation(ctx, userID, req.Payload)
	} else {
		row, err = s.store.UpdateOperation(ctx, userID, req.ID, req.Payload)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("%s operation: %w", req.Op, err)
	}

	s.changed(ctx, userID, EntityTransaction, string(req.Op), row.ID)
	return projection.ProjectTransactions([]core.OperationRow{row}, snap.Lookups)[0], nil
}

func (s *LedgerService) DeleteTransaction(ctx context.Context, userID, id string) error {
	userID, err := userKey(userID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteOperation(ctx, userID, id); err != nil {
		return fmt.Errorf("delete operation: %w", err)
	}
	s.changed(ctx, userID, EntityTransaction, OpDelete, id)
	return nil
}

// SaveCategory validates in and creates or updates the category.
func (s *LedgerService) SaveCategory(ctx context.Context, userID string, in mutation.CategoryIntent) (core.Category, error) {
	userID, err := userKey(userID)
	if err != nil {
		return core.Category{}, err
	}
	snap, err := s.Snapshot(ctx, userID)
	if err != nil {
		return core.Category{}, err
	}
	req, err := mutation.BuildCategory(in, snap.Lookups)
	if err != nil {
		return core.Category{}, err
	}

	var row core.CategoryRow
	if req.IsCreate() {
		row, err = s.store.CreateCategory(ctx, userID, req.Payload)
	} else {
		row, err = s.store.UpdateCategory(ctx, userID, req.ID, req.Payload)
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("%s category: %w", req.Op, err)
	}

	s.changed(ctx, userID, EntityCategory, string(req.Op), row.ID)
	return projection.ProjectCategories([]core.CategoryRow{row}, snap.Lookups)[0], nil
}

// DeleteCategory removes a category no transaction refers to.
func (s *LedgerService) DeleteCategory(ctx context.Context, userID, id string) error {
	userID, err := userKey(userID)
	if err != nil {
		return err
	}
	snap, err := s.Snapshot(ctx, userID)
	if err != nil {
		return err
	}
	if snap.CategoryInUse(id) {
		return ErrCategoryInUse
	}
	if err := s.store.DeleteCategory(ctx, userID, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	s.changed(ctx, userID, EntityCategory, OpDelete, id)
	return nil
}

// SaveGoal validates in and creates or updates the goal.
func (s *LedgerService) SaveGoal(ctx context.Context, userID string, in mutation.GoalIntent) (core.Goal, error) {
	userID, err := userKey(userID)
	if err != nil {
		return core.Goal{}, err
	}
	req, err := mutation.BuildGoal(in)
	if err != nil {
		return core.Goal{}, err
	}

	var row core.GoalRow
	if req.IsCreate() {
		row, err = s.store.CreateGoal(ctx, userID, req.Payload)
	} else {
		row, err = s.store.UpdateGoal(ctx, userID, req.ID, req.Payload)
	}
	if err != nil {
		return core.Goal{}, fmt.Errorf("%s goal: %w", req.Op, err)
	}

	s.changed(ctx, userID, EntityGoal, string(req.Op), row.ID)
	return projection.ProjectGoals([]core.GoalRow{row})[0], nil
}

func (s *LedgerService) DeleteGoal(ctx context.Context, userID, id string) error {
	userID, err := userKey(userID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteGoal(ctx, userID, id); err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	s.changed(ctx, userID, EntityGoal, OpDelete, id)
	return nil
}

// AdjustGoal adds delta to the savings of goal id. A negative delta
// withdraws; savings stop at zero.
func (s *LedgerService) AdjustGoal(ctx context.Context, userID, id string, delta decimal.Decimal) (core.Goal, error) {
	userID, err := userKey(userID)
	if err != nil {
		return core.Goal{}, err
	}
	snap, err := s.Snapshot(ctx, userID)
	if err != nil {
		return core.Goal{}, err
	}
	for _, g := range snap.Goals {
		if g.ID == id {
			return s.SaveGoal(ctx, userID, mutation.AdjustGoal(g, delta))
		}
	}
	return core.Goal{}, fmt.Errorf("adjust goal %s: %w", id, datastore.ErrNotFound)
}

// SaveBudget validates in and creates or updates the budget.
func (s *LedgerService) SaveBudget(ctx context.Context, userID string, in mutation.BudgetIntent) (core.Budget, error) {
	userID, err := userKey(userID)
	if err != nil {
		return core.Budget{}, err
	}
	if s.budgets == nil {
		return core.Budget{}, ErrBudgetsUnsupported
	}
	req, err := mutation.BuildBudget(in)
	if err != nil {
		return core.Budget{}, err
	}

	var row core.BudgetRow
	if req.IsCreate() {
		row, err = s.budgets.CreateBudget(ctx, userID, req.Payload)
	} else {
		row, err = s.budgets.UpdateBudget(ctx, userID, req.ID, req.Payload)
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("%s budget: %w", req.Op, err)
	}

	s.changed(ctx, userID, EntityBudget, string(req.Op), row.ID)
	return projection.ProjectBudgets([]core.BudgetRow{row})[0], nil
}

func (s *LedgerService) DeleteBudget(ctx context.Context, userID, id string) error {
	userID, err := userKey(userID)
	if err != nil {
		return err
	}
	if s.budgets == nil {
		return ErrBudgetsUnsupported
	}
	if err := s.budgets.DeleteBudget(ctx, userID, id); err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	s.changed(ctx, userID, EntityBudget, OpDelete, id)
	return nil
}

// AddBudgetSpending books amount on budget id.
func (s *LedgerService) AddBudgetSpending(ctx context.Context, userID, id string, amount decimal.Decimal) (core.Budget, error) {
	userID, err := userKey(userID)
	if err != nil {
		return core.Budget{}, err
	}
	if s.budgets == nil {
		return core.Budget{}, ErrBudgetsUnsupported
	}
	snap, err := s.Snapshot(ctx, userID)
	if err != nil {
		return core.Budget{}, err
	}
	for _, b := range snap.Budgets {
		if b.ID == id {
			return s.SaveBudget(ctx, userID, mutation.AddBudgetSpending(b, amount))
		}
	}
	return core.Budget{}, fmt.Errorf("budget %s: %w", id, datastore.ErrNotFound)
}

// changed runs after every successful write. Publishing is best effort:
// the write already happened, so a failure is only logged.
func (s *LedgerService) changed(ctx context.Context, userID, entity, op, id string) {
	s.Invalidate(userID)
	s.events.LogLedgerChange(ctx, userID, entity, op, id)

	if s.publisher == nil {
		s.logger.DebugContext(ctx, "Change publisher not configured, skipping event")
		return
	}
	if err := s.publisher.PublishLedgerChange(ctx, userID, entity, op, id); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish ledger change",
			log.FieldUserID, userID,
			log.FieldEntity, entity,
			log.FieldEntityID, id,
			log.FieldError, err)
	}
}

// Close releases the store and the publisher when they hold resources.
func (s *LedgerService) Close() error {
	var errs []error

	if c, ok := s.store.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("store: %w", err))
		}
	}
	if c, ok := s.publisher.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %w", errors.Join(errs...))
	}
	return nil
}
