// Package storage is the relational ledger store. Ids are generated by the
// database and every user row is scoped by user_id. It runs on SQLite or
// MySQL; the schema is migrated on open.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	gomysql "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"ebudget/internal/core"
	"ebudget/internal/datastore"
)

const (
	DialectSQLite Dialect = "sqlite"
	DialectMySQL  Dialect = "mysql"
)

type Dialect string

func (d Dialect) driverName() string {
	return string(d)
}

type Repository struct {
	db      *sql.DB
	dialect Dialect
}

var _ datastore.Store = (*Repository)(nil)

// NewSQLiteRepository opens (creating if needed) the SQLite database at
// dbPath and migrates it.
func NewSQLiteRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	return open(DialectSQLite, dbPath)
}

// NewMySQLRepository opens the MySQL database at dsn and migrates it.
func NewMySQLRepository(dsn string) (*Repository, error) {
	cfg, err := gomysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse mysql dsn: %w", err)
	}
	// Migration files hold several statements each.
	cfg.MultiStatements = true
	return open(DialectMySQL, cfg.FormatDSN())
}

func open(dialect Dialect, dsn string) (*Repository, error) {
	db, err := sql.Open(dialect.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialect, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dialect, dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db, dialect: dialect}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Dialect returns the database flavour in use.
func (r *Repository) Dialect() Dialect {
	return r.dialect
}

// Ping checks the connection.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *Repository) Types(ctx context.Context) ([]core.TypeRow, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name FROM `type` ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query types: %w", err)
	}
	defer rows.Close()

	var out []core.TypeRow
	for rows.Next() {
		var row core.TypeRow
		if err := rows.Scan(&row.ID, &row.Name); err != nil {
			return nil, fmt.Errorf("scan type: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *Repository) Statuses(ctx context.Context) ([]core.StatusRow, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name FROM `status` ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query statuses: %w", err)
	}
	defer rows.Close()

	var out []core.StatusRow
	for rows.Next() {
		var row core.StatusRow
		if err := rows.Scan(&row.ID, &row.Name); err != nil {
			return nil, fmt.Errorf("scan status: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

const operationColumns = "id, user_id, name, money, date, category_id, type_id, status_id, created_at"

func scanOperation(s scanner) (core.OperationRow, error) {
	var (
		row      core.OperationRow
		id       int64
		money    sql.NullString
		category sql.NullInt64
		status   sql.NullInt64
	)
	if err := s.Scan(&id, &row.UserID, &row.Name, &money, &row.Date, &category, &row.TypeID, &status, &row.CreatedAt); err != nil {
		return core.OperationRow{}, err
	}
	row.ID = formatID(id)
	row.Money = core.LooseNumber(money.String)
	if category.Valid {
		row.CategoryID = formatID(category.Int64)
	}
	row.StatusID = status.Int64
	return row, nil
}

func (r *Repository) Operations(ctx context.Context, userID string) ([]core.OperationRow, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+operationColumns+" FROM operations WHERE user_id = ? ORDER BY date DESC, created_at DESC, id DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("query operations: %w", err)
	}
	defer rows.Close()

	var out []core.OperationRow
	for rows.Next() {
		row, err := scanOperation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan operation: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *Repository) operation(ctx context.Context, userID string, id int64) (core.OperationRow, error) {
	row, err := scanOperation(r.db.QueryRowContext(ctx,
		"SELECT "+operationColumns+" FROM operations WHERE user_id = ? AND id = ?", userID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.OperationRow{}, datastore.ErrNotFound
	}
	if err != nil {
		return core.OperationRow{}, fmt.Errorf("get operation %d: %w", id, err)
	}
	return row, nil
}

func (r *Repository) CreateOperation(ctx context.Context, userID string, p core.OperationPayload) (core.OperationRow, error) {
	categoryID, err := nullableID(p.CategoryID)
	if err != nil {
		return core.OperationRow{}, err
	}
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO operations (user_id, name, money, date, category_id, type_id, status_id) VALUES (?, ?, ?, ?, ?, ?, ?)",
		userID, p.Name, p.Money.String(), p.Date, categoryID, p.TypeID, nullableInt(p.StatusID))
	if err != nil {
		return core.OperationRow{}, fmt.Errorf("create operation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.OperationRow{}, fmt.Errorf("create operation: %w", err)
	}

	slog.DebugContext(ctx, "Operation saved", "id", id, "user_id", userID, "dialect", r.dialect)
	return r.operation(ctx, userID, id)
}

func (r *Repository) UpdateOperation(ctx context.Context, userID, id string, p core.OperationPayload) (core.OperationRow, error) {
	opID, err := parseID(id)
	if err != nil {
		return core.OperationRow{}, err
	}
	categoryID, err := nullableID(p.CategoryID)
	if err != nil {
		return core.OperationRow{}, err
	}
	res, err := r.db.ExecContext(ctx,
		"UPDATE operations SET name = ?, money = ?, date = ?, category_id = ?, type_id = ?, status_id = ? WHERE user_id = ? AND id = ?",
		p.Name, p.Money.String(), p.Date, categoryID, p.TypeID, nullableInt(p.StatusID), userID, opID)
	if err != nil {
		return core.OperationRow{}, fmt.Errorf("update operation %s: %w", id, err)
	}
	if err := r.requireAffected(ctx, res, "operations", userID, opID); err != nil {
		return core.OperationRow{}, err
	}
	return r.operation(ctx, userID, opID)
}

func (r *Repository) DeleteOperation(ctx context.Context, userID, id string) error {
	return r.deleteRow(ctx, "operations", userID, id)
}

const categoryColumns = "id, user_id, name, type_id, color_code, created_at"

func scanCategory(s scanner) (core.CategoryRow, error) {
	var (
		row   core.CategoryRow
		id    int64
		color sql.NullString
	)
	if err := s.Scan(&id, &row.UserID, &row.Name, &row.TypeID, &color, &row.CreatedAt); err != nil {
		return core.CategoryRow{}, err
	}
	row.ID = formatID(id)
	row.ColorCode = color.String
	return row, nil
}

func (r *Repository) Categories(ctx context.Context, userID string) ([]core.CategoryRow, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+categoryColumns+" FROM category WHERE user_id = ? ORDER BY name", userID)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var out []core.CategoryRow
	for rows.Next() {
		row, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *Repository) category(ctx context.Context, userID string, id int64) (core.CategoryRow, error) {
	row, err := scanCategory(r.db.QueryRowContext(ctx,
		"SELECT "+categoryColumns+" FROM category WHERE user_id = ? AND id = ?", userID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.CategoryRow{}, datastore.ErrNotFound
	}
	if err != nil {
		return core.CategoryRow{}, fmt.Errorf("get category %d: %w", id, err)
	}
	return row, nil
}

func (r *Repository) CreateCategory(ctx context.Context, userID string, p core.CategoryPayload) (core.CategoryRow, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO category (user_id, name, type_id, color_code) VALUES (?, ?, ?, ?)",
		userID, p.Name, p.TypeID, nullableString(p.ColorCode))
	if err != nil {
		return core.CategoryRow{}, fmt.Errorf("create category: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.CategoryRow{}, fmt.Errorf("create category: %w", err)
	}
	return r.category(ctx, userID, id)
}

func (r *Repository) UpdateCategory(ctx context.Context, userID, id string, p core.CategoryPayload) (core.CategoryRow, error) {
	catID, err := parseID(id)
	if err != nil {
		return core.CategoryRow{}, err
	}
	res, err := r.db.ExecContext(ctx,
		"UPDATE category SET name = ?, type_id = ?, color_code = ? WHERE user_id = ? AND id = ?",
		p.Name, p.TypeID, nullableString(p.ColorCode), userID, catID)
	if err != nil {
		return core.CategoryRow{}, fmt.Errorf("update category %s: %w", id, err)
	}
	if err := r.requireAffected(ctx, res, "category", userID, catID); err != nil {
		return core.CategoryRow{}, err
	}
	return r.category(ctx, userID, catID)
}

func (r *Repository) DeleteCategory(ctx context.Context, userID, id string) error {
	return r.deleteRow(ctx, "category", userID, id)
}

const goalColumns = "id, user_id, name, full_money, collected, deadline, created_at"

func scanGoal(s scanner) (core.GoalRow, error) {
	var (
		row       core.GoalRow
		id        int64
		full      sql.NullString
		collected sql.NullString
		deadline  sql.NullString
	)
	if err := s.Scan(&id, &row.UserID, &row.Name, &full, &collected, &deadline, &row.CreatedAt); err != nil {
		return core.GoalRow{}, err
	}
	row.ID = formatID(id)
	row.FullMoney = core.LooseNumber(full.String)
	row.Collected = core.LooseNumber(collected.String)
	row.Deadline = deadline.String
	return row, nil
}

func (r *Repository) Goals(ctx context.Context, userID string) ([]core.GoalRow, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+goalColumns+" FROM goals WHERE user_id = ? ORDER BY created_at, id", userID)
	if err != nil {
		return nil, fmt.Errorf("query goals: %w", err)
	}
	defer rows.Close()

	var out []core.GoalRow
	for rows.Next() {
		row, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *Repository) goal(ctx context.Context, userID string, id int64) (core.GoalRow, error) {
	row, err := scanGoal(r.db.QueryRowContext(ctx,
		"SELECT "+goalColumns+" FROM goals WHERE user_id = ? AND id = ?", userID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.GoalRow{}, datastore.ErrNotFound
	}
	if err != nil {
		return core.GoalRow{}, fmt.Errorf("get goal %d: %w", id, err)
	}
	return row, nil
}

func (r *Repository) CreateGoal(ctx context.Context, userID string, p core.GoalPayload) (core.GoalRow, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO goals (user_id, name, full_money, collected, deadline) VALUES (?, ?, ?, ?, ?)",
		userID, p.Name, p.FullMoney.String(), p.Collected.String(), nullableString(p.Deadline))
	if err != nil {
		return core.GoalRow{}, fmt.Errorf("create goal: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.GoalRow{}, fmt.Errorf("create goal: %w", err)
	}
	return r.goal(ctx, userID, id)
}

func (r *Repository) UpdateGoal(ctx context.Context, userID, id string, p core.GoalPayload) (core.GoalRow, error) {
	goalID, err := parseID(id)
	if err != nil {
		return core.GoalRow{}, err
	}
	res, err := r.db.ExecContext(ctx,
		"UPDATE goals SET name = ?, full_money = ?, collected = ?, deadline = ? WHERE user_id = ? AND id = ?",
		p.Name, p.FullMoney.String(), p.Collected.String(), nullableString(p.Deadline), userID, goalID)
	if err != nil {
		return core.GoalRow{}, fmt.Errorf("update goal %s: %w", id, err)
	}
	if err := r.requireAffected(ctx, res, "goals", userID, goalID); err != nil {
		return core.GoalRow{}, err
	}
	return r.goal(ctx, userID, goalID)
}

func (r *Repository) DeleteGoal(ctx context.Context, userID, id string) error {
	return r.deleteRow(ctx, "goals", userID, id)
}

// requireAffected maps an update that touched nothing to ErrNotFound.
// MySQL reports 0 affected rows when nothing changed, so the row is looked
// up before giving up.
func (r *Repository) requireAffected(ctx context.Context, res sql.Result, table, userID string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n > 0 {
		return nil
	}
	var one int
	err = r.db.QueryRowContext(ctx, "SELECT 1 FROM "+table+" WHERE user_id = ? AND id = ?", userID, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return datastore.ErrNotFound
	}
	return err
}

func (r *Repository) deleteRow(ctx context.Context, table, userID, id string) error {
	rowID, err := parseID(id)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE user_id = ? AND id = ?", userID, rowID)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return datastore.ErrNotFound
	}
	return nil
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// parseID maps ids that cannot exist in this store to ErrNotFound.
func parseID(id string) (int64, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, datastore.ErrNotFound
	}
	return n, nil
}

func nullableID(id *string) (sql.NullInt64, error) {
	if id == nil {
		return sql.NullInt64{}, nil
	}
	n, err := strconv.ParseInt(*id, 10, 64)
	if err != nil {
		return sql.NullInt64{}, core.NewValidationError("category", fmt.Sprintf("invalid category id %q", *id))
	}
	return sql.NullInt64{Int64: n, Valid: true}, nil
}

func nullableInt(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullableString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}
