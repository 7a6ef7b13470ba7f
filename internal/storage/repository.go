// Package storage persists transactions, categories, and budgets in SQLite.
//
// The schema is the enforcement point for the two uniqueness invariants:
// category names and (user, category, window start) budget tuples. Unique
// violations are translated to the domain's distinguishable errors so the
// services above can treat "create raced and lost" as recoverable.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	sqlite3 "modernc.org/sqlite"

	"duit/internal/core"
)

// timeLayout keeps stored timestamps lexicographically ordered so range
// predicates on the datetime column stay correct. All times are UTC.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// isUniqueViolation reports whether err is a SQLite unique or primary key
// constraint failure.
func isUniqueViolation(err error) bool {
	var se *sqlite3.Error
	if errors.As(err, &se) {
		code := se.Code()
		return code == 2067 || code == 1555 // SQLITE_CONSTRAINT_UNIQUE, _PRIMARYKEY
	}
	return false
}

func fmtTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

//
// Categories
//

// CreateCategory inserts a category. A concurrent create of the same name
// loses against the UNIQUE constraint and surfaces core.ErrCategoryConflict.
func (r *SQLiteRepository) CreateCategory(ctx context.Context, name string) (core.Category, error) {
	now := time.Now()
	cat := core.Category{
		ID:       uuid.NewString(),
		Name:     name,
		IsActive: true,
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO categories (id, name, is_active, created_at, updated_at)
		VALUES (?, ?, 1, ?, ?)`,
		cat.ID, cat.Name, fmtTime(now), fmtTime(now))
	if err != nil {
		if isUniqueViolation(err) {
			return core.Category{}, fmt.Errorf("%w: %s", core.ErrCategoryConflict, name)
		}
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}

	slog.InfoContext(ctx, "Category created", "id", cat.ID, "name", cat.Name)
	return cat, nil
}

// FindCategoryByName does an exact, case-sensitive lookup.
func (r *SQLiteRepository) FindCategoryByName(ctx context.Context, name string) (core.Category, error) {
	var cat core.Category
	var active int
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, is_active FROM categories WHERE name = ?`, name).
		Scan(&cat.ID, &cat.Name, &active)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, core.ErrNotFound
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("find category by name: %w", err)
	}
	cat.IsActive = active != 0
	return cat, nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, is_active FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var cats []core.Category
	for rows.Next() {
		var cat core.Category
		var active int
		if err := rows.Scan(&cat.ID, &cat.Name, &active); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		cat.IsActive = active != 0
		cats = append(cats, cat)
	}
	return cats, rows.Err()
}

//
// Transactions
//

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	now := time.Now().UTC()
	tx.ID = uuid.NewString()
	tx.CreatedAt = now
	tx.UpdatedAt = now

	var origAmount, origCurrency any
	if tx.OriginalAmount != nil {
		origAmount = tx.OriginalAmount.String()
		origCurrency = tx.OriginalCurrency
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions
			(id, user_id, name, amount, currency, original_amount, original_currency,
			 category_id, datetime, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.UserID, tx.Name, tx.Amount.String(), tx.Currency,
		origAmount, origCurrency,
		tx.CategoryID, fmtTime(tx.Datetime), fmtTime(now), fmtTime(now))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", tx.ID,
		"user_id", tx.UserID,
		"name", tx.Name,
		"amount", tx.Amount.String(),
		"category_id", tx.CategoryID)

	return tx, nil
}

const transactionColumns = `
	t.id, t.user_id, t.name, t.amount, t.currency,
	t.original_amount, t.original_currency,
	t.category_id, c.name, t.datetime, t.created_at, t.updated_at`

func (r *SQLiteRepository) scanTransaction(scan func(dest ...any) error) (core.Transaction, error) {
	var (
		tx           core.Transaction
		amount       string
		origAmount   sql.NullString
		origCurrency sql.NullString
		datetime     string
		createdAt    string
		updatedAt    string
	)

	err := scan(&tx.ID, &tx.UserID, &tx.Name, &amount, &tx.Currency,
		&origAmount, &origCurrency,
		&tx.CategoryID, &tx.CategoryName, &datetime, &createdAt, &updatedAt)
	if err != nil {
		return core.Transaction{}, err
	}

	if tx.Amount, err = decimal.NewFromString(amount); err != nil {
		return core.Transaction{}, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	if origAmount.Valid {
		d, err := decimal.NewFromString(origAmount.String)
		if err != nil {
			return core.Transaction{}, fmt.Errorf("parse original amount %q: %w", origAmount.String, err)
		}
		tx.OriginalAmount = &d
		tx.OriginalCurrency = origCurrency.String
	}
	if tx.Datetime, err = parseTime(datetime); err != nil {
		return core.Transaction{}, fmt.Errorf("parse datetime %q: %w", datetime, err)
	}
	if tx.CreatedAt, err = parseTime(createdAt); err != nil {
		return core.Transaction{}, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	if tx.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return core.Transaction{}, fmt.Errorf("parse updated_at %q: %w", updatedAt, err)
	}

	return tx, nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions t JOIN categories c ON c.id = t.category_id
		WHERE t.id = ?`, id)

	tx, err := r.scanTransaction(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return tx, nil
}

// ListTransactions returns the user's transactions, newest first.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions t JOIN categories c ON c.id = t.category_id
		WHERE t.user_id = ?
		ORDER BY t.datetime DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		tx, err := r.scanTransaction(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, tx core.Transaction) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions
		SET name = ?, amount = ?, datetime = ?, category_id = ?, updated_at = ?
		WHERE id = ?`,
		tx.Name, tx.Amount.String(), fmtTime(tx.Datetime), tx.CategoryID,
		fmtTime(time.Now()), tx.ID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// SumTransactions adds up the settlement-currency amounts of every
// transaction in the (user, category, window) scope, inclusive on both
// ends. Amounts are summed in Go to keep decimal precision.
func (r *SQLiteRepository) SumTransactions(ctx context.Context, userID, categoryID string, from, to time.Time) (decimal.Decimal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT amount FROM transactions
		WHERE user_id = ? AND category_id = ? AND datetime >= ? AND datetime <= ?`,
		userID, categoryID, fmtTime(from), fmtTime(to))
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum transactions: %w", err)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var amount string
		if err := rows.Scan(&amount); err != nil {
			return decimal.Zero, fmt.Errorf("scan amount: %w", err)
		}
		d, err := decimal.NewFromString(amount)
		if err != nil {
			return decimal.Zero, fmt.Errorf("parse amount %q: %w", amount, err)
		}
		total = total.Add(d)
	}
	return total, rows.Err()
}

//
// Budgets
//

// CreateBudget inserts a budget. The UNIQUE(user_id, category_id,
// start_date) constraint rejects a duplicate (user, category, window)
// tuple as core.ErrDuplicateBudget.
func (r *SQLiteRepository) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	now := time.Now().UTC()
	b.ID = uuid.NewString()
	b.CreatedAt = now
	b.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO budgets
			(id, user_id, category_id, amount, period, start_date, end_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.UserID, b.CategoryID, b.Amount.String(), b.Period,
		fmtTime(b.StartDate), fmtTime(b.EndDate), fmtTime(now), fmtTime(now))
	if err != nil {
		if isUniqueViolation(err) {
			return core.Budget{}, core.ErrDuplicateBudget
		}
		return core.Budget{}, fmt.Errorf("create budget: %w", err)
	}

	slog.InfoContext(ctx, "Budget created",
		"id", b.ID,
		"user_id", b.UserID,
		"category_id", b.CategoryID,
		"period", b.Period)

	return b, nil
}

const budgetColumns = `
	b.id, b.user_id, b.category_id, c.name, b.amount, b.period,
	b.start_date, b.end_date, b.created_at, b.updated_at`

func (r *SQLiteRepository) scanBudget(scan func(dest ...any) error) (core.Budget, error) {
	var (
		b         core.Budget
		amount    string
		startDate string
		endDate   string
		createdAt string
		updatedAt string
	)

	err := scan(&b.ID, &b.UserID, &b.CategoryID, &b.CategoryName, &amount, &b.Period,
		&startDate, &endDate, &createdAt, &updatedAt)
	if err != nil {
		return core.Budget{}, err
	}

	if b.Amount, err = decimal.NewFromString(amount); err != nil {
		return core.Budget{}, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	if b.StartDate, err = parseTime(startDate); err != nil {
		return core.Budget{}, fmt.Errorf("parse start_date %q: %w", startDate, err)
	}
	if b.EndDate, err = parseTime(endDate); err != nil {
		return core.Budget{}, fmt.Errorf("parse end_date %q: %w", endDate, err)
	}
	if b.CreatedAt, err = parseTime(createdAt); err != nil {
		return core.Budget{}, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	if b.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return core.Budget{}, fmt.Errorf("parse updated_at %q: %w", updatedAt, err)
	}

	return b, nil
}

func (r *SQLiteRepository) GetBudget(ctx context.Context, id string) (core.Budget, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+budgetColumns+`
		FROM budgets b JOIN categories c ON c.id = b.category_id
		WHERE b.id = ?`, id)

	b, err := r.scanBudget(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, core.ErrNotFound
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget: %w", err)
	}
	return b, nil
}

func (r *SQLiteRepository) ListBudgets(ctx context.Context, userID string) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+budgetColumns+`
		FROM budgets b JOIN categories c ON c.id = b.category_id
		WHERE b.user_id = ?
		ORDER BY b.start_date DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var budgets []core.Budget
	for rows.Next() {
		b, err := r.scanBudget(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

func (r *SQLiteRepository) UpdateBudget(ctx context.Context, b core.Budget) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE budgets
		SET category_id = ?, amount = ?, period = ?, start_date = ?, end_date = ?, updated_at = ?
		WHERE id = ?`,
		b.CategoryID, b.Amount.String(), b.Period,
		fmtTime(b.StartDate), fmtTime(b.EndDate), fmtTime(time.Now()), b.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return core.ErrDuplicateBudget
		}
		return fmt.Errorf("update budget: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) DeleteBudget(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}
