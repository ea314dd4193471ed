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

	"github.com/Livshiz/finance-bot/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository owns the two ledger tables: the append-only expenses
// table and the per-category budgets table. All other components read and
// write ledger state only through it.
type SQLiteRepository struct {
	db         *sql.DB
	categories core.Categories
}

func NewSQLiteRepository(dbPath string, categories core.Categories) (*SQLiteRepository, error) {
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

	// WAL so concurrent report reads never block an in-flight append;
	// busy_timeout serializes the occasional competing writer.
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %s: %w", pragma, err)
		}
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, categories: categories}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Append records a new expense and returns its id. The amount must be
// strictly positive; an unknown category is coerced to the catch-all before
// persisting. created_at is assigned here in UTC. The row is durable when
// Append returns.
func (r *SQLiteRepository) Append(ctx context.Context, ownerID int64, amount core.Money, category, description string, source core.Source) (int64, error) {
	e := core.Expense{
		OwnerID:     ownerID,
		Amount:      amount,
		Category:    r.categories.Normalize(category),
		Description: description,
		Source:      source,
	}
	if err := e.Validate(); err != nil {
		return 0, err
	}

	createdAt := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (owner_id, amount_cents, category, description, source, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.OwnerID, e.Amount.Cents, e.Category, e.Description, string(e.Source), createdAt.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("insert expense: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("expense id: %w", err)
	}

	slog.InfoContext(ctx, "Expense appended",
		"id", id,
		"owner_id", e.OwnerID,
		"category", e.Category,
		"amount_cents", e.Amount.Cents,
		"source", e.Source)

	return id, nil
}

// SumSince totals a category from windowStart onward. An empty window is 0,
// not an error.
func (r *SQLiteRepository) SumSince(ctx context.Context, category string, since time.Time) (core.Money, error) {
	var cents int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM expenses
		 WHERE category = ? AND created_at >= ?`,
		category, since.UTC().UnixNano()).Scan(&cents)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum since: %w", err)
	}
	return core.Money{Cents: cents}, nil
}

// SumRange totals all expenses in the half-open interval [start, end).
func (r *SQLiteRepository) SumRange(ctx context.Context, start, end time.Time) (core.Money, error) {
	var cents int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM expenses
		 WHERE created_at >= ? AND created_at < ?`,
		start.UTC().UnixNano(), end.UTC().UnixNano()).Scan(&cents)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum range: %w", err)
	}
	return core.Money{Cents: cents}, nil
}

// ListSince returns expenses from windowStart onward, ascending by
// created_at. The result is a snapshot at call time.
func (r *SQLiteRepository) ListSince(ctx context.Context, since time.Time) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner_id, amount_cents, category, description, source, created_at
		 FROM expenses WHERE created_at >= ? ORDER BY created_at, id`,
		since.UTC().UnixNano())
	if err != nil {
		return nil, fmt.Errorf("list since: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list since: %w", err)
	}
	return out, nil
}

// GetExpense retrieves a single expense by id.
func (r *SQLiteRepository) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, owner_id, amount_cents, category, description, source, created_at
		 FROM expenses WHERE id = ?`, id)
	e, err := scanExpense(row)
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense %d: %w", id, err)
	}
	return e, nil
}

// GetBudget looks up the budget for a category. Absence is reported through
// the bool, never as an error.
func (r *SQLiteRepository) GetBudget(ctx context.Context, category string) (core.Budget, bool, error) {
	var (
		b  core.Budget
		ns int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT category, monthly_limit_cents, updated_at FROM budgets WHERE category = ?`,
		category).Scan(&b.Category, &b.MonthlyLimit.Cents, &ns)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, false, nil
	}
	if err != nil {
		return core.Budget{}, false, fmt.Errorf("get budget: %w", err)
	}
	b.UpdatedAt = time.Unix(0, ns).UTC()
	return b, true, nil
}

// SetBudget creates or replaces the single budget row for a category.
func (r *SQLiteRepository) SetBudget(ctx context.Context, category string, limit core.Money) error {
	b := core.Budget{Category: category, MonthlyLimit: limit}
	if err := b.Validate(); err != nil {
		return err
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO budgets (category, monthly_limit_cents, updated_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT(category) DO UPDATE SET
			monthly_limit_cents = excluded.monthly_limit_cents,
			updated_at = excluded.updated_at`,
		b.Category, b.MonthlyLimit.Cents, time.Now().UTC().UnixNano())
	if err != nil {
		return fmt.Errorf("set budget: %w", err)
	}

	slog.InfoContext(ctx, "Budget set",
		"category", b.Category,
		"monthly_limit_cents", b.MonthlyLimit.Cents)

	return nil
}

// ListBudgets returns all configured budgets, ordered by category.
func (r *SQLiteRepository) ListBudgets(ctx context.Context) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT category, monthly_limit_cents, updated_at FROM budgets ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		var (
			b  core.Budget
			ns int64
		)
		if err := rows.Scan(&b.Category, &b.MonthlyLimit.Cents, &ns); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		b.UpdatedAt = time.Unix(0, ns).UTC()
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	return out, nil
}

// ListPendingSync returns expenses not yet mirrored to the spreadsheet,
// oldest first.
func (r *SQLiteRepository) ListPendingSync(ctx context.Context, limit int) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner_id, amount_cents, category, description, source, created_at
		 FROM expenses WHERE synced_at IS NULL ORDER BY id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending sync: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list pending sync: %w", err)
	}
	return out, nil
}

// MarkSynced records that an expense has been mirrored to the spreadsheet.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET synced_at = ? WHERE id = ?`,
		time.Now().UTC().UnixNano(), id)
	if err != nil {
		return fmt.Errorf("mark synced: %w", err)
	}
	slog.InfoContext(ctx, "Expense marked as synced", "id", id)
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (core.Expense, error) {
	var (
		e      core.Expense
		source string
		ns     int64
	)
	err := row.Scan(&e.ID, &e.OwnerID, &e.Amount.Cents, &e.Category, &e.Description, &source, &ns)
	if err != nil {
		return core.Expense{}, fmt.Errorf("scan expense: %w", err)
	}
	e.Source = core.Source(source)
	e.CreatedAt = time.Unix(0, ns).UTC()
	return e, nil
}
