package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"finledger/internal/core"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

type SQLiteRepository struct {
	db        *sql.DB
	queries   *Queries
	closeOnce sync.Once
	closeErr  error
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One handle for the lifetime of the process
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	slog.Debug("SQLite repository ready", "path", dbPath)

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

// Close releases the database handle. Only the first call has an effect.
func (r *SQLiteRepository) Close() error {
	r.closeOnce.Do(func() {
		if r.db != nil {
			r.closeErr = r.db.Close()
		}
	})
	return r.closeErr
}

// CreateUser inserts a user; a taken username yields core.ErrDuplicateUsername.
func (r *SQLiteRepository) CreateUser(ctx context.Context, username, passwordHash string) (core.User, error) {
	u, err := r.queries.CreateUser(ctx, CreateUserParams{
		Username: username,
		Password: passwordHash,
	})
	if err != nil {
		if isUniqueViolation(err) {
			return core.User{}, core.ErrDuplicateUsername
		}
		return core.User{}, storageError("create user", err)
	}

	slog.InfoContext(ctx, "User saved to SQLite", "id", u.ID, "username", u.Username)

	return toCoreUser(u), nil
}

func (r *SQLiteRepository) GetUserByUsername(ctx context.Context, username string) (core.User, error) {
	u, err := r.queries.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.User{}, ErrNotFound
		}
		return core.User{}, storageError("get user by username", err)
	}
	return toCoreUser(u), nil
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	row, err := r.queries.CreateTransaction(ctx, CreateTransactionParams{
		UserID:   tx.UserID,
		Amount:   tx.Amount,
		Type:     tx.Type.String(),
		Category: tx.Category,
		Date:     tx.Date.Format(core.TimestampLayout),
	})
	if err != nil {
		return core.Transaction{}, storageError("create transaction", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", row.ID,
		"user_id", row.UserID,
		"amount", row.Amount,
		"type", row.Type,
		"category", row.Category)

	return toCoreTransaction(row)
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, userID, id int64) (core.Transaction, error) {
	row, err := r.queries.GetTransaction(ctx, GetTransactionParams{ID: id, UserID: userID})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Transaction{}, ErrNotFound
		}
		return core.Transaction{}, storageError("get transaction", err)
	}
	return toCoreTransaction(row)
}

// UpdateTransaction overwrites amount, type, category and date of a
// transaction owned by tx.UserID. Returns ErrNotFound if nothing matched.
func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, tx core.Transaction) error {
	n, err := r.queries.UpdateTransaction(ctx, UpdateTransactionParams{
		Amount:   tx.Amount,
		Type:     tx.Type.String(),
		Category: tx.Category,
		Date:     tx.Date.Format(core.TimestampLayout),
		ID:       tx.ID,
		UserID:   tx.UserID,
	})
	if err != nil {
		return storageError("update transaction", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	slog.InfoContext(ctx, "Transaction updated", "id", tx.ID, "user_id", tx.UserID)
	return nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, userID, id int64) error {
	n, err := r.queries.DeleteTransaction(ctx, DeleteTransactionParams{ID: id, UserID: userID})
	if err != nil {
		return storageError("delete transaction", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	slog.InfoContext(ctx, "Transaction deleted", "id", id, "user_id", userID)
	return nil
}

// ListTransactions returns a user's transactions in insertion order.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID int64) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactions(ctx, userID)
	if err != nil {
		return nil, storageError("list transactions", err)
	}

	txs := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		tx, err := toCoreTransaction(row)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

// UpsertBudget replaces any budget stored under (user, category, month).
func (r *SQLiteRepository) UpsertBudget(ctx context.Context, b core.Budget) error {
	err := r.queries.UpsertBudget(ctx, UpsertBudgetParams{
		UserID:   b.UserID,
		Category: b.Category,
		Amount:   b.Amount,
		Month:    b.Month.String(),
	})
	if err != nil {
		return storageError("upsert budget", err)
	}

	slog.InfoContext(ctx, "Budget saved to SQLite",
		"user_id", b.UserID,
		"category", b.Category,
		"month", b.Month,
		"amount", b.Amount)
	return nil
}

func (r *SQLiteRepository) GetBudget(ctx context.Context, userID int64, category string, month core.Month) (core.Budget, error) {
	row, err := r.queries.GetBudget(ctx, GetBudgetParams{
		UserID:   userID,
		Category: category,
		Month:    month.String(),
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Budget{}, ErrNotFound
		}
		return core.Budget{}, storageError("get budget", err)
	}
	return core.Budget{
		ID:       row.ID,
		UserID:   row.UserID,
		Category: row.Category,
		Amount:   row.Amount,
		Month:    core.Month(row.Month),
	}, nil
}

// SumExpenses totals expense transactions of one category in one month.
// No matching rows sums to zero.
func (r *SQLiteRepository) SumExpenses(ctx context.Context, userID int64, category string, month core.Month) (float64, error) {
	total, err := r.queries.SumExpenses(ctx, SumExpensesParams{
		UserID:   userID,
		Category: category,
		Month:    month.String(),
	})
	if err != nil {
		return 0, storageError("sum expenses", err)
	}
	return total, nil
}

// MonthlyTotals returns income and expense per calendar month, newest first.
func (r *SQLiteRepository) MonthlyTotals(ctx context.Context, userID int64) ([]core.PeriodSummary, error) {
	rows, err := r.queries.MonthlyTotals(ctx, userID)
	if err != nil {
		return nil, storageError("monthly totals", err)
	}
	return toPeriodSummaries(rows), nil
}

// YearlyTotals returns income and expense per calendar year, newest first.
func (r *SQLiteRepository) YearlyTotals(ctx context.Context, userID int64) ([]core.PeriodSummary, error) {
	rows, err := r.queries.YearlyTotals(ctx, userID)
	if err != nil {
		return nil, storageError("yearly totals", err)
	}
	return toPeriodSummaries(rows), nil
}

func toCoreUser(u User) core.User {
	return core.User{ID: u.ID, Username: u.Username, PasswordHash: u.Password}
}

func toCoreTransaction(row Transaction) (core.Transaction, error) {
	date, err := time.ParseInLocation(core.TimestampLayout, row.Date, time.Local)
	if err != nil {
		return core.Transaction{}, storageError("parse transaction date", err)
	}
	return core.Transaction{
		ID:       row.ID,
		UserID:   row.UserID,
		Amount:   row.Amount,
		Date:     date,
		Type:     core.TransactionType(row.Type),
		Category: row.Category,
	}, nil
}

func toPeriodSummaries(rows []PeriodTotalsRow) []core.PeriodSummary {
	out := make([]core.PeriodSummary, 0, len(rows))
	for _, row := range rows {
		out = append(out, core.PeriodSummary{
			Period:  row.Period,
			Income:  row.Income,
			Expense: row.Expense,
		})
	}
	return out
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	code := sqliteErr.Code()
	if code == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return true
	}
	// Primary result code only when extended codes are off
	return code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(sqliteErr.Error(), "UNIQUE")
}

func storageError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, core.ErrStorage, err)
}
