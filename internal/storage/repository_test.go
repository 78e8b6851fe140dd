package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"finledger/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func at(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 12, 0, 0, 0, time.Local)
}

func TestNewSQLiteRepository_MigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")

	first, err := NewSQLiteRepository(path)
	require.NoError(t, err)
	_, err = first.CreateUser(context.Background(), "alice", "hash")
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := NewSQLiteRepository(path)
	require.NoError(t, err)
	defer second.Close()

	u, err := second.GetUserByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
}

func TestClose_Twice(t *testing.T) {
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	require.NoError(t, repo.Close())
	require.NoError(t, repo.Close())
}

func TestCreateUser_Duplicate(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	u, err := repo.CreateUser(ctx, "alice", "hash")
	require.NoError(t, err)
	assert.Positive(t, u.ID)

	_, err = repo.CreateUser(ctx, "alice", "other")
	assert.ErrorIs(t, err, core.ErrDuplicateUsername)
	assert.False(t, errors.Is(err, core.ErrStorage))
}

func TestGetUserByUsername_NotFound(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.GetUserByUsername(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateTransaction_ForeignKey(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.CreateTransaction(context.Background(), core.Transaction{
		UserID: 999, Amount: 1, Date: at(2024, 1, 1), Type: core.Income, Category: "x",
	})
	assert.ErrorIs(t, err, core.ErrStorage)
}

func TestTransactions_CRUD(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	u, err := repo.CreateUser(ctx, "alice", "hash")
	require.NoError(t, err)

	tx, err := repo.CreateTransaction(ctx, core.Transaction{
		UserID: u.ID, Amount: 100, Date: at(2024, 1, 5), Type: core.Income, Category: "salary",
	})
	require.NoError(t, err)
	assert.Equal(t, 100.0, tx.Amount)
	assert.Equal(t, core.Income, tx.Type)
	assert.True(t, tx.Date.Equal(at(2024, 1, 5)))

	_, err = repo.CreateTransaction(ctx, core.Transaction{
		UserID: u.ID, Amount: 20, Date: at(2024, 1, 6), Type: core.Expense, Category: "food",
	})
	require.NoError(t, err)

	list, err := repo.ListTransactions(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, tx.ID, list[0].ID)
	assert.Equal(t, "food", list[1].Category)

	tx.Amount = 120
	tx.Type = core.Expense
	tx.Category = "rent"
	tx.Date = at(2024, 2, 1)
	require.NoError(t, repo.UpdateTransaction(ctx, tx))

	got, err := repo.GetTransaction(ctx, u.ID, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, 120.0, got.Amount)
	assert.Equal(t, core.Expense, got.Type)
	assert.Equal(t, "rent", got.Category)
	assert.True(t, got.Date.Equal(at(2024, 2, 1)))

	require.NoError(t, repo.DeleteTransaction(ctx, u.ID, tx.ID))
	_, err = repo.GetTransaction(ctx, u.ID, tx.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.DeleteTransaction(ctx, u.ID, tx.ID), ErrNotFound)
}

func TestTransactions_OwnedByUser(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	alice, err := repo.CreateUser(ctx, "alice", "hash")
	require.NoError(t, err)
	bob, err := repo.CreateUser(ctx, "bob", "hash")
	require.NoError(t, err)

	tx, err := repo.CreateTransaction(ctx, core.Transaction{
		UserID: alice.ID, Amount: 10, Date: at(2024, 1, 1), Type: core.Expense, Category: "food",
	})
	require.NoError(t, err)

	list, err := repo.ListTransactions(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, list)

	stolen := tx
	stolen.UserID = bob.ID
	stolen.Amount = 0
	assert.ErrorIs(t, repo.UpdateTransaction(ctx, stolen), ErrNotFound)
	assert.ErrorIs(t, repo.DeleteTransaction(ctx, bob.ID, tx.ID), ErrNotFound)

	got, err := repo.GetTransaction(ctx, alice.ID, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, 10.0, got.Amount)
}

func TestUpsertBudget_ReplacesAmount(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	u, err := repo.CreateUser(ctx, "alice", "hash")
	require.NoError(t, err)

	require.NoError(t, repo.UpsertBudget(ctx, core.Budget{UserID: u.ID, Category: "food", Amount: 200, Month: "2024-01"}))
	require.NoError(t, repo.UpsertBudget(ctx, core.Budget{UserID: u.ID, Category: "food", Amount: 300, Month: "2024-01"}))

	var count int64
	err = repo.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM budgets WHERE user_id = ? AND category = ? AND month = ?`,
		u.ID, "food", "2024-01").Scan(&count)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	b, err := repo.GetBudget(ctx, u.ID, "food", "2024-01")
	require.NoError(t, err)
	assert.Equal(t, 300.0, b.Amount)

	_, err = repo.GetBudget(ctx, u.ID, "food", "2024-02")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSumExpenses(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	u, err := repo.CreateUser(ctx, "alice", "hash")
	require.NoError(t, err)

	total, err := repo.SumExpenses(ctx, u.ID, "food", "2024-01")
	require.NoError(t, err)
	assert.Zero(t, total)

	seed := []core.Transaction{
		{UserID: u.ID, Amount: 30, Date: at(2024, 1, 3), Type: core.Expense, Category: "food"},
		{UserID: u.ID, Amount: 20, Date: at(2024, 1, 28), Type: core.Expense, Category: "food"},
		{UserID: u.ID, Amount: 99, Date: at(2024, 2, 1), Type: core.Expense, Category: "food"},
		{UserID: u.ID, Amount: 77, Date: at(2024, 1, 10), Type: core.Income, Category: "food"},
		{UserID: u.ID, Amount: 55, Date: at(2024, 1, 10), Type: core.Expense, Category: "rent"},
	}
	for _, tx := range seed {
		_, err := repo.CreateTransaction(ctx, tx)
		require.NoError(t, err)
	}

	total, err = repo.SumExpenses(ctx, u.ID, "food", "2024-01")
	require.NoError(t, err)
	assert.Equal(t, 50.0, total)
}

func TestPeriodTotals(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	u, err := repo.CreateUser(ctx, "alice", "hash")
	require.NoError(t, err)

	seed := []core.Transaction{
		{UserID: u.ID, Amount: 1000, Date: at(2023, 12, 1), Type: core.Income, Category: "salary"},
		{UserID: u.ID, Amount: 200, Date: at(2024, 1, 3), Type: core.Expense, Category: "food"},
		{UserID: u.ID, Amount: 50, Date: at(2024, 1, 9), Type: core.Expense, Category: "food"},
		{UserID: u.ID, Amount: 500, Date: at(2024, 1, 15), Type: core.Income, Category: "salary"},
	}
	for _, tx := range seed {
		_, err := repo.CreateTransaction(ctx, tx)
		require.NoError(t, err)
	}

	monthly, err := repo.MonthlyTotals(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []core.PeriodSummary{
		{Period: "2024-01", Income: 500, Expense: 250},
		{Period: "2023-12", Income: 1000, Expense: 0},
	}, monthly)

	yearly, err := repo.YearlyTotals(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []core.PeriodSummary{
		{Period: "2024", Income: 500, Expense: 250},
		{Period: "2023", Income: 1000, Expense: 0},
	}, yearly)

	empty, err := repo.MonthlyTotals(ctx, u.ID+1)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
