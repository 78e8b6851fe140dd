package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

type User struct {
	ID       int64
	Username string
	Password string
}

type Transaction struct {
	ID       int64
	UserID   int64
	Amount   float64
	Date     string
	Type     string
	Category string
}

type Budget struct {
	ID       int64
	UserID   int64
	Category string
	Amount   float64
	Month    string
}

type PeriodTotalsRow struct {
	Period  string
	Income  float64
	Expense float64
}

const createUser = `
INSERT INTO users (username, password) VALUES (?, ?)
RETURNING id, username, password
`

type CreateUserParams struct {
	Username string
	Password string
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRowContext(ctx, createUser, arg.Username, arg.Password)
	var i User
	err := row.Scan(&i.ID, &i.Username, &i.Password)
	return i, err
}

const getUserByUsername = `
SELECT id, username, password FROM users WHERE username = ?
`

func (q *Queries) GetUserByUsername(ctx context.Context, username string) (User, error) {
	row := q.db.QueryRowContext(ctx, getUserByUsername, username)
	var i User
	err := row.Scan(&i.ID, &i.Username, &i.Password)
	return i, err
}

const createTransaction = `
INSERT INTO transactions (user_id, amount, type, category, date)
VALUES (?, ?, ?, ?, ?)
RETURNING id, user_id, amount, date, type, category
`

type CreateTransactionParams struct {
	UserID   int64
	Amount   float64
	Type     string
	Category string
	Date     string
}

func (q *Queries) CreateTransaction(ctx context.Context, arg CreateTransactionParams) (Transaction, error) {
	row := q.db.QueryRowContext(ctx, createTransaction,
		arg.UserID,
		arg.Amount,
		arg.Type,
		arg.Category,
		arg.Date,
	)
	var i Transaction
	err := row.Scan(&i.ID, &i.UserID, &i.Amount, &i.Date, &i.Type, &i.Category)
	return i, err
}

const getTransaction = `
SELECT id, user_id, amount, date, type, category
FROM transactions
WHERE id = ? AND user_id = ?
`

type GetTransactionParams struct {
	ID     int64
	UserID int64
}

func (q *Queries) GetTransaction(ctx context.Context, arg GetTransactionParams) (Transaction, error) {
	row := q.db.QueryRowContext(ctx, getTransaction, arg.ID, arg.UserID)
	var i Transaction
	err := row.Scan(&i.ID, &i.UserID, &i.Amount, &i.Date, &i.Type, &i.Category)
	return i, err
}

const updateTransaction = `
UPDATE transactions
SET amount = ?, type = ?, category = ?, date = ?
WHERE id = ? AND user_id = ?
`

type UpdateTransactionParams struct {
	Amount   float64
	Type     string
	Category string
	Date     string
	ID       int64
	UserID   int64
}

func (q *Queries) UpdateTransaction(ctx context.Context, arg UpdateTransactionParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateTransaction,
		arg.Amount,
		arg.Type,
		arg.Category,
		arg.Date,
		arg.ID,
		arg.UserID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteTransaction = `
DELETE FROM transactions WHERE id = ? AND user_id = ?
`

type DeleteTransactionParams struct {
	ID     int64
	UserID int64
}

func (q *Queries) DeleteTransaction(ctx context.Context, arg DeleteTransactionParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteTransaction, arg.ID, arg.UserID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const listTransactions = `
SELECT id, user_id, amount, date, type, category
FROM transactions
WHERE user_id = ?
ORDER BY id
`

func (q *Queries) ListTransactions(ctx context.Context, userID int64) ([]Transaction, error) {
	rows, err := q.db.QueryContext(ctx, listTransactions, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Transaction
	for rows.Next() {
		var i Transaction
		if err := rows.Scan(&i.ID, &i.UserID, &i.Amount, &i.Date, &i.Type, &i.Category); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const upsertBudget = `
INSERT INTO budgets (user_id, category, amount, month)
VALUES (?, ?, ?, ?)
ON CONFLICT (user_id, category, month) DO UPDATE SET amount = excluded.amount
`

type UpsertBudgetParams struct {
	UserID   int64
	Category string
	Amount   float64
	Month    string
}

func (q *Queries) UpsertBudget(ctx context.Context, arg UpsertBudgetParams) error {
	_, err := q.db.ExecContext(ctx, upsertBudget,
		arg.UserID,
		arg.Category,
		arg.Amount,
		arg.Month,
	)
	return err
}

const getBudget = `
SELECT id, user_id, category, amount, month
FROM budgets
WHERE user_id = ? AND category = ? AND month = ?
`

type GetBudgetParams struct {
	UserID   int64
	Category string
	Month    string
}

func (q *Queries) GetBudget(ctx context.Context, arg GetBudgetParams) (Budget, error) {
	row := q.db.QueryRowContext(ctx, getBudget, arg.UserID, arg.Category, arg.Month)
	var i Budget
	err := row.Scan(&i.ID, &i.UserID, &i.Category, &i.Amount, &i.Month)
	return i, err
}

const sumExpenses = `
SELECT CAST(COALESCE(SUM(amount), 0) AS REAL)
FROM transactions
WHERE user_id = ? AND category = ? AND strftime('%Y-%m', date) = ?
  AND type = 'expense'
`

type SumExpensesParams struct {
	UserID   int64
	Category string
	Month    string
}

func (q *Queries) SumExpenses(ctx context.Context, arg SumExpensesParams) (float64, error) {
	row := q.db.QueryRowContext(ctx, sumExpenses, arg.UserID, arg.Category, arg.Month)
	var total float64
	err := row.Scan(&total)
	return total, err
}

const monthlyTotals = `
SELECT strftime('%Y-%m', date) AS period,
       CAST(SUM(CASE WHEN type = 'income' THEN amount ELSE 0 END) AS REAL) AS income,
       CAST(SUM(CASE WHEN type = 'expense' THEN amount ELSE 0 END) AS REAL) AS expense
FROM transactions
WHERE user_id = ?
GROUP BY period
ORDER BY period DESC
`

func (q *Queries) MonthlyTotals(ctx context.Context, userID int64) ([]PeriodTotalsRow, error) {
	return q.periodTotals(ctx, monthlyTotals, userID)
}

const yearlyTotals = `
SELECT strftime('%Y', date) AS period,
       CAST(SUM(CASE WHEN type = 'income' THEN amount ELSE 0 END) AS REAL) AS income,
       CAST(SUM(CASE WHEN type = 'expense' THEN amount ELSE 0 END) AS REAL) AS expense
FROM transactions
WHERE user_id = ?
GROUP BY period
ORDER BY period DESC
`

func (q *Queries) YearlyTotals(ctx context.Context, userID int64) ([]PeriodTotalsRow, error) {
	return q.periodTotals(ctx, yearlyTotals, userID)
}

func (q *Queries) periodTotals(ctx context.Context, query string, userID int64) ([]PeriodTotalsRow, error) {
	rows, err := q.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []PeriodTotalsRow
	for rows.Next() {
		var i PeriodTotalsRow
		if err := rows.Scan(&i.Period, &i.Income, &i.Expense); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
