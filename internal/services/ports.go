package services

import (
	"context"

	"finledger/internal/core"
)

// Storage ports. *storage.SQLiteRepository implements all of them.
type (
	UserStore interface {
		CreateUser(ctx context.Context, username, passwordHash string) (core.User, error)
		GetUserByUsername(ctx context.Context, username string) (core.User, error)
	}

	TransactionStore interface {
		CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error)
		GetTransaction(ctx context.Context, userID, id int64) (core.Transaction, error)
		UpdateTransaction(ctx context.Context, tx core.Transaction) error
		DeleteTransaction(ctx context.Context, userID, id int64) error
		ListTransactions(ctx context.Context, userID int64) ([]core.Transaction, error)
	}

	BudgetStore interface {
		UpsertBudget(ctx context.Context, b core.Budget) error
		GetBudget(ctx context.Context, userID int64, category string, month core.Month) (core.Budget, error)
		SumExpenses(ctx context.Context, userID int64, category string, month core.Month) (float64, error)
	}

	ReportStore interface {
		MonthlyTotals(ctx context.Context, userID int64) ([]core.PeriodSummary, error)
		YearlyTotals(ctx context.Context, userID int64) ([]core.PeriodSummary, error)
	}
)
