package services

import (
	"context"
	"errors"
	"fmt"

	"finledger/internal/core"
	applog "finledger/internal/log"
	"finledger/internal/storage"
)

// BudgetService keeps one spending ceiling per (user, category, month).
type BudgetService struct {
	store  BudgetStore
	logger *applog.Logger
}

func NewBudgetService(store BudgetStore, logger *applog.Logger) *BudgetService {
	if logger == nil {
		logger = applog.Nop()
	}
	return &BudgetService{
		store:  store,
		logger: logger.WithComponent(applog.ComponentBudget),
	}
}

// Set stores the budget, replacing any earlier amount for the same key.
func (s *BudgetService) Set(ctx context.Context, sess Session, category string, amount float64, month core.Month) error {
	if err := requireSession(sess); err != nil {
		return err
	}
	if _, err := core.ParseMonth(month.String()); err != nil {
		return err
	}

	err := s.store.UpsertBudget(ctx, core.Budget{
		UserID:   sess.UserID(),
		Category: category,
		Amount:   amount,
		Month:    month,
	})
	if err != nil {
		s.logger.OpError(ctx, applog.OpSetBudget, applog.ErrorTypeDatabase, err, applog.FieldCategory, category)
		return fmt.Errorf("set budget: %w", err)
	}

	fields := applog.NewFields().
		WithOperation(applog.OpSetBudget).
		WithBudget(sess.UserID(), category, month.String())
	fields[applog.FieldAmount] = amount
	s.logger.InfoContext(ctx, "Budget set", fields.ToSlice()...)
	return nil
}

// Check compares the budget with the month's expenses in that category.
// A missing budget is core.ErrNoBudgetSet; a negative Remaining is not an error.
func (s *BudgetService) Check(ctx context.Context, sess Session, category string, month core.Month) (core.BudgetStatus, error) {
	if err := requireSession(sess); err != nil {
		return core.BudgetStatus{}, err
	}
	if _, err := core.ParseMonth(month.String()); err != nil {
		return core.BudgetStatus{}, err
	}

	b, err := s.store.GetBudget(ctx, sess.UserID(), category, month)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return core.BudgetStatus{}, core.ErrNoBudgetSet
		}
		s.logger.OpError(ctx, applog.OpCheckBudget, applog.ErrorTypeDatabase, err, applog.FieldCategory, category)
		return core.BudgetStatus{}, fmt.Errorf("get budget: %w", err)
	}

	spent, err := s.store.SumExpenses(ctx, sess.UserID(), category, month)
	if err != nil {
		s.logger.OpError(ctx, applog.OpCheckBudget, applog.ErrorTypeDatabase, err, applog.FieldCategory, category)
		return core.BudgetStatus{}, fmt.Errorf("sum expenses: %w", err)
	}

	status := core.NewBudgetStatus(category, month, b.Amount, spent)
	if status.OverBudget() {
		s.logger.InfoContext(ctx, "Budget exceeded",
			applog.NewFields().WithBudget(sess.UserID(), category, month.String()).ToSlice()...)
	}
	return status, nil
}
