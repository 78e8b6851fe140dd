package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"finledger/internal/core"
	applog "finledger/internal/log"
	"finledger/internal/storage"
)

// LedgerService records a user's income and expense transactions.
type LedgerService struct {
	store  TransactionStore
	now    func() time.Time
	logger *applog.Logger
}

type LedgerOption func(*LedgerService)

// WithClock replaces time.Now as the source of transaction timestamps.
func WithClock(now func() time.Time) LedgerOption {
	return func(s *LedgerService) {
		s.now = now
	}
}

func NewLedgerService(store TransactionStore, logger *applog.Logger, opts ...LedgerOption) *LedgerService {
	if logger == nil {
		logger = applog.Nop()
	}
	s := &LedgerService{
		store:  store,
		now:    time.Now,
		logger: logger.WithComponent(applog.ComponentLedger),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add stamps the current time and stores a new transaction.
// The amount is not range-checked.
func (s *LedgerService) Add(ctx context.Context, sess Session, amount float64, txType core.TransactionType, category string) (core.Transaction, error) {
	if err := requireSession(sess); err != nil {
		return core.Transaction{}, err
	}

	tx := core.Transaction{
		UserID:   sess.UserID(),
		Amount:   amount,
		Date:     s.timestamp(),
		Type:     txType,
		Category: category,
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	created, err := s.store.CreateTransaction(ctx, tx)
	if err != nil {
		s.logger.OpError(ctx, applog.OpCreate, applog.ErrorTypeDatabase, err, applog.FieldUserID, sess.UserID())
		return core.Transaction{}, fmt.Errorf("add transaction: %w", err)
	}

	fields := applog.NewFields().
		WithOperation(applog.OpCreate).
		WithTransaction(sess.UserID(), amount, txType.String(), category)
	fields[applog.FieldTransactionID] = created.ID
	s.logger.InfoContext(ctx, "Transaction added", fields.ToSlice()...)

	return created, nil
}

// Update overwrites amount, type and category and re-stamps the date.
// Transactions of other users are reported as core.ErrTransactionNotFound.
func (s *LedgerService) Update(ctx context.Context, sess Session, id int64, amount float64, txType core.TransactionType, category string) (core.Transaction, error) {
	if err := requireSession(sess); err != nil {
		return core.Transaction{}, err
	}

	tx := core.Transaction{
		ID:       id,
		UserID:   sess.UserID(),
		Amount:   amount,
		Date:     s.timestamp(),
		Type:     txType,
		Category: category,
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	if err := s.store.UpdateTransaction(ctx, tx); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return core.Transaction{}, core.ErrTransactionNotFound
		}
		s.logger.OpError(ctx, applog.OpUpdate, applog.ErrorTypeDatabase, err, applog.FieldTransactionID, id)
		return core.Transaction{}, fmt.Errorf("update transaction %d: %w", id, err)
	}

	s.logger.InfoContext(ctx, "Transaction updated",
		applog.FieldTransactionID, id,
		applog.FieldUserID, sess.UserID(),
		applog.FieldAmount, amount)

	stored, err := s.store.GetTransaction(ctx, sess.UserID(), id)
	if err != nil {
		s.logger.OpError(ctx, applog.OpUpdate, applog.ErrorTypeDatabase, err, applog.FieldTransactionID, id)
		return core.Transaction{}, fmt.Errorf("reload transaction %d: %w", id, err)
	}
	return stored, nil
}

// Delete removes one of the user's transactions.
func (s *LedgerService) Delete(ctx context.Context, sess Session, id int64) error {
	if err := requireSession(sess); err != nil {
		return err
	}

	if err := s.store.DeleteTransaction(ctx, sess.UserID(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return core.ErrTransactionNotFound
		}
		s.logger.OpError(ctx, applog.OpDelete, applog.ErrorTypeDatabase, err, applog.FieldTransactionID, id)
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}

	s.logger.InfoContext(ctx, "Transaction deleted",
		applog.FieldTransactionID, id,
		applog.FieldUserID, sess.UserID())
	return nil
}

// List returns the user's transactions in the order they were recorded.
func (s *LedgerService) List(ctx context.Context, sess Session) ([]core.Transaction, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}

	txs, err := s.store.ListTransactions(ctx, sess.UserID())
	if err != nil {
		s.logger.OpError(ctx, applog.OpList, applog.ErrorTypeDatabase, err, applog.FieldUserID, sess.UserID())
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

// Timestamps are persisted with second precision.
func (s *LedgerService) timestamp() time.Time {
	return s.now().Truncate(time.Second)
}
