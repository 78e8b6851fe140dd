package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

// TimestampLayout is how transaction dates are persisted. SQLite's
// strftime understands it, so month/year truncation happens in SQL.
const TimestampLayout = "2006-01-02 15:04:05"

type (
	TransactionType string

	User struct {
		ID           int64
		Username     string
		PasswordHash string
	}

	Transaction struct {
		ID       int64
		UserID   int64
		Amount   float64
		Date     time.Time
		Type     TransactionType
		Category string
	}

	Budget struct {
		ID       int64
		UserID   int64
		Category string
		Amount   float64
		Month    Month
	}
)

var (
	ErrDuplicateUsername      = errors.New("username already exists")
	ErrAuthenticationFailed   = errors.New("authentication failed")
	ErrInvalidCredentials     = errors.New("username and password must not be empty")
	ErrNoBudgetSet            = errors.New("no budget set for this category and month")
	ErrInvalidNumericInput    = errors.New("invalid numeric input")
	ErrInvalidTransactionType = errors.New("transaction type must be income or expense")
	ErrInvalidMonth           = errors.New("month must be in YYYY-MM format")
	ErrTransactionNotFound    = errors.New("transaction not found")
	ErrNotAuthenticated       = errors.New("please login first")
	ErrStorage                = errors.New("storage error")
)

// ParseTransactionType accepts "income" or "expense", ignoring case and
// surrounding whitespace.
func ParseTransactionType(s string) (TransactionType, error) {
	switch t := TransactionType(strings.ToLower(strings.TrimSpace(s))); t {
	case Income, Expense:
		return t, nil
	default:
		return "", ErrInvalidTransactionType
	}
}

func (t TransactionType) Validate() error {
	if t != Income && t != Expense {
		return ErrInvalidTransactionType
	}
	return nil
}

func (t TransactionType) String() string {
	return string(t)
}

func (tx Transaction) Validate() error {
	if err := tx.Type.Validate(); err != nil {
		return err
	}
	if tx.Date.IsZero() {
		return errors.New("transaction date cannot be zero")
	}
	return nil
}
