// Package menu is the interactive text front end: a numbered menu read
// from an input stream, dispatching to the auth, ledger, budget and report
// services. Every error those return is reported and the loop carries on.
package menu

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"finledger/internal/core"
	applog "finledger/internal/log"
	"finledger/internal/services"
)

const (
	optRegister = "1"
	optLogin    = "2"
	optAdd      = "3"
	optView     = "4"
	optUpdate   = "5"
	optDelete   = "6"
	optMonthly  = "7"
	optYearly   = "8"
	optSetBudg  = "9"
	optCheck    = "10"
	optExit     = "11"
)

const banner = `
==== Finance App Menu ====
1. Register
2. Login
3. Add Transaction
4. View Transactions
5. Update Transaction
6. Delete Transaction
7. Monthly Report
8. Yearly Report
9. Set Budget
10. Check Budget
11. Exit
`

// Services groups what the menu dispatches to.
type Services struct {
	Auth    *services.AuthService
	Ledger  *services.LedgerService
	Budgets *services.BudgetService
	Reports *services.ReportService
}

type Menu struct {
	in       *bufio.Reader
	out      io.Writer
	svc      Services
	password PasswordReader
	logger   *applog.Logger

	// logged-in user; zero until option 2 succeeds
	session services.Session
}

type Option func(*Menu)

// WithPasswordReader overrides how passwords are read. By default the
// password is read as a plain line from the menu's input.
func WithPasswordReader(r PasswordReader) Option {
	return func(m *Menu) {
		m.password = r
	}
}

func WithLogger(l *applog.Logger) Option {
	return func(m *Menu) {
		m.logger = l.WithComponent(applog.ComponentMenu)
	}
}

func New(in io.Reader, out io.Writer, svc Services, opts ...Option) *Menu {
	m := &Menu{
		in:     bufio.NewReader(in),
		out:    out,
		svc:    svc,
		logger: applog.Nop(),
	}
	m.password = func(prompt string) (string, error) {
		return readLine(m.in, m.out, prompt)
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run drives the menu until option 11, end of input or ctx cancellation.
func (m *Menu) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		fmt.Fprint(m.out, banner)
		choice, err := readLine(m.in, m.out, "Enter your choice: ")
		if err != nil {
			if errors.Is(err, io.EOF) {
				m.println("Thank you for using Finance App!")
				return nil
			}
			return fmt.Errorf("read choice: %w", err)
		}

		choice = strings.TrimSpace(choice)
		if choice == optExit {
			m.println("Thank you for using Finance App!")
			return nil
		}

		if err := m.dispatch(ctx, choice); err != nil {
			if errors.Is(err, io.EOF) {
				m.println("Thank you for using Finance App!")
				return nil
			}
			m.report(ctx, choice, err)
		}
	}
}

func (m *Menu) dispatch(ctx context.Context, choice string) error {
	switch choice {
	case optRegister:
		return m.register(ctx)
	case optLogin:
		return m.login(ctx)
	}

	if !m.session.Valid() {
		m.println("Invalid choice or please login first.")
		return nil
	}

	switch choice {
	case optAdd:
		return m.addTransaction(ctx)
	case optView:
		return m.viewTransactions(ctx)
	case optUpdate:
		return m.updateTransaction(ctx)
	case optDelete:
		return m.deleteTransaction(ctx)
	case optMonthly:
		return m.monthlyReport(ctx)
	case optYearly:
		return m.yearlyReport(ctx)
	case optSetBudg:
		return m.setBudget(ctx)
	case optCheck:
		return m.checkBudget(ctx)
	default:
		m.println("Invalid choice or please login first.")
		return nil
	}
}

func (m *Menu) register(ctx context.Context) error {
	username, err := m.readLine("Username: ")
	if err != nil {
		return err
	}
	password, err := m.password("Password: ")
	if err != nil {
		return err
	}
	if _, err := m.svc.Auth.Register(ctx, username, password); err != nil {
		return err
	}
	m.println("User registered successfully.")
	return nil
}

func (m *Menu) login(ctx context.Context) error {
	username, err := m.readLine("Username: ")
	if err != nil {
		return err
	}
	password, err := m.password("Password: ")
	if err != nil {
		return err
	}
	sess, err := m.svc.Auth.Authenticate(ctx, username, password)
	if err != nil {
		return err
	}
	m.session = sess
	m.printf("Welcome %s!\n", sess.Username())
	return nil
}

func (m *Menu) addTransaction(ctx context.Context) error {
	amount, err := m.readAmount("Amount: ")
	if err != nil {
		return err
	}
	txType, err := m.readType("Type (income/expense): ")
	if err != nil {
		return err
	}
	category, err := m.readLine("Category: ")
	if err != nil {
		return err
	}
	if _, err := m.svc.Ledger.Add(ctx, m.session, amount, txType, category); err != nil {
		return err
	}
	m.println("Transaction added.")
	return nil
}

func (m *Menu) viewTransactions(ctx context.Context) error {
	txs, err := m.svc.Ledger.List(ctx, m.session)
	if err != nil {
		return err
	}
	if len(txs) == 0 {
		m.println("No transactions found.")
		return nil
	}
	for _, tx := range txs {
		m.printf("ID: %d, Amount: %s, Type: %s, Category: %s, Date: %s\n",
			tx.ID, core.FormatAmount(tx.Amount), tx.Type, tx.Category, tx.Date.Format(core.TimestampLayout))
	}
	return nil
}

func (m *Menu) updateTransaction(ctx context.Context) error {
	id, err := m.readID("Transaction ID: ")
	if err != nil {
		return err
	}
	amount, err := m.readAmount("New Amount: ")
	if err != nil {
		return err
	}
	txType, err := m.readType("New Type (income/expense): ")
	if err != nil {
		return err
	}
	category, err := m.readLine("New Category: ")
	if err != nil {
		return err
	}
	if _, err := m.svc.Ledger.Update(ctx, m.session, id, amount, txType, category); err != nil {
		return err
	}
	m.println("Transaction updated.")
	return nil
}

func (m *Menu) deleteTransaction(ctx context.Context) error {
	id, err := m.readID("Transaction ID to delete: ")
	if err != nil {
		return err
	}
	if err := m.svc.Ledger.Delete(ctx, m.session, id); err != nil {
		return err
	}
	m.println("Transaction deleted.")
	return nil
}

func (m *Menu) monthlyReport(ctx context.Context) error {
	rows, err := m.svc.Reports.Monthly(ctx, m.session)
	if err != nil {
		return err
	}
	m.printSummaries("Month", rows)
	return nil
}

func (m *Menu) yearlyReport(ctx context.Context) error {
	rows, err := m.svc.Reports.Yearly(ctx, m.session)
	if err != nil {
		return err
	}
	m.printSummaries("Year", rows)
	return nil
}

func (m *Menu) printSummaries(label string, rows []core.PeriodSummary) {
	if len(rows) == 0 {
		m.println("No transactions found.")
		return
	}
	for _, r := range rows {
		m.printf("%s: %s, Income: %s, Expense: %s, Savings: %s\n",
			label, r.Period,
			core.FormatAmount(r.Income),
			core.FormatAmount(r.Expense),
			core.FormatAmount(r.Savings()))
	}
}

func (m *Menu) setBudget(ctx context.Context) error {
	category, err := m.readLine("Category: ")
	if err != nil {
		return err
	}
	month, err := m.readMonth()
	if err != nil {
		return err
	}
	amount, err := m.readAmount("Budget Amount: ")
	if err != nil {
		return err
	}
	if err := m.svc.Budgets.Set(ctx, m.session, category, amount, month); err != nil {
		return err
	}
	m.printf("Budget set for %s in category %s.\n", month, category)
	return nil
}

func (m *Menu) checkBudget(ctx context.Context) error {
	category, err := m.readLine("Category: ")
	if err != nil {
		return err
	}
	month, err := m.readMonth()
	if err != nil {
		return err
	}
	status, err := m.svc.Budgets.Check(ctx, m.session, category, month)
	if err != nil {
		return err
	}
	m.printf("Budget for %s in %s: %s, Spent: %s, Remaining: %s\n",
		status.Category, status.Month,
		core.FormatAmount(status.Budget),
		core.FormatAmount(status.Spent),
		core.FormatAmount(status.Remaining))
	if status.OverBudget() {
		m.printf("Over budget by %s.\n", core.FormatAmount(-status.Remaining))
	}
	return nil
}

func (m *Menu) readLine(prompt string) (string, error) {
	return readLine(m.in, m.out, prompt)
}

func (m *Menu) readAmount(prompt string) (float64, error) {
	s, err := m.readLine(prompt)
	if err != nil {
		return 0, err
	}
	return core.ParseAmount(s)
}

func (m *Menu) readID(prompt string) (int64, error) {
	s, err := m.readLine(prompt)
	if err != nil {
		return 0, err
	}
	return core.ParseID(s)
}

func (m *Menu) readType(prompt string) (core.TransactionType, error) {
	s, err := m.readLine(prompt)
	if err != nil {
		return "", err
	}
	return core.ParseTransactionType(s)
}

func (m *Menu) readMonth() (core.Month, error) {
	s, err := m.readLine("Month (YYYY-MM): ")
	if err != nil {
		return "", err
	}
	return core.ParseMonth(s)
}

// report prints the user-facing message for err. Storage failures are
// also logged since the message hides their cause.
func (m *Menu) report(ctx context.Context, choice string, err error) {
	m.println(describe(err))

	switch {
	case errors.Is(err, core.ErrStorage):
		m.logger.ErrorContext(ctx, "Menu action failed", applog.FieldChoice, choice, applog.FieldError, err)
	case errors.Is(err, core.ErrAuthenticationFailed), errors.Is(err, core.ErrDuplicateUsername):
		m.logger.DebugContext(ctx, "Menu action rejected", applog.FieldChoice, choice, applog.FieldError, err)
	}
}

func describe(err error) string {
	switch {
	case errors.Is(err, core.ErrDuplicateUsername):
		return "Username already exists. Please try another."
	case errors.Is(err, core.ErrAuthenticationFailed):
		return "Authentication failed."
	case errors.Is(err, core.ErrInvalidCredentials):
		return "Username and password must not be empty."
	case errors.Is(err, core.ErrNoBudgetSet):
		return "No budget set for this category and month."
	case errors.Is(err, core.ErrInvalidNumericInput):
		return "Invalid input: please enter a number."
	case errors.Is(err, core.ErrInvalidTransactionType):
		return "Invalid type: please enter income or expense."
	case errors.Is(err, core.ErrInvalidMonth):
		return "Invalid month: please use YYYY-MM."
	case errors.Is(err, core.ErrTransactionNotFound):
		return "Transaction not found."
	case errors.Is(err, core.ErrNotAuthenticated):
		return "Invalid choice or please login first."
	case errors.Is(err, core.ErrStorage):
		return "Storage error: the operation was not saved."
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}

func (m *Menu) println(s string) {
	fmt.Fprintln(m.out, s)
}

func (m *Menu) printf(format string, args ...any) {
	fmt.Fprintf(m.out, format, args...)
}
