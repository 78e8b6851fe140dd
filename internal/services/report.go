package services

import (
	"context"
	"fmt"

	"finledger/internal/core"
	applog "finledger/internal/log"
)

// ReportService summarizes income, expense and savings per period.
type ReportService struct {
	store  ReportStore
	logger *applog.Logger
}

func NewReportService(store ReportStore, logger *applog.Logger) *ReportService {
	if logger == nil {
		logger = applog.Nop()
	}
	return &ReportService{
		store:  store,
		logger: logger.WithComponent(applog.ComponentReport),
	}
}

// Monthly returns one summary per calendar month, most recent first.
func (s *ReportService) Monthly(ctx context.Context, sess Session) ([]core.PeriodSummary, error) {
	return s.report(ctx, sess, applog.OpMonthlyReport, s.store.MonthlyTotals)
}

// Yearly returns one summary per calendar year, most recent first.
func (s *ReportService) Yearly(ctx context.Context, sess Session) ([]core.PeriodSummary, error) {
	return s.report(ctx, sess, applog.OpYearlyReport, s.store.YearlyTotals)
}

func (s *ReportService) report(ctx context.Context, sess Session, op string, totals func(context.Context, int64) ([]core.PeriodSummary, error)) ([]core.PeriodSummary, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}

	rows, err := totals(ctx, sess.UserID())
	if err != nil {
		s.logger.OpError(ctx, op, applog.ErrorTypeDatabase, err, applog.FieldUserID, sess.UserID())
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.logger.DebugContext(ctx, "Report built",
		applog.FieldOperation, op,
		applog.FieldUserID, sess.UserID(),
		applog.FieldPeriods, len(rows))
	return rows, nil
}
