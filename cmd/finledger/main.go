package main

import (
	"context"
	"os"

	"finledger/internal/cli"
	applog "finledger/internal/log"
	"finledger/internal/menu"
	"finledger/internal/services"
)

func main() {
	cli.LoadEnvFile()

	cfg, logger := cli.LoadAndValidateConfig()

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	closeStore := func() {
		if err := repo.Close(); err != nil {
			logger.Error("Failed to close SQLite repository", applog.FieldError, err)
		}
	}
	// Close is idempotent, so the signal path and the normal path may both run it
	defer closeStore()
	stop := cli.OnShutdown(logger, closeStore)
	defer stop()

	svc := menu.Services{
		Auth:    services.NewAuthService(repo, cfg.BcryptCost, logger),
		Ledger:  services.NewLedgerService(repo, logger),
		Budgets: services.NewBudgetService(repo, logger),
		Reports: services.NewReportService(repo, logger),
	}

	opts := []menu.Option{menu.WithLogger(logger)}
	if fd := int(os.Stdin.Fd()); menu.IsTerminal(fd) {
		opts = append(opts, menu.WithPasswordReader(menu.TerminalPasswordReader(fd, os.Stdout)))
	}

	m := menu.New(os.Stdin, os.Stdout, svc, opts...)
	if err := m.Run(context.Background()); err != nil {
		logger.Error("Menu stopped", applog.FieldError, err)
	}
}
