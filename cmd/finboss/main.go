package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"finboss/internal/app"
	"finboss/internal/cli"
	"finboss/internal/config"
	"finboss/internal/export/sheets"
	applog "finboss/internal/log"
)

func main() {
	cli.LoadEnvFile()

	cfg := cli.LoadAndValidateConfig(cli.SetupLogger("info"))
	logger := cli.SetupLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	container, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize application", applog.FieldError, err)
		os.Exit(1)
	}

	r := &runner{
		c:           container,
		out:         os.Stdout,
		now:         time.Now,
		newExporter: sheetsExporter(cfg, logger),
	}
	err = run(ctx, r, os.Args[1:])

	if cerr := container.Close(); cerr != nil {
		logger.Warn("Cleanup failed", applog.FieldError, cerr)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func sheetsExporter(cfg *config.Config, logger *applog.Logger) func(context.Context) (exporter, error) {
	if !cfg.SheetsEnabled() {
		return nil
	}
	return func(ctx context.Context) (exporter, error) {
		return sheets.New(ctx, sheets.Config{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
			CredentialsFile: cfg.GoogleServiceAccountFile,
		}, logger)
	}
}
