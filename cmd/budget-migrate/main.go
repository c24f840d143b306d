// Command budget-migrate exports the budget database to a JSON file or imports one.
//
//	budget-migrate export -out backup.json
//	budget-migrate import -in backup.json
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	"budgetdash/internal/cli"
	"budgetdash/internal/core"
	applog "budgetdash/internal/log"
	"budgetdash/internal/services"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg, _ := cli.LoadAndValidateConfig()
	// Logs go to stderr so an export can be piped from stdout.
	logger := applog.New(applog.Config{
		Level:     applog.ParseLevel(cfg.LogLevel),
		Format:    cfg.LogFormat,
		Component: applog.ComponentMigrate,
		Output:    os.Stderr,
	})
	applog.SetDefault(logger)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	svc := services.New(repo, nil, cfg.MaxRecurringMonths)
	ctx := context.Background()

	var err error
	switch os.Args[1] {
	case "export":
		fs := flag.NewFlagSet("export", flag.ExitOnError)
		out := fs.String("out", "", "output file (default stdout)")
		_ = fs.Parse(os.Args[2:])
		err = runExport(ctx, logger, svc.Migration, *out)
	case "import":
		fs := flag.NewFlagSet("import", flag.ExitOnError)
		in := fs.String("in", "", "input file (required)")
		_ = fs.Parse(os.Args[2:])
		err = runImport(ctx, logger, svc.Migration, *in)
	default:
		usage()
		repo.Close()
		os.Exit(2)
	}

	if err != nil {
		logger.ErrorContext(ctx, "Migration failed", applog.FieldOperation, os.Args[1], applog.FieldError, err)
		repo.Close()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: budget-migrate export [-out file] | import -in file")
}

func runExport(ctx context.Context, logger *applog.Logger, m *services.MigrationService, path string) error {
	snap, err := m.Export(ctx)
	if err != nil {
		return err
	}

	w := os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create export file: %w", err)
		}
		defer f.Close()
		w = f
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	logger.InfoContext(ctx, "Export complete", applog.NewFields().
		WithOperation(applog.OpExport).
		WithCount(len(snap.Transactions)).
		ToSlice()...)
	return nil
}

func runImport(ctx context.Context, logger *applog.Logger, m *services.MigrationService, path string) error {
	if path == "" {
		return errors.New("import requires -in")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read import file: %w", err)
	}

	var snap core.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return fmt.Errorf("parse import file: %w", err)
	}

	res, err := m.Import(ctx, snap)
	if err != nil {
		return err
	}
	logger.InfoContext(ctx, "Import complete",
		applog.FieldOperation, applog.OpImport,
		"categories_imported", res.Categories.Imported,
		"categories_skipped", res.Categories.Skipped,
		"transactions_imported", res.Transactions.Imported,
		"transactions_skipped", res.Transactions.Skipped,
		"settings_applied", res.SettingsApplied)
	return nil
}
