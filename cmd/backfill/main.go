// ABOUTME: Backfill utility for tasks written before ids and authors were tracked.
// ABOUTME: Provides dry-run and backup capabilities so the rewrite can be checked first.

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"github.com/harperreed/dealflow/config"
	"github.com/harperreed/dealflow/db"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config", "err", err)
	}

	dbPath := flag.String("db", cfg.DBPath, "Path to database file")
	author := flag.String("author", cfg.Actor.Email, "Author for tasks with no assigner on record")
	dryRun := flag.Bool("dry-run", false, "Show what would happen without making changes")
	backup := flag.Bool("backup", true, "Create backup before writing")
	flag.Parse()

	if err := backfill(context.Background(), *dbPath, *author, *dryRun, *backup); err != nil {
		log.Fatal("backfill failed", "err", err)
	}
}

func backfill(ctx context.Context, dbPath, author string, dryRun, createBackup bool) error {
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return fmt.Errorf("database file does not exist: %s", dbPath)
	}

	if createBackup && !dryRun {
		backupPath := fmt.Sprintf("%s.backup.%s", dbPath, time.Now().Format("20060102-150405"))
		log.Info("creating backup", "path", backupPath)

		input, err := os.ReadFile(dbPath)
		if err != nil {
			return fmt.Errorf("failed to read database: %w", err)
		}
		if err := os.WriteFile(backupPath, input, 0600); err != nil {
			return fmt.Errorf("failed to create backup: %w", err)
		}
	}

	database, err := db.OpenDatabase(dbPath)
	if err != nil {
		return err
	}
	defer func() { _ = database.Close() }()

	legacy, err := db.CountLegacyTasks(database)
	if err != nil {
		return err
	}
	if legacy == 0 {
		log.Info("no legacy tasks found")
		return nil
	}
	log.Info("found legacy tasks", "count", legacy)

	report, err := db.BackfillTasks(ctx, db.NewDocumentStore(database, nil), author, dryRun)
	if err != nil {
		return err
	}

	prefix := ""
	if dryRun {
		prefix = "[DRY RUN] would update "
	}
	log.Info(prefix+"opportunities", "count", report.Opportunities)
	log.Info(prefix+"task ids", "count", report.IDs)
	log.Info(prefix+"task authors", "count", report.Authors)
	if report.Unresolved > 0 {
		log.Warn("tasks still without an author; rerun with -author", "count", report.Unresolved)
	}
	return nil
}
