// Package main implements the entry point for the TaskFlow API server,
// which manages users' tasks and notifies them about due dates by email
// and in-app messages.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	_ "time/tzdata" // embeds the zone database for notifications.timezone

	"github.com/phrazzld/taskflow/internal/platform/migrations"
)

func main() {
	migrateCmd := flag.String("migrate", "", "run a migration command (up, down, status) and exit")
	flag.Parse()

	if err := run(context.Background(), *migrateCmd); err != nil {
		log.Fatalf("taskflow: %v", err)
	}
}

// run loads configuration, prepares the database and either executes a
// migration command or serves until a shutdown signal arrives.
func run(ctx context.Context, migrateCmd string) error {
	cfg, err := loadAppConfig()
	if err != nil {
		return err
	}

	logger, err := setupAppLogger(cfg)
	if err != nil {
		return err
	}

	db, err := setupAppDatabase(ctx, cfg, logger)
	if err != nil {
		return err
	}

	if migrateCmd != "" {
		defer func() { _ = db.Close() }()
		return handleMigrations(ctx, db.DB, cfg.Database.Driver, migrateCmd, logger, os.Stdout)
	}

	if cfg.Database.AutoMigrate {
		if err := migrations.Up(ctx, db.DB, cfg.Database.Driver, logger); err != nil {
			_ = db.Close()
			return fmt.Errorf("failed to apply migrations: %w", err)
		}
	}

	app, err := newApplication(cfg, logger, db)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	return app.Run(ctx)
}
