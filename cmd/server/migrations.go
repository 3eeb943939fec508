package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"
	"time"

	"github.com/phrazzld/taskflow/internal/platform/migrations"
)

// handleMigrations executes a single migration command against db.
// Supported commands are up, down and status; status writes a table to out.
func handleMigrations(
	ctx context.Context,
	db *sql.DB,
	driver string,
	migrateCmd string,
	logger *slog.Logger,
	out io.Writer,
) error {
	logger.Info("Executing migrations", "command", migrateCmd, "driver", driver)

	switch migrateCmd {
	case "up":
		return migrations.Up(ctx, db, driver, logger)
	case "down":
		return migrations.Down(ctx, db, driver, logger)
	case "status":
		statuses, err := migrations.List(ctx, db, driver)
		if err != nil {
			return err
		}
		return writeMigrationStatus(out, statuses)
	default:
		return fmt.Errorf("unknown migration command %q (want up, down or status)", migrateCmd)
	}
}

func writeMigrationStatus(out io.Writer, statuses []migrations.Status) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "VERSION\tSTATE\tAPPLIED AT\tFILE")
	for _, s := range statuses {
		state, appliedAt := "pending", "-"
		if s.Applied {
			state = "applied"
			appliedAt = s.AppliedAt.UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", s.Version, state, appliedAt, s.Path)
	}
	return w.Flush()
}
