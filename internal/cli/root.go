// Package cli implements larderctl, the operator tool for a larder database.
package cli

import (
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dukerupert/larder/internal/database"
	"github.com/dukerupert/larder/internal/logging"
)

type options struct {
	dbPath   string
	logLevel string
	logger   *slog.Logger
}

// RootCmd returns the larderctl command tree.
func RootCmd() *cobra.Command {
	opts := &options{}

	defaultDB := os.Getenv("LARDER_DB_PATH")
	if defaultDB == "" {
		defaultDB = "larder.db"
	}

	root := &cobra.Command{
		Use:           "larderctl",
		Short:         "Maintenance commands for a larder database",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			opts.logger = logging.Setup(opts.logLevel, "text")
		},
	}
	root.PersistentFlags().StringVar(&opts.dbPath, "db", defaultDB, "path to the SQLite database")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(migrateCmd(opts))
	root.AddCommand(ingredientsCmd(opts))
	root.AddCommand(householdsCmd(opts))
	root.AddCommand(backupCmd(opts))
	root.AddCommand(vapidCmd())
	root.AddCommand(tokenCmd())
	return root
}

// open returns the database with migrations applied.
func (o *options) open() (*sql.DB, error) {
	db, err := database.Open(o.dbPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", o.dbPath, err)
	}
	return db, nil
}

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
)

func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", green.Sprint("✓"), fmt.Sprintf(format, args...))
}

func warn(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, yellow.Sprintf(format, args...))
}
