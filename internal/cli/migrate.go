package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dukerupert/larder/internal/database"
)

func migrateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|status]",
		Short:     "Apply, roll back or inspect schema migrations",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down", "status"},
		RunE: func(cmd *cobra.Command, args []string) error {
			command := "up"
			if len(args) == 1 {
				command = args[0]
			}

			db, err := database.Connect(opts.dbPath)
			if err != nil {
				return fmt.Errorf("open %s: %w", opts.dbPath, err)
			}
			defer db.Close()

			if err := database.Migrate(db, command); err != nil {
				return err
			}
			if command != "status" {
				success(cmd.OutOrStdout(), "migrate %s on %s", command, opts.dbPath)
			}
			return nil
		},
	}
}
