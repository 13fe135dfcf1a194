package cli

import (
	"errors"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dukerupert/larder/internal/backup"
	"github.com/dukerupert/larder/internal/config"
	"github.com/dukerupert/larder/internal/objectstore"
)

var errNoStorage = errors.New("object storage is not configured; set the LARDER_S3_* variables")

func backupCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Encrypted database backups in object storage",
		Long: `Archives are SQLite snapshots sealed with AES-256-GCM under a key derived
from the passphrase. The passphrase comes from --passphrase or
LARDER_BACKUP_PASSPHRASE and is never stored.`,
	}

	var passphrase string
	cmd.PersistentFlags().StringVar(&passphrase, "passphrase", os.Getenv("LARDER_BACKUP_PASSPHRASE"), "archive passphrase")

	cmd.AddCommand(&cobra.Command{
		Use:   "create",
		Short: "Snapshot the database and upload it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			bucket := objectstore.New(config.S3())
			if bucket == nil {
				return errNoStorage
			}
			db, err := opts.open()
			if err != nil {
				return err
			}
			defer db.Close()

			res, err := backup.Create(cmd.Context(), db, bucket, passphrase, time.Now())
			if err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "uploaded %s (%d bytes)", res.Key, res.Size)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "restore <key>",
		Short: "Replace the database with an archive; stop the server first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bucket := objectstore.New(config.S3())
			if bucket == nil {
				return errNoStorage
			}
			if err := backup.Restore(cmd.Context(), bucket, args[0], passphrase, opts.dbPath); err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "restored %s into %s", args[0], opts.dbPath)
			return nil
		},
	})
	return cmd
}
