package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dukerupert/larder/internal/store"
)

func householdsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "households",
		Short: "Inspect households",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List households with their invite codes and member counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := opts.open()
			if err != nil {
				return err
			}
			defer db.Close()

			households, err := store.NewHouseholdStore(db).List(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(households) == 0 {
				warn(out, "no households")
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tINVITE\tMEMBERS\tCREATED")
			for _, h := range households {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\n", h.ID, h.Name, h.InviteCode, h.MemberCount, h.CreatedAt.Format("2006-01-02"))
			}
			return tw.Flush()
		},
	})
	return cmd
}
