package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dukerupert/larder/internal/store"
)

func ingredientsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingredients",
		Short: "Manage the shared ingredient catalog",
	}
	cmd.AddCommand(ingredientsSeedCmd(opts))
	cmd.AddCommand(ingredientsDedupCmd(opts))
	return cmd
}

func ingredientsSeedCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the default ingredients into an empty catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := opts.open()
			if err != nil {
				return err
			}
			defer db.Close()

			n, err := store.NewIngredientStore(db).Seed(cmd.Context())
			if err != nil {
				return err
			}
			if n == 0 {
				warn(cmd.OutOrStdout(), "catalog already has ingredients, nothing seeded")
				return nil
			}
			success(cmd.OutOrStdout(), "seeded %d ingredients", n)
			return nil
		},
	}
}

func ingredientsDedupCmd(opts *options) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "dedup",
		Short: "Merge ingredients whose names differ only by case",
		Long: `Groups ingredients by case-folded name and keeps the oldest of each group.
Recipe, pantry and shopping rows that point at a duplicate are moved to the
kept ingredient; colliding pantry and shopping rows are summed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := opts.open()
			if err != nil {
				return err
			}
			defer db.Close()

			groups, err := store.NewIngredientStore(db).Dedup(cmd.Context(), dryRun)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(groups) == 0 {
				success(out, "no duplicate ingredients")
				return nil
			}
			merged := 0
			for _, g := range groups {
				fmt.Fprintf(out, "  %s (#%d) <- %s\n", g.Name, g.KeepID, strings.Join(g.Names[1:], ", "))
				merged += len(g.MergedIDs)
			}
			if dryRun {
				warn(out, "dry run: %d duplicates in %d groups left in place", merged, len(groups))
				return nil
			}
			success(out, "merged %d duplicates in %d groups", merged, len(groups))
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report duplicates without changing anything")
	return cmd
}
