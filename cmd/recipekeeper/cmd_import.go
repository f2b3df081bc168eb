package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newImportCmd(opts *rootOptions) *cobra.Command {
	var listID int64

	cmd := &cobra.Command{
		Use:   "import URL...",
		Short: "Scrape recipes from URLs into the database",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.close()

			res, err := a.svc.ImportRecipes(cmd.Context(), args, listID)
			if err != nil {
				return err
			}
			fmt.Printf("Added %d new recipes, skipped %d duplicates.\n", res.Added, res.Skipped)
			return nil
		},
	}
	cmd.Flags().Int64Var(&listID, "list", 0, "add imported recipes to this list id")
	return cmd
}
