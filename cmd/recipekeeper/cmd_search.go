package main

import (
	"github.com/spf13/cobra"
)

func newSearchCmd(opts *rootOptions) *cobra.Command {
	var listID int64

	cmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Search recipes by title or ingredient",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.close()

			if listID != 0 {
				rs, err := a.svc.SearchWithinList(cmd.Context(), listID, args[0])
				if err != nil {
					return err
				}
				printRecipes(rs)
				return nil
			}
			rs, err := a.svc.SearchRecipes(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printRecipes(rs)
			return nil
		},
	}
	cmd.Flags().Int64Var(&listID, "list", 0, "restrict the search to one list id")
	return cmd
}
