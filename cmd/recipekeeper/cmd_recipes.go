package main

import (
	"github.com/spf13/cobra"
)

func newRecipesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "recipes",
		Short: "List all stored recipes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.close()

			rs, err := a.svc.Recipes(cmd.Context())
			if err != nil {
				return err
			}
			printRecipes(rs)
			return nil
		},
	}
}
