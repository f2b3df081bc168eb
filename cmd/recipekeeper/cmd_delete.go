package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a recipe and its list memberships",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid recipe id %q", args[0])
			}

			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.svc.DeleteRecipe(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Printf("Deleted recipe %d.\n", id)
			return nil
		},
	}
}
