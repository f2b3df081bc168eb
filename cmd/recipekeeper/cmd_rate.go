package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newRateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rate ID RATING",
		Short: "Rate a recipe from 1 to 5",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid recipe id %q", args[0])
			}
			rating, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid rating %q", args[1])
			}

			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.close()

			r, err := a.svc.RateRecipe(cmd.Context(), id, rating)
			if err != nil {
				return err
			}
			fmt.Printf("%s now rated %.1f over %d ratings.\n", r.Title, r.AverageRating, r.RatingCount)
			return nil
		},
	}
}
