package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show one recipe in full",
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

			r, err := a.svc.GetRecipe(cmd.Context(), id)
			if err != nil {
				return err
			}
			lists, err := a.svc.ListsContaining(cmd.Context(), id)
			if err != nil {
				return err
			}

			fmt.Printf("#%d %s\n", r.ID, r.Title)
			fmt.Printf("Author: %s\n", r.Author)
			if r.SourceURL != "" {
				fmt.Printf("Source: %s\n", r.SourceURL)
			}
			if r.Image != "" {
				fmt.Printf("Image:  %s\n", r.Image)
			}
			if r.RatingCount > 0 {
				fmt.Printf("Rating: %.1f over %d ratings\n", r.AverageRating, r.RatingCount)
			}
			if r.NotionSynced {
				fmt.Println("Synced to Notion")
			}
			if len(lists) > 0 {
				var names []string
				for _, l := range lists {
					names = append(names, l.Name)
				}
				fmt.Printf("Lists:  %s\n", strings.Join(names, ", "))
			}
			fmt.Printf("\nIngredients:\n%s\n\nInstructions:\n%s\n", r.Ingredients, r.Instructions)
			return nil
		},
	}
}
