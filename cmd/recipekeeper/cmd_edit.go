package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/psdwizzard/recipekeeper/pkg/recipes"
)

func newEditCmd(opts *rootOptions) *cobra.Command {
	var title, ingredients, instructions, image string

	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Edit recipe fields; omitted flags keep current values",
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

			current, err := a.svc.GetRecipe(cmd.Context(), id)
			if err != nil {
				return err
			}
			edit := recipes.RecipeEdit{
				Title:        current.Title,
				Ingredients:  current.Ingredients,
				Instructions: current.Instructions,
				Image:        current.Image,
			}
			if cmd.Flags().Changed("title") {
				edit.Title = title
			}
			if cmd.Flags().Changed("ingredients") {
				edit.Ingredients = ingredients
			}
			if cmd.Flags().Changed("instructions") {
				edit.Instructions = instructions
			}
			if cmd.Flags().Changed("image") {
				edit.Image = image
			}

			r, err := a.svc.EditRecipe(cmd.Context(), id, edit)
			if err != nil {
				return err
			}
			fmt.Printf("Updated #%d %s.\n", r.ID, r.Title)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&ingredients, "ingredients", "", "new ingredients, one per line")
	cmd.Flags().StringVar(&instructions, "instructions", "", "new instructions")
	cmd.Flags().StringVar(&image, "image", "", "new image URL")
	return cmd
}
