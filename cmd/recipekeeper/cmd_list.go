package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newListCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Manage recipe lists",
	}
	cmd.AddCommand(
		newListLsCmd(opts),
		newListCreateCmd(opts),
		newListDeleteCmd(opts),
		newListShowCmd(opts),
		newListAddCmd(opts),
		newListRemoveCmd(opts),
	)
	return cmd
}

func parseID(kind, arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s id %q", kind, arg)
	}
	return id, nil
}

func newListLsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "Show all lists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.close()

			lists, err := a.svc.Lists(cmd.Context())
			if err != nil {
				return err
			}
			if len(lists) == 0 {
				fmt.Println("no lists")
				return nil
			}
			for _, l := range lists {
				fmt.Printf("%4d %s\n", l.ID, l.Name)
			}
			return nil
		},
	}
}

func newListCreateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "create NAME",
		Short: "Create a new list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.close()

			l, err := a.svc.CreateList(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Created list %d %q.\n", l.ID, l.Name)
			return nil
		},
	}
}

func newListDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a list; its recipes are kept",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("list", args[0])
			if err != nil {
				return err
			}
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.svc.DeleteList(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Printf("Deleted list %d.\n", id)
			return nil
		},
	}
}

func newListShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show the recipes in a list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("list", args[0])
			if err != nil {
				return err
			}
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.close()

			rs, err := a.svc.RecipesInList(cmd.Context(), id)
			if err != nil {
				return err
			}
			printRecipes(rs)
			return nil
		},
	}
}

func newListAddCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add RECIPE_ID LIST_ID",
		Short: "Add a recipe to a list",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			recipeID, err := parseID("recipe", args[0])
			if err != nil {
				return err
			}
			listID, err := parseID("list", args[1])
			if err != nil {
				return err
			}
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.svc.AddToList(cmd.Context(), recipeID, listID); err != nil {
				return err
			}
			fmt.Printf("Added recipe %d to list %d.\n", recipeID, listID)
			return nil
		},
	}
}

func newListRemoveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove RECIPE_ID LIST_ID",
		Short: "Remove a recipe from a list",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			recipeID, err := parseID("recipe", args[0])
			if err != nil {
				return err
			}
			listID, err := parseID("list", args[1])
			if err != nil {
				return err
			}
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.svc.RemoveFromList(cmd.Context(), recipeID, listID); err != nil {
				return err
			}
			fmt.Printf("Removed recipe %d from list %d.\n", recipeID, listID)
			return nil
		},
	}
}
