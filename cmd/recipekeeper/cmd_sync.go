package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSyncCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Mirror not-yet-synced recipes to the Notion workspace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.close()

			if a.svc.Publisher == nil {
				return fmt.Errorf("notion is not configured: set notion.token and notion.database_id in ~/.recipekeeper.yaml or the NOTION_TOKEN / NOTION_DATABASE_ID environment variables")
			}

			res, err := a.svc.SyncUnsynced(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("Synced %d recipes", res.Synced)
			if res.Failed > 0 {
				fmt.Printf(", %d failed (will retry on next sync)", res.Failed)
			}
			fmt.Println(".")
			return nil
		},
	}
}
