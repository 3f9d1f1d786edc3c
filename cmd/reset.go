package cmd

import (
	"context"
	"fmt"

	"github.com/defendiq/defendiq/internal/persist"
	"github.com/defendiq/defendiq/internal/store"
	"github.com/spf13/cobra"
)

var resetYes bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Erase all training progress",
	Long:  "Deletes local progress, score, session position, and the answer journal. With a remote store configured, its documents are reset too.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !resetYes {
			return fmt.Errorf("refusing to erase progress without --yes")
		}

		ctx := context.Background()
		dbPath, err := resolveDBPath(cmd)
		if err != nil {
			return fmt.Errorf("resolve DB path: %w", err)
		}
		st, err := store.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()

		durable := persist.New(remoteOrNil(), st.Slots())
		if err := durable.Clear(ctx); err != nil {
			return err
		}
		if err := st.Wipe(ctx); err != nil {
			return err
		}

		fmt.Println("All training progress erased.")
		return nil
	},
}

func init() {
	resetCmd.Flags().BoolVar(&resetYes, "yes", false, "Confirm erasing all progress")
}
