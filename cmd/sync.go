package cmd

import (
	"context"
	"fmt"

	"github.com/defendiq/defendiq/internal/persist"
	"github.com/defendiq/defendiq/internal/remote"
	"github.com/defendiq/defendiq/internal/store"
	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronize progress with the remote store",
}

var syncPushCmd = &cobra.Command{
	Use:   "push",
	Short: "Upload local progress and score to the remote store",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDurable(cmd, func(ctx context.Context, d *persist.DurableStore) error {
			if err := d.Push(ctx); err != nil {
				return err
			}
			fmt.Println("Pushed local progress to the remote store.")
			return nil
		})
	},
}

var syncPullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Download remote progress and score, overwriting local copies",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDurable(cmd, func(ctx context.Context, d *persist.DurableStore) error {
			if err := d.Pull(ctx); err != nil {
				return err
			}
			fmt.Println("Pulled remote progress into the local store.")
			return nil
		})
	},
}

func withDurable(cmd *cobra.Command, fn func(context.Context, *persist.DurableStore) error) error {
	client := remote.NewClientFromEnv()
	if client == nil {
		return fmt.Errorf("DEFENDIQ_API_URL is not set; nothing to sync with")
	}

	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return fmt.Errorf("resolve DB path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	return fn(context.Background(), persist.New(client, st.Slots()))
}

func init() {
	syncCmd.AddCommand(syncPushCmd)
	syncCmd.AddCommand(syncPullCmd)
}
