package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/defendiq/defendiq/internal/catalog"
	"github.com/defendiq/defendiq/internal/persist"
	"github.com/defendiq/defendiq/internal/stats"
	"github.com/defendiq/defendiq/internal/store"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show training statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
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

		cat, err := catalog.Load(ctx, catalog.DefaultConfig())
		if err != nil {
			fmt.Fprintln(os.Stderr, "warning: training catalog unavailable:", err)
			cat = catalog.Empty()
		}

		durable := persist.New(remoteOrNil(), st.Slots())
		agg, err := stats.NewService(durable, cat.Len()).Aggregate(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("Points:      %d\n", agg.Points)
		fmt.Printf("Streak:      %d\n", agg.Streak)
		fmt.Printf("Completion:  %d%%\n", agg.Completion)
		if len(agg.Badges) == 0 {
			fmt.Println("Badges:      none yet")
		} else {
			fmt.Printf("Badges:      %s\n", strings.Join(agg.Badges, ", "))
		}

		answered, correct, err := st.Journal().Totals(ctx)
		if err != nil {
			return err
		}
		if answered > 0 {
			fmt.Printf("\nAnswers this device: %d (%d correct)\n", answered, correct)
			for _, m := range cat.Modules() {
				a, c, err := st.Journal().ModuleAccuracy(ctx, m.Key)
				if err != nil {
					return err
				}
				if a == 0 {
					continue
				}
				fmt.Printf("  %-28s %d/%d correct\n", m.Title, c, a)
			}
		}
		return nil
	},
}
