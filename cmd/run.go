package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/defendiq/defendiq/internal/app"
	"github.com/defendiq/defendiq/internal/catalog"
	"github.com/defendiq/defendiq/internal/engine"
	"github.com/defendiq/defendiq/internal/persist"
	"github.com/defendiq/defendiq/internal/progress"
	"github.com/defendiq/defendiq/internal/remote"
	"github.com/defendiq/defendiq/internal/stats"
	"github.com/defendiq/defendiq/internal/store"
	"github.com/spf13/cobra"
)

// runApp opens the store, builds dependencies, and launches the TUI.
// A catalog load failure degrades to an empty catalog instead of
// aborting: the score stays visible and the list offers a retry.
func runApp(cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
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

	durable := persist.New(remoteOrNil(), st.Slots())

	loadCatalog := func(ctx context.Context) (*catalog.Catalog, error) {
		return catalog.Load(ctx, catalog.DefaultConfig())
	}

	build := func(cat *catalog.Catalog) *engine.Engine {
		return engine.New(cat,
			progress.NewStore(durable),
			stats.NewService(durable, cat.Len()),
			durable,
			engine.WithJournal(st.Journal()),
		)
	}

	cat, err := loadCatalog(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "warning: training catalog unavailable:", err)
		cat = catalog.Empty()
	}

	return app.Run(app.Options{
		Engine:      build(cat),
		LoadCatalog: loadCatalog,
		Rebuild:     build,
	})
}

// remoteOrNil returns the remote progress client, or nil when no API
// endpoint is configured; the durable store then runs local-only.
func remoteOrNil() persist.Remote {
	c := remote.NewClientFromEnv()
	if c == nil {
		return nil
	}
	return c
}
