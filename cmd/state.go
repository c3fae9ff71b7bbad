package cmd

import (
	"fmt"
	"log"
	"os"
	"text/tabwriter"

	"fleet-sync/core/catalog"
	"fleet-sync/core/config"
	"fleet-sync/core/database"
	"fleet-sync/core/logger"
	"fleet-sync/feature/identity"
	"fleet-sync/feature/sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// stateCmd groups identity store inspection commands.
var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Inspect the identity store",
}

var stateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every VIN to platform-id mapping",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, err := openState()
		if err != nil {
			return err
		}

		mappings, err := store.All(cmd.Context())
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "EXTERNAL ID\tREMOTE ID\tLAST PRICE\tLAST SYNCED")
		for _, m := range mappings {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				m.ExternalID, m.RemoteID, m.LastKnownPrice.String(),
				m.LastSyncedAt.Format("2006-01-02 15:04:05"))
		}
		return w.Flush()
	},
}

var stateVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Cross-check the identity store against the platform",
	Long: `Compares every identity mapping with the platform's own listing state
and reports stale mappings, price drift and untracked listings. Read-only on
both sides.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, cfg, err := openState()
		if err != nil {
			return err
		}

		client, err := catalog.NewClient(cfg.Catalog)
		if err != nil {
			return err
		}

		result, err := sync.Verify(cmd.Context(), store, client)
		if err != nil {
			return err
		}

		fmt.Printf("mappings: %d, active platform listings: %d\n", result.Mapped, result.RemoteActive)
		for _, d := range result.Stale {
			fmt.Printf("stale: %s (%s): %s\n", d.ExternalID, d.RemoteID, d.Detail)
		}
		for _, d := range result.PriceDrift {
			fmt.Printf("price drift: %s (%s): %s\n", d.ExternalID, d.RemoteID, d.Detail)
		}
		for _, d := range result.Untracked {
			fmt.Printf("untracked: %s (%s): %s\n", d.ExternalID, d.RemoteID, d.Detail)
		}

		if !result.Clean() {
			return fmt.Errorf("identity store and platform disagree")
		}
		fmt.Println("identity store and platform agree")
		return nil
	},
}

// openState loads the configuration and opens the identity store.
func openState() (*identity.GormStore, *config.Config, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logg, err := logger.New(&cfg.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	zap.ReplaceGlobals(logg)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("identity store database unavailable: %w", err)
	}
	return identity.NewGormStore(db), cfg, nil
}

func init() {
	stateCmd.AddCommand(stateListCmd)
	stateCmd.AddCommand(stateVerifyCmd)
	RootCmd.AddCommand(stateCmd)
}
