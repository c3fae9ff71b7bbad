package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"fleet-sync/core/catalog"
	"fleet-sync/core/config"
	"fleet-sync/core/database"
	"fleet-sync/core/logger"
	"fleet-sync/core/reconcile"
	"fleet-sync/core/storage"
	"fleet-sync/feature/identity"
	"fleet-sync/feature/sync"
	"fleet-sync/feature/vehicle"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	syncCloseMissing bool
	syncUpdatePrices bool
	syncDryRun       bool
	syncJSON         bool
	syncConcurrency  int
	syncLocations    string
)

// syncCmd runs one synchronization run for a feed file.
var syncCmd = &cobra.Command{
	Use:   "sync <feed.csv>",
	Short: "Synchronize a vehicle feed with the platform catalog",
	Long: `Reads a partner CSV feed, computes the difference against the identity
store and pushes the resulting create, update and close operations to the
platform. Closing and price updates are gated behind flags so a default run
can never deactivate listings by accident.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(".")
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}

		logg, err := logger.New(&cfg.Log)
		if err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		// Flags override the configured defaults only when set.
		runCfg := cfg.Sync
		if cmd.Flags().Changed("close-missing") {
			runCfg.CloseMissing = syncCloseMissing
		}
		if cmd.Flags().Changed("update-prices") {
			runCfg.UpdatePrices = syncUpdatePrices
		}
		if cmd.Flags().Changed("concurrency") {
			runCfg.Concurrency = syncConcurrency
		}

		db, err := database.Connect(cfg.Database)
		if err != nil {
			return fmt.Errorf("identity store database unavailable: %w", err)
		}
		store := identity.NewGormStore(db)
		if err := store.Migrate(); err != nil {
			return fmt.Errorf("identity store migration failed: %w", err)
		}

		client, err := catalog.NewClient(cfg.Catalog)
		if err != nil {
			return err
		}

		// The run archive is optional infrastructure; a sync must not fail
		// because object storage is down.
		var archive *sync.Archive
		if storeClient, err := storage.NewClient(cfg.Storage); err != nil {
			logg.Warn("run archive unavailable", zap.Error(err))
		} else {
			archive = sync.NewArchive(storeClient, cfg.Storage.Bucket)
			if err := archive.EnsureBucket(cmd.Context()); err != nil {
				logg.Warn("run archive unavailable", zap.Error(err))
				archive = nil
			}
		}

		var locations map[string]string
		if syncLocations != "" {
			locations, err = vehicle.LoadLocationMap(syncLocations)
			if err != nil {
				return err
			}
		}

		feed, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read feed: %w", err)
		}
		records, rowErrs, err := vehicle.NewLoader(locations).Load(bytes.NewReader(feed))
		if err != nil {
			return err
		}

		svc := sync.NewService(store, sync.NewGateway(client), runCfg, logg, archive)
		report, err := svc.Run(cmd.Context(), sync.RunInput{
			Records:     records,
			ParseErrors: rowErrs,
			Feed:        feed,
			Options: reconcile.Options{
				CloseMissing: runCfg.CloseMissing,
				UpdatePrices: runCfg.UpdatePrices,
			},
			DryRun: syncDryRun,
		})
		if err != nil {
			return err
		}

		if syncJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		}
		printReport(report)

		if report.Failed > 0 {
			return fmt.Errorf("%d operation(s) failed; keys: %v", report.Failed, report.FailedKeys())
		}
		return nil
	},
}

func printReport(r *reconcile.Report) {
	fmt.Printf("run %s\n", r.RunID)
	if r.DryRun {
		fmt.Printf("dry run: planned %d create(s), %d field update(s), %d price update(s), %d close(s)\n",
			r.Plan.Creates, r.Plan.FieldUpdates, r.Plan.PriceUpdates, r.Plan.Closes)
	} else {
		fmt.Printf("created %d, updated %d, price changed %d, closed %d, failed %d, skipped %d\n",
			r.Created, r.Updated, r.PriceChanged, r.Closed, r.Failed, r.Skipped)
	}
	for _, w := range r.Warnings {
		fmt.Printf("warning: line %d key %s: %s\n", w.Line, w.Key, w.Message)
	}
	for _, e := range r.ParseErrors {
		fmt.Printf("row error: line %d key %s: %s\n", e.Line, e.Key, e.Message)
	}
}

func init() {
	syncCmd.Flags().BoolVar(&syncCloseMissing, "close-missing", false, "close listings missing from the feed")
	syncCmd.Flags().BoolVar(&syncUpdatePrices, "update-prices", false, "push price changes for existing listings")
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "plan only, do not touch the platform")
	syncCmd.Flags().BoolVar(&syncJSON, "json", false, "print the full report as JSON")
	syncCmd.Flags().IntVar(&syncConcurrency, "concurrency", 0, "concurrent platform calls (overrides config)")
	syncCmd.Flags().StringVar(&syncLocations, "locations", "", "path to a partner-code to location-id JSON map")
	RootCmd.AddCommand(syncCmd)
}
