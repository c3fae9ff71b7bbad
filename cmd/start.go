package cmd

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"fleet-sync/core/catalog"
	"fleet-sync/core/config"
	"fleet-sync/core/database"
	"fleet-sync/core/logger"
	"fleet-sync/core/middleware/auth"
	"fleet-sync/core/middleware/rayid"
	"fleet-sync/core/storage"
	"fleet-sync/feature/identity"
	"fleet-sync/feature/sync"
	"fleet-sync/feature/vehicle"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var startLocations string

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the synchronization server",
	Long:  `Starts the HTTP server accepting feed uploads and serving archived run reports.`,
	Run: func(cmd *cobra.Command, args []string) {
		// 1. Load Configuration
		cfg, err := config.LoadConfig(".")
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}

		// 2. Initialize Logger
		logg, err := logger.New(&cfg.Log)
		if err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		// 3. Connect to the identity store. The server cannot plan without
		// it, so this one is not optional.
		db, err := database.Connect(cfg.Database)
		if err != nil {
			logg.Fatal("Identity store database unavailable", zap.Error(err))
		}
		store := identity.NewGormStore(db)
		if err := store.Migrate(); err != nil {
			logg.Fatal("Identity store migration failed", zap.Error(err))
		}

		// 4. Platform API client
		client, err := catalog.NewClient(cfg.Catalog)
		if err != nil {
			logg.Fatal("Failed to create catalog client", zap.Error(err))
		}

		// 5. Run archive (optional)
		var archive *sync.Archive
		if storeClient, err := storage.NewClient(cfg.Storage); err != nil {
			logg.Warn("Run archive unavailable", zap.Error(err))
		} else {
			archive = sync.NewArchive(storeClient, cfg.Storage.Bucket)
			if err := archive.EnsureBucket(cmd.Context()); err != nil {
				logg.Warn("Run archive unavailable", zap.Error(err))
				archive = nil
			}
		}

		var locations map[string]string
		if startLocations != "" {
			locations, err = vehicle.LoadLocationMap(startLocations)
			if err != nil {
				logg.Fatal("Failed to load location map", zap.Error(err))
			}
		}

		// 6. Initialize Fiber App
		app := fiber.New(fiber.Config{
			DisableStartupMessage: true, // We will log our own startup message
			BodyLimit:             cfg.Server.BodyLimit(),
		})

		// Middleware Registration
		// RayID must be first to trace everything.
		app.Use(rayid.New())

		// Logging middleware (Zap + RayID)
		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		// Auth (protect the API)
		app.Use(auth.New(auth.Config{ApiKey: cfg.Server.ApiKey}))

		// 7. Routes
		svc := sync.NewService(store, sync.NewGateway(client), cfg.Sync, logg, archive)
		handler := sync.NewHandler(svc, vehicle.NewLoader(locations), archive, logg)
		handler.Register(app)

		// 8. Start Server
		go func() {
			logg.Info("Starting server", zap.String("port", cfg.Server.Port))
			if err := app.Listen(cfg.Server.Addr()); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		// 9. Graceful Shutdown
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down server...")
		_ = app.Shutdown()
	},
}

func init() {
	startCmd.Flags().StringVar(&startLocations, "locations", "", "path to a partner-code to location-id JSON map")
	RootCmd.AddCommand(startCmd)
}
