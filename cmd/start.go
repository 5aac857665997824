package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"doc-sync/core/config"
	"doc-sync/core/database"
	"doc-sync/core/logger"
	"doc-sync/core/reconcile"
	"doc-sync/core/storage"
	"doc-sync/store/objstore"
	"doc-sync/store/sqlstore"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	intervalSeconds int
	initialSync     bool
	verbose         bool
)

// startCmd runs the periodic synchronization loop.
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the periodic synchronization loop",
	Long: `Start the synchronization loop between the MySQL store and the object
storage store. Every interval, documents changed since the previous pass are
reconciled in both directions.

Examples:
  # Sync every 30 seconds
  doc-sync start --interval 30

  # Catch up on all pre-existing documents first
  doc-sync start --interval 30 -s

  # Verbose output
  doc-sync start -v`,
	RunE: runStart,
}

func init() {
	startCmd.Flags().IntVar(&intervalSeconds, "interval", 0, "Seconds between passes (defaults to SYNC_INTERVAL_SECONDS)")
	startCmd.Flags().BoolVarP(&initialSync, "initial-sync", "s", false, "Synchronize all existing documents before the periodic loop")
	startCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Run in verbose mode (debug logging)")

	RootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if intervalSeconds > 0 {
		cfg.Sync.IntervalSeconds = intervalSeconds
	}
	if cfg.Sync.IntervalSeconds <= 0 {
		return fmt.Errorf("sync interval must be strictly positive, got %d", cfg.Sync.IntervalSeconds)
	}
	if verbose {
		cfg.Log.Level = "debug"
	}

	// 2. Initialize Logger
	logg, err := logger.New(&cfg.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logg.Sync()
	zap.ReplaceGlobals(logg)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. Connect to MySQL and provision the documents table.
	// Startup connectivity failures are fatal: the loop must not begin with
	// only one reachable store.
	db, err := database.Connect(cfg.Database)
	if err != nil {
		logg.Fatal("Failed to connect to MySQL store", zap.Error(err))
	}
	sqlStore, err := sqlstore.New(db, cfg.Sync.Table, nil)
	if err != nil {
		logg.Fatal("Failed to provision MySQL store", zap.Error(err))
	}
	logg.Info("Connected to MySQL store", zap.String("table", cfg.Sync.Table))

	// 4. Connect to object storage and provision the bucket.
	client, err := storage.NewClient(cfg.Storage)
	if err != nil {
		logg.Fatal("Failed to create object storage client", zap.Error(err))
	}
	objStore, err := objstore.New(ctx, client, cfg.Storage.Bucket, cfg.Sync.Prefix, nil)
	if err != nil {
		logg.Fatal("Failed to provision object storage store", zap.Error(err))
	}
	logg.Info("Connected to object storage store",
		zap.String("bucket", cfg.Storage.Bucket),
		zap.String("prefix", cfg.Sync.Prefix),
	)

	// 5. Run the sync loop until interrupted.
	driver, err := reconcile.NewDriver(reconcile.DriverConfig{
		A:           sqlStore,
		B:           objStore,
		Interval:    time.Duration(cfg.Sync.IntervalSeconds) * time.Second,
		InitialSync: initialSync,
		Logger:      logg,
	})
	if err != nil {
		return err
	}

	logg.Info("Synchronization loop started",
		zap.Int("interval_seconds", cfg.Sync.IntervalSeconds),
		zap.Bool("initial_sync", initialSync),
	)

	if err := driver.Run(ctx); !errors.Is(err, context.Canceled) {
		return err
	}
	logg.Info("Shutting down")
	return nil
}
