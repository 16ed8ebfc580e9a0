package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"princals-dashboard/config"
	"princals-dashboard/db"
	"princals-dashboard/handlers"
)

var (
	// Global flags
	configPath string
	dataDir    string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Student clustering dashboard",
	Long: `Serves the PRINCALS student clustering results: filters, per-cluster
summaries, charts and a searchable explorer over the workbooks produced by the
clustering pipeline.

Run without a subcommand to start the web server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if dataDir != "" {
			cfg.Data.Dir = dataDir
		}

		logger, err = newLogger(cfg.Logging.Level, verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web dashboard",
	RunE:  runServe,
}

func newLogger(level string, verbose bool) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	if verbose {
		lvl = zapcore.DebugLevel
	}
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	return zcfg.Build()
}

// loadDataset reads the workbooks, through the Redis sheet cache when it is
// enabled and reachable. The returned service is nil without a cache.
func loadDataset(ctx context.Context) (*db.Dataset, *db.RedisService, error) {
	var source db.SheetSource = db.NewExcelSource(logger)
	var service *db.RedisService

	if cfg.Redis.Enabled {
		client, err := db.InitializeRedisClient(ctx, cfg.Redis, logger)
		if err != nil {
			logger.Warn("Redis unavailable, reading workbooks directly", zap.Error(err))
		} else {
			service = db.NewRedisService(client, logger)
			source = db.NewCachedSource(service, source, cfg.Redis.CacheTTL(), logger)
		}
	}

	ds, err := db.NewLoader(source, logger).Load(ctx, cfg.Data)
	if err != nil {
		return nil, nil, err
	}
	return ds, service, nil
}

// closeService releases the Redis client, if one was opened.
func closeService(service *db.RedisService) {
	if service == nil {
		return
	}
	if err := service.Client.Close(); err != nil {
		logger.Warn("Error closing Redis client", zap.Error(err))
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	ds, service, err := loadDataset(cmd.Context())
	if err != nil {
		logger.Fatal("Failed to load data", zap.String("dir", cfg.Data.Dir), zap.Error(err))
	}
	defer closeService(service)
	logger.Info("Dataset loaded",
		zap.Int("students", ds.Len()),
		zap.Ints("clusters", ds.ClusterIDs()))

	gin.SetMode(cfg.Server.GinMode)
	router := handlers.NewRouter(handlers.NewAPIHandler(ds, service, logger))

	logger.Info("Starting server", zap.String("addr", cfg.Server.Addr))
	if err := router.Run(cfg.Server.Addr); err != nil {
		return fmt.Errorf("failed to run server: %w", err)
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "dashboard.yaml", "Config file")
	rootCmd.PersistentFlags().StringVarP(&dataDir, "data-dir", "d", "", "Directory holding the result workbooks")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(exportCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
