// Package main provides the entry point for the geocat catalog service.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jobrunner/geocat/internal/adapters/storage"
	"github.com/jobrunner/geocat/internal/app"
	"github.com/jobrunner/geocat/internal/config"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

var cfgFile string

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "geocat",
	Short: "geocat - geospatial configuration catalog",
	Long: `geocat serves an in-memory catalog of workspaces, namespaces, stores,
resources, layers, layer groups, styles and maps.

The catalog is loaded from YAML snapshot documents and kept consistent by
structural and referential integrity checks.

Features:
  - Workspace isolation and advertised filtering for virtual services
  - Snapshot storage on the local filesystem, AWS S3, Azure Blob or HTTP
  - Hot-reload of local snapshots and periodic sync
  - GeoPackage feature type publishing
  - Prometheus metrics`,
	RunE: runServer,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("geocat %s\n", version)
		fmt.Printf("  Commit:     %s\n", commit)
		fmt.Printf("  Build Date: %s\n", buildDate)
	},
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate a directory of snapshot documents",
	Long: `check loads every snapshot document of a directory into a fresh catalog,
resolves references and validates each entity. It exits with status 1 when
references stay unresolved or an entity is invalid.`,
	RunE: runCheck,
}

var pullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Copy the snapshot documents of the configured storage to a local directory",
	RunE:  runPull,
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "json", "log format (json, text)")
	rootCmd.PersistentFlags().String("group-policy", "never", "when to hide layer groups (never, empty, all_hidden, any_hidden)")

	// Server flags
	rootCmd.Flags().String("host", "0.0.0.0", "server host")
	rootCmd.Flags().Int("port", 8080, "server port")

	// Storage flags
	rootCmd.Flags().String("storage-type", "local", "storage type (local, s3, azure, http)")
	rootCmd.Flags().String("storage-path", "./catalog", "local storage path")

	// CORS flags
	rootCmd.Flags().StringSlice("cors", nil, "allowed CORS origins (e.g., https://example.com,*.sub.domain.tld)")

	// Sync flags
	rootCmd.Flags().Bool("sync", false, "periodically reload the catalog from storage")

	checkCmd.Flags().String("snapshot-dir", "", "directory holding the snapshot documents")
	checkCmd.Flags().String("pattern", "*", "only check documents whose base name matches")
	_ = checkCmd.MarkFlagRequired("snapshot-dir")

	pullCmd.Flags().String("dest", "", "local directory receiving the documents")
	pullCmd.Flags().Bool("overwrite", false, "replace documents already present in dest")
	_ = pullCmd.MarkFlagRequired("dest")

	// Bind flags to viper
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("catalog.group_policy", rootCmd.PersistentFlags().Lookup("group-policy"))
	_ = viper.BindPFlag("server.host", rootCmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("server.port", rootCmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("storage.type", rootCmd.Flags().Lookup("storage-type"))
	_ = viper.BindPFlag("storage.local_path", rootCmd.Flags().Lookup("storage-path"))
	_ = viper.BindPFlag("server.cors.allowed_origins", rootCmd.Flags().Lookup("cors"))
	_ = viper.BindPFlag("sync.enabled", rootCmd.Flags().Lookup("sync"))

	rootCmd.AddCommand(versionCmd, checkCmd, pullCmd)
}

func initConfig() {
	config.Defaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
}

func runServer(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Setup logger
	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	logger.Info("starting geocat",
		"version", version,
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"storage_type", cfg.Storage.Type,
		"group_policy", cfg.Catalog.GroupPolicy,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Initialize application
	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}

	// Start server in background
	serverErr := make(chan error, 1)
	go func() {
		if err := application.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for shutdown signal or server error
	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig)
	case err := <-serverErr:
		logger.Error("server error", "error", err)
		cancel()
	case <-ctx.Done():
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := application.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		return err
	}

	logger.Info("server stopped")
	return nil
}

func runCheck(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger := setupLogger(config.LoggingConfig{Level: "error", Format: cfg.Logging.Format})

	dir, _ := cmd.Flags().GetString("snapshot-dir")
	pattern, _ := cmd.Flags().GetString("pattern")

	report, err := app.Check(cmd.Context(), dir, pattern, cfg.Catalog, logger)
	if err != nil {
		return fmt.Errorf("checking %s: %w", dir, err)
	}
	report.Write(cmd.OutOrStdout())
	if report.Problems() > 0 {
		os.Exit(1)
	}
	return nil
}

func runPull(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger := setupLogger(cfg.Logging)

	dest, _ := cmd.Flags().GetString("dest")
	overwrite, _ := cmd.Flags().GetBool("overwrite")

	src, err := app.NewStorage(cmd.Context(), cfg.Storage)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}
	result, err := app.Pull(cmd.Context(), src, storage.NewLocalStorage(dest), overwrite, logger)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "downloaded %d, skipped %d\n", len(result.Downloaded), len(result.Skipped))
	return nil
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				a.Value = slog.StringValue(time.Now().UTC().Format(time.RFC3339))
			}
			return a
		},
	}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}

	return slog.New(handler)
}
