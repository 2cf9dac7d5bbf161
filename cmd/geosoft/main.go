package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/dshills/geosoft-mcp/internal/config"
	"github.com/dshills/geosoft-mcp/internal/logger"
	"github.com/dshills/geosoft-mcp/internal/storage"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var (
	configPath string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "geosoft",
	Short: "geosoft - GEO SOFT file parser and MCP server",
	Long: `geosoft parses NCBI GEO SOFT files (GDS, GPL and GSE family files) into
an entity model, stores them in SQLite and serves them to MCP clients.

Examples:
  geosoft serve                    # Start the MCP server on stdio
  geosoft load GSE2553 GPL570      # Download and store accessions
  geosoft parse GSE2553_family.soft
  geosoft rank GSE2553 --row 1007_s_at`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}
		c, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if err := logger.Initialize(c.Log.JSON, c.Log.Level); err != nil {
			return errors.Wrap(err, "failed to initialize logger")
		}
		cfg = c
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version and build information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("geosoft MCP Server\n")
		fmt.Printf("Version: %s\n", version)
		fmt.Printf("Build Time: %s\n", buildTime)
		fmt.Printf("Build Mode: %s\n", storage.BuildMode)
		fmt.Printf("SQLite Driver: %s\n", storage.DriverName)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: ./geosoft.yaml or ~/.geosoft/geosoft.yaml)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(rankCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	_ = logger.Logger.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// openStorage opens the configured database, creating its directory
func openStorage() (*storage.SQLiteStorage, error) {
	if cfg.DBPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return nil, errors.Wrap(err, "failed to create database directory")
		}
	}
	return storage.NewSQLiteStorage(cfg.DBPath)
}
