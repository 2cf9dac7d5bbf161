package main

import (
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/dshills/geosoft-mcp/internal/loader"
	"github.com/dshills/geosoft-mcp/internal/logger"
	"github.com/dshills/geosoft-mcp/internal/mcp"
	"github.com/dshills/geosoft-mcp/internal/metrics"
	"github.com/dshills/geosoft-mcp/internal/source"
	"github.com/dshills/geosoft-mcp/internal/storage"
	"github.com/dshills/geosoft-mcp/internal/watch"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server on stdio",
	Long: `Start the MCP server. Requests are read from stdin and responses written
to stdout; logs go to stderr. When metrics.addr is set, Prometheus metrics are
served on that address. When watch.dir is set, SOFT files dropped there are
loaded automatically.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		log := logger.ComponentLogger("serve")
		log.Infow("geosoft MCP server starting",
			"version", version, "build_mode", storage.BuildMode, "driver", storage.DriverName)

		store, err := openStorage()
		if err != nil {
			return errors.Wrap(err, "failed to open storage")
		}

		m, err := metrics.New(nil)
		if err != nil {
			_ = store.Close()
			return err
		}
		if cfg.Metrics.Addr != "" {
			go func() {
				if err := m.Serve(ctx, cfg.Metrics.Addr); err != nil {
					log.Errorw("metrics server stopped", logger.FieldError, err)
				}
			}()
		}

		fetcher := source.NewFetcher(cfg.Source.BaseURL, cfg.CacheDir)
		ld := loader.New(store, fetcher, loader.WithMetrics(m))
		if cfg.Watch.Dir != "" {
			w, err := watch.New(cfg.Watch.Dir, cfg.Watch.Debounce, dropHandler(ld, fetcher))
			if err != nil {
				_ = store.Close()
				return err
			}
			go func() {
				if err := w.Run(ctx); err != nil {
					log.Errorw("watcher stopped", logger.FieldError, err)
				}
			}()
		}

		server, err := mcp.NewServer(store, ld, mcp.WithMetrics(m), mcp.WithWorkers(cfg.Loader.Workers))
		if err != nil {
			_ = store.Close()
			return errors.Wrap(err, "failed to create MCP server")
		}

		errChan := make(chan error, 1)
		go func() {
			log.Infow("MCP server ready, listening on stdio", logger.FieldPath, cfg.DBPath)
			errChan <- server.Serve(ctx)
		}()

		select {
		case <-ctx.Done():
			log.Infow("shutting down")
			return nil
		case err := <-errChan:
			return err
		}
	},
}
