package main

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/dshills/geosoft-mcp/internal/loader"
	"github.com/dshills/geosoft-mcp/internal/source"
	"github.com/dshills/geosoft-mcp/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Load SOFT files as they are dropped into a directory",
	Long: `Watch a directory and load every SOFT file written into it. The accession is
taken from the file name (GSE2553_family.soft, GDS507_full.soft.gz, ...).
Without an argument, watch.dir from the configuration is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := cfg.Watch.Dir
		if len(args) == 1 {
			dir = args[0]
		}
		if dir == "" {
			return errors.New("no directory given and watch.dir is not set")
		}

		store, err := openStorage()
		if err != nil {
			return errors.Wrap(err, "failed to open storage")
		}
		defer func() { _ = store.Close() }()

		fetcher := source.NewFetcher(cfg.Source.BaseURL, cfg.CacheDir)
		w, err := watch.New(dir, cfg.Watch.Debounce, dropHandler(loader.New(store, fetcher), fetcher))
		if err != nil {
			return err
		}
		return w.Run(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

// dropHandler loads a dropped file, decompressing .gz files into the cache first
func dropHandler(ld *loader.Loader, fetcher *source.Fetcher) watch.Handler {
	return func(ctx context.Context, accession, path string) error {
		if strings.HasSuffix(strings.ToLower(path), ".gz") {
			p, err := fetcher.FetchPath(ctx, path)
			if err != nil {
				return err
			}
			path = p
		}
		_, _, err := ld.LoadFile(ctx, accession, path)
		return err
	}
}
