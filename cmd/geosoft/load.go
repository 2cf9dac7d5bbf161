package main

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/dshills/geosoft-mcp/internal/loader"
	"github.com/dshills/geosoft-mcp/internal/source"
)

var (
	loadFile  string
	loadForce bool
	loadFull  bool
)

var loadCmd = &cobra.Command{
	Use:   "load <accession>...",
	Short: "Download, parse and store GEO accessions",
	Long: `Download, parse and store one or more GEO accessions. With --file, a single
accession is loaded from a local decompressed SOFT file instead.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, err := openStorage()
		if err != nil {
			return errors.Wrap(err, "failed to open storage")
		}
		defer func() { _ = store.Close() }()

		out := cmd.OutOrStdout()

		if loadFile != "" {
			if len(args) != 1 {
				return errors.New("--file loads exactly one accession")
			}
			doc, res, err := loader.New(store, nil).LoadFile(ctx, args[0], loadFile)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "loaded %s from %s: %d entities, %d warnings, %d table errors\n",
				doc.Accession, loadFile, doc.EntityCount, doc.WarningCount, len(res.TableErrors))
			return nil
		}

		fetcher := source.NewFetcher(cfg.Source.BaseURL, cfg.CacheDir)
		stats, err := loader.New(store, fetcher).LoadAccessions(ctx, args, &loader.Config{
			Workers: cfg.Loader.Workers,
			Full:    loadFull || cfg.Loader.Full,
			Force:   loadForce,
		})
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "load %s: %d loaded, %d skipped, %d failed (%d entities, %d warnings) in %s\n",
			stats.LoadID, stats.Loaded, stats.Skipped, stats.Failed, stats.Entities, stats.Warnings, stats.Duration)
		for _, msg := range stats.ErrorMessages {
			fmt.Fprintf(out, "  error: %s\n", msg)
		}
		if stats.Failed > 0 {
			return errors.Newf("%d accession(s) failed to load", stats.Failed)
		}
		return nil
	},
}

func init() {
	loadCmd.Flags().StringVarP(&loadFile, "file", "f", "", "load a local SOFT file instead of downloading")
	loadCmd.Flags().BoolVar(&loadForce, "force", false, "reload accessions that are already stored")
	loadCmd.Flags().BoolVar(&loadFull, "full", false, "fetch the *_full variant of GDS files")
}
