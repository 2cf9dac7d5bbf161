package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/dshills/geosoft-mcp/internal/logger"
	"github.com/dshills/geosoft-mcp/internal/parser"
	"github.com/dshills/geosoft-mcp/internal/source"
)

var parseWarnings bool

var parseCmd = &cobra.Command{
	Use:   "parse <file|url>",
	Short: "Parse a SOFT file and print a summary of its entities",
	Long: `Parse a SOFT file without storing it. The argument may be a local path or
any URL go-getter understands; .gz sources are decompressed into the cache
directory first.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		if _, err := os.Stat(path); err != nil || strings.HasSuffix(path, ".gz") {
			fetched, err := source.NewFetcher(cfg.Source.BaseURL, cfg.CacheDir).FetchPath(cmd.Context(), path)
			if err != nil {
				return err
			}
			path = fetched
		}

		res, err := parser.New(parser.WithLogger(logger.ComponentLogger("parser"))).ParseFile(path)
		if err != nil {
			return errors.Wrapf(err, "failed to parse %s", path)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s: %d lines, %d entities, %d tables\n",
			path, res.Stats.Lines, res.Stats.Entities, res.Stats.Tables)

		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "KIND\tNAME\tATTRIBUTES\tCOLUMNS\tROWS")
		for _, e := range res.Registry.Entries() {
			rows, cols := "-", "-"
			if t, ok := e.Container.Table(); ok {
				rows = fmt.Sprint(t.NumRows())
				cols = fmt.Sprint(t.NumColumns())
			} else if e.Container.TableErr() != nil {
				rows = "error"
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", e.Key.Kind, e.Key.Name, len(e.Container.Names()), cols, rows)
		}
		if err := w.Flush(); err != nil {
			return err
		}

		fmt.Fprintf(out, "%d warnings, %d table errors\n", len(res.Warnings), len(res.TableErrors))
		if parseWarnings {
			for _, warn := range res.Warnings {
				fmt.Fprintf(out, "  warning: %s\n", warn)
			}
			for _, terr := range res.TableErrors {
				fmt.Fprintf(out, "  table error: %v\n", terr)
			}
		}
		return nil
	},
}

func init() {
	parseCmd.Flags().BoolVarP(&parseWarnings, "warnings", "w", false, "list every warning and table error")
}
