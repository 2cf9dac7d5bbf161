package main

import (
	"fmt"
	"math"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/dshills/geosoft-mcp/internal/analysis"
	"github.com/dshills/geosoft-mcp/internal/source"
	"github.com/dshills/geosoft-mcp/internal/storage"
)

var (
	rankRow         string
	rankValueColumn string
	rankIDColumn    string
	rankLimit       int
)

var rankCmd = &cobra.Command{
	Use:   "rank <accession>",
	Short: "Print rank-normalized sample values of a stored accession",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, err := openStorage()
		if err != nil {
			return errors.Wrap(err, "failed to open storage")
		}
		defer func() { _ = store.Close() }()

		acc := source.NormalizeAccession(args[0])
		doc, err := store.GetDocument(ctx, acc)
		if errors.Is(err, storage.ErrNotFound) {
			return errors.Newf("%s is not loaded; run geosoft load %s first", acc, acc)
		}
		if err != nil {
			return err
		}

		src, err := analysis.LoadStoredSamples(ctx, store, doc.ID)
		if err != nil {
			return err
		}
		matrix, err := analysis.NewRanker(src,
			analysis.WithValueColumn(rankValueColumn),
			analysis.WithIDColumn(rankIDColumn),
		).RankNormalized()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s\t%s\n", rankIDColumn, strings.Join(matrix.Samples, "\t"))
		if rankRow != "" {
			ranks, ok := matrix.Row(rankRow)
			if !ok {
				return errors.Newf("row %q not found", rankRow)
			}
			fmt.Fprintf(out, "%s\t%s\n", rankRow, formatRanks(ranks))
			return nil
		}
		for i, id := range matrix.RowIDs {
			if rankLimit > 0 && i >= rankLimit {
				break
			}
			fmt.Fprintf(out, "%s\t%s\n", id, formatRanks(matrix.Ranks[i]))
		}
		return nil
	},
}

func init() {
	rankCmd.Flags().StringVar(&rankRow, "row", "", "print only this row id")
	rankCmd.Flags().StringVar(&rankValueColumn, "value-column", analysis.DefaultValueColumn, "column to rank")
	rankCmd.Flags().StringVar(&rankIDColumn, "id-column", analysis.DefaultIDColumn, "column naming each row")
	rankCmd.Flags().IntVarP(&rankLimit, "limit", "n", 0, "maximum rows to print (0 = all)")
}

func formatRanks(ranks []float64) string {
	parts := make([]string, len(ranks))
	for i, r := range ranks {
		if math.IsNaN(r) {
			parts[i] = "NA"
		} else {
			parts[i] = fmt.Sprint(r)
		}
	}
	return strings.Join(parts, "\t")
}
