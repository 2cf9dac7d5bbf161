// Package table builds a types.Table from the raw lines buffered between a
// table-begin marker and the line that closes the block.
package table

import (
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/dshills/geosoft-mcp/pkg/types"
)

// ErrEmpty means the buffer held no header row. It is the defined "no table"
// outcome, not a fault.
var ErrEmpty = errors.New("no columns to parse from table data")

// Parse reads rows as tab-delimited text: the first non-blank line is the
// header, every following non-blank line is a data row.
//
// Each line is exactly one record. A quote that opens a cell but never closes
// on the same line fails with types.ErrMalformedTable rather than pulling the
// following lines into that cell. Short rows are padded with empty cells. Rows
// wider than the header fail with types.ErrMalformedTable.
func Parse(rows []string) (*types.Table, error) {
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		row = strings.TrimRight(row, "\r\n")
		if strings.TrimSpace(row) == "" {
			continue
		}
		lines = append(lines, row)
	}
	if len(lines) == 0 {
		return nil, ErrEmpty
	}

	header, err := readLine(lines[0])
	if err != nil {
		return nil, errors.Wrapf(types.ErrMalformedTable, "header: %v", err)
	}

	t := &types.Table{Columns: uniqueColumns(header)}
	for _, line := range lines[1:] {
		record, err := readLine(line)
		if err != nil {
			return nil, errors.Wrapf(types.ErrMalformedTable, "row %d: %v", len(t.Rows)+1, err)
		}
		if len(record) > len(t.Columns) {
			return nil, errors.Wrapf(types.ErrMalformedTable,
				"row %d: expected %d fields, saw %d", len(t.Rows)+1, len(t.Columns), len(record))
		}
		row := make([]string, len(t.Columns))
		copy(row, record)
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// readLine splits one line into cells. The strict reader catches unbalanced
// quoted cells; a bare quote inside an unquoted cell (says "hi") is retried
// leniently and kept verbatim.
func readLine(line string) ([]string, error) {
	record, err := newReader(line, false).Read()
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, csv.ErrBareQuote) {
		return nil, err
	}
	return newReader(line, true).Read()
}

func newReader(line string, lazy bool) *csv.Reader {
	r := csv.NewReader(strings.NewReader(line))
	r.Comma = '\t'
	r.LazyQuotes = lazy
	r.FieldsPerRecord = -1
	return r
}

// uniqueColumns names blank columns and suffixes repeated ones: A, A.1, A.2
func uniqueColumns(header []string) []string {
	out := make([]string, len(header))
	used := make(map[string]bool, len(header))
	suffix := make(map[string]int)
	for i, name := range header {
		name = strings.TrimSpace(name)
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		base := name
		for used[name] {
			suffix[base]++
			name = fmt.Sprintf("%s.%d", base, suffix[base])
		}
		used[name] = true
		out[i] = name
	}
	return out
}
