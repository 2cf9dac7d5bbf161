// Package analysis holds downstream computations over a parsed model.
// It reads tables through SampleSource and never mutates the model.
package analysis

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/dshills/geosoft-mcp/internal/entity"
	"github.com/dshills/geosoft-mcp/pkg/types"
)

const (
	DefaultValueColumn = "VALUE"
	DefaultIDColumn    = "ID_REF"
)

// ErrNoSamples is returned when no sample has a rankable table
var ErrNoSamples = errors.New("no sample carries a rankable data table")

// SampleTable is one sample's name and parsed table (nil when absent)
type SampleTable struct {
	Name  string
	Table *types.Table
}

// SampleSource provides sample tables in document order
type SampleSource interface {
	SampleTables() []SampleTable
}

// RegistrySource reads samples from an in-memory registry
type RegistrySource struct {
	Registry *entity.Registry
}

// SampleTables implements SampleSource
func (s RegistrySource) SampleTables() []SampleTable {
	samples := s.Registry.Samples()
	out := make([]SampleTable, 0, len(samples))
	for _, e := range samples {
		t, _ := e.Container.Table()
		out = append(out, SampleTable{Name: e.Key.Name, Table: t})
	}
	return out
}

// StaticSource is a fixed list of sample tables
type StaticSource []SampleTable

// SampleTables implements SampleSource
func (s StaticSource) SampleTables() []SampleTable { return s }

// RankMatrix holds per-sample ranks of the value column.
// Ranks[row][col] belongs to RowIDs[row] and Samples[col]; NaN marks a
// missing or non-numeric cell.
type RankMatrix struct {
	Samples []string
	RowIDs  []string
	Ranks   [][]float64
	// Skipped lists samples without a table or value column
	Skipped []string
}

// Row returns one row's ranks across samples
func (m *RankMatrix) Row(id string) ([]float64, bool) {
	for i, rid := range m.RowIDs {
		if rid == id {
			return append([]float64{}, m.Ranks[i]...), true
		}
	}
	return nil, false
}

// Column returns one sample's ranks in row order
func (m *RankMatrix) Column(sample string) ([]float64, bool) {
	col := -1
	for i, s := range m.Samples {
		if s == sample {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, false
	}
	out := make([]float64, len(m.Ranks))
	for i, row := range m.Ranks {
		out[i] = row[col]
	}
	return out, true
}

// Ranker computes the rank-normalized expression matrix of one model.
// The result is computed on first use and cached on this Ranker only.
type Ranker struct {
	source      SampleSource
	valueColumn string
	idColumn    string

	once   sync.Once
	matrix *RankMatrix
	err    error
}

// Option configures a Ranker
type Option func(*Ranker)

// WithValueColumn sets the column to rank (default VALUE)
func WithValueColumn(name string) Option {
	return func(r *Ranker) { r.valueColumn = name }
}

// WithIDColumn sets the column naming each row (default ID_REF)
func WithIDColumn(name string) Option {
	return func(r *Ranker) { r.idColumn = name }
}

// NewRanker creates a Ranker over src
func NewRanker(src SampleSource, opts ...Option) *Ranker {
	r := &Ranker{
		source:      src,
		valueColumn: DefaultValueColumn,
		idColumn:    DefaultIDColumn,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RankNormalized returns the cached rank matrix, computing it once
func (r *Ranker) RankNormalized() (*RankMatrix, error) {
	r.once.Do(func() {
		r.matrix, r.err = r.compute()
	})
	return r.matrix, r.err
}

func (r *Ranker) compute() (*RankMatrix, error) {
	m := &RankMatrix{}
	var columns [][]float64
	rows := 0

	for _, s := range r.source.SampleTables() {
		values, ok := s.Table.Column(r.valueColumn)
		if s.Table == nil || !ok {
			m.Skipped = append(m.Skipped, s.Name)
			continue
		}
		if len(m.Samples) == 0 {
			if ids, ok := s.Table.Column(r.idColumn); ok {
				m.RowIDs = ids
			}
		}
		m.Samples = append(m.Samples, s.Name)
		columns = append(columns, Rank(ParseValues(values)))
		if len(values) > rows {
			rows = len(values)
		}
	}
	if len(m.Samples) == 0 {
		return nil, ErrNoSamples
	}

	for i := len(m.RowIDs); i < rows; i++ {
		m.RowIDs = append(m.RowIDs, strconv.Itoa(i))
	}
	m.Ranks = make([][]float64, rows)
	for i := range m.Ranks {
		row := make([]float64, len(columns))
		for j, col := range columns {
			if i < len(col) {
				row[j] = col[i]
			} else {
				row[j] = math.NaN()
			}
		}
		m.Ranks[i] = row
	}
	return m, nil
}

// ParseValues converts cells to floats; non-numeric cells become NaN
func ParseValues(cells []string) []float64 {
	out := make([]float64, len(cells))
	for i, c := range cells {
		v, err := strconv.ParseFloat(strings.TrimSpace(c), 64)
		if err != nil {
			v = math.NaN()
		}
		out[i] = v
	}
	return out
}

// Rank assigns 1-based ranks in ascending order. Ties share the average of
// the ranks they span; NaN inputs stay NaN and are not counted.
func Rank(values []float64) []float64 {
	out := make([]float64, len(values))
	idx := make([]int, 0, len(values))
	for i, v := range values {
		if math.IsNaN(v) {
			out[i] = math.NaN()
			continue
		}
		idx = append(idx, i)
	}
	sort.SliceStable(idx, func(a, b int) bool { return values[idx[a]] < values[idx[b]] })

	for start := 0; start < len(idx); {
		end := start + 1
		for end < len(idx) && values[idx[end]] == values[idx[start]] {
			end++
		}
		avg := float64(start+1+end) / 2
		for k := start; k < end; k++ {
			out[idx[k]] = avg
		}
		start = end
	}
	return out
}
