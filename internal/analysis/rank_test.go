package analysis

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/geosoft-mcp/internal/parser"
	"github.com/dshills/geosoft-mcp/pkg/types"
)

func TestRank(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   []float64
	}{
		{"ascending", []float64{1, 2, 3}, []float64{1, 2, 3}},
		{"descending", []float64{9, 5, 1}, []float64{3, 2, 1}},
		{"ties average", []float64{1, 3, 3}, []float64{1, 2.5, 2.5}},
		{"all tied", []float64{4, 4, 4, 4}, []float64{2.5, 2.5, 2.5, 2.5}},
		{"empty", []float64{}, []float64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Rank(tt.values))
		})
	}
}

func TestRank_NaNStaysNaN(t *testing.T) {
	got := Rank([]float64{5, math.NaN(), 1})
	assert.Equal(t, 2.0, got[0])
	assert.True(t, math.IsNaN(got[1]))
	assert.Equal(t, 1.0, got[2])
}

func TestParseValues(t *testing.T) {
	got := ParseValues([]string{"1.5", " 2 ", "null", ""})
	assert.Equal(t, 1.5, got[0])
	assert.Equal(t, 2.0, got[1])
	assert.True(t, math.IsNaN(got[2]))
	assert.True(t, math.IsNaN(got[3]))
}

func TestRanker_FromParsedFamily(t *testing.T) {
	result, err := parser.New().ParseFile(filepath.Join("..", "parser", "testdata", "GSE100_family.soft"))
	require.NoError(t, err)

	r := NewRanker(RegistrySource{Registry: result.Registry})
	m, err := r.RankNormalized()
	require.NoError(t, err)

	assert.Equal(t, []string{"GSM1", "GSM2"}, m.Samples)
	assert.Equal(t, []string{"p1", "p2", "p3"}, m.RowIDs)

	row, ok := m.Row("p2")
	require.True(t, ok)
	assert.Equal(t, []float64{1, 2.5}, row)

	col, ok := m.Column("GSM1")
	require.True(t, ok)
	assert.Equal(t, []float64{3, 1, 2}, col)

	_, ok = m.Row("p9")
	assert.False(t, ok)
	_, ok = m.Column("GSM9")
	assert.False(t, ok)
}

func TestRanker_CachesPerInstance(t *testing.T) {
	src := StaticSource{{Name: "GSM1", Table: &types.Table{
		Columns: []string{"ID_REF", "VALUE"},
		Rows:    [][]string{{"a", "2"}, {"b", "1"}},
	}}}

	r := NewRanker(src)
	first, err := r.RankNormalized()
	require.NoError(t, err)
	second, err := r.RankNormalized()
	require.NoError(t, err)
	assert.Same(t, first, second)

	other, err := NewRanker(src).RankNormalized()
	require.NoError(t, err)
	assert.NotSame(t, first, other)
	assert.Equal(t, first, other)
}

func TestRanker_SkipsSamplesWithoutTables(t *testing.T) {
	src := StaticSource{
		{Name: "GSM0", Table: nil},
		{Name: "GSM1", Table: &types.Table{Columns: []string{"VALUE"}, Rows: [][]string{{"3"}, {"1"}, {"2"}}}},
		{Name: "GSM2", Table: &types.Table{Columns: []string{"SIGNAL"}, Rows: [][]string{{"1"}}}},
		{Name: "GSM3", Table: &types.Table{Columns: []string{"VALUE"}, Rows: [][]string{{"1"}}}},
	}

	m, err := NewRanker(src).RankNormalized()
	require.NoError(t, err)
	assert.Equal(t, []string{"GSM1", "GSM3"}, m.Samples)
	assert.Equal(t, []string{"GSM0", "GSM2"}, m.Skipped)
	assert.Equal(t, []string{"0", "1", "2"}, m.RowIDs)

	require.Len(t, m.Ranks, 3)
	assert.Equal(t, 1.0, m.Ranks[0][1])
	assert.True(t, math.IsNaN(m.Ranks[1][1]), "shorter sample is padded with NaN")
}

func TestRanker_CustomColumns(t *testing.T) {
	src := StaticSource{{Name: "GSM1", Table: &types.Table{
		Columns: []string{"ID", "SIGNAL"},
		Rows:    [][]string{{"a", "5"}, {"b", "7"}},
	}}}

	m, err := NewRanker(src, WithValueColumn("SIGNAL"), WithIDColumn("ID")).RankNormalized()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, m.RowIDs)
}

func TestRanker_NoSamples(t *testing.T) {
	_, err := NewRanker(StaticSource{}).RankNormalized()
	assert.ErrorIs(t, err, ErrNoSamples)
}
