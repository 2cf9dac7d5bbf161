package main

import (
	"bytes"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var familyFixture = filepath.Join("..", "..", "internal", "parser", "testdata", "GSE100_family.soft")

func run(t *testing.T, args ...string) string {
	t.Helper()
	t.Setenv("GEOSOFT_DB_PATH", filepath.Join(t.TempDir(), "geosoft.db"))
	t.Setenv("GEOSOFT_CACHE_DIR", filepath.Join(t.TempDir(), "cache"))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestParseCommand(t *testing.T) {
	out := run(t, "parse", familyFixture)
	assert.Contains(t, out, "5 entities")
	assert.Contains(t, out, "PLATFORM")
	assert.Contains(t, out, "GPL10")
	assert.Contains(t, out, "table errors")
}

func TestLoadAndRankCommands(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "geosoft.db")
	t.Setenv("GEOSOFT_DB_PATH", dbPath)
	t.Setenv("GEOSOFT_CACHE_DIR", filepath.Join(t.TempDir(), "cache"))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"load", "GSE100", "--file", familyFixture})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "loaded GSE100")
	loadFile = ""

	out.Reset()
	rootCmd.SetArgs([]string{"rank", "gse100", "--row", "p2"})
	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "ID_REF\tGSM1\tGSM2\np2\t1\t2.5\n", out.String())
	rankRow = ""
}

func TestFormatRanks(t *testing.T) {
	assert.Equal(t, "1\t2.5\tNA", formatRanks([]float64{1, 2.5, math.NaN()}))
	assert.Equal(t, "", formatRanks(nil))
}
