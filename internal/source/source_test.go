package source

import (
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const softText = "^SERIES = GSE1\n!Series_title = test\n"

func TestAccessionPath(t *testing.T) {
	tests := []struct {
		accession string
		full      bool
		want      string
	}{
		{"GSE1", false, "geo/series/GSEnnn/GSE1/soft/GSE1_family.soft.gz"},
		{"gse2553", false, "geo/series/GSE2nnn/GSE2553/soft/GSE2553_family.soft.gz"},
		{"GSE100000", false, "geo/series/GSE100nnn/GSE100000/soft/GSE100000_family.soft.gz"},
		{"GPL570", false, "geo/platforms/GPLnnn/GPL570/soft/GPL570_family.soft.gz"},
		{"GDS507", false, "geo/datasets/GDSnnn/GDS507/soft/GDS507.soft.gz"},
		{"GDS5071", true, "geo/datasets/GDS5nnn/GDS5071/soft/GDS5071_full.soft.gz"},
	}

	for _, tt := range tests {
		t.Run(tt.accession, func(t *testing.T) {
			got, err := AccessionPath(tt.accession, tt.full)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAccessionPath_Unknown(t *testing.T) {
	for _, acc := range []string{"", "GS", "GSM1", "XYZ123"} {
		_, err := AccessionPath(acc, false)
		assert.ErrorIs(t, err, ErrUnknownAccession, acc)
	}
}

func TestFetcher_URLAndCachePath(t *testing.T) {
	f := NewFetcher("", "/tmp/cache")
	url, err := f.URL("GSE1", false)
	require.NoError(t, err)
	assert.Equal(t, "https://ftp.ncbi.nlm.nih.gov/geo/series/GSEnnn/GSE1/soft/GSE1_family.soft.gz", url)

	path, err := f.CachePath("GSE1", false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/tmp/cache", "GSE1_family.soft"), path)
}

func gzipBytes(t *testing.T, s string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(s))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestFetcher_FetchPathDecompressesLocalFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "GSE1_family.soft.gz")
	require.NoError(t, os.WriteFile(src, gzipBytes(t, softText), 0o644))

	f := NewFetcher("", filepath.Join(dir, "cache"))
	path, err := f.FetchPath(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "cache", "GSE1_family.soft"), path)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, softText, string(got))
}

func TestFetcher_FetchFromServer(t *testing.T) {
	payload := gzipBytes(t, softText)
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/geo/series/GSEnnn/GSE1/soft/GSE1_family.soft.gz" {
			http.NotFound(w, r)
			return
		}
		if r.Method == http.MethodGet {
			requests++
		}
		w.Header().Set("Content-Type", "application/x-gzip")
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	dir := t.TempDir()
	f := NewFetcher(srv.URL, dir)

	path, err := f.Fetch(context.Background(), "GSE1", false)
	require.NoError(t, err)
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, softText, string(got))

	// Second fetch is served from the cache
	_, err = f.Fetch(context.Background(), "gse1", false)
	require.NoError(t, err)
	assert.Equal(t, 1, requests)

	require.NoError(t, f.Evict("GSE1", false))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	assert.NoError(t, f.Evict("GSE1", false), "evicting twice is fine")
}

func TestFetcher_FetchNotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	f := NewFetcher(srv.URL, t.TempDir())
	_, err := f.Fetch(context.Background(), "GSE404", false)
	assert.Error(t, err)
}

func TestFetcher_RetriesTransientFailures(t *testing.T) {
	payload := gzipBytes(t, softText)
	var gets int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusOK)
			return
		}
		gets++
		if gets == 1 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/x-gzip")
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	f := NewFetcher(srv.URL, t.TempDir(), WithRetry(fastRetry()))
	path, err := f.Fetch(context.Background(), "GPL1", false)
	require.NoError(t, err)
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, softText, string(got))
	assert.Equal(t, 2, gets)
}
