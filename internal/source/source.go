// Package source retrieves and decompresses GEO SOFT files.
//
// Downloads go through hashicorp/go-getter, which also handles local paths
// and transparently gunzips *.gz sources. The parser only ever sees a plain
// text file on disk.
package source

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/hashicorp/go-getter"
	"go.uber.org/zap"

	"github.com/dshills/geosoft-mcp/internal/logger"
)

// DefaultBaseURL is the NCBI server hosting the GEO tree
const DefaultBaseURL = "https://ftp.ncbi.nlm.nih.gov"

// ErrUnknownAccession is returned for accessions that are not GDS, GPL or GSE
var ErrUnknownAccession = errors.New("unknown accession prefix")

var trailingDigits = regexp.MustCompile(`\d{1,3}$`)

// NormalizeAccession upper-cases and trims an accession
func NormalizeAccession(accession string) string {
	return strings.ToUpper(strings.TrimSpace(accession))
}

// AccessionPath returns the path of an accession's SOFT file below the GEO
// root. full selects the *_full variant of GDS files.
func AccessionPath(accession string, full bool) (string, error) {
	acc := NormalizeAccession(accession)
	if len(acc) < 4 {
		return "", errors.Wrapf(ErrUnknownAccession, "%q", accession)
	}
	short := trailingDigits.ReplaceAllString(acc, "nnn")

	switch acc[:3] {
	case "GDS":
		suffix := ""
		if full {
			suffix = "_full"
		}
		return "geo/datasets/" + short + "/" + acc + "/soft/" + acc + suffix + ".soft.gz", nil
	case "GPL":
		return "geo/platforms/" + short + "/" + acc + "/soft/" + acc + "_family.soft.gz", nil
	case "GSE":
		return "geo/series/" + short + "/" + acc + "/soft/" + acc + "_family.soft.gz", nil
	default:
		return "", errors.Wrapf(ErrUnknownAccession, "%q", accession)
	}
}

// Fetcher downloads SOFT files into a local cache directory
type Fetcher struct {
	baseURL  string
	cacheDir string
	retry    RetryConfig
	logger   *zap.SugaredLogger
}

// FetcherOption configures a Fetcher
type FetcherOption func(*Fetcher)

// WithRetry replaces the download retry policy
func WithRetry(cfg RetryConfig) FetcherOption {
	return func(f *Fetcher) { f.retry = cfg }
}

// NewFetcher creates a Fetcher. An empty baseURL uses DefaultBaseURL.
func NewFetcher(baseURL, cacheDir string, opts ...FetcherOption) *Fetcher {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	f := &Fetcher{
		baseURL:  strings.TrimRight(baseURL, "/"),
		cacheDir: cacheDir,
		retry:    DefaultRetryConfig(),
		logger:   logger.ComponentLogger("source"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// URL returns the download URL for an accession
func (f *Fetcher) URL(accession string, full bool) (string, error) {
	rel, err := AccessionPath(accession, full)
	if err != nil {
		return "", err
	}
	return f.baseURL + "/" + rel, nil
}

// CachePath returns where Fetch stores an accession's decompressed file
func (f *Fetcher) CachePath(accession string, full bool) (string, error) {
	rel, err := AccessionPath(accession, full)
	if err != nil {
		return "", err
	}
	return filepath.Join(f.cacheDir, strings.TrimSuffix(filepath.Base(rel), ".gz")), nil
}

// Fetch returns the local path of an accession's decompressed SOFT file,
// downloading it unless it is already cached.
func (f *Fetcher) Fetch(ctx context.Context, accession string, full bool) (string, error) {
	src, err := f.URL(accession, full)
	if err != nil {
		return "", err
	}
	dst, err := f.CachePath(accession, full)
	if err != nil {
		return "", err
	}

	if info, err := os.Stat(dst); err == nil && info.Size() > 0 {
		f.logger.Debugw("using cached file", logger.FieldAccession, accession, logger.FieldPath, dst)
		return dst, nil
	}
	if err := f.get(ctx, src, dst); err != nil {
		return "", errors.Wrapf(err, "failed to fetch %s", NormalizeAccession(accession))
	}
	return dst, nil
}

// Evict removes an accession's cached file so the next Fetch downloads it
func (f *Fetcher) Evict(accession string, full bool) error {
	dst, err := f.CachePath(accession, full)
	if err != nil {
		return err
	}
	if err := os.Remove(dst); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "failed to evict cached file")
	}
	return nil
}

// FetchPath retrieves any go-getter source (URL or local path) into the
// cache, decompressing .gz, and returns the local path.
func (f *Fetcher) FetchPath(ctx context.Context, src string) (string, error) {
	if !strings.Contains(src, "://") && !strings.Contains(src, "::") {
		abs, err := filepath.Abs(src)
		if err != nil {
			return "", errors.Wrap(err, "failed to resolve path")
		}
		src = abs
	}

	base := filepath.Base(src)
	if i := strings.IndexAny(base, "?#"); i >= 0 {
		base = base[:i]
	}
	dst := filepath.Join(f.cacheDir, strings.TrimSuffix(base, ".gz"))
	if err := f.get(ctx, src, dst); err != nil {
		return "", errors.Wrapf(err, "failed to fetch %s", src)
	}
	return dst, nil
}

func (f *Fetcher) get(ctx context.Context, src, dst string) error {
	if err := os.MkdirAll(f.cacheDir, 0o755); err != nil {
		return errors.Wrap(err, "failed to create cache directory")
	}

	pwd, _ := os.Getwd()
	client := &getter.Client{
		Ctx:     ctx,
		Src:     src,
		Dst:     dst,
		Pwd:     pwd,
		Mode:    getter.ClientModeFile,
		Getters: getter.Getters,
	}

	f.logger.Infow("fetching", "src", src, logger.FieldPath, dst)
	attempt := 0
	return retryWithBackoff(ctx, f.retry, func() error {
		attempt++
		if attempt > 1 {
			f.logger.Warnw("retrying download", "src", src, "attempt", attempt)
		}
		if err := client.Get(); err != nil {
			_ = os.Remove(dst)
			return err
		}
		return nil
	})
}
