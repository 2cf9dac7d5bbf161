package loader

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/geosoft-mcp/internal/entity"
	"github.com/dshills/geosoft-mcp/internal/logger"
	"github.com/dshills/geosoft-mcp/internal/metrics"
	"github.com/dshills/geosoft-mcp/internal/parser"
	"github.com/dshills/geosoft-mcp/internal/source"
	"github.com/dshills/geosoft-mcp/internal/storage"
)

// Fetcher resolves an accession to a local, decompressed SOFT file
type Fetcher interface {
	Fetch(ctx context.Context, accession string, full bool) (string, error)
	Evict(accession string, full bool) error
}

// Loader coordinates the load pipeline: fetch -> parse -> validate -> store
type Loader struct {
	storage storage.Storage
	fetcher Fetcher
	metrics *metrics.Metrics
	logger  *zap.SugaredLogger
}

// Config contains configuration for one load run
type Config struct {
	Workers int  // Number of concurrent loads (default: runtime.NumCPU())
	Full    bool // Fetch the *_full variant of GDS files
	Force   bool // Reload accessions that are already stored
}

// Statistics contains statistics about one load run
type Statistics struct {
	LoadID        string
	Loaded        int
	Skipped       int
	Failed        int
	Entities      int
	Warnings      int
	TableErrors   int
	Duration      time.Duration
	Documents     []string // accessions stored by this run
	ErrorMessages []string
}

// Option configures a Loader
type Option func(*Loader)

// WithMetrics records loads and parse counters on m
func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Loader) { l.metrics = m }
}

// WithLogger replaces the component logger
func WithLogger(log *zap.SugaredLogger) Option {
	return func(l *Loader) {
		if log != nil {
			l.logger = log
		}
	}
}

// New creates a new Loader. fetcher may be nil when only LoadFile is used.
func New(store storage.Storage, fetcher Fetcher, opts ...Option) *Loader {
	l := &Loader{
		storage: store,
		fetcher: fetcher,
		logger:  logger.ComponentLogger("loader"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadAccessions fetches, parses and stores each accession. Failures are
// collected per accession and never abort the run; only context
// cancellation does.
func (l *Loader) LoadAccessions(ctx context.Context, accessions []string, cfg *Config) (*Statistics, error) {
	if l.fetcher == nil {
		return nil, errors.New("loader has no fetcher")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	start := time.Now()
	stats := &Statistics{
		LoadID:        uuid.NewString(),
		Documents:     make([]string, 0),
		ErrorMessages: make([]string, 0),
	}
	log := l.logger.With(logger.FieldLoadID, stats.LoadID)
	log.Infow("load started", logger.FieldCount, len(accessions), "workers", workers)

	semaphore := make(chan struct{}, workers)
	var (
		loaded, skipped, failed atomic.Int32
		mu                      sync.Mutex // Protect stats slices and totals
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, acc := range dedupe(accessions) {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			t0 := time.Now()
			res, err := l.loadAccession(gctx, stats.LoadID, acc, cfg)
			switch {
			case err == nil && res == nil:
				skipped.Add(1)
				l.metrics.ObserveLoad(metrics.OutcomeSkipped, time.Since(t0))
				log.Debugw("already loaded", logger.FieldAccession, acc)
				return nil
			case err != nil:
				if gctx.Err() != nil {
					return gctx.Err()
				}
				failed.Add(1)
				l.metrics.ObserveLoad(metrics.OutcomeFailed, time.Since(t0))
				log.Errorw("load failed", logger.FieldAccession, acc, logger.FieldError, err)
				mu.Lock()
				stats.ErrorMessages = append(stats.ErrorMessages, acc+": "+err.Error())
				mu.Unlock()
				return nil
			}

			loaded.Add(1)
			l.metrics.ObserveLoad(metrics.OutcomeLoaded, time.Since(t0))
			mu.Lock()
			stats.Documents = append(stats.Documents, acc)
			stats.Entities += res.Stats.Entities
			stats.Warnings += len(res.Warnings)
			stats.TableErrors += len(res.TableErrors)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, "load interrupted")
	}

	stats.Loaded = int(loaded.Load())
	stats.Skipped = int(skipped.Load())
	stats.Failed = int(failed.Load())
	stats.Duration = time.Since(start)
	log.Infow("load finished",
		"loaded", stats.Loaded,
		"skipped", stats.Skipped,
		"failed", stats.Failed,
		logger.FieldDuration, stats.Duration.Milliseconds(),
	)
	return stats, nil
}

// loadAccession returns a nil result and nil error when the accession is
// already stored and cfg.Force is off
func (l *Loader) loadAccession(ctx context.Context, loadID, accession string, cfg *Config) (*parser.Result, error) {
	if !cfg.Force {
		_, err := l.storage.GetDocument(ctx, accession)
		if err == nil {
			return nil, nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, err
		}
	} else if err := l.fetcher.Evict(accession, cfg.Full); err != nil {
		return nil, err
	}

	path, err := l.fetcher.Fetch(ctx, accession, cfg.Full)
	if err != nil {
		return nil, err
	}

	_, res, err := l.store(ctx, loadID, accession, path, cfg.Full)
	return res, err
}

// LoadFile parses a local decompressed SOFT file and stores it under
// accession, replacing any document already stored under that name.
func (l *Loader) LoadFile(ctx context.Context, accession, path string) (*storage.Document, *parser.Result, error) {
	accession = source.NormalizeAccession(accession)
	if accession == "" {
		return nil, nil, errors.New("accession is required")
	}

	t0 := time.Now()
	doc, res, err := l.store(ctx, uuid.NewString(), accession, path, false)
	if err != nil {
		l.metrics.ObserveLoad(metrics.OutcomeFailed, time.Since(t0))
		return nil, nil, err
	}
	l.metrics.ObserveLoad(metrics.OutcomeLoaded, time.Since(t0))
	return doc, res, nil
}

// store parses path and writes the document in one transaction
func (l *Loader) store(ctx context.Context, loadID, accession, path string, full bool) (*storage.Document, *parser.Result, error) {
	log := l.logger.With(logger.FieldLoadID, loadID, logger.FieldAccession, accession)

	res, err := parser.New(parser.WithLogger(log.Named("parser"))).ParseFile(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to parse %s", path)
	}
	l.observeParse(res)

	tx, err := l.storage.BeginTx(ctx)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if err := tx.DeleteDocument(ctx, accession); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, nil, err
	}

	doc := &storage.Document{
		Accession:    accession,
		Source:       path,
		LoadID:       loadID,
		Full:         full,
		EntityCount:  res.Registry.Len(),
		WarningCount: len(res.Warnings),
	}
	if err := tx.CreateDocument(ctx, doc); err != nil {
		return nil, nil, err
	}

	for i, e := range res.Registry.Entries() {
		if err := storeEntity(ctx, tx, doc.ID, i, e.Container); err != nil {
			return nil, nil, err
		}
	}
	if err := tx.InsertWarnings(ctx, doc.ID, res.Warnings); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, errors.Wrap(err, "failed to commit transaction")
	}

	log.Infow("document stored",
		"entities", doc.EntityCount,
		"warnings", doc.WarningCount,
		"tables", res.Stats.Tables,
		"unclosed_tables", res.Stats.UnclosedTables,
	)
	return doc, res, nil
}

func storeEntity(ctx context.Context, tx storage.Tx, documentID int64, position int, c *entity.Container) error {
	se := &storage.Entity{
		DocumentID:   documentID,
		Kind:         c.Key().Kind,
		Name:         c.Key().Name,
		Position:     position,
		HasDataTable: c.HasDataTable(),
	}
	tbl, hasTable := c.Table()
	if hasTable {
		se.TableColumns = tbl.Columns
		se.RowCount = tbl.NumRows()
	}
	if err := c.TableErr(); err != nil {
		msg := err.Error()
		se.TableError = &msg
	}
	if err := tx.InsertEntity(ctx, se); err != nil {
		return err
	}

	names := c.Names()
	attrs := make([]storage.Attribute, 0, len(names))
	for _, name := range names {
		v, err := c.Get(name)
		if err != nil {
			return err
		}
		values := v.Values()
		if values == nil {
			values = []string{}
		}
		attrs = append(attrs, storage.Attribute{Name: name, Slot: v.Kind().String(), Values: values})
	}
	if err := tx.InsertAttributes(ctx, se.ID, attrs); err != nil {
		return err
	}

	fields := c.HeaderFields()
	cols := make([]storage.ColumnDescription, 0, len(fields))
	for _, f := range fields {
		cols = append(cols, storage.ColumnDescription{Column: f.Column, Description: f.Description})
	}
	if err := tx.InsertColumnDescriptions(ctx, se.ID, cols); err != nil {
		return err
	}

	if hasTable {
		if err := tx.InsertTableRows(ctx, se.ID, tbl.Rows); err != nil {
			return err
		}
	}
	return nil
}

func (l *Loader) observeParse(res *parser.Result) {
	if l.metrics == nil {
		return
	}
	lines := map[string]int{
		parser.LineEntity.String():    res.Stats.EntityLines,
		parser.LineAttribute.String(): res.Stats.AttributeLines,
		parser.LineHeader.String():    res.Stats.HeaderLines,
		parser.LineRow.String():       res.Stats.RowLines,
	}
	kinds := make([]string, 0, res.Registry.Len())
	for _, k := range res.Registry.Keys() {
		kinds = append(kinds, string(k.Kind))
	}
	codes := make([]string, 0, len(res.Warnings))
	for _, w := range res.Warnings {
		codes = append(codes, string(w.Code))
	}
	l.metrics.ObserveParse(lines, kinds, codes, len(res.TableErrors))
}

// dedupe normalizes accessions and drops repeats, keeping first-seen order
func dedupe(accessions []string) []string {
	seen := make(map[string]bool, len(accessions))
	out := make([]string, 0, len(accessions))
	for _, a := range accessions {
		a = source.NormalizeAccession(a)
		if a == "" || seen[a] {
			continue
		}
		seen[a] = true
		out = append(out, a)
	}
	return out
}
