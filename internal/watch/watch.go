// Package watch loads SOFT files dropped into a directory.
//
// A file named like GSE2553_family.soft, GDS507.soft.gz or GDS507_full.soft
// is handed to the Handler once writes to it have been quiet for the
// debounce period. Other files are ignored.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/dshills/geosoft-mcp/internal/logger"
	"github.com/dshills/geosoft-mcp/internal/source"
)

// DefaultDebounce is used when New is given a non-positive debounce
const DefaultDebounce = 500 * time.Millisecond

// Handler loads one settled file
type Handler func(ctx context.Context, accession, path string) error

// Watcher watches one directory (not recursively) for SOFT files
type Watcher struct {
	dir      string
	debounce time.Duration
	handle   Handler
	logger   *zap.SugaredLogger

	mu      sync.Mutex
	pending map[string]time.Time // path -> last write
}

// New creates a watcher for dir
func New(dir string, debounce time.Duration, h Handler) (*Watcher, error) {
	if dir == "" {
		return nil, errors.New("watch directory is required")
	}
	if h == nil {
		return nil, errors.New("handler is required")
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		dir:      dir,
		debounce: debounce,
		handle:   h,
		logger:   logger.ComponentLogger("watch"),
		pending:  make(map[string]time.Time),
	}, nil
}

// AccessionFromFile derives the accession from a SOFT file name.
// It reports false for names that are not SOFT files of a known prefix.
func AccessionFromFile(path string) (string, bool) {
	name := strings.ToUpper(filepath.Base(path))
	name = strings.TrimSuffix(name, ".GZ")
	if !strings.HasSuffix(name, ".SOFT") {
		return "", false
	}
	name = strings.TrimSuffix(name, ".SOFT")
	name = strings.TrimSuffix(name, "_FAMILY")
	name = strings.TrimSuffix(name, "_FULL")

	if _, err := source.AccessionPath(name, false); err != nil {
		return "", false
	}
	return name, true
}

// Run watches until ctx is cancelled. Handler errors are logged and do not
// stop the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return errors.Wrap(err, "failed to create watch directory")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create fsnotify watcher")
	}
	defer func() { _ = fsw.Close() }()

	if err := fsw.Add(w.dir); err != nil {
		return errors.Wrapf(err, "failed to watch %s", w.dir)
	}
	w.logger.Infow("watching for SOFT files", logger.FieldPath, w.dir, "debounce", w.debounce)

	tick := w.debounce / 2
	if tick <= 0 {
		tick = w.debounce
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.observe(event)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warnw("watcher error", logger.FieldError, err)

		case now := <-ticker.C:
			w.flush(ctx, now)
		}
	}
}

func (w *Watcher) observe(event fsnotify.Event) {
	if _, ok := AccessionFromFile(event.Name); !ok {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		delete(w.pending, event.Name)
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		w.pending[event.Name] = time.Now()
	}
}

// flush hands every file quiet for the debounce period to the handler
func (w *Watcher) flush(ctx context.Context, now time.Time) {
	w.mu.Lock()
	var ready []string
	for path, last := range w.pending {
		if now.Sub(last) >= w.debounce {
			ready = append(ready, path)
			delete(w.pending, path)
		}
	}
	w.mu.Unlock()

	for _, path := range ready {
		if ctx.Err() != nil {
			return
		}
		acc, _ := AccessionFromFile(path)
		log := w.logger.With(logger.FieldAccession, acc, logger.FieldPath, path)
		if err := w.handle(ctx, acc, path); err != nil {
			log.Errorw("failed to load dropped file", logger.FieldError, err)
			continue
		}
		log.Infow("loaded dropped file")
	}
}
