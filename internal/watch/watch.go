// Package watch re-runs reconciliation when notes change on disk.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bryan-cox/taskquest/internal/reconcile"
	"github.com/bryan-cox/taskquest/internal/vault"
)

// Reconciler is the part of reconcile.Reconciler the watcher drives.
type Reconciler interface {
	Scan(ctx context.Context) (reconcile.ScanResult, error)
	ScanNote(ctx context.Context, filePath string) (reconcile.Result, error)
}

// Options configures a Watcher.
type Options struct {
	// Interval between full scans. Zero disables periodic scans.
	Interval time.Duration
	// Debounce is how long a note must be quiet before it is reconciled.
	Debounce      time.Duration
	StorageFolder string
	// TrackedFolders limits which notes are reconciled. Empty means all.
	TrackedFolders []string
	Logger         *slog.Logger
}

// Watcher watches a vault for note changes.
type Watcher struct {
	watcher *fsnotify.Watcher
	root    string
	rec     Reconciler
	opts    Options
	logger  *slog.Logger
	pending map[string]time.Time
}

// New creates a watcher for the vault rooted at root.
func New(root string, rec Reconciler, opts Options) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if opts.Debounce <= 0 {
		opts.Debounce = 500 * time.Millisecond
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Watcher{
		watcher: w,
		root:    root,
		rec:     rec,
		opts:    opts,
		logger:  opts.Logger,
		pending: make(map[string]time.Time),
	}, nil
}

// Run watches until ctx is done. It always closes the underlying watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	if err := w.addTree(w.root); err != nil {
		return err
	}
	w.logger.Info("watching vault", "path", w.root, "interval", w.opts.Interval)

	debounceTicker := time.NewTicker(100 * time.Millisecond)
	defer debounceTicker.Stop()

	var scanC <-chan time.Time
	if w.opts.Interval > 0 {
		scanTicker := time.NewTicker(w.opts.Interval)
		defer scanTicker.Stop()
		scanC = scanTicker.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", "error", err)

		case <-debounceTicker.C:
			w.flush(ctx, time.Now())

		case <-scanC:
			res, err := w.rec.Scan(ctx)
			if err != nil {
				w.logger.Error("periodic scan failed", "error", err)
				continue
			}
			w.logger.Info("periodic scan finished", "enqueued", res.Enqueued, "unchecked", res.Unchecked, "failed", len(res.Failed))
		}
	}
}

func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if rel, err := filepath.Rel(w.root, path); err == nil && filepath.ToSlash(rel) == w.opts.StorageFolder {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("could not watch '%s': %w", path, err)
		}
		return nil
	})
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
		return
	}
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)

	if event.Has(fsnotify.Create) {
		if isDir(event.Name) && vault.IsNote(rel+"/x.md", w.opts.StorageFolder) {
			if err := w.addTree(event.Name); err != nil {
				w.logger.Warn("could not watch new folder", "path", rel, "error", err)
			}
			return
		}
	}
	if !vault.IsNote(rel, w.opts.StorageFolder) || !vault.InFolders(rel, w.opts.TrackedFolders) {
		return
	}
	w.logger.Debug("note changed", "path", rel, "op", event.Op.String())
	w.pending[rel] = time.Now()
}

// flush reconciles notes that have been quiet for the debounce period.
func (w *Watcher) flush(ctx context.Context, now time.Time) {
	for path, changed := range w.pending {
		if now.Sub(changed) < w.opts.Debounce {
			continue
		}
		delete(w.pending, path)
		res, err := w.rec.ScanNote(ctx, path)
		if err != nil {
			w.logger.Warn("could not reconcile note", "path", path, "error", err)
			continue
		}
		if len(res.Enqueued) > 0 || res.Unchecked > 0 {
			w.logger.Info("note reconciled", "path", path, "enqueued", len(res.Enqueued), "unchecked", res.Unchecked)
		}
	}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
