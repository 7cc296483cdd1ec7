// Package watcher re-checks site sources as they change on disk.
package watcher

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce batches rapid editor saves into one callback.
const DefaultDebounce = 300 * time.Millisecond

// watchedExts are the source kinds worth re-checking.
var watchedExts = map[string]bool{".html": true, ".css": true, ".js": true}

// Watcher runs a callback over batches of changed site sources.
type Watcher struct {
	Root     string
	Exclude  []string // directory names never watched (report output dirs)
	Debounce time.Duration
	Logger   *slog.Logger

	// OnChange receives the batch of changed paths, relative to Root,
	// sorted and deduplicated. Deleted files are included; the callback
	// decides how to treat paths that no longer exist.
	OnChange func(paths []string)
}

// Run starts an fsnotify watcher on the site root and dispatches change
// batches until ctx is cancelled. New directories created at runtime are
// automatically added to the watch list.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	if err := w.addDirsRecursive(fsw, w.Root); err != nil {
		return err
	}

	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w.Logger.Info("watcher: started", slog.String("root", w.Root))

	pending := make(map[string]struct{})
	var timer *time.Timer
	var timerCh <-chan time.Time

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(debounce)
			timerCh = timer.C
		} else {
			timer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			w.Logger.Info("watcher: stopped")
			return nil

		case <-timerCh:
			batch := make([]string, 0, len(pending))
			for p := range pending {
				batch = append(batch, p)
			}
			clear(pending)
			sort.Strings(batch)
			w.Logger.Debug("watcher: dispatching batch", slog.Int("files", len(batch)))
			if w.OnChange != nil {
				w.OnChange(batch)
			}

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := w.addDirsRecursive(fsw, ev.Name); addErr != nil {
						w.Logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
					continue
				}
			}

			if !watchedExts[strings.ToLower(filepath.Ext(ev.Name))] {
				continue
			}
			rel, relErr := filepath.Rel(w.Root, ev.Name)
			if relErr != nil || w.excluded(rel) {
				continue
			}

			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				pending[filepath.ToSlash(rel)] = struct{}{}
				schedule()
			}

		case watchErr, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.Logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// excluded reports whether a relative path sits under a skipped directory.
func (w *Watcher) excluded(rel string) bool {
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if strings.HasPrefix(part, ".") {
			return true
		}
		for _, name := range w.Exclude {
			if part == name {
				return true
			}
		}
	}
	return false
}

// addDirsRecursive adds root and all its non-excluded subdirectories to the
// watch list.
func (w *Watcher) addDirsRecursive(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(w.Root, path)
		if relErr == nil && rel != "." && w.excluded(rel) {
			return filepath.SkipDir
		}
		return fsw.Add(path)
	})
}
