package watcher

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

type recorder struct {
	mu      sync.Mutex
	batches [][]string
}

func (r *recorder) record(paths []string) {
	r.mu.Lock()
	r.batches = append(r.batches, paths)
	r.mu.Unlock()
}

func (r *recorder) sawPath(p string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.batches {
		for _, got := range b {
			if got == p {
				return true
			}
		}
	}
	return false
}

func testWatcher(t *testing.T) (string, *recorder, *Watcher) {
	t.Helper()
	root := t.TempDir()
	rec := &recorder{}
	w := &Watcher{
		Root:     root,
		Exclude:  []string{"build-reports"},
		Debounce: 50 * time.Millisecond,
		Logger:   slog.New(slog.DiscardHandler),
		OnChange: rec.record,
	}
	return root, rec, w
}

func TestWatcher_ChangedFileDispatched(t *testing.T) {
	root, rec, w := testWatcher(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go w.Run(ctx)
	time.Sleep(100 * time.Millisecond)

	_ = os.WriteFile(filepath.Join(root, "index.html"), []byte("<html></html>"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return rec.sawPath("index.html")
	}, "changed file not dispatched")
}

func TestWatcher_IgnoresUnwatchedExtensions(t *testing.T) {
	root, rec, w := testWatcher(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go w.Run(ctx)
	time.Sleep(100 * time.Millisecond)

	_ = os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0o644)
	_ = os.WriteFile(filepath.Join(root, "style.css"), []byte("body{}"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return rec.sawPath("style.css")
	}, "css change not dispatched")
	if rec.sawPath("notes.txt") {
		t.Error("txt file should not be dispatched")
	}
}

func TestWatcher_ExcludedDirIgnored(t *testing.T) {
	root, rec, w := testWatcher(t)
	reports := filepath.Join(root, "build-reports")
	_ = os.MkdirAll(reports, 0o755)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go w.Run(ctx)
	time.Sleep(100 * time.Millisecond)

	_ = os.WriteFile(filepath.Join(reports, "report.html"), []byte("<html></html>"), 0o644)
	_ = os.WriteFile(filepath.Join(root, "page.html"), []byte("<html></html>"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return rec.sawPath("page.html")
	}, "site change not dispatched")
	if rec.sawPath("build-reports/report.html") {
		t.Error("report output must not retrigger the watcher")
	}
}

func TestWatcher_NewDirWatched(t *testing.T) {
	root, rec, w := testWatcher(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go w.Run(ctx)
	time.Sleep(100 * time.Millisecond)

	sub := filepath.Join(root, "documents")
	_ = os.MkdirAll(sub, 0o755)
	time.Sleep(200 * time.Millisecond)

	_ = os.WriteFile(filepath.Join(sub, "guide.html"), []byte("<html></html>"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return rec.sawPath("documents/guide.html")
	}, "file in new subdir not dispatched")
}

func TestWatcher_DebounceBatchesWrites(t *testing.T) {
	root, rec, w := testWatcher(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go w.Run(ctx)
	time.Sleep(100 * time.Millisecond)

	_ = os.WriteFile(filepath.Join(root, "a.html"), []byte("a"), 0o644)
	_ = os.WriteFile(filepath.Join(root, "b.html"), []byte("b"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return rec.sawPath("a.html") && rec.sawPath("b.html")
	}, "both writes should be dispatched")

	rec.mu.Lock()
	defer rec.mu.Unlock()
	for _, b := range rec.batches {
		if len(b) == 2 {
			return
		}
	}
	// Timing-dependent: two batches of one file each is acceptable, but at
	// least assert nothing was dropped.
	total := 0
	for _, b := range rec.batches {
		total += len(b)
	}
	if total < 2 {
		t.Errorf("batches = %v", rec.batches)
	}
}
