package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/locallmhub/sitekit/internal/apperr"
	"github.com/locallmhub/sitekit/internal/checksum"
)

// FS implements Provider backed by the local file system.
type FS struct {
	root     string              // absolute path to the site root
	excluded map[string]struct{} // directory names never descended into
}

// NewFS creates a new FS provider rooted at the given directory.
// The directory must already exist. Directories named in exclude, and any
// directory whose name begins with a dot, are skipped by List.
func NewFS(root string, exclude ...string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	ex := make(map[string]struct{}, len(exclude))
	for _, d := range exclude {
		ex[d] = struct{}{}
	}
	return &FS{root: abs, excluded: ex}, nil
}

// Root returns the absolute site root.
func (f *FS) Root() string { return f.root }

// safePath resolves a relative path against the site root and rejects any
// result that escapes it (directory traversal).
func (f *FS) safePath(rel string) (string, error) {
	if rel == "" {
		return f.root, nil
	}
	cleaned := filepath.Clean(rel)
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("storage: absolute paths not allowed: %s", rel)
	}
	joined := filepath.Join(f.root, cleaned)
	abs, err := filepath.Abs(joined)
	if err != nil {
		return "", fmt.Errorf("storage: resolve path: %w", err)
	}
	if !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) && abs != f.root {
		return "", fmt.Errorf("storage: path escapes site root: %s", rel)
	}
	return abs, nil
}

func (f *FS) skipDir(name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	_, ok := f.excluded[name]
	return ok
}

// List walks dir (relative to root) and returns sorted metadata for every
// file matching one of exts. Symlinked directories are not followed, which
// breaks traversal loops. A traversal error aborts the listing.
func (f *FS) List(dir string, exts ...string) ([]FileMetadata, error) {
	base, err := f.safePath(dir)
	if err != nil {
		return nil, err
	}
	wanted := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		wanted[strings.ToLower(e)] = struct{}{}
	}

	var out []FileMetadata
	err = filepath.WalkDir(base, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return fmt.Errorf("traverse %s: %w", p, walkErr)
		}
		if d.IsDir() {
			if p != base && f.skipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if len(wanted) > 0 {
			if _, ok := wanted[strings.ToLower(filepath.Ext(d.Name()))]; !ok {
				return nil
			}
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			// Unreadable files are skipped; only traversal errors abort.
			return nil
		}
		rel, _ := filepath.Rel(f.root, p)
		out = append(out, FileMetadata{
			Path:      filepath.ToSlash(rel),
			Checksum:  checksum.Sum(data),
			Size:      info.Size(),
			UpdatedAt: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("storage: list: %w", err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// Read returns the raw bytes of a site file.
func (f *FS) Read(path string) ([]byte, error) {
	abs, err := f.safePath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("storage: read %s: %w", path, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("storage: read %s: %w", path, err)
	}
	return data, nil
}

// Write atomically writes content: temp file, fsync, rename.
func (f *FS) Write(path string, content []byte) error {
	abs, err := f.safePath(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("storage: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".sitekit-tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return nil
}

// Stat reports file info for a relative path.
func (f *FS) Stat(path string) (fs.FileInfo, error) {
	abs, err := f.safePath(path)
	if err != nil {
		return nil, err
	}
	return os.Stat(abs)
}
