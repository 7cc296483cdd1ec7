// Package storage defines the site-tree file-system abstraction.
package storage

import (
	"io/fs"
	"time"
)

// FileMetadata is a lightweight representation returned by list operations.
type FileMetadata struct {
	Path      string    `json:"path"` // relative to the site root, forward slashes
	Checksum  string    `json:"checksum"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Provider is the interface for site-tree file operations. All paths are
// relative to the site root.
type Provider interface {
	// List walks dir and returns metadata for every file whose extension is
	// in exts (e.g. ".html"). Excluded directories are never descended into.
	List(dir string, exts ...string) ([]FileMetadata, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (temp file, fsync, rename).
	Write(path string, content []byte) error
	// Stat reports file info for path; used for link-integrity resolution.
	Stat(path string) (fs.FileInfo, error)
	// Root returns the absolute site root directory.
	Root() string
}
