// Package vault implements the hierarchical file store that exported
// snapshots are written to.
//
// A vault is addressed by slash-separated paths relative to its root
// ("attachments/tables/q3.png"). Three backends are provided:
//
//	Store (interface)
//	    │
//	    ├── FSStore     - a directory on the local filesystem
//	    ├── SQLiteStore - a single SQLite database file (modernc.org/sqlite)
//	    └── MemStore    - an in-process map, for tests and the HTTP server
//
// Every operation is atomic per call: a reader never observes a partially
// written file.
package vault

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinel errors for store operations.
var (
	ErrInvalidPath = errors.New("invalid vault path")
	ErrNotFound    = errors.New("vault entry not found")
	ErrExists      = errors.New("vault entry already exists")
	ErrClosed      = errors.New("vault is closed")
)

// File is a handle on a binary file stored in the vault.
type File struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// Store is the file-store contract the export pipeline persists through.
type Store interface {
	// FolderExists reports whether a folder exists at path.
	FolderExists(ctx context.Context, path string) (bool, error)

	// CreateFolder creates the folder at path and any missing parents.
	CreateFolder(ctx context.Context, path string) error

	// GetFile returns the file at path, or nil when none exists.
	GetFile(ctx context.Context, path string) (*File, error)

	// ModifyBinary replaces the content of an existing file.
	ModifyBinary(ctx context.Context, f *File, data []byte) error

	// CreateBinary creates a new file at path. Returns ErrExists when a
	// file is already there.
	CreateBinary(ctx context.Context, path string, data []byte) (*File, error)
}

// Reader is implemented by stores that can return file content.
type Reader interface {
	ReadBinary(ctx context.Context, path string) ([]byte, error)
}

// NormalizePath cleans a vault path: backslashes become slashes, repeated
// slashes collapse, and leading or trailing slashes are dropped. "." and
// ".." segments are rejected rather than resolved, so a path can never
// leave the vault root.
func NormalizePath(p string) (string, error) {
	p = strings.ReplaceAll(p, "\\", "/")
	if strings.ContainsRune(p, 0) {
		return "", fmt.Errorf("%w: contains null byte", ErrInvalidPath)
	}

	segments := strings.Split(p, "/")
	out := segments[:0]
	for _, s := range segments {
		switch s {
		case "":
			continue
		case ".", "..":
			return "", fmt.Errorf("%w: %q contains a relative segment", ErrInvalidPath, p)
		}
		out = append(out, s)
	}
	if len(out) == 0 {
		return "", fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	return strings.Join(out, "/"), nil
}

// Join builds the path of name inside directory and normalizes it.
func Join(directory, name string) (string, error) {
	return NormalizePath(directory + "/" + name)
}

// parents returns every ancestor folder of p, shortest first.
// parents("a/b/c.png") == ["a", "a/b"].
func parents(p string) []string {
	segments := strings.Split(p, "/")
	out := make([]string, 0, len(segments)-1)
	for i := 1; i < len(segments); i++ {
		out = append(out, strings.Join(segments[:i], "/"))
	}
	return out
}

// parent returns the folder containing p, or "" for top-level entries.
func parent(p string) string {
	if i := strings.LastIndexByte(p, '/'); i >= 0 {
		return p[:i]
	}
	return ""
}
