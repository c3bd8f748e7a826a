package vault

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// File permission constants.
const (
	dirPermissions  = 0o750 // rwxr-x---: owner full, group read+execute
	filePermissions = 0o644 // rw-r--r--: owner read+write, others read
)

// FSStore is a vault backed by a directory on the local filesystem.
type FSStore struct {
	root string
}

// NewFSStore opens the vault rooted at dir, creating dir if needed.
func NewFSStore(dir string) (*FSStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: empty root", ErrInvalidPath)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}
	if err := os.MkdirAll(abs, dirPermissions); err != nil {
		return nil, fmt.Errorf("creating vault root: %w", err)
	}
	// Resolve symlinks so containment checks compare real paths.
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		abs = real
	}
	return &FSStore{root: abs}, nil
}

// Root returns the absolute directory backing the vault.
func (s *FSStore) Root() string {
	return s.root
}

// FolderExists reports whether path is an existing directory.
func (s *FSStore) FolderExists(ctx context.Context, path string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	full, err := s.resolve(path)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(full)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}

// CreateFolder creates path and its parents. Existing folders are accepted.
func (s *FSStore) CreateFolder(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full, err := s.resolve(path)
	if err != nil {
		return err
	}
	return os.MkdirAll(full, dirPermissions)
}

// GetFile returns the regular file at path, or nil when it does not exist.
func (s *FSStore) GetFile(ctx context.Context, path string) (*File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	norm, err := NormalizePath(path)
	if err != nil {
		return nil, err
	}
	full, err := s.resolve(norm)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(full)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, nil
	}
	return &File{Path: norm, Size: info.Size(), ModTime: info.ModTime()}, nil
}

// ModifyBinary atomically replaces the content of f.
func (s *FSStore) ModifyBinary(ctx context.Context, f *File, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if f == nil {
		return fmt.Errorf("%w: nil file", ErrNotFound)
	}
	full, err := s.resolve(f.Path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(full); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, f.Path)
		}
		return err
	}
	if err := writeAtomic(full, data); err != nil {
		return err
	}
	f.Size = int64(len(data))
	if info, err := os.Stat(full); err == nil {
		f.ModTime = info.ModTime()
	}
	return nil
}

// CreateBinary writes a new file. The parent folder must exist.
func (s *FSStore) CreateBinary(ctx context.Context, path string, data []byte) (*File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	norm, err := NormalizePath(path)
	if err != nil {
		return nil, err
	}
	full, err := s.resolve(norm)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(full); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrExists, norm)
	}
	if err := writeAtomic(full, data); err != nil {
		return nil, err
	}
	f := &File{Path: norm, Size: int64(len(data))}
	if info, err := os.Stat(full); err == nil {
		f.ModTime = info.ModTime()
	}
	return f, nil
}

// ReadBinary returns the content of the file at path.
func (s *FSStore) ReadBinary(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	full, err := s.resolve(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full) // #nosec G304 -- path contained by resolve
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return data, err
}

// resolve maps a vault path to an absolute filesystem path and verifies it
// stays under the root, following symlinks where they exist.
func (s *FSStore) resolve(path string) (string, error) {
	norm, err := NormalizePath(path)
	if err != nil {
		return "", err
	}
	full := filepath.Join(s.root, filepath.FromSlash(norm))

	// The target itself may not exist yet: check the deepest existing ancestor.
	probe := full
	for {
		real, err := filepath.EvalSymlinks(probe)
		if err == nil {
			rest, _ := filepath.Rel(probe, full)
			checked := filepath.Join(real, rest)
			if checked != s.root && !strings.HasPrefix(checked, s.root+string(filepath.Separator)) {
				return "", fmt.Errorf("%w: %q escapes the vault root", ErrInvalidPath, path)
			}
			return full, nil
		}
		next := filepath.Dir(probe)
		if next == probe {
			return full, nil
		}
		probe = next
	}
}

// writeAtomic writes data to a temp file next to path and renames it into
// place, so readers never see a truncated file.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".vaultshot-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpPath) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Chmod(filePermissions); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		cleanup()
		return err
	}
	return nil
}

// Compile-time interface checks.
var (
	_ Store  = (*FSStore)(nil)
	_ Reader = (*FSStore)(nil)
)
