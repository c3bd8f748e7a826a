package vault

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemStats counts mutating calls made against a MemStore.
type MemStats struct {
	FolderCreates int
	FileCreates   int
	FileModifies  int
}

// MemStore is an in-memory vault. It is safe for concurrent use.
type MemStore struct {
	mu      sync.Mutex
	folders map[string]bool
	files   map[string]*memFile
	stats   MemStats
	now     func() time.Time
}

type memFile struct {
	data    []byte
	modTime time.Time
}

// NewMemStore returns an empty in-memory vault.
func NewMemStore() *MemStore {
	return &MemStore{
		folders: make(map[string]bool),
		files:   make(map[string]*memFile),
		now:     time.Now,
	}
}

// FolderExists reports whether path was created as a folder.
func (s *MemStore) FolderExists(ctx context.Context, path string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	norm, err := NormalizePath(path)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.folders[norm], nil
}

// CreateFolder records path and its parents as folders.
func (s *MemStore) CreateFolder(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	norm, err := NormalizePath(path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, isFile := s.files[norm]; isFile {
		return fmt.Errorf("%w: file at %s", ErrExists, norm)
	}
	for _, p := range parents(norm) {
		s.folders[p] = true
	}
	s.folders[norm] = true
	s.stats.FolderCreates++
	return nil
}

// GetFile returns the file at path, or nil.
func (s *MemStore) GetFile(ctx context.Context, path string) (*File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	norm, err := NormalizePath(path)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[norm]
	if !ok {
		return nil, nil
	}
	return &File{Path: norm, Size: int64(len(f.data)), ModTime: f.modTime}, nil
}

// ModifyBinary replaces the content of f.
func (s *MemStore) ModifyBinary(ctx context.Context, f *File, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if f == nil {
		return fmt.Errorf("%w: nil file", ErrNotFound)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.files[f.Path]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, f.Path)
	}
	entry.data = append([]byte(nil), data...)
	entry.modTime = s.now()
	f.Size = int64(len(data))
	f.ModTime = entry.modTime
	s.stats.FileModifies++
	return nil
}

// CreateBinary stores a new file. The parent folder must exist.
func (s *MemStore) CreateBinary(ctx context.Context, path string, data []byte) (*File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	norm, err := NormalizePath(path)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.files[norm]; ok {
		return nil, fmt.Errorf("%w: %s", ErrExists, norm)
	}
	if dir := parent(norm); dir != "" && !s.folders[dir] {
		return nil, fmt.Errorf("%w: folder %s", ErrNotFound, dir)
	}
	entry := &memFile{data: append([]byte(nil), data...), modTime: s.now()}
	s.files[norm] = entry
	s.stats.FileCreates++
	return &File{Path: norm, Size: int64(len(data)), ModTime: entry.modTime}, nil
}

// ReadBinary returns a copy of the content stored at path.
func (s *MemStore) ReadBinary(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	norm, err := NormalizePath(path)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[norm]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, norm)
	}
	return append([]byte(nil), f.data...), nil
}

// Files lists stored file paths in lexical order.
func (s *MemStore) Files() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.files))
	for p := range s.files {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Stats returns the number of mutating calls made so far.
func (s *MemStore) Stats() MemStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Compile-time interface checks.
var (
	_ Store  = (*MemStore)(nil)
	_ Reader = (*MemStore)(nil)
)
