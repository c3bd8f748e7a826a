package vault

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS folders (
	path TEXT PRIMARY KEY
);
CREATE TABLE IF NOT EXISTS files (
	path     TEXT PRIMARY KEY,
	data     BLOB NOT NULL,
	size     INTEGER NOT NULL,
	mod_time INTEGER NOT NULL
);`

// SQLiteStore keeps the whole vault in one SQLite database file.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens (or creates) the vault database at path. Use ":memory:"
// for a throwaway vault.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty database path", ErrInvalidPath)
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), dirPermissions); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening vault database: %w", err)
	}
	// One connection: ":memory:" databases are per connection, and SQLite
	// serializes writers anyway.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	}
	if path != ":memory:" {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL")
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("applying %q: %w", p, err)
		}
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating vault schema: %w", err)
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// FolderExists reports whether a folder row exists for path.
func (s *SQLiteStore) FolderExists(ctx context.Context, path string) (bool, error) {
	norm, err := NormalizePath(path)
	if err != nil {
		return false, err
	}
	var one int
	err = s.db.QueryRowContext(ctx, `SELECT 1 FROM folders WHERE path = ?`, norm).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// CreateFolder inserts path and its parents in one transaction.
func (s *SQLiteStore) CreateFolder(ctx context.Context, path string) error {
	norm, err := NormalizePath(path)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var one int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM files WHERE path = ?`, norm).Scan(&one)
	if err == nil {
		return fmt.Errorf("%w: file at %s", ErrExists, norm)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	for _, p := range append(parents(norm), norm) {
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO folders (path) VALUES (?)`, p); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetFile returns file metadata for path, or nil.
func (s *SQLiteStore) GetFile(ctx context.Context, path string) (*File, error) {
	norm, err := NormalizePath(path)
	if err != nil {
		return nil, err
	}
	var (
		size    int64
		modTime int64
	)
	err = s.db.QueryRowContext(ctx, `SELECT size, mod_time FROM files WHERE path = ?`, norm).Scan(&size, &modTime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &File{Path: norm, Size: size, ModTime: time.Unix(0, modTime)}, nil
}

// ModifyBinary replaces the content of f.
func (s *SQLiteStore) ModifyBinary(ctx context.Context, f *File, data []byte) error {
	if f == nil {
		return fmt.Errorf("%w: nil file", ErrNotFound)
	}
	now := s.now()
	res, err := s.db.ExecContext(ctx,
		`UPDATE files SET data = ?, size = ?, mod_time = ? WHERE path = ?`,
		data, len(data), now.UnixNano(), f.Path)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, f.Path)
	}
	f.Size = int64(len(data))
	f.ModTime = now
	return nil
}

// CreateBinary inserts a new file. The parent folder must exist.
func (s *SQLiteStore) CreateBinary(ctx context.Context, path string, data []byte) (*File, error) {
	norm, err := NormalizePath(path)
	if err != nil {
		return nil, err
	}
	if dir := parent(norm); dir != "" {
		ok, err := s.FolderExists(ctx, dir)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: folder %s", ErrNotFound, dir)
		}
	}
	now := s.now()
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO files (path, data, size, mod_time) VALUES (?, ?, ?, ?)`,
		norm, data, len(data), now.UnixNano())
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: %s", ErrExists, norm)
	}
	return &File{Path: norm, Size: int64(len(data)), ModTime: now}, nil
}

// ReadBinary returns the content stored at path.
func (s *SQLiteStore) ReadBinary(ctx context.Context, path string) ([]byte, error) {
	norm, err := NormalizePath(path)
	if err != nil {
		return nil, err
	}
	var data []byte
	err = s.db.QueryRowContext(ctx, `SELECT data FROM files WHERE path = ?`, norm).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, norm)
	}
	return data, err
}

// Compile-time interface checks.
var (
	_ Store  = (*SQLiteStore)(nil)
	_ Reader = (*SQLiteStore)(nil)
)
