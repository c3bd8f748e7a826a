package vault_test

// Notes:
// - The contract tests run the same table against every backend. The SQLite
//   backend uses a database file under t.TempDir() so each subtest gets its
//   own vault.
// - FSStore atomic rename is not checked for crash safety; only the visible
//   result of each call is asserted.

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/alnah/go-vaultshot/internal/vault"
)

type storeUnderTest interface {
	vault.Store
	vault.Reader
}

func backends(t *testing.T) map[string]func(t *testing.T) storeUnderTest {
	t.Helper()
	return map[string]func(t *testing.T) storeUnderTest{
		"fs": func(t *testing.T) storeUnderTest {
			s, err := vault.NewFSStore(t.TempDir())
			if err != nil {
				t.Fatalf("NewFSStore() error = %v", err)
			}
			return s
		},
		"mem": func(t *testing.T) storeUnderTest {
			return vault.NewMemStore()
		},
		"sqlite": func(t *testing.T) storeUnderTest {
			s, err := vault.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "vault.db"))
			if err != nil {
				t.Fatalf("OpenSQLite() error = %v", err)
			}
			t.Cleanup(func() { _ = s.Close() })
			return s
		},
	}
}

// ---------------------------------------------------------------------------
// TestNormalizePath - Path cleaning and rejection
// ---------------------------------------------------------------------------

func TestNormalizePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{name: "plain", input: "a/b.png", want: "a/b.png"},
		{name: "duplicate slashes", input: "a//b///c.png", want: "a/b/c.png"},
		{name: "leading and trailing slashes", input: "/a/b/", want: "a/b"},
		{name: "backslashes", input: `a\b\c.png`, want: "a/b/c.png"},
		{name: "dot segment", input: "a/./b", wantErr: vault.ErrInvalidPath},
		{name: "parent segment", input: "../etc/passwd", wantErr: vault.ErrInvalidPath},
		{name: "null byte", input: "a\x00b", wantErr: vault.ErrInvalidPath},
		{name: "empty", input: "", wantErr: vault.ErrInvalidPath},
		{name: "only slashes", input: "///", wantErr: vault.ErrInvalidPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := vault.NormalizePath(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("NormalizePath(%q) error = %v, want %v", tt.input, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizePath(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("NormalizePath(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestJoin - Directory and file name composition
// ---------------------------------------------------------------------------

func TestJoin(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		directory string
		file      string
		want      string
	}{
		{name: "simple", directory: "snaps", file: "t.png", want: "snaps/t.png"},
		{name: "trailing slash directory", directory: "snaps/", file: "t.png", want: "snaps/t.png"},
		{name: "nested", directory: "a/b/c", file: "t.png", want: "a/b/c/t.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := vault.Join(tt.directory, tt.file)
			if err != nil {
				t.Fatalf("Join() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Join(%q, %q) = %q, want %q", tt.directory, tt.file, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestStoreContract - Behaviour shared by every backend
// ---------------------------------------------------------------------------

func TestStoreContract(t *testing.T) {
	t.Parallel()

	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			t.Run("folder lifecycle", func(t *testing.T) {
				t.Parallel()
				ctx := context.Background()
				s := open(t)

				ok, err := s.FolderExists(ctx, "a/b")
				if err != nil || ok {
					t.Fatalf("FolderExists before create = %v, %v; want false, nil", ok, err)
				}
				if err := s.CreateFolder(ctx, "a/b"); err != nil {
					t.Fatalf("CreateFolder() error = %v", err)
				}
				for _, p := range []string{"a", "a/b", "a//b/"} {
					ok, err := s.FolderExists(ctx, p)
					if err != nil || !ok {
						t.Errorf("FolderExists(%q) = %v, %v; want true, nil", p, ok, err)
					}
				}
				if err := s.CreateFolder(ctx, "a/b"); err != nil {
					t.Errorf("second CreateFolder() error = %v", err)
				}
			})

			t.Run("create then modify", func(t *testing.T) {
				t.Parallel()
				ctx := context.Background()
				s := open(t)

				if err := s.CreateFolder(ctx, "snaps"); err != nil {
					t.Fatalf("CreateFolder() error = %v", err)
				}
				f, err := s.GetFile(ctx, "snaps/x.png")
				if err != nil || f != nil {
					t.Fatalf("GetFile on missing = %v, %v; want nil, nil", f, err)
				}

				created, err := s.CreateBinary(ctx, "snaps/x.png", []byte("one"))
				if err != nil {
					t.Fatalf("CreateBinary() error = %v", err)
				}
				if created.Path != "snaps/x.png" || created.Size != 3 {
					t.Errorf("CreateBinary() = %+v", created)
				}

				f, err = s.GetFile(ctx, "snaps/x.png")
				if err != nil || f == nil {
					t.Fatalf("GetFile after create = %v, %v", f, err)
				}
				if err := s.ModifyBinary(ctx, f, []byte("second")); err != nil {
					t.Fatalf("ModifyBinary() error = %v", err)
				}
				data, err := s.ReadBinary(ctx, "snaps/x.png")
				if err != nil {
					t.Fatalf("ReadBinary() error = %v", err)
				}
				if !bytes.Equal(data, []byte("second")) {
					t.Errorf("ReadBinary() = %q, want %q", data, "second")
				}
				if f.Size != int64(len("second")) {
					t.Errorf("File.Size after modify = %d, want %d", f.Size, len("second"))
				}
			})

			t.Run("create existing fails", func(t *testing.T) {
				t.Parallel()
				ctx := context.Background()
				s := open(t)

				if err := s.CreateFolder(ctx, "d"); err != nil {
					t.Fatalf("CreateFolder() error = %v", err)
				}
				if _, err := s.CreateBinary(ctx, "d/f.png", []byte("a")); err != nil {
					t.Fatalf("CreateBinary() error = %v", err)
				}
				_, err := s.CreateBinary(ctx, "d/f.png", []byte("b"))
				if !errors.Is(err, vault.ErrExists) {
					t.Errorf("second CreateBinary() error = %v, want %v", err, vault.ErrExists)
				}
				data, _ := s.ReadBinary(ctx, "d/f.png")
				if string(data) != "a" {
					t.Errorf("content after failed create = %q, want %q", data, "a")
				}
			})

			t.Run("create without parent fails", func(t *testing.T) {
				t.Parallel()
				s := open(t)

				_, err := s.CreateBinary(context.Background(), "missing/f.png", []byte("a"))
				if err == nil {
					t.Fatal("CreateBinary() into missing folder succeeded, want error")
				}
			})

			t.Run("modify missing fails", func(t *testing.T) {
				t.Parallel()
				s := open(t)

				err := s.ModifyBinary(context.Background(), &vault.File{Path: "ghost.png"}, []byte("a"))
				if !errors.Is(err, vault.ErrNotFound) {
					t.Errorf("ModifyBinary() error = %v, want %v", err, vault.ErrNotFound)
				}
			})

			t.Run("read missing fails", func(t *testing.T) {
				t.Parallel()
				s := open(t)

				_, err := s.ReadBinary(context.Background(), "ghost.png")
				if !errors.Is(err, vault.ErrNotFound) {
					t.Errorf("ReadBinary() error = %v, want %v", err, vault.ErrNotFound)
				}
			})

			t.Run("invalid path rejected", func(t *testing.T) {
				t.Parallel()
				s := open(t)

				_, err := s.CreateBinary(context.Background(), "../escape.png", []byte("a"))
				if !errors.Is(err, vault.ErrInvalidPath) {
					t.Errorf("CreateBinary() error = %v, want %v", err, vault.ErrInvalidPath)
				}
			})

			t.Run("root level file", func(t *testing.T) {
				t.Parallel()
				ctx := context.Background()
				s := open(t)

				if _, err := s.CreateBinary(ctx, "top.png", []byte("x")); err != nil {
					t.Fatalf("CreateBinary() at root error = %v", err)
				}
				f, err := s.GetFile(ctx, "/top.png")
				if err != nil || f == nil {
					t.Errorf("GetFile(/top.png) = %v, %v", f, err)
				}
			})
		})
	}
}
