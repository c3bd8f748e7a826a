package vault_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/alnah/go-vaultshot/internal/vault"
)

// ---------------------------------------------------------------------------
// TestMemStore_Stats - Mutation counters
// ---------------------------------------------------------------------------

func TestMemStore_Stats(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := vault.NewMemStore()

	if err := s.CreateFolder(ctx, "a"); err != nil {
		t.Fatalf("CreateFolder() error = %v", err)
	}
	f, err := s.CreateBinary(ctx, "a/x.png", []byte("1"))
	if err != nil {
		t.Fatalf("CreateBinary() error = %v", err)
	}
	if err := s.ModifyBinary(ctx, f, []byte("2")); err != nil {
		t.Fatalf("ModifyBinary() error = %v", err)
	}
	if err := s.ModifyBinary(ctx, f, []byte("3")); err != nil {
		t.Fatalf("ModifyBinary() error = %v", err)
	}

	want := vault.MemStats{FolderCreates: 1, FileCreates: 1, FileModifies: 2}
	if got := s.Stats(); got != want {
		t.Errorf("Stats() = %+v, want %+v", got, want)
	}
	if got := s.Files(); len(got) != 1 || got[0] != "a/x.png" {
		t.Errorf("Files() = %v, want [a/x.png]", got)
	}
}

// ---------------------------------------------------------------------------
// TestMemStore_ReadReturnsCopy - Callers cannot mutate stored bytes
// ---------------------------------------------------------------------------

func TestMemStore_ReadReturnsCopy(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := vault.NewMemStore()
	src := []byte("abc")
	if _, err := s.CreateBinary(ctx, "f.png", src); err != nil {
		t.Fatalf("CreateBinary() error = %v", err)
	}
	src[0] = 'z'

	got, _ := s.ReadBinary(ctx, "f.png")
	got[1] = 'z'

	again, _ := s.ReadBinary(ctx, "f.png")
	if string(again) != "abc" {
		t.Errorf("stored content = %q, want %q", again, "abc")
	}
}

// ---------------------------------------------------------------------------
// TestMemStore_CanceledContext - Operations honour ctx
// ---------------------------------------------------------------------------

func TestMemStore_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := vault.NewMemStore()

	if err := s.CreateFolder(ctx, "a"); !errors.Is(err, context.Canceled) {
		t.Errorf("CreateFolder() error = %v, want %v", err, context.Canceled)
	}
	if _, err := s.CreateBinary(ctx, "f.png", nil); !errors.Is(err, context.Canceled) {
		t.Errorf("CreateBinary() error = %v, want %v", err, context.Canceled)
	}
	if s.Stats() != (vault.MemStats{}) {
		t.Errorf("Stats() = %+v, want zero", s.Stats())
	}
}

// ---------------------------------------------------------------------------
// TestMemStore_Concurrent - Parallel creates of distinct files
// ---------------------------------------------------------------------------

func TestMemStore_Concurrent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := vault.NewMemStore()
	if err := s.CreateFolder(ctx, "p"); err != nil {
		t.Fatalf("CreateFolder() error = %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := string(rune('a'+i)) + ".png"
			if _, err := s.CreateBinary(ctx, "p/"+name, []byte{byte(i)}); err != nil {
				t.Errorf("CreateBinary(%s) error = %v", name, err)
			}
		}(i)
	}
	wg.Wait()

	if got := s.Stats().FileCreates; got != 20 {
		t.Errorf("FileCreates = %d, want 20", got)
	}
}
