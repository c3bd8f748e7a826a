package assets

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// writeStyle creates {dir}/styles/{name}.css.
func writeStyle(t *testing.T, dir, name, content string) {
	t.Helper()

	stylesDir := filepath.Join(dir, "styles")
	if err := os.MkdirAll(stylesDir, 0755); err != nil {
		t.Fatalf("failed to create styles dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(stylesDir, name+".css"), []byte(content), 0644); err != nil {
		t.Fatalf("failed to write CSS file: %v", err)
	}
}

func TestNewAssetResolver(t *testing.T) {
	t.Parallel()

	t.Run("empty path uses embedded only", func(t *testing.T) {
		t.Parallel()

		r, err := NewAssetResolver("")
		if err != nil {
			t.Fatalf("NewAssetResolver() error = %v", err)
		}
		if r.HasCustomLoader() {
			t.Error("HasCustomLoader() = true, want false")
		}
	})

	t.Run("valid path adds custom loader", func(t *testing.T) {
		t.Parallel()

		r, err := NewAssetResolver(t.TempDir())
		if err != nil {
			t.Fatalf("NewAssetResolver() error = %v", err)
		}
		if !r.HasCustomLoader() {
			t.Error("HasCustomLoader() = false, want true")
		}
	})

	t.Run("invalid path returns error", func(t *testing.T) {
		t.Parallel()

		_, err := NewAssetResolver("/nonexistent/path/abc123xyz")
		if !errors.Is(err, ErrInvalidBasePath) {
			t.Errorf("NewAssetResolver() error = %v, want ErrInvalidBasePath", err)
		}
	})
}

func TestAssetResolver_LoadStyle(t *testing.T) {
	t.Parallel()

	embeddedDefault, err := LoadStyle(DefaultStyleName)
	if err != nil {
		t.Fatalf("LoadStyle(default) error = %v", err)
	}

	dir := t.TempDir()
	writeStyle(t, dir, "default", "td { color: teal; }")
	writeStyle(t, dir, "brand", "th { color: navy; }")

	r, err := NewAssetResolver(dir)
	if err != nil {
		t.Fatalf("NewAssetResolver() error = %v", err)
	}

	tests := []struct {
		name    string
		style   string
		want    string
		wantErr error
	}{
		{name: "custom overrides embedded", style: "default", want: "td { color: teal; }"},
		{name: "custom only", style: "brand", want: "th { color: navy; }"},
		{name: "falls back to embedded", style: "dark"},
		{name: "missing everywhere", style: "solarized", wantErr: ErrStyleNotFound},
		{name: "validation error not fallen back", style: "../x", wantErr: ErrInvalidAssetName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := r.LoadStyle(tt.style)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("LoadStyle(%q) error = %v, want %v", tt.style, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadStyle(%q) error = %v", tt.style, err)
			}
			if tt.want != "" && got != tt.want {
				t.Errorf("LoadStyle(%q) = %q, want %q", tt.style, got, tt.want)
			}
			if tt.want == "" && (got == "" || got == embeddedDefault) {
				t.Errorf("LoadStyle(%q) did not return the embedded theme", tt.style)
			}
		})
	}
}

func TestAssetResolver_ResolveStyle(t *testing.T) {
	t.Parallel()

	r, err := NewAssetResolver("")
	if err != nil {
		t.Fatalf("NewAssetResolver() error = %v", err)
	}
	embeddedDefault, _ := LoadStyle(DefaultStyleName)

	cssPath := filepath.Join(t.TempDir(), "note.css")
	if err := os.WriteFile(cssPath, []byte("pre { margin: 0; }"), 0644); err != nil {
		t.Fatalf("failed to write CSS file: %v", err)
	}

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{name: "empty means default", input: "", want: embeddedDefault},
		{name: "none disables", input: NoStyle, want: ""},
		{name: "theme name", input: "default", want: embeddedDefault},
		{name: "file path", input: cssPath, want: "pre { margin: 0; }"},
		{name: "missing file", input: filepath.Join(filepath.Dir(cssPath), "missing.css"), wantErr: ErrStyleNotFound},
		{name: "directory path", input: filepath.Dir(cssPath) + string(filepath.Separator), wantErr: ErrAssetRead},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := r.ResolveStyle(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("ResolveStyle(%q) error = %v, want %v", tt.input, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveStyle(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ResolveStyle(%q) = %d bytes, want %d bytes", tt.input, len(got), len(tt.want))
			}
		})
	}
}

func TestAssetResolver_ImplementsAssetLoader(t *testing.T) {
	t.Parallel()

	var _ AssetLoader = (*AssetResolver)(nil)
}
