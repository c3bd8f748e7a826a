package assets

import (
	"errors"
	"fmt"
	"os"

	"github.com/alnah/go-vaultshot/internal/fileutil"
)

// NoStyle disables the stylesheet entirely when passed to ResolveStyle.
const NoStyle = "none"

// MaxStyleSize bounds stylesheets read from arbitrary paths.
const MaxStyleSize = 512 << 10

// AssetResolver combines custom and embedded loaders with fallback logic.
// When a custom loader is configured, it tries custom first, then falls back
// to embedded if the theme is not found in the custom location.
type AssetResolver struct {
	custom   AssetLoader // nil if no custom path configured
	embedded AssetLoader
}

// NewAssetResolver creates an AssetResolver.
// If customBasePath is empty, only embedded assets are used.
// If customBasePath is set, custom assets take precedence with fallback to embedded.
// Returns error if customBasePath is set but invalid.
func NewAssetResolver(customBasePath string) (*AssetResolver, error) {
	resolver := &AssetResolver{
		embedded: NewEmbeddedLoader(),
	}

	if customBasePath != "" {
		fsLoader, err := NewFilesystemLoader(customBasePath)
		if err != nil {
			return nil, err
		}
		resolver.custom = fsLoader
	}

	return resolver, nil
}

// LoadStyle loads a theme, trying the custom loader first if available.
// Only "not found" errors fall through to the embedded themes; validation
// and I/O errors from the custom directory are returned as is.
func (r *AssetResolver) LoadStyle(name string) (string, error) {
	if r.custom == nil {
		return r.embedded.LoadStyle(name)
	}

	content, err := r.custom.LoadStyle(name)
	if err == nil {
		return content, nil
	}
	if !errors.Is(err, ErrStyleNotFound) {
		return "", err
	}
	return r.embedded.LoadStyle(name)
}

// ResolveStyle accepts what users put in capture.theme: a theme name, a
// path to a .css file, NoStyle, or "" for the default theme.
func (r *AssetResolver) ResolveStyle(nameOrPath string) (string, error) {
	switch {
	case nameOrPath == "":
		return r.LoadStyle(DefaultStyleName)
	case nameOrPath == NoStyle:
		return "", nil
	case fileutil.IsFilePath(nameOrPath):
		return readStyleFile(nameOrPath)
	default:
		return r.LoadStyle(nameOrPath)
	}
}

// HasCustomLoader returns true if a custom asset loader is configured.
func (r *AssetResolver) HasCustomLoader() bool {
	return r.custom != nil
}

func readStyleFile(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %q", ErrStyleNotFound, path)
		}
		return "", fmt.Errorf("%w: %v", ErrAssetRead, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %q is a directory", ErrAssetRead, path)
	}
	if info.Size() > MaxStyleSize {
		return "", fmt.Errorf("%w: %q is %d bytes (max %d)", ErrAssetRead, path, info.Size(), MaxStyleSize)
	}
	content, err := os.ReadFile(path) // #nosec G304 -- user-selected stylesheet
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAssetRead, err)
	}
	return string(content), nil
}

// Compile-time interface check.
var _ AssetLoader = (*AssetResolver)(nil)
