// Package assets provides the stylesheets applied to notes before capture.
//
// # Loader Architecture
//
// The package implements a layered loading system:
//
//	AssetLoader (interface)
//	    │
//	    ├── EmbeddedLoader    - loads from go:embed filesystem (built-in themes)
//	    ├── FilesystemLoader  - loads from custom directory on disk
//	    └── AssetResolver     - combines both with custom-first fallback
//
// EmbeddedLoader provides the built-in themes (default, dark) embedded at
// compile time.
//
// FilesystemLoader allows users to provide custom themes from a directory,
// with path traversal protection and symlink resolution.
//
// AssetResolver is the loader used by the CLI and the HTTP server. It tries
// the custom FilesystemLoader first, falling back to EmbeddedLoader if the
// theme is not found. This enables overriding a single theme while keeping
// the others.
//
// # Directory Structure
//
//	{basePath}/
//	└── styles/
//	    └── {name}.css           # Theme stylesheet (e.g., dark.css)
//
// # Security
//
// Asset names are validated to prevent path traversal attacks.
// FilesystemLoader resolves symlinks and verifies paths stay within basePath.
package assets
