// Package config loads the YAML configuration shared by the vaultshot CLI
// and HTTP server.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-vaultshot/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// Field length limits for multi-tenant safety.
const (
	MaxPathLength     = 4096 // PATH_MAX on Linux
	MaxDirLength      = 1024 // Vault folder
	MaxTagLength      = 32   // "blockquote"
	MaxElements       = 32   // Capture tag list
	MaxStyleEntries   = 64   // Style patch properties
	MaxPropertyLength = 64   // "border-collapse"
	MaxValueLength    = 256  // CSS value
	MaxTitleLength    = 200  // Publish heading
	MaxAddrLength     = 256  // "host:port"
	MaxLevelLength    = 10   // "debug"
)

// Backend names accepted in vault.backend.
const (
	BackendFS     = "fs"
	BackendSQLite = "sqlite"
)

// Config holds all configuration for snapshot exports.
type Config struct {
	Vault   VaultConfig   `yaml:"vault"`
	Capture CaptureConfig `yaml:"capture"`
	Browser BrowserConfig `yaml:"browser"`
	Publish PublishConfig `yaml:"publish"`
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
}

// VaultConfig selects where exported images are stored.
type VaultConfig struct {
	Path     string `yaml:"path"`     // Vault root directory (fs backend)
	Backend  string `yaml:"backend"`  // "fs" or "sqlite" (default: "fs")
	Database string `yaml:"database"` // SQLite file (default: <path>/.vaultshot.db)
}

// CaptureConfig defines what gets rasterized and where it lands.
type CaptureConfig struct {
	Directory string            `yaml:"directory"` // Vault folder for images (default: "snapshots")
	Elements  []string          `yaml:"elements"`  // Tag names to capture (default: table, pre)
	Style     map[string]string `yaml:"style"`     // Inline style patch applied before capture
	Timeout   string            `yaml:"timeout"`   // Go duration (default: "30s")
	Theme     string            `yaml:"theme"`     // Theme name, .css path, or "none" (default: "default")
	AssetsDir string            `yaml:"assetsDir"` // Custom theme directory with styles/{name}.css
}

// BrowserConfig defines the headless Chrome launch options.
type BrowserConfig struct {
	Bin       string `yaml:"bin"`       // Chrome binary (default: ROD_BROWSER_BIN or auto download)
	NoSandbox bool   `yaml:"noSandbox"` // Also forced when CI is set
}

// PublishConfig defines the document written next to the images.
type PublishConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Title       string `yaml:"title"`       // Heading prepended to the document (default: note name)
	ProbeImages bool   `yaml:"probeImages"` // Fill missing <img> width/height
	OutDir      string `yaml:"outDir"`      // Default: next to the note
}

// ServerConfig defines the HTTP API options.
type ServerConfig struct {
	Addr string `yaml:"addr"` // Listen address (default: "127.0.0.1:8420")
}

// LogConfig defines diagnostic logging.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: info)
}

// Default values applied by DefaultConfig and the Timeout accessor.
const (
	DefaultDirectory = "snapshots"
	DefaultTimeout   = 30 * time.Second
	DefaultAddr      = "127.0.0.1:8420"
	DefaultLogLevel  = "info"
)

// DefaultElements are the tags captured when capture.elements is empty.
var DefaultElements = []string{"table", "pre"}

// Validate checks field lengths and enumerations. Called automatically by
// LoadConfig, but available for consumers who construct Config manually
// (e.g. the HTTP server building one per request).
func (c *Config) Validate() error {
	// Validate vault fields
	if err := validateFieldLength("vault.path", c.Vault.Path, MaxPathLength); err != nil {
		return err
	}
	if err := validateFieldLength("vault.database", c.Vault.Database, MaxPathLength); err != nil {
		return err
	}
	switch strings.ToLower(c.Vault.Backend) {
	case "", BackendFS, BackendSQLite:
		// valid
	default:
		return fmt.Errorf("%w: vault.backend %q (must be fs or sqlite)", ErrInvalidValue, c.Vault.Backend)
	}

	// Validate capture fields
	if err := validateFieldLength("capture.directory", c.Capture.Directory, MaxDirLength); err != nil {
		return err
	}
	if len(c.Capture.Elements) > MaxElements {
		return fmt.Errorf("%w: capture.elements (%d entries, max %d)", ErrFieldTooLong, len(c.Capture.Elements), MaxElements)
	}
	for i, tag := range c.Capture.Elements {
		field := fmt.Sprintf("capture.elements[%d]", i)
		if err := validateFieldLength(field, tag, MaxTagLength); err != nil {
			return err
		}
		if !isTagName(tag) {
			return fmt.Errorf("%w: %s %q is not a tag name", ErrInvalidValue, field, tag)
		}
	}
	if len(c.Capture.Style) > MaxStyleEntries {
		return fmt.Errorf("%w: capture.style (%d entries, max %d)", ErrFieldTooLong, len(c.Capture.Style), MaxStyleEntries)
	}
	for prop, value := range c.Capture.Style {
		if err := validateFieldLength("capture.style key", prop, MaxPropertyLength); err != nil {
			return err
		}
		if err := validateFieldLength("capture.style."+prop, value, MaxValueLength); err != nil {
			return err
		}
	}
	if err := validateFieldLength("capture.theme", c.Capture.Theme, MaxPathLength); err != nil {
		return err
	}
	if err := validateFieldLength("capture.assetsDir", c.Capture.AssetsDir, MaxPathLength); err != nil {
		return err
	}
	if c.Capture.Timeout != "" {
		d, err := time.ParseDuration(c.Capture.Timeout)
		if err != nil || d <= 0 {
			return fmt.Errorf("%w: capture.timeout %q (must be a positive duration like 30s)", ErrInvalidValue, c.Capture.Timeout)
		}
	}

	// Validate browser, publish, server, log fields
	if err := validateFieldLength("browser.bin", c.Browser.Bin, MaxPathLength); err != nil {
		return err
	}
	if err := validateFieldLength("publish.title", c.Publish.Title, MaxTitleLength); err != nil {
		return err
	}
	if err := validateFieldLength("publish.outDir", c.Publish.OutDir, MaxPathLength); err != nil {
		return err
	}
	if err := validateFieldLength("server.addr", c.Server.Addr, MaxAddrLength); err != nil {
		return err
	}
	if err := validateFieldLength("log.level", c.Log.Level, MaxLevelLength); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
		// valid
	default:
		return fmt.Errorf("%w: log.level %q (must be debug, info, warn, or error)", ErrInvalidValue, c.Log.Level)
	}

	return nil
}

// Timeout returns the capture timeout, falling back to DefaultTimeout.
// Validate guarantees the stored value parses.
func (c *Config) Timeout() time.Duration {
	if c.Capture.Timeout == "" {
		return DefaultTimeout
	}
	d, err := time.ParseDuration(c.Capture.Timeout)
	if err != nil || d <= 0 {
		return DefaultTimeout
	}
	return d
}

// Elements returns the capture tag list, falling back to DefaultElements.
func (c *Config) Elements() []string {
	if len(c.Capture.Elements) == 0 {
		return append([]string(nil), DefaultElements...)
	}
	return c.Capture.Elements
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// isTagName accepts ASCII letters and digits, starting with a letter.
func isTagName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Vault:   VaultConfig{Path: ".", Backend: BackendFS},
		Capture: CaptureConfig{Directory: DefaultDirectory, Elements: append([]string(nil), DefaultElements...)},
		Publish: PublishConfig{Enabled: false},
		Server:  ServerConfig{Addr: DefaultAddr},
		Log:     LogConfig{Level: DefaultLogLevel},
	}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Returns error if the file is not found (no silent fallback).
//
// Fields absent from the file keep their DefaultConfig value.
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if isFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yamlutil.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// isFilePath returns true if the string looks like a file path.
func isFilePath(s string) bool {
	return strings.ContainsAny(s, "/\\")
}

// resolveConfigPath searches for a config file by name in standard locations.
// Tries extensions in order: .yaml, .yml
// Tries locations in order: current directory, ~/.config/go-vaultshot/
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	triedPaths := make([]string, 0, len(extensions)*2) // 2 locations

	// Try current directory first (both extensions)
	for _, ext := range extensions {
		localPath := name + ext
		if fileExists(localPath) {
			return localPath, nil
		}
		triedPaths = append(triedPaths, localPath)
	}

	// Try user config directory (both extensions)
	userConfigDir, err := os.UserConfigDir()
	if err == nil {
		for _, ext := range extensions {
			userPath := filepath.Join(userConfigDir, "go-vaultshot", name+ext)
			if fileExists(userPath) {
				return userPath, nil
			}
			triedPaths = append(triedPaths, userPath)
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(triedPaths, ", "))
}

// fileExists returns true if the path exists and is a regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
