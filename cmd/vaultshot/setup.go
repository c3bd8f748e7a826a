package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	vaultshot "github.com/alnah/go-vaultshot"
	"github.com/alnah/go-vaultshot/internal/assets"
	"github.com/alnah/go-vaultshot/internal/config"
	"github.com/alnah/go-vaultshot/internal/fileutil"
	"github.com/alnah/go-vaultshot/internal/hints"
	"github.com/alnah/go-vaultshot/internal/vault"
)

// ErrOpenVault indicates the configured vault could not be opened.
var ErrOpenVault = errors.New("failed to open vault")

// defaultDatabase is the sqlite file name inside the vault root.
const defaultDatabase = ".vaultshot.db"

// logTimeFormat matches the HH:MM:SS.cc stamps of the CLI logs.
const logTimeFormat = "15:04:05.00"

// loadSettings resolves the configuration for a command: config file, then
// VAULTSHOT_* variables. Flags are merged by the caller.
func loadSettings(common commonFlags, env *envConfig) (*config.Config, error) {
	name := common.config
	if name == "" {
		name = env.ConfigPath
	}

	cfg := config.DefaultConfig()
	if name != "" {
		loaded, err := config.LoadConfig(name)
		if errors.Is(err, config.ErrConfigNotFound) {
			return nil, fmt.Errorf("loading config: %w%s", err, hints.ForConfigNotFound(name))
		}
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}

	applyEnvConfig(env, cfg)
	return cfg, nil
}

// mergeVaultFlags merges vault flags into config. CLI values override config values.
func mergeVaultFlags(f vaultFlags, cfg *config.Config) {
	if f.path != "" {
		cfg.Vault.Path = f.path
	}
	if f.backend != "" {
		cfg.Vault.Backend = f.backend
	}
	if f.database != "" {
		cfg.Vault.Database = f.database
	}
}

// mergeCaptureFlags merges capture flags into config. CLI values override config values.
func mergeCaptureFlags(f captureFlags, cfg *config.Config) error {
	if f.directory != "" {
		cfg.Capture.Directory = f.directory
	}
	if len(f.elements) > 0 {
		cfg.Capture.Elements = f.elements
	}
	style, err := parseStylePairs(f.style)
	if err != nil {
		return err
	}
	if len(style) > 0 {
		if cfg.Capture.Style == nil {
			cfg.Capture.Style = make(map[string]string, len(style))
		}
		for k, v := range style {
			cfg.Capture.Style[k] = v
		}
	}
	if f.theme != "" {
		cfg.Capture.Theme = f.theme
	}
	if f.assetsDir != "" {
		cfg.Capture.AssetsDir = f.assetsDir
	}
	if f.timeout != "" {
		cfg.Capture.Timeout = f.timeout
	}
	return nil
}

// mergeBrowserFlags merges browser flags into config. CLI values override config values.
func mergeBrowserFlags(f browserFlags, cfg *config.Config) {
	if f.bin != "" {
		cfg.Browser.Bin = f.bin
	}
	if f.noSandbox {
		cfg.Browser.NoSandbox = true
	}
}

// newLogger builds the stderr logger. --verbose wins over --quiet, and
// both win over log.level.
func newLogger(w io.Writer, level string, common commonFlags) *log.Logger {
	lvl, err := log.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = log.InfoLevel
	}
	switch {
	case common.verbose:
		lvl = log.DebugLevel
	case common.quiet:
		lvl = log.ErrorLevel
	}
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      logTimeFormat,
		Level:           lvl,
	})
}

// openStore opens the configured vault backend. The returned close function
// is never nil.
func openStore(ctx context.Context, cfg *config.Config) (vaultshot.Store, func() error, error) {
	switch strings.ToLower(cfg.Vault.Backend) {
	case "", config.BackendFS:
		s, err := vault.NewFSStore(cfg.Vault.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %w", ErrOpenVault, err)
		}
		return s, func() error { return nil }, nil
	case config.BackendSQLite:
		db := cfg.Vault.Database
		if db == "" {
			db = filepath.Join(cfg.Vault.Path, defaultDatabase)
		}
		s, err := vault.OpenSQLite(ctx, db)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %w", ErrOpenVault, err)
		}
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("%w: vault.backend %q", config.ErrInvalidValue, cfg.Vault.Backend)
	}
}

// imageBaseFor returns the default URL prefix for snapshot images: the
// vault root as a file URL for directory vaults, nothing otherwise.
func imageBaseFor(store vaultshot.Store) string {
	if fs, ok := store.(*vault.FSStore); ok {
		return fileutil.FileURL(fs.Root())
	}
	return ""
}

// resolveCSS loads the note stylesheet named by capture.theme, looking in
// capture.assetsDir first.
func resolveCSS(cfg *config.Config) (string, error) {
	resolver, err := assets.NewAssetResolver(cfg.Capture.AssetsDir)
	if err != nil {
		return "", err
	}
	return resolver.ResolveStyle(cfg.Capture.Theme)
}

// exporterOptions translates the configuration into exporter options.
func exporterOptions(cfg *config.Config, trace bool, logger *log.Logger) []vaultshot.Option {
	opts := []vaultshot.Option{
		vaultshot.WithTimeout(cfg.Timeout()),
		vaultshot.WithLogger(logger),
		vaultshot.WithRasterLogging(trace),
	}
	if cfg.Browser.Bin != "" {
		opts = append(opts, vaultshot.WithBrowserBin(cfg.Browser.Bin))
	}
	if cfg.Browser.NoSandbox {
		opts = append(opts, vaultshot.WithNoSandbox(true))
	}
	return opts
}

// resolveWorkers picks the pool size: flag, then VAULTSHOT_WORKERS, then
// the GOMAXPROCS-based default.
func resolveWorkers(flagWorkers int, env *envConfig) (int, error) {
	if flagWorkers < 0 {
		return 0, fmt.Errorf("%w: %d (must be >= 0)", ErrInvalidWorkerCount, flagWorkers)
	}
	if flagWorkers > vaultshot.MaxPoolSize {
		return 0, fmt.Errorf("%w: %d (max %d)", ErrInvalidWorkerCount, flagWorkers, vaultshot.MaxPoolSize)
	}
	if flagWorkers == 0 && env.Workers > 0 {
		flagWorkers = min(env.Workers, vaultshot.MaxPoolSize)
	}
	return vaultshot.ResolvePoolSize(flagWorkers), nil
}
